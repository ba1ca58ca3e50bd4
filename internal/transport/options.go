package transport

import "time"

const defaultMaxLineBytes = 64 * 1024

// Options configures the line transports (shared across TCP/WS where applicable)
type Options struct {
	WriteTimeout time.Duration // per-line write deadline; 0 to disable
	MaxLineBytes int           // longest accepted input line, default 64KiB
}

func (o Options) maxLine() int {
	if o.MaxLineBytes <= 0 {
		return defaultMaxLineBytes
	}
	return o.MaxLineBytes
}
