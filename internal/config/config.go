package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"strconv"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

var validate = validator.New()

// Config holds every server setting. Environment first, command line on top.
type Config struct {
	Host         string        `env:"CHAT_HOST,default=127.0.0.1" validate:"required"`
	Port         int           `env:"CHAT_PORT,default=55555" validate:"min=1,max=65535"`
	WSAddr       string        `env:"CHAT_WS_ADDR" validate:"omitempty,hostname_port"`
	MetricsAddr  string        `env:"CHAT_METRICS_ADDR" validate:"omitempty,hostname_port"`
	RedisAddr    string        `env:"CHAT_REDIS_ADDR" validate:"omitempty,hostname_port"`
	RedisDB      int           `env:"CHAT_REDIS_DB,default=0" validate:"min=0"`
	RedisStream  string        `env:"CHAT_REDIS_STREAM,default=chat:events" validate:"required"`
	MirrorBuffer int           `env:"CHAT_MIRROR_BUFFER,default=256" validate:"min=1"`
	WriteTimeout time.Duration `env:"CHAT_WRITE_TIMEOUT,default=0s" validate:"min=0"`
	MaxLineBytes int           `env:"CHAT_MAX_LINE_BYTES,default=65536" validate:"min=64"`
	LogLevel     string        `env:"CHAT_LOG_LEVEL,default=info" validate:"oneof=debug info warn warning error"`
}

// Addr is the TCP bind address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Load reads an optional .env file, the environment, then args
// ("[flags] [host] [port]"), and validates the result.
func Load(args []string, usage io.Writer) (*Config, error) {
	_ = godotenv.Load()
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config env: %w", err)
	}
	if err := cfg.applyArgs(args, usage); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}
	return &cfg, nil
}

func (c *Config) applyArgs(args []string, usage io.Writer) error {
	fs := flag.NewFlagSet("chat-relay", flag.ContinueOnError)
	if usage != nil {
		fs.SetOutput(usage)
	} else {
		fs.SetOutput(io.Discard)
	}
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Launch text chat relay over TCP\n\n\tchat-relay [options] [host] [port]\n\nOptions:\n")
		fs.PrintDefaults()
	}
	fs.StringVar(&c.WSAddr, "ws", c.WSAddr, "WebSocket listen address, empty disables")
	fs.StringVar(&c.MetricsAddr, "metrics", c.MetricsAddr, "metrics/health listen address, empty disables")
	fs.StringVar(&c.RedisAddr, "redis", c.RedisAddr, "Redis address for the event mirror, empty disables")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug|info|warn|error")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rest := fs.Args()
	if len(rest) > 2 {
		return fmt.Errorf("unexpected arguments: %v", rest[2:])
	}
	if len(rest) >= 1 {
		c.Host = rest[0]
	}
	if len(rest) == 2 {
		port, err := strconv.Atoi(rest[1])
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", rest[1], err)
		}
		c.Port = port
	}
	return nil
}
