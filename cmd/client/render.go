package main

import (
	"strings"

	"github.com/gookit/color"
)

type tag int

const (
	tagPlain tag = iota
	tagAll
	tagPrivate
	tagNotice
	tagOK
	tagError
)

func tagOf(line string) tag {
	switch {
	case strings.HasPrefix(line, "[all]"):
		return tagAll
	case strings.HasPrefix(line, "[pm]"):
		return tagPrivate
	case strings.HasPrefix(line, "[notice]"):
		return tagNotice
	case strings.HasPrefix(line, "[ok]"):
		return tagOK
	case strings.HasPrefix(line, "[error]"):
		return tagError
	default:
		return tagPlain
	}
}

// decorate marks the user's own broadcasts, which the server echoes back.
func decorate(line, self string) string {
	own := "[all][" + self + "] "
	if self != "" && strings.HasPrefix(line, own) {
		return "[all][" + self + "](You) " + line[len(own):]
	}
	return line
}

var styles = map[tag]color.Style{
	tagAll:     color.New(color.FgWhite),
	tagPrivate: color.New(color.FgMagenta, color.OpBold),
	tagNotice:  color.New(color.FgYellow),
	tagOK:      color.New(color.FgGreen),
	tagError:   color.New(color.FgRed, color.OpBold),
}

func render(line, self string) string {
	line = decorate(line, self)
	if st, ok := styles[tagOf(line)]; ok {
		return st.Render(line)
	}
	return line
}
