package transport

import (
	"fmt"
)

// 传输层错误定义
var (
	ErrConnClosed  = NewTpError(1001, "Connection is closed", "")
	ErrLineTooLong = NewTpError(1003, "Line too long", "")
)

type tpError struct {
	code    int
	msg     string
	context string
}

func (e *tpError) Error() string {
	if e.context != "" {
		return fmt.Sprintf("Error %d: %s (context: %s)", e.code, e.msg, e.context)
	}
	return fmt.Sprintf("Error %d: %s", e.code, e.msg)
}

// Code returns the numeric transport error code.
func (e *tpError) Code() int { return e.code }

func NewTpError(code int, message string, context string) *tpError {
	return &tpError{
		code:    code,
		msg:     message,
		context: context,
	}
}
