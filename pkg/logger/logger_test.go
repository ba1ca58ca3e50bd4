package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetLevel(t *testing.T) {
	prev := Level()
	defer atomicLVL.SetLevel(prev)

	SetLevel("error")
	if Level() != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %v", Level())
	}
	if L() == nil {
		t.Fatalf("logger should never be nil")
	}
}
