package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	cfg, err := Load(nil, nil)
	req.NoError(err)
	req.Equal("127.0.0.1", cfg.Host)
	req.Equal(55555, cfg.Port)
	req.Equal("127.0.0.1:55555", cfg.Addr())
	req.Empty(cfg.WSAddr)
	req.Empty(cfg.RedisAddr)
	req.Equal("chat:events", cfg.RedisStream)
	req.Equal(256, cfg.MirrorBuffer)
	req.Equal(65536, cfg.MaxLineBytes)
	req.Zero(cfg.WriteTimeout)
	req.Equal("info", cfg.LogLevel)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CHAT_HOST", "0.0.0.0")
	t.Setenv("CHAT_PORT", "6000")
	t.Setenv("CHAT_WRITE_TIMEOUT", "5s")
	t.Setenv("CHAT_WS_ADDR", "localhost:8081")

	cfg, err := Load(nil, nil)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:6000", cfg.Addr())
	require.Equal(t, 5*time.Second, cfg.WriteTimeout)
	require.Equal(t, "localhost:8081", cfg.WSAddr)
}

func TestLoad_ArgsOverrideEnvironment(t *testing.T) {
	t.Setenv("CHAT_PORT", "6000")

	cfg, err := Load([]string{"-log-level", "debug", "-metrics", "127.0.0.1:9100", "::1", "7000"}, nil)
	require.NoError(t, err)
	require.Equal(t, "[::1]:7000", cfg.Addr())
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
}

func TestLoad_HostOnly(t *testing.T) {
	cfg, err := Load([]string{"10.0.0.5"}, nil)
	require.NoError(t, err)
	require.Equal(t, "10.0.0.5:55555", cfg.Addr())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string][]string{
		"non numeric port": {"localhost", "http"},
		"port out of range": {"localhost", "70000"},
		"too many args":     {"localhost", "1", "2"},
		"bad level":         {"-log-level", "loud"},
		"unknown flag":      {"-nope"},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(args, nil)
			require.Error(t, err)
		})
	}
}
