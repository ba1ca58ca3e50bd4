package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hongjun500/chat-relay/internal/bus/redisstream"
	"github.com/hongjun500/chat-relay/internal/chat"
	"github.com/hongjun500/chat-relay/internal/config"
	"github.com/hongjun500/chat-relay/internal/observe"
	"github.com/hongjun500/chat-relay/internal/transport"
	"github.com/hongjun500/chat-relay/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg, err := config.Load(args, os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	logger.SetLevel(cfg.LogLevel)
	log := logger.L()
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []chat.Option{chat.WithLogger(log)}
	mirrorDone := make(chan struct{})
	mirrorCtx, stopMirror := context.WithCancel(context.Background())
	defer stopMirror()
	if cfg.RedisAddr != "" {
		bus := redisstream.New(cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, "")
		defer bus.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := bus.Ping(pingCtx); err != nil {
			log.Warn("redis_unreachable", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		cancel()
		mirror := redisstream.NewMirror(bus, cfg.MirrorBuffer, log.Named("mirror"))
		go func() { mirror.Run(mirrorCtx); close(mirrorDone) }()
		opts = append(opts, chat.WithMirror(mirror))
		log.Info("mirror_enabled", zap.String("addr", cfg.RedisAddr), zap.String("stream", cfg.RedisStream))
	} else {
		close(mirrorDone)
	}

	relay := chat.NewRelay(opts...)
	topt := transport.Options{WriteTimeout: cfg.WriteTimeout, MaxLineBytes: cfg.MaxLineBytes}

	tcp := transport.NewTCPServer(cfg.Addr(), relay, topt, log)
	if err := tcp.Listen(); err != nil {
		log.Error("listen_failed", zap.String("transport", tcp.Name()), zap.String("addr", cfg.Addr()), zap.Error(err))
		return 1
	}

	var metrics *http.Server
	if cfg.MetricsAddr != "" {
		metrics = observe.NewServer(cfg.MetricsAddr)
		go func() {
			log.Info("metrics_listen", zap.String("addr", cfg.MetricsAddr))
			if err := metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics_server_error", zap.Error(err))
			}
		}()
	}

	var ws *transport.WebSocketServer
	if cfg.WSAddr != "" {
		ws = transport.NewWebSocketServer(cfg.WSAddr, relay, topt, log)
		go func() {
			if err := ws.ListenAndServe(); err != nil {
				log.Error("server_error", zap.String("transport", ws.Name()), zap.Error(err))
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- tcp.Serve() }()

	select {
	case <-ctx.Done():
		log.Info("signal_received")
	case err := <-serveErr:
		if err != nil {
			log.Error("server_error", zap.String("transport", tcp.Name()), zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if ws != nil {
		_ = ws.Shutdown(shutdownCtx)
	}
	_ = tcp.Shutdown()
	if metrics != nil {
		_ = metrics.Shutdown(shutdownCtx)
	}
	stopMirror()
	<-mirrorDone
	return 0
}
