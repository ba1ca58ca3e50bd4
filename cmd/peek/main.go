package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/hongjun500/chat-relay/internal/bus/redisstream"
)

func format(e *redisstream.Event) string {
	ts := e.When.Format(time.RFC3339)
	switch e.Type {
	case "unicast":
		return fmt.Sprintf("%s %-9s %s -> %s: %s", ts, e.Type, e.From, e.To, e.Text)
	case "broadcast":
		return fmt.Sprintf("%s %-9s %s: %s", ts, e.Type, e.From, e.Text)
	default:
		return fmt.Sprintf("%s %-9s %s", ts, e.Type, e.Text)
	}
}

func main() {
	var (
		addr     = flag.String("redis", "localhost:6379", "redis address")
		db       = flag.Int("db", 0, "redis db")
		stream   = flag.String("stream", "chat:events", "stream key")
		group    = flag.String("group", "peek", "consumer group")
		consumer = flag.String("consumer", "", "consumer name (random when empty)")
	)
	flag.Parse()
	if *consumer == "" {
		*consumer = "peek-" + uuid.NewString()[:8]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bus := redisstream.New(*addr, *db, *stream, *group)
	defer bus.Close()
	if err := bus.EnsureGroup(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "create group: %v\n", err)
		os.Exit(1)
	}

	err := bus.Consume(ctx, *consumer, func(_ context.Context, e *redisstream.Event) error {
		fmt.Println(format(e))
		return nil
	})
	if err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "consume: %v\n", err)
		os.Exit(1)
	}
}
