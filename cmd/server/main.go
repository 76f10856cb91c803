package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emiller/chatrelay/internal/config"
	"github.com/emiller/chatrelay/internal/relay"
	"github.com/emiller/chatrelay/internal/room"
	"github.com/emiller/chatrelay/internal/server"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var dir room.Directory = room.NewMemoryDirectory()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Fatalf("Failed to connect to Redis at %s: %v", cfg.RedisAddr, err)
		}
		log.Printf("Connected to Redis at %s", cfg.RedisAddr)
		dir = room.NewRedisDirectory(rdb)
	}

	opts := []relay.ConnManagerOption{relay.WithSendBuffer(cfg.SendBuffer)}
	if cfg.MaxConns > 0 {
		opts = append(opts, relay.WithMaxConns(cfg.MaxConns))
	}
	if cfg.IdleTimeout > 0 {
		opts = append(opts, relay.WithIdleTimeout(cfg.IdleTimeout))
	}

	srv := server.New(cfg.ListenAddr, relay.New(dir, opts...))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()
	log.Printf("Starting chatrelay server on %s", cfg.ListenAddr)

	select {
	case err := <-errCh:
		log.Fatalf("Server error: %v", err)
	case <-ctx.Done():
		log.Printf("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}
}
