package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/stylecat/ratelimit/pkg/limiter"
	"github.com/stylecat/ratelimit/pkg/middleware"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	// one limiter per rule; REDIS_URL is picked up from the environment and
	// its absence simply keeps both rules in-process
	extractLimiter, err := limiter.New(limiter.Config{
		Interval:      time.Minute,
		MaxRequests:   10,
		BlockDuration: 30 * time.Second,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid extract rule")
	}
	pingLimiter, err := limiter.New(limiter.Config{
		Interval:    time.Second,
		MaxRequests: 5,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("invalid ping rule")
	}

	mux := http.NewServeMux()
	mux.Handle("/extract", middleware.RateLimit(extractLimiter, "extract")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("extraction accepted\n"))
		}),
	))
	mux.Handle("/ping", middleware.RateLimit(pingLimiter, "ping")(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("pong\n"))
		}),
	))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Str("redis_url", os.Getenv(limiter.RedisURLEnv)).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
	extractLimiter.Disconnect()
	pingLimiter.Disconnect()
}
