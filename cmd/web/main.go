package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dcabot/internal/app/webserver"
	"dcabot/internal/config"

	"github.com/rs/zerolog"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("конфигурация не собралась")
	}

	srv, err := webserver.New(context.Background(), cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("сервер не собрался")
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Error().Err(err).Msg("http server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	} else {
		log.Info().Msg("server stopped gracefully")
	}
}
