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

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mafiacore/internal/collab"
	"mafiacore/internal/config"
	"mafiacore/internal/game/events"
	"mafiacore/internal/server"
)

func main() {
	// Command line flags
	configPath := flag.String("config", "", "Path to config file")
	port := flag.Int("port", -1, "The server port (-1 to use config default)")
	host := flag.String("host", "", "The server host (empty to use config default)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	flag.Parse()

	// Initialize configuration
	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}

	cfg := config.Get()

	// Use config defaults if not overridden by flags
	if *port == -1 {
		*port = cfg.Server.Port
	}
	if *host == "" {
		*host = cfg.Server.Host
	}
	if *logLevel == "" {
		*logLevel = cfg.Server.LogLevel
	}

	setupLogging(*logLevel, cfg.Server.LogFormat)

	log.Info().
		Int("port", *port).
		Str("host", *host).
		Int("max_matches", cfg.Server.MaxMatches).
		Int("min_players", cfg.Game.MinPlayers).
		Msg("Starting match server")

	// Event persistence is optional; without a DSN matches are memory-only.
	var store *events.SQLStore
	if cfg.Events.StoreDSN != "" {
		var err error
		store, err = events.OpenStore(cfg.Events.StoreDSN)
		if err != nil {
			log.Fatal().Err(err).Str("dsn", cfg.Events.StoreDSN).Msg("Failed to open event store")
		}
		defer store.Close()
		log.Info().Str("dsn", cfg.Events.StoreDSN).Msg("Event store opened")
	}

	// The collab bridge mirrors match events onto NATS for sibling
	// services (shop, chat, rumor mill).
	var busPub collab.Publisher
	if cfg.Collab.Enabled {
		nc, err := nats.Connect(cfg.Collab.NatsURL,
			nats.RetryOnFailedConnect(true),
			nats.MaxReconnects(-1),
		)
		if err != nil {
			log.Fatal().Err(err).Str("url", cfg.Collab.NatsURL).Msg("Failed to connect to NATS")
		}
		defer nc.Close()
		busPub = nc
		log.Info().Str("url", cfg.Collab.NatsURL).Msg("Collab bridge connected")
	}

	manager := server.NewMatchManager(cfg, store, busPub, log.Logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", *host, *port),
		Handler: server.NewServer(manager, log.Logger).SetupRouter(),
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go manager.RunCleanup(ctx)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			cfg.Server.GracefulShutdownDelay)
		defer shutdownCancel()

		log.Info().Msg("Gracefully stopping HTTP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Forced shutdown")
		}
		cancel()
	}()

	log.Info().Str("address", httpServer.Addr).Msg("HTTP server listening")

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to serve")
		}
	}()

	// Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("Server shutdown complete")
}

func setupLogging(level, format string) {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	if format == "json" || os.Getenv("APP_ENV") == "production" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		})
	}
}
