package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"energy_controller/internal/config"
	"energy_controller/internal/engine"
	"energy_controller/internal/httpapi"
	"energy_controller/internal/logging"
	"energy_controller/internal/model"
	"energy_controller/internal/store"
	"energy_controller/internal/transport/mqtt"
	"energy_controller/internal/ws"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML configuration file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogPretty)
	instanceID := uuid.NewString()

	st, err := store.Open(cfg.StoreDBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("opening persistent store")
	}
	defer st.Close()

	eng := engine.New(cfg, st, logger, nil)

	latest := &engine.LatestTracker{}
	eng.Subscribe(latest)

	hub := ws.NewHub(logger)
	eng.Subscribe(ws.NewBridge(hub, logger))

	tickCh := make(chan model.TickInput, 16)

	transport, err := mqtt.New(cfg.MQTTBroker, "controller-daemon-"+instanceID, cfg.MQTTTelemetryTopic, cfg.MQTTCommandTopic, func(t mqtt.Telemetry) {
		tickCh <- t.ToTickInput()
	})
	if err != nil {
		logger.Warn().Err(err).Msg("mqtt transport unavailable, running without telemetry ingestion")
	} else {
		defer transport.Close()
	}

	wsHandler := ws.NewHandler(hub, latest, instanceID, logger)
	router := httpapi.NewRouter(latest, wsHandler)

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("starting http server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Duration(cfg.TickIntervalSec) * time.Second)
	defer ticker.Stop()

	var lastInput model.TickInput
	haveInput := false

	logger.Info().Str("instance_id", instanceID).Msg("controller daemon started")

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("http server did not shut down cleanly")
			}
			cancel()
			return

		case in := <-tickCh:
			lastInput = in
			haveInput = true

		case <-ticker.C:
			if !haveInput {
				continue
			}
			cmd := eng.Tick(lastInput)
			if transport != nil {
				if err := transport.PublishCommand(cmd); err != nil {
					logger.Warn().Err(err).Msg("publishing command")
				}
			}
		}
	}
}
