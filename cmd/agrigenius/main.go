package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpapi "github.com/agrigenius/core/internal/api/http"
	"github.com/agrigenius/core/internal/chat"
	"github.com/agrigenius/core/internal/config"
	"github.com/agrigenius/core/internal/history"
	"github.com/agrigenius/core/internal/llm"
	"github.com/agrigenius/core/internal/scheduler"
	"github.com/agrigenius/core/internal/soil"
	"github.com/agrigenius/core/internal/translate"
	"github.com/agrigenius/core/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	initLogger(cfg.IsProduction())

	// Shared HTTP client for outbound upstream calls; per-adapter timeouts
	// are applied on each request's context.
	httpClient := &http.Client{}

	weatherProvider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.WeatherTimeout)
	soilEstimator := soil.NewNASAPowerEstimator(httpClient, cfg.SoilTimeout)

	translator := translate.NewService(newTranslateBackend(httpClient, cfg))
	gateway := llm.NewOllamaCloudClient(httpClient, cfg.OllamaEndpoint, cfg.OllamaAPIKey, cfg.OllamaModel, cfg.LLMTimeout)

	store, closeStore := newHistoryStore(cfg)
	defer closeStore()

	orchestrator := chat.NewOrchestrator(weatherProvider, soilEstimator, translator, gateway, store)

	// Background upstream readiness probe for /health.
	probe := scheduler.New(weatherProvider, soilEstimator, cfg.DefaultLocation(), cfg.ProbeInterval)
	if err := probe.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start upstream probe")
	}
	defer probe.Stop()

	app := httpapi.NewApp(httpapi.Deps{
		Orchestrator:    orchestrator,
		Weather:         weatherProvider,
		Soil:            soilEstimator,
		Translator:      translator,
		Probe:           probe,
		DefaultLocation: cfg.DefaultLocation(),
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}

	// Drain detached history writes before the process exits.
	orchestrator.Flush()
}

func initLogger(production bool) {
	if production {
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
		return
	}
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Caller().Logger().Level(zerolog.DebugLevel)
}

func newTranslateBackend(client *http.Client, cfg *config.AppConfig) translate.Backend {
	if cfg.TranslateBackend == "signed" {
		return translate.NewSignedGateway(client, cfg.TranslateEndpoint, cfg.TranslateAppID, cfg.TranslateSecret, cfg.TranslateTimeout)
	}
	return translate.NewLibreTranslate(client, cfg.LibreTranslateURL, cfg.TranslateTimeout)
}

func newHistoryStore(cfg *config.AppConfig) (history.Store, func()) {
	if cfg.RedisURL == "" {
		log.Info().Msg("no REDIS_URL configured; history kept in memory")
		return history.NewMemoryStore(), func() {}
	}

	client, err := history.NewRedisClient(cfg.RedisURL, cfg.RedisTimeout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	return history.NewRedisStore(client, cfg.HistoryListKey), func() { client.Close() }
}
