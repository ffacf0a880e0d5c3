package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"

	"github.com/agrigenius/core/internal/weather"
)

// AppConfig holds every tunable of the service, sourced from the environment
// (a .env file backs local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	Port        string `envconfig:"PORT" default:"8080"`

	// Upstream credentials and endpoints.
	OpenWeatherAPIKey string `envconfig:"OPENWEATHER_API_KEY"`
	OllamaAPIKey      string `envconfig:"OLLAMA_API_KEY"`
	OllamaEndpoint    string `envconfig:"OLLAMA_ENDPOINT"`
	OllamaModel       string `envconfig:"OLLAMA_MODEL" default:"llama3.1"`

	// Translation backend: "libretranslate" (plain JSON) or "signed"
	// (HMAC-signed self-hosted gateway).
	TranslateBackend  string `envconfig:"TRANSLATE_BACKEND" default:"libretranslate"`
	LibreTranslateURL string `envconfig:"LIBRETRANSLATE_URL"`
	TranslateEndpoint string `envconfig:"TRANSLATE_ENDPOINT"`
	TranslateAppID    string `envconfig:"TRANSLATE_APP_ID"`
	TranslateSecret   string `envconfig:"TRANSLATE_SECRET"`

	// History store. Empty REDIS_URL selects the in-memory store.
	RedisURL       string `envconfig:"REDIS_URL"`
	HistoryListKey string `envconfig:"HISTORY_LIST_KEY"`

	// Per-upstream timeouts.
	WeatherTimeout   time.Duration `envconfig:"WEATHER_TIMEOUT" default:"10s"`
	SoilTimeout      time.Duration `envconfig:"SOIL_TIMEOUT" default:"10s"`
	TranslateTimeout time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"8s"`
	LLMTimeout       time.Duration `envconfig:"LLM_TIMEOUT" default:"30s"`
	RedisTimeout     time.Duration `envconfig:"REDIS_TIMEOUT" default:"3s"`

	// Fixed fallback location for requests that omit one.
	DefaultLatitude  float64 `envconfig:"DEFAULT_LATITUDE" default:"18.52"`
	DefaultLongitude float64 `envconfig:"DEFAULT_LONGITUDE" default:"73.86"`
	DefaultDistrict  string  `envconfig:"DEFAULT_DISTRICT" default:"Pune"`

	// Upstream health probe interval; 0 disables the probe.
	ProbeInterval time.Duration `envconfig:"PROBE_INTERVAL" default:"15m"`
}

// Load reads configuration from the environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Info().Msgf("no .env file found or error loading it: %v", err)
	}

	cfg := &AppConfig{}
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, nil
}

// DefaultLocation returns the configured fallback coordinate.
func (c *AppConfig) DefaultLocation() weather.Location {
	return weather.Location{
		Latitude:  c.DefaultLatitude,
		Longitude: c.DefaultLongitude,
		District:  c.DefaultDistrict,
	}
}

// IsProduction reports whether the service runs with production settings.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}
