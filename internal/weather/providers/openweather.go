package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/agrigenius/core/internal/errx"
	"github.com/agrigenius/core/internal/weather"
)

// maxForecastEntries bounds the forecast to the next 24 hours of 3-hour steps.
const maxForecastEntries = 8

// OpenWeatherProvider implements weather.Provider for OpenWeatherMap. One
// Fetch issues the current-conditions and forecast calls concurrently; both
// must succeed.
type OpenWeatherProvider struct {
	name    string
	apiKey  string
	baseURL string
	client  *http.Client
	timeout time.Duration
	circuit *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey string, timeout time.Duration) *OpenWeatherProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &OpenWeatherProvider{
		name:    "openweather",
		apiKey:  apiKey,
		baseURL: "https://api.openweathermap.org/data/2.5",
		client:  client,
		timeout: timeout,
		circuit: cb,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

// SetBaseURL overrides the provider endpoint. Used by tests.
func (p *OpenWeatherProvider) SetBaseURL(u string) {
	p.baseURL = u
}

type owmCurrentPayload struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}

type owmForecastPayload struct {
	List []struct {
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp     float64 `json:"temp"`
			Humidity float64 `json:"humidity"`
		} `json:"main"`
		Weather []struct {
			Description string `json:"description"`
		} `json:"weather"`
		Pop float64 `json:"pop"`
	} `json:"list"`
}

// Fetch retrieves current conditions and the 3-hourly forecast concurrently
// and joins them into a snapshot. Either call failing fails the whole fetch;
// the caller gets no partial context.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, loc weather.Location) (weather.Snapshot, error) {
	if p.apiKey == "" {
		return weather.Snapshot{}, errx.Upstream(p.name, fmt.Errorf("api key not configured"))
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var (
		wg          sync.WaitGroup
		current     owmCurrentPayload
		forecast    owmForecastPayload
		currentErr  error
		forecastErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		currentErr = p.getJSON(ctx, "/weather", loc, &current)
	}()
	go func() {
		defer wg.Done()
		forecastErr = p.getJSON(ctx, "/forecast", loc, &forecast)
	}()
	wg.Wait()

	if currentErr != nil {
		log.Error().Err(currentErr).Str("provider", p.name).Msg("current conditions fetch failed")
		return weather.Snapshot{}, errx.Upstream(p.name, currentErr)
	}
	if forecastErr != nil {
		log.Error().Err(forecastErr).Str("provider", p.name).Msg("forecast fetch failed")
		return weather.Snapshot{}, errx.Upstream(p.name, forecastErr)
	}

	district := loc.District
	if district == "" {
		district = current.Name
	}

	snap := weather.Snapshot{
		Current: weather.Current{
			Temperature: current.Main.Temp,
			FeelsLike:   current.Main.FeelsLike,
			Humidity:    current.Main.Humidity,
			Pressure:    current.Main.Pressure,
			Description: firstDescription(current.Weather),
			WindSpeed:   current.Wind.Speed,
			Clouds:      current.Clouds.All,
		},
		Location: weather.LocationEcho{
			District: district,
			Coordinates: weather.Coordinates{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
			},
		},
	}

	for i, item := range forecast.List {
		if i >= maxForecastEntries {
			break
		}
		desc := ""
		if len(item.Weather) > 0 {
			desc = item.Weather[0].Description
		}
		snap.Forecast = append(snap.Forecast, weather.ForecastEntry{
			Datetime:        item.DtTxt,
			Temperature:     item.Main.Temp,
			Humidity:        item.Main.Humidity,
			Description:     desc,
			RainProbability: item.Pop * 100,
		})
	}

	return snap, nil
}

func (p *OpenWeatherProvider) getJSON(ctx context.Context, path string, loc weather.Location, out interface{}) error {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
		values.Set("appid", p.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}

func firstDescription(items []struct {
	Description string `json:"description"`
}) string {
	if len(items) == 0 {
		return ""
	}
	return items[0].Description
}
