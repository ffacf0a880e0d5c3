package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrigenius/core/internal/errx"
	"github.com/agrigenius/core/internal/weather"
)

func newTestServer(t *testing.T, forecastEntries int, failCurrent bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/weather":
			if failCurrent {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			fmt.Fprint(w, `{
				"name": "Pune",
				"main": {"temp": 28, "feels_like": 30.2, "humidity": 60, "pressure": 1009},
				"weather": [{"description": "clear sky"}],
				"wind": {"speed": 3},
				"clouds": {"all": 10}
			}`)
		case "/forecast":
			fmt.Fprint(w, `{"list": [`)
			for i := 0; i < forecastEntries; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{
					"dt_txt": "2026-08-28 %02d:00:00",
					"main": {"temp": 27, "humidity": 65},
					"weather": [{"description": "few clouds"}],
					"pop": 0.25
				}`, i%24)
			}
			fmt.Fprint(w, `]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestFetchJoinsCurrentAndForecast(t *testing.T) {
	srv := newTestServer(t, 3, false)
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "test-key", 5*time.Second)
	p.SetBaseURL(srv.URL)

	snap, err := p.Fetch(context.Background(), weather.Location{Latitude: 18.52, Longitude: 73.86, District: "Pune"})
	require.NoError(t, err)

	assert.Equal(t, 28.0, snap.Current.Temperature)
	assert.Equal(t, 60.0, snap.Current.Humidity)
	assert.Equal(t, "clear sky", snap.Current.Description)
	assert.Equal(t, "Pune", snap.Location.District)
	assert.Len(t, snap.Forecast, 3)
	// pop is a 0-1 fraction upstream, a 0-100 percentage here.
	assert.Equal(t, 25.0, snap.Forecast[0].RainProbability)
}

func TestFetchTruncatesForecastToEight(t *testing.T) {
	srv := newTestServer(t, 40, false)
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "test-key", 5*time.Second)
	p.SetBaseURL(srv.URL)

	snap, err := p.Fetch(context.Background(), weather.Location{Latitude: 18.52, Longitude: 73.86})
	require.NoError(t, err)
	require.Len(t, snap.Forecast, 8)

	// Original upstream order is preserved.
	for i, entry := range snap.Forecast {
		assert.Equal(t, fmt.Sprintf("2026-08-28 %02d:00:00", i), entry.Datetime)
	}
}

func TestFetchFailsWhenEitherCallFails(t *testing.T) {
	srv := newTestServer(t, 3, true)
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "test-key", 5*time.Second)
	p.SetBaseURL(srv.URL)

	_, err := p.Fetch(context.Background(), weather.Location{Latitude: 18.52, Longitude: 73.86})
	require.Error(t, err)

	var appErr *errx.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, errx.KindUpstreamUnavailable, appErr.Kind)
	assert.Contains(t, appErr.Message, "openweather")
}

func TestFetchRequiresAPIKey(t *testing.T) {
	p := NewOpenWeatherProvider(http.DefaultClient, "", time.Second)
	_, err := p.Fetch(context.Background(), weather.Location{})
	require.Error(t, err)
}

func TestFetchFallsBackToProviderPlaceName(t *testing.T) {
	srv := newTestServer(t, 1, false)
	defer srv.Close()

	p := NewOpenWeatherProvider(srv.Client(), "test-key", 5*time.Second)
	p.SetBaseURL(srv.URL)

	snap, err := p.Fetch(context.Background(), weather.Location{Latitude: 18.52, Longitude: 73.86})
	require.NoError(t, err)
	assert.Equal(t, "Pune", snap.Location.District)
}
