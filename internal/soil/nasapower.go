package soil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/agrigenius/core/internal/errx"
	"github.com/agrigenius/core/internal/weather"
)

// windowDays is the trailing period the climate aggregates cover.
const windowDays = 7

// Estimator derives a soil snapshot for a coordinate.
type Estimator interface {
	Name() string
	Estimate(ctx context.Context, loc weather.Location) (Snapshot, error)
}

// NASAPowerEstimator queries the NASA POWER daily-point archive for a
// trailing 7-day window and derives soil moisture from the climate series.
type NASAPowerEstimator struct {
	name    string
	baseURL string
	client  *http.Client
	timeout time.Duration
	circuit *gobreaker.CircuitBreaker
	now     func() time.Time
}

func NewNASAPowerEstimator(client *http.Client, timeout time.Duration) *NASAPowerEstimator {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "nasa-power",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	return &NASAPowerEstimator{
		name:    "nasa-power",
		baseURL: "https://power.larc.nasa.gov/api/temporal/daily/point",
		client:  client,
		timeout: timeout,
		circuit: cb,
		now:     time.Now,
	}
}

func (e *NASAPowerEstimator) Name() string {
	return e.name
}

// SetBaseURL overrides the archive endpoint. Used by tests.
func (e *NASAPowerEstimator) SetBaseURL(u string) {
	e.baseURL = u
}

// SetClock overrides the clock the window calculation uses. Used by tests.
func (e *NASAPowerEstimator) SetClock(now func() time.Time) {
	e.now = now
}

type powerPayload struct {
	Properties struct {
		Parameter struct {
			Precipitation  map[string]float64 `json:"PRECTOTCORR"`
			Humidity       map[string]float64 `json:"RH2M"`
			Temperature    map[string]float64 `json:"T2M"`
			SolarDownwards map[string]float64 `json:"ALLSKY_SFC_SW_DWN"`
		} `json:"parameter"`
	} `json:"properties"`
}

// Estimate fetches the daily series and computes the snapshot. An empty
// series yields InsufficientData rather than a NaN-laden snapshot.
func (e *NASAPowerEstimator) Estimate(ctx context.Context, loc weather.Location) (Snapshot, error) {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	end := e.now()
	start := end.AddDate(0, 0, -windowDays)

	values := url.Values{}
	values.Set("parameters", "PRECTOTCORR,RH2M,T2M,ALLSKY_SFC_SW_DWN")
	values.Set("community", "AG")
	values.Set("longitude", strconv.FormatFloat(loc.Longitude, 'f', -1, 64))
	values.Set("latitude", strconv.FormatFloat(loc.Latitude, 'f', -1, 64))
	values.Set("start", start.Format("20060102"))
	values.Set("end", end.Format("20060102"))
	values.Set("format", "JSON")

	u := fmt.Sprintf("%s?%s", e.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Snapshot{}, errx.Upstream(e.name, err)
	}

	result, err := e.circuit.Execute(func() (interface{}, error) {
		resp, execErr := e.client.Do(req)
		if execErr != nil {
			return nil, execErr
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
		return resp, nil
	})
	if err != nil {
		log.Error().Err(err).Str("provider", e.name).Msg("climate archive fetch failed")
		return Snapshot{}, errx.Upstream(e.name, err)
	}

	resp := result.(*http.Response)
	defer resp.Body.Close()

	var payload powerPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Snapshot{}, errx.Upstream(e.name, err)
	}

	param := payload.Properties.Parameter
	if len(param.Precipitation) == 0 || len(param.Humidity) == 0 ||
		len(param.Temperature) == 0 || len(param.SolarDownwards) == 0 {
		return Snapshot{}, errx.InsufficientData("climate archive returned an empty series")
	}

	avgPrecip := mean(seriesValues(param.Precipitation))
	avgHumidity := mean(seriesValues(param.Humidity))
	avgTemp := mean(seriesValues(param.Temperature))
	avgSolar := mean(seriesValues(param.SolarDownwards))

	moisture := EstimateMoisture(avgPrecip, avgHumidity)
	status := Classify(moisture)

	return Snapshot{
		Location: weather.LocationEcho{
			District: loc.District,
			Coordinates: weather.Coordinates{
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
			},
		},
		Soil: Conditions{
			MoisturePercentage: round1(moisture),
			Temperature:        round1(avgTemp),
			Status:             status,
		},
		Climate: Climate{
			AvgPrecipitationMM: round1(avgPrecip),
			AvgHumidityPercent: round1(avgHumidity),
			AvgSolarRadiation:  round1(avgSolar),
		},
		Recommendation: Recommend(status),
	}, nil
}

func seriesValues(series map[string]float64) []float64 {
	out := make([]float64, 0, len(series))
	for _, v := range series {
		out = append(out, v)
	}
	return out
}
