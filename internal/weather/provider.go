package weather

import "context"

// Provider abstracts a weather data source (e.g. OpenWeatherMap). Fetch
// returns a complete snapshot or an error; no partial results.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, loc Location) (Snapshot, error)
}
