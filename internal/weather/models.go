package weather

// Location is the coordinate a farmer is asking about. Immutable input,
// supplied by the caller; the HTTP layer falls back to a configured default
// when absent.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	District  string  `json:"district"`
}

// Current holds normalized present-moment conditions for a coordinate.
// Units: °C, %, hPa, m/s.
type Current struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	Description string  `json:"description"`
	WindSpeed   float64 `json:"wind_speed"`
	Clouds      float64 `json:"clouds"`
}

// ForecastEntry is one 3-hour forecast step. RainProbability is a 0-100
// percentage (providers report a 0-1 fraction).
type ForecastEntry struct {
	Datetime        string  `json:"datetime"`
	Temperature     float64 `json:"temperature"`
	Humidity        float64 `json:"humidity"`
	Description     string  `json:"description"`
	RainProbability float64 `json:"rain_probability"`
}

// Coordinates is the lat/lon pair echoed inside LocationEcho.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationEcho mirrors the requested location back in the payload, with the
// district falling back to the provider's place name when the caller omitted it.
type LocationEcho struct {
	District    string      `json:"district"`
	Coordinates Coordinates `json:"coordinates"`
}

// Snapshot is the point-in-time weather view handed to the orchestrator and
// persisted inside history records. Produced fresh per request; never cached.
type Snapshot struct {
	Current  Current         `json:"current"`
	Forecast []ForecastEntry `json:"forecast"`
	Location LocationEcho    `json:"location"`
}
