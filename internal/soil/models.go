package soil

import "github.com/agrigenius/core/internal/weather"

// Status is the three-way soil moisture classification.
type Status string

const (
	StatusDry      Status = "Dry"
	StatusModerate Status = "Moderate"
	StatusWet      Status = "Wet"
)

// Conditions holds the estimated soil state for a coordinate.
type Conditions struct {
	MoisturePercentage float64 `json:"moisture_percentage"`
	Temperature        float64 `json:"temperature"`
	Status             Status  `json:"status"`
}

// Climate aggregates the trailing 7-day daily series behind the estimate.
type Climate struct {
	AvgPrecipitationMM float64 `json:"avg_precipitation_mm"`
	AvgHumidityPercent float64 `json:"avg_humidity_percent"`
	AvgSolarRadiation  float64 `json:"avg_solar_radiation"`
}

// Snapshot is the derived soil view handed to the orchestrator and persisted
// inside history records. Derived per request, never stored independently.
type Snapshot struct {
	Location       weather.LocationEcho `json:"location"`
	Soil           Conditions           `json:"soil"`
	Climate        Climate              `json:"climate"`
	Recommendation string               `json:"recommendation"`
}
