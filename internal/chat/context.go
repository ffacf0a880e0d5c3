package chat

import (
	"fmt"

	"github.com/agrigenius/core/internal/soil"
	"github.com/agrigenius/core/internal/weather"
)

// AssembleContext builds the grounding block injected into the language-model
// prompt: current conditions, soil state and the farmer's (translated)
// question, followed by a fixed instruction. Pure function; no side effects.
func AssembleContext(loc weather.Location, w weather.Snapshot, s soil.Snapshot, translatedQuestion string) string {
	return fmt.Sprintf(`You are AgriGenius AI, an expert agricultural assistant helping farmers in India.

Current weather conditions for %s:
- Temperature: %v°C
- Humidity: %v%%
- Weather: %s
- Wind Speed: %v m/s

Soil conditions:
- Moisture: %v%%
- Status: %s
- Temperature: %v°C
- Recommendation: %s

Farmer's question: %s

Provide practical, actionable agricultural advice based on the current weather and soil conditions. Be concise and farmer-friendly.`,
		loc.District,
		w.Current.Temperature,
		w.Current.Humidity,
		w.Current.Description,
		w.Current.WindSpeed,
		s.Soil.MoisturePercentage,
		s.Soil.Status,
		s.Soil.Temperature,
		s.Recommendation,
		translatedQuestion,
	)
}
