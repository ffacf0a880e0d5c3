package soil

import "math"

// Classification thresholds, strict on both boundaries: exactly 40 is Dry,
// exactly 70 is Moderate.
const (
	wetThreshold      = 70.0
	moderateThreshold = 40.0
)

// EstimateMoisture derives a 0-100 soil moisture percentage from average
// daily precipitation (mm) and relative humidity (%). This is a deliberately
// simple heuristic, not a physical soil model; treat its output as a coarse
// indicator.
func EstimateMoisture(avgPrecip, avgHumidity float64) float64 {
	return math.Min(100, (avgPrecip*10+avgHumidity)/2)
}

// Classify maps a moisture percentage onto the three-way status.
func Classify(moisture float64) Status {
	switch {
	case moisture > wetThreshold:
		return StatusWet
	case moisture > moderateThreshold:
		return StatusModerate
	default:
		return StatusDry
	}
}

// Recommend returns the advisory text for a classification.
func Recommend(status Status) string {
	switch status {
	case StatusDry:
		return "Soil is dry. Consider irrigation for optimal crop growth."
	case StatusWet:
		return "Soil has high moisture. Ensure proper drainage to prevent waterlogging."
	default:
		return "Soil moisture is at optimal levels for most crops."
	}
}

// round1 rounds to one decimal place, the precision of every numeric output
// in a snapshot.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
