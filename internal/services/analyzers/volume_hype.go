package analyzers

import (
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

// NewVolumeHype reacts to crowd-momentum language. Short timeframe:
// hype decays fast.
func NewVolumeHype() domsvc.Analyzer {
	return newKeywordAnalyzer(models.SignalVolumeHype, 10*time.Minute, map[string]float64{
		"to the moon": 0.25,
		"mooning":     0.3,
		"pumping":     0.3,
		"volume spike": 0.35,
		"breaking out": 0.3,
		"fomo":         0.2,
		"everyone is buying": 0.25,
		"dumping":      -0.35,
		"crashing":     -0.4,
		"sell off":     -0.3,
	})
}
