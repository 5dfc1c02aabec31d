package analyzers

import (
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

// NewWhaleAlert tracks mentions of large on-chain movements.
func NewWhaleAlert() domsvc.Analyzer {
	return newKeywordAnalyzer(models.SignalWhaleAlert, 45*time.Minute, map[string]float64{
		"whale":              0.3,
		"large transfer":     0.3,
		"moved from binance": 0.25,
		"wallet woke up":     0.35,
		"million moved":      0.3,
		"to exchange":        -0.3,
		"deposited to":       -0.25,
	})
}
