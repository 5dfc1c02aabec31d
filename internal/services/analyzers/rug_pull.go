package analyzers

import (
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

// NewRugPull watches for exit-scam red flags. Always bearish when it
// fires; the long timeframe keeps the warning visible in history.
func NewRugPull() domsvc.Analyzer {
	a := newKeywordAnalyzer(models.SignalRugPull, 2*time.Hour, map[string]float64{
		"rug":               -0.4,
		"rugged":            -0.5,
		"liquidity removed": -0.5,
		"dev wallet":        -0.25,
		"honeypot":          -0.45,
		"can't sell":        -0.4,
		"locked liquidity":  0.2,
		"audit passed":      0.15,
	})
	return a
}
