package analyzers

import (
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

// NewSmartMoney flags accumulation language typical of informed buyers.
func NewSmartMoney() domsvc.Analyzer {
	return newKeywordAnalyzer(models.SignalSmartMoney, 30*time.Minute, map[string]float64{
		"accumulating":    0.35,
		"accumulation":    0.3,
		"quietly loading": 0.4,
		"otc desk":        0.3,
		"institutions":    0.25,
		"smart money":     0.3,
		"position built":  0.25,
		"distribution":    -0.35,
		"unloading":       -0.3,
	})
}
