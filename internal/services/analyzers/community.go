package analyzers

import (
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

// NewCommunityMomentum reads grassroots growth language.
func NewCommunityMomentum() domsvc.Analyzer {
	return newKeywordAnalyzer(models.SignalCommunityMomentum, time.Hour, map[string]float64{
		"community growing": 0.3,
		"holders increasing": 0.3,
		"telegram exploding": 0.25,
		"organic growth":    0.3,
		"diamond hands":     0.2,
		"community dead":    -0.35,
		"ghost town":        -0.3,
	})
}

// NewInsiderLeak flags claimed non-public information.
func NewInsiderLeak() domsvc.Analyzer {
	return newKeywordAnalyzer(models.SignalInsiderLeak, time.Hour, map[string]float64{
		"insider":          0.3,
		"leaked":           0.35,
		"not announced yet": 0.4,
		"heard from the team": 0.3,
		"big partnership coming": 0.35,
		"exchange listing soon":  0.35,
	})
}
