package analyzers

import (
	"strings"
	"time"

	"SocialPulse/internal/domain/models"
	domsvc "SocialPulse/internal/domain/service"
)

// NewUrgency measures time-pressure framing. Shouting boosts the score.
func NewUrgency() domsvc.Analyzer {
	a := newKeywordAnalyzer(models.SignalUrgency, 15*time.Minute, map[string]float64{
		"right now":        0.3,
		"last chance":      0.35,
		"before it's late": 0.3,
		"act fast":         0.3,
		"hurry":            0.25,
		"minutes left":     0.35,
		"urgent":           0.3,
	})
	a.adjust = func(post *models.Post, strength float64) float64 {
		upper := 0
		letters := 0
		for _, r := range post.Text {
			if r >= 'A' && r <= 'Z' {
				upper++
			}
			if (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') {
				letters++
			}
		}
		if letters > 10 && float64(upper)/float64(letters) > 0.5 {
			strength *= 1.3
		}
		if strings.Count(post.Text, "!") >= 3 {
			strength *= 1.15
		}
		return strength
	}
	return a
}
