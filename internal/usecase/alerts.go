package usecase

import (
	"fmt"
	"time"

	"SocialPulse/internal/domain/models"
)

// AlertEngine evaluates threshold rules over a verdict. It is pure and
// stateless: a sustained condition re-emits the same alerts on every
// evaluation, and any suppression belongs to the consumer.
type AlertEngine struct{}

// NewAlertEngine creates the rule evaluator.
func NewAlertEngine() *AlertEngine {
	return &AlertEngine{}
}

// Evaluate returns zero or more alerts for the verdict. Rules are
// independent and can co-fire.
func (e *AlertEngine) Evaluate(v *models.AggregatedVerdict, th models.AlertThresholds) []models.Alert {
	if v == nil {
		return nil
	}
	now := time.Now()
	var alerts []models.Alert

	if abs(v.OverallStrength) >= th.CriticalStrength {
		alerts = append(alerts, models.Alert{
			Level:   models.AlertCritical,
			Kind:    "high_strength",
			Message: fmt.Sprintf("%s signal strength %.2f crossed %.2f", v.Symbol, v.OverallStrength, th.CriticalStrength),
			Data: map[string]interface{}{
				"symbol":   v.Symbol,
				"strength": v.OverallStrength,
			},
			Timestamp: now,
		})
	}

	if v.OverallConfidence >= th.CriticalConfidence {
		alerts = append(alerts, models.Alert{
			Level:   models.AlertCritical,
			Kind:    "high_confidence",
			Message: fmt.Sprintf("%s signal confidence %.2f crossed %.2f", v.Symbol, v.OverallConfidence, th.CriticalConfidence),
			Data: map[string]interface{}{
				"symbol":     v.Symbol,
				"confidence": v.OverallConfidence,
			},
			Timestamp: now,
		})
	}

	if len(v.ActiveCombinations) > 0 && abs(v.OverallStrength) >= th.CombinationThreshold {
		alerts = append(alerts, models.Alert{
			Level:   models.AlertWarning,
			Kind:    "signal_combination",
			Message: fmt.Sprintf("%s fired combinations %v at strength %.2f", v.Symbol, v.ActiveCombinations, v.OverallStrength),
			Data: map[string]interface{}{
				"symbol":       v.Symbol,
				"combinations": v.ActiveCombinations,
			},
			Timestamp: now,
		})
	}

	if v.Meta.RiskScore > 0.7 {
		alerts = append(alerts, models.Alert{
			Level:   models.AlertWarning,
			Kind:    "high_risk",
			Message: fmt.Sprintf("%s risk score %.2f", v.Symbol, v.Meta.RiskScore),
			Data: map[string]interface{}{
				"symbol": v.Symbol,
				"risk":   v.Meta.RiskScore,
			},
			Timestamp: now,
		})
	}

	return alerts
}
