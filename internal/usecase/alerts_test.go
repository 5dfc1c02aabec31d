package usecase

import (
	"testing"

	"SocialPulse/internal/domain/models"
)

func defaultThresholds() models.AlertThresholds {
	return models.AlertThresholds{
		CriticalStrength:     0.8,
		CriticalConfidence:   0.85,
		CombinationThreshold: 0.6,
	}
}

func alertKinds(alerts []models.Alert) map[string]models.AlertLevel {
	out := make(map[string]models.AlertLevel, len(alerts))
	for _, a := range alerts {
		out[a.Kind] = a.Level
	}
	return out
}

func TestAlertHighStrengthCritical(t *testing.T) {
	e := NewAlertEngine()
	v := &models.AggregatedVerdict{Symbol: "PEPE", OverallStrength: 0.85, OverallConfidence: 0.5}

	kinds := alertKinds(e.Evaluate(v, defaultThresholds()))
	if kinds["high_strength"] != models.AlertCritical {
		t.Fatalf("expected critical high_strength alert, got %v", kinds)
	}
	if _, ok := kinds["high_confidence"]; ok {
		t.Fatal("confidence below threshold must not alert")
	}
}

func TestAlertStrengthUsesMagnitude(t *testing.T) {
	e := NewAlertEngine()
	v := &models.AggregatedVerdict{Symbol: "PEPE", OverallStrength: -0.9}

	kinds := alertKinds(e.Evaluate(v, defaultThresholds()))
	if kinds["high_strength"] != models.AlertCritical {
		t.Fatalf("bearish strength must trip the rule by magnitude, got %v", kinds)
	}
}

func TestAlertNoneBelowThresholds(t *testing.T) {
	e := NewAlertEngine()
	v := &models.AggregatedVerdict{
		Symbol:            "PEPE",
		OverallStrength:   0.5,
		OverallConfidence: 0.5,
		Meta:              models.VerdictMeta{RiskScore: 0.3},
	}
	if alerts := e.Evaluate(v, defaultThresholds()); len(alerts) != 0 {
		t.Fatalf("expected no alerts, got %d", len(alerts))
	}
}

func TestAlertCombinationRequiresBothConditions(t *testing.T) {
	e := NewAlertEngine()
	th := defaultThresholds()

	// combinations active but strength below the combination floor
	v := &models.AggregatedVerdict{
		Symbol:             "PEPE",
		OverallStrength:    0.5,
		ActiveCombinations: []string{"smart_influencer_convergence"},
	}
	if kinds := alertKinds(e.Evaluate(v, th)); kinds["signal_combination"] != "" {
		t.Fatal("combination alert fired below strength floor")
	}

	// strong enough but no combinations active
	v = &models.AggregatedVerdict{Symbol: "PEPE", OverallStrength: 0.7}
	if kinds := alertKinds(e.Evaluate(v, th)); kinds["signal_combination"] != "" {
		t.Fatal("combination alert fired with no active combinations")
	}

	// both hold
	v = &models.AggregatedVerdict{
		Symbol:             "PEPE",
		OverallStrength:    -0.7,
		ActiveCombinations: []string{"smart_influencer_convergence"},
	}
	if kinds := alertKinds(e.Evaluate(v, th)); kinds["signal_combination"] != models.AlertWarning {
		t.Fatalf("expected warning combination alert, got %v", kinds)
	}
}

func TestAlertHighRisk(t *testing.T) {
	e := NewAlertEngine()
	v := &models.AggregatedVerdict{
		Symbol: "PEPE",
		Meta:   models.VerdictMeta{RiskScore: 0.75},
	}
	kinds := alertKinds(e.Evaluate(v, defaultThresholds()))
	if kinds["high_risk"] != models.AlertWarning {
		t.Fatalf("expected warning high_risk alert, got %v", kinds)
	}
}

func TestAlertRulesCoFire(t *testing.T) {
	e := NewAlertEngine()
	v := &models.AggregatedVerdict{
		Symbol:             "PEPE",
		OverallStrength:    0.9,
		OverallConfidence:  0.9,
		ActiveCombinations: []string{"exit_scam_pattern"},
		Meta:               models.VerdictMeta{RiskScore: 0.8},
	}
	alerts := e.Evaluate(v, defaultThresholds())
	if len(alerts) != 4 {
		t.Fatalf("independent rules must co-fire, got %d alerts", len(alerts))
	}
}

func TestAlertStatelessReEmission(t *testing.T) {
	e := NewAlertEngine()
	v := &models.AggregatedVerdict{Symbol: "PEPE", OverallStrength: 0.9}
	th := defaultThresholds()

	first := e.Evaluate(v, th)
	second := e.Evaluate(v, th)
	if len(first) != len(second) {
		t.Fatalf("sustained condition must re-emit, got %d then %d", len(first), len(second))
	}
}

func TestAlertNilVerdict(t *testing.T) {
	e := NewAlertEngine()
	if alerts := e.Evaluate(nil, defaultThresholds()); alerts != nil {
		t.Fatalf("expected nil for nil verdict, got %v", alerts)
	}
}
