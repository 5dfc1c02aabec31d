package usecase

import (
	"math"
	"math/rand"
	"testing"

	"SocialPulse/internal/domain/models"
)

func TestAggregateEmptyIsNeutral(t *testing.T) {
	a := NewAggregator()
	v := a.Aggregate(nil, models.AggregateWeighted, AggregationContext{Symbol: "PEPE"})

	if v.OverallStrength != 0 || v.OverallConfidence != 0 {
		t.Fatalf("expected zero scores, got %v/%v", v.OverallStrength, v.OverallConfidence)
	}
	if v.Sentiment != models.DirectionNeutral {
		t.Fatalf("expected neutral sentiment, got %s", v.Sentiment)
	}
	if v.Meta.ConsensusLevel != 1.0 {
		t.Fatalf("expected consensus 1.0 for empty set, got %v", v.Meta.ConsensusLevel)
	}
	if v.Priority != models.PriorityLow {
		t.Fatalf("expected low priority, got %s", v.Priority)
	}
}

func TestAggregateWeightedSingleSignalIdentity(t *testing.T) {
	a := NewAggregator()
	s := sig(models.SignalSmartMoney, 0.6, 0.7, models.DirectionBullish)
	v := a.Aggregate([]models.Signal{s}, models.AggregateWeighted, AggregationContext{Symbol: "DOGE"})

	// with one signal the weight cancels out
	if math.Abs(v.OverallStrength-0.6) > 1e-9 {
		t.Fatalf("expected strength 0.6, got %v", v.OverallStrength)
	}
	if math.Abs(v.OverallConfidence-0.7) > 1e-9 {
		t.Fatalf("expected confidence 0.7, got %v", v.OverallConfidence)
	}
	if v.Sentiment != models.DirectionBullish {
		t.Fatalf("expected bullish, got %s", v.Sentiment)
	}
	if v.DominantType != models.SignalSmartMoney {
		t.Fatalf("expected dominant smart_money, got %s", v.DominantType)
	}
	if v.Priority != models.PriorityHigh {
		t.Fatalf("expected high priority for 0.6/0.7, got %s", v.Priority)
	}
}

func TestAggregateWeightedCombinationBonus(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{
		sig(models.SignalSmartMoney, 0.7, 0.8, models.DirectionBullish),
		sig(models.SignalInfluencerNetwork, 0.65, 0.7, models.DirectionBullish),
	}

	plain := a.Aggregate(signals, models.AggregateWeighted, AggregationContext{Symbol: "SOL"})
	boosted := a.Aggregate(signals, models.AggregateWeighted, AggregationContext{
		Symbol: "SOL",
		Rules:  DefaultCombinationRules(),
	})

	if len(plain.ActiveCombinations) != 0 {
		t.Fatalf("no rules given, yet combinations fired: %v", plain.ActiveCombinations)
	}
	found := false
	for _, name := range boosted.ActiveCombinations {
		if name == "smart_influencer_convergence" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected smart_influencer_convergence to fire, got %v", boosted.ActiveCombinations)
	}
	// both signals sit below the 0.8/0.9 bonus anchors, so the bonus
	// must pull the aggregate up
	if boosted.OverallStrength <= plain.OverallStrength {
		t.Fatalf("bonus did not raise strength: %v <= %v", boosted.OverallStrength, plain.OverallStrength)
	}
	if boosted.OverallConfidence <= plain.OverallConfidence {
		t.Fatalf("bonus did not raise confidence: %v <= %v", boosted.OverallConfidence, plain.OverallConfidence)
	}
}

func TestAggregateWeightedRulePredicateBlocksWeakPair(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{
		sig(models.SignalSmartMoney, 0.3, 0.8, models.DirectionBullish),
		sig(models.SignalInfluencerNetwork, 0.3, 0.7, models.DirectionBullish),
	}
	v := a.Aggregate(signals, models.AggregateWeighted, AggregationContext{
		Symbol: "SOL",
		Rules:  DefaultCombinationRules(),
	})
	if len(v.ActiveCombinations) != 0 {
		t.Fatalf("weak pair should not fire the rule, got %v", v.ActiveCombinations)
	}
}

func TestAggregateWeightedSentimentHysteresis(t *testing.T) {
	a := NewAggregator()
	// near-tie: 1.0 weighted bullish vs 0.9 weighted bearish stays neutral
	signals := []models.Signal{
		sig(models.SignalCrossPlatform, 0.5, 0.6, models.DirectionBullish),
		sig(models.SignalCrossPlatform, -0.45, 0.6, models.DirectionBearish),
	}
	v := a.Aggregate(signals, models.AggregateWeighted, AggregationContext{Symbol: "X"})
	if v.Sentiment != models.DirectionNeutral {
		t.Fatalf("expected neutral inside hysteresis band, got %s", v.Sentiment)
	}

	signals[1].Strength = -0.1
	v = a.Aggregate(signals, models.AggregateWeighted, AggregationContext{Symbol: "X"})
	if v.Sentiment != models.DirectionBullish {
		t.Fatalf("expected bullish outside hysteresis band, got %s", v.Sentiment)
	}
}

func TestAggregateConsensusStrictMajority(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{
		sig(models.SignalVolumeHype, 0.5, 0.6, models.DirectionBullish),
		sig(models.SignalUrgency, 0.4, 0.5, models.DirectionBullish),
		sig(models.SignalRugPull, -0.6, 0.7, models.DirectionBearish),
	}
	v := a.Aggregate(signals, models.AggregateConsensus, AggregationContext{Symbol: "SHIB"})

	if v.Sentiment != models.DirectionBullish {
		t.Fatalf("2v1 bullish should win, got %s", v.Sentiment)
	}
	wantStrength := (0.5 + 0.4 - 0.6) / 3
	if math.Abs(v.OverallStrength-wantStrength) > 1e-9 {
		t.Fatalf("expected plain average %v, got %v", wantStrength, v.OverallStrength)
	}

	// no strict majority: 1 bull, 1 bear, 1 neutral
	signals[1].Direction = models.DirectionNeutral
	v = a.Aggregate(signals, models.AggregateConsensus, AggregationContext{Symbol: "SHIB"})
	if v.Sentiment != models.DirectionNeutral {
		t.Fatalf("no strict majority must be neutral, got %s", v.Sentiment)
	}
}

func TestAggregateHighestPassThrough(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{
		sig(models.SignalCommunityMomentum, 0.5, 0.9, models.DirectionBullish),
		sig(models.SignalRugPull, -0.9, 0.6, models.DirectionBearish),
	}
	v := a.Aggregate(signals, models.AggregateHighest, AggregationContext{Symbol: "APE"})

	if v.OverallStrength != -0.9 {
		t.Fatalf("expected strongest-by-magnitude pass-through, got %v", v.OverallStrength)
	}
	if v.Sentiment != models.DirectionBearish || v.DominantType != models.SignalRugPull {
		t.Fatalf("expected bearish rug_pull verdict, got %s/%s", v.Sentiment, v.DominantType)
	}
}

func TestAggregateCustomOutputClamped(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{sig(models.SignalMemeVelocity, 0.4, 0.5, models.DirectionBullish)}

	custom := func(symbol string, in []models.Signal) *models.AggregatedVerdict {
		return &models.AggregatedVerdict{
			OverallStrength:   3.5,
			OverallConfidence: -2,
			Sentiment:         models.DirectionBullish,
		}
	}
	v := a.Aggregate(signals, models.AggregateCustom, AggregationContext{Symbol: "WIF", Custom: custom})

	if v.OverallStrength != 1 {
		t.Fatalf("custom strength must be clamped to 1, got %v", v.OverallStrength)
	}
	if v.OverallConfidence != 0 {
		t.Fatalf("custom confidence must be clamped to 0, got %v", v.OverallConfidence)
	}
	if v.Symbol != "WIF" {
		t.Fatalf("symbol must be stamped by the aggregator, got %q", v.Symbol)
	}
	if v.Meta.SignalCount != 1 {
		t.Fatalf("meta must be derived for custom verdicts, got %+v", v.Meta)
	}
}

func TestAggregateCustomNilFuncFallsBackToNeutral(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{sig(models.SignalMemeVelocity, 0.4, 0.5, models.DirectionBullish)}
	v := a.Aggregate(signals, models.AggregateCustom, AggregationContext{Symbol: "WIF"})

	if v.OverallStrength != 0 || v.Sentiment != models.DirectionNeutral {
		t.Fatalf("missing custom func should leave the base verdict, got %v/%s", v.OverallStrength, v.Sentiment)
	}
}

func TestRiskScoreComposition(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{
		sig(models.SignalPumpPattern, 0.5, 0.6, models.DirectionBullish),
		sig(models.SignalSmartMoney, 0.6, 0.7, models.DirectionBullish),
	}

	// full agreement: risk = volatileFrac*0.3 only
	v := a.Aggregate(signals, models.AggregateWeighted, AggregationContext{Symbol: "A"})
	if math.Abs(v.Meta.RiskScore-0.15) > 1e-9 {
		t.Fatalf("expected risk 0.15, got %v", v.Meta.RiskScore)
	}

	// extreme base sentiment adds a flat 0.2
	base := &models.Sentiment{Score: 0.9, Magnitude: 0.95}
	v = a.Aggregate(signals, models.AggregateWeighted, AggregationContext{Symbol: "A", BaseSentiment: base})
	if math.Abs(v.Meta.RiskScore-0.35) > 1e-9 {
		t.Fatalf("expected risk 0.35 with hot base sentiment, got %v", v.Meta.RiskScore)
	}
}

func TestConsensusLevelLargestGroup(t *testing.T) {
	a := NewAggregator()
	signals := []models.Signal{
		sig(models.SignalVolumeHype, 0.5, 0.6, models.DirectionBullish),
		sig(models.SignalUrgency, 0.4, 0.5, models.DirectionBullish),
		sig(models.SignalRugPull, -0.6, 0.7, models.DirectionBearish),
		sig(models.SignalContrarian, 0.0, 0.5, models.DirectionNeutral),
	}
	v := a.Aggregate(signals, models.AggregateWeighted, AggregationContext{Symbol: "B"})
	if math.Abs(v.Meta.ConsensusLevel-0.5) > 1e-9 {
		t.Fatalf("largest group 2 of 4, expected 0.5, got %v", v.Meta.ConsensusLevel)
	}
}

func TestWeightedPriorityCutoffs(t *testing.T) {
	cases := []struct {
		strength, confidence float64
		want                 models.Priority
	}{
		{0.85, 0.8, models.PriorityCritical},
		{-0.85, 0.8, models.PriorityCritical},
		{0.85, 0.7, models.PriorityHigh},  // confidence below critical cutoff
		{0.65, 0.6, models.PriorityHigh},
		{0.4, 0.1, models.PriorityMedium}, // strength alone reaches medium
		{0.2, 0.99, models.PriorityLow},
	}
	for _, tc := range cases {
		if got := weightedPriority(tc.strength, tc.confidence); got != tc.want {
			t.Errorf("weightedPriority(%v, %v) = %s, want %s", tc.strength, tc.confidence, got, tc.want)
		}
	}
}

func TestCombinedPriorityCutoffs(t *testing.T) {
	cases := []struct {
		strength, confidence float64
		want                 models.Priority
	}{
		{0.9, 0.8, models.PriorityCritical},
		{0.7, 0.6, models.PriorityHigh},
		{0.5, 0.4, models.PriorityMedium},
		{0.3, 0.2, models.PriorityLow},
	}
	for _, tc := range cases {
		if got := combinedPriority(tc.strength, tc.confidence); got != tc.want {
			t.Errorf("combinedPriority(%v, %v) = %s, want %s", tc.strength, tc.confidence, got, tc.want)
		}
	}
}

func TestAggregateOutputAlwaysInRange(t *testing.T) {
	a := NewAggregator()
	rng := rand.New(rand.NewSource(42))
	methods := []models.AggregationMethod{
		models.AggregateWeighted, models.AggregateConsensus, models.AggregateHighest,
	}
	types := []models.SignalType{
		models.SignalSmartMoney, models.SignalPumpPattern, models.SignalRugPull,
		models.SignalBotActivity, models.SignalMemeVelocity,
	}
	dirs := []models.Direction{models.DirectionBullish, models.DirectionBearish, models.DirectionNeutral}

	for i := 0; i < 200; i++ {
		n := rng.Intn(6) + 1
		signals := make([]models.Signal, 0, n)
		for j := 0; j < n; j++ {
			signals = append(signals, sig(
				types[rng.Intn(len(types))],
				rng.Float64()*6-3, // deliberately out of range
				rng.Float64()*3-1,
				dirs[rng.Intn(len(dirs))],
			))
		}
		for _, m := range methods {
			v := a.Aggregate(signals, m, AggregationContext{Symbol: "FUZZ", Rules: DefaultCombinationRules()})
			if v.OverallStrength < -1 || v.OverallStrength > 1 {
				t.Fatalf("method %s produced strength %v out of range", m, v.OverallStrength)
			}
			if v.OverallConfidence < 0 || v.OverallConfidence > 1 {
				t.Fatalf("method %s produced confidence %v out of range", m, v.OverallConfidence)
			}
			if v.Meta.RiskScore < 0 || v.Meta.RiskScore > 1 {
				t.Fatalf("method %s produced risk %v out of range", m, v.Meta.RiskScore)
			}
		}
	}
}
