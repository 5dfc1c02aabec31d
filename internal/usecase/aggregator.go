package usecase

import (
	"time"

	"SocialPulse/internal/domain/models"
)

// CustomAggregateFunc is a caller-supplied aggregation strategy. The
// aggregator treats it as a black box and only enforces range safety
// and derived-field consistency on its output.
type CustomAggregateFunc func(symbol string, signals []models.Signal) *models.AggregatedVerdict

// AggregationContext carries the per-call collaborators of an
// aggregation: the symbol, the base-sentiment reading (optional), the
// combination rule set, and the custom function when method=custom.
type AggregationContext struct {
	Symbol        string
	BaseSentiment *models.Sentiment
	Rules         []models.CombinationRule
	Custom        CustomAggregateFunc
}

// signal types that contribute to the volatile fraction of the risk score
var volatileTypes = map[models.SignalType]bool{
	models.SignalPumpPattern:  true,
	models.SignalVolumeHype:   true,
	models.SignalMemeVelocity: true,
	models.SignalBotActivity:  true,
}

// signal types that contribute to the warning fraction of the risk score
var warningTypes = map[models.SignalType]bool{
	models.SignalRugPull:        true,
	models.SignalInsiderLeak:    true,
	models.SignalRegulatoryRisk: true,
}

// defaultWeights are the static per-type weights of the weighted
// strategy. Types absent here weigh 1.0.
var defaultWeights = map[models.SignalType]float64{
	models.SignalSmartMoney:        1.5,
	models.SignalWhaleAlert:        1.4,
	models.SignalInsiderLeak:       1.3,
	models.SignalInfluencerNetwork: 1.2,
	models.SignalTechnicalBreakout: 1.1,
	models.SignalNewsCatalyst:      1.1,
	models.SignalRugPull:           1.2,
	models.SignalBotActivity:       0.6,
	models.SignalMemeVelocity:      0.8,
	models.SignalContrarian:        0.9,
}

// Aggregator combines a signal set into one AggregatedVerdict using a
// selectable strategy. Every call produces a fresh value.
type Aggregator struct {
	weights map[models.SignalType]float64
}

// NewAggregator creates an Aggregator with the static weight table.
func NewAggregator() *Aggregator {
	return &Aggregator{weights: defaultWeights}
}

func (a *Aggregator) weightOf(t models.SignalType) float64 {
	if w, ok := a.weights[t]; ok {
		return w
	}
	return 1.0
}

// Aggregate combines signals for one symbol. Strength and confidence of
// the result are always clamped to [-1,1] and [0,1] regardless of
// strategy.
func (a *Aggregator) Aggregate(signals []models.Signal, method models.AggregationMethod, actx AggregationContext) *models.AggregatedVerdict {
	v := &models.AggregatedVerdict{
		Symbol:    actx.Symbol,
		Sentiment: models.DirectionNeutral,
		Signals:   signals,
		Priority:  models.PriorityLow,
		Timestamp: time.Now(),
	}
	if len(signals) == 0 {
		v.Meta.ConsensusLevel = 1.0
		return v
	}

	byType := groupByType(signals)

	switch method {
	case models.AggregateConsensus:
		a.aggregateConsensus(v, signals)
	case models.AggregateHighest:
		a.aggregateHighest(v, signals)
	case models.AggregateCustom:
		if actx.Custom != nil {
			if out := actx.Custom(actx.Symbol, signals); out != nil {
				v = out
				v.Symbol = actx.Symbol
				v.Signals = signals
				v.OverallStrength = models.ClampStrength(v.OverallStrength)
				v.OverallConfidence = models.ClampConfidence(v.OverallConfidence)
				if v.Timestamp.IsZero() {
					v.Timestamp = time.Now()
				}
			}
		}
	default:
		a.aggregateWeighted(v, signals, byType, actx.Rules)
	}

	v.Meta = a.deriveMeta(signals, actx.BaseSentiment)
	if method == models.AggregateWeighted || method == "" {
		v.Priority = weightedPriority(v.OverallStrength, v.OverallConfidence)
	} else {
		v.Priority = combinedPriority(v.OverallStrength, v.OverallConfidence)
	}
	return v
}

// aggregateWeighted implements the default strategy: static per-type
// weights plus combination bonuses. A fired rule adds its bonus weight
// to the denominator and bonus·0.8 / bonus·0.9 to the strength and
// confidence numerators, so corroborating types can only push the
// aggregate up.
func (a *Aggregator) aggregateWeighted(v *models.AggregatedVerdict, signals []models.Signal, byType map[models.SignalType][]models.Signal, rules []models.CombinationRule) {
	var weightTotal, strengthNum, confNum float64
	var bullishSum, bearishSum float64

	for _, s := range signals {
		w := a.weightOf(s.Type)
		weightTotal += w
		strengthNum += s.Strength * w
		confNum += s.Confidence * w
		switch s.Direction {
		case models.DirectionBullish:
			bullishSum += w * abs(s.Strength)
		case models.DirectionBearish:
			bearishSum += w * abs(s.Strength)
		}
	}

	for _, rule := range rules {
		if !ruleFires(rule, byType) {
			continue
		}
		v.ActiveCombinations = append(v.ActiveCombinations, rule.Name)
		weightTotal += rule.BonusWeight
		strengthNum += rule.BonusWeight * 0.8
		confNum += rule.BonusWeight * 0.9
	}

	if weightTotal > 0 {
		v.OverallStrength = models.ClampStrength(strengthNum / weightTotal)
		v.OverallConfidence = models.ClampConfidence(confNum / weightTotal)
	}

	// 20% hysteresis band keeps near-ties from flapping between calls.
	switch {
	case bullishSum > bearishSum*1.2:
		v.Sentiment = models.DirectionBullish
	case bearishSum > bullishSum*1.2:
		v.Sentiment = models.DirectionBearish
	default:
		v.Sentiment = models.DirectionNeutral
	}

	v.DominantType = dominantByStrength(signals)
}

// aggregateConsensus takes a strict majority vote on direction: a side
// wins only when it outnumbers everything else combined. Strength and
// confidence are plain averages.
func (a *Aggregator) aggregateConsensus(v *models.AggregatedVerdict, signals []models.Signal) {
	var bull, bear, neutral int
	var strengthSum, confSum float64
	for _, s := range signals {
		strengthSum += s.Strength
		confSum += s.Confidence
		switch s.Direction {
		case models.DirectionBullish:
			bull++
		case models.DirectionBearish:
			bear++
		default:
			neutral++
		}
	}

	n := len(signals)
	v.OverallStrength = models.ClampStrength(strengthSum / float64(n))
	v.OverallConfidence = models.ClampConfidence(confSum / float64(n))
	switch {
	case bull > bear+neutral:
		v.Sentiment = models.DirectionBullish
	case bear > bull+neutral:
		v.Sentiment = models.DirectionBearish
	default:
		v.Sentiment = models.DirectionNeutral
	}

	// most frequent type; first-seen order breaks ties
	counts := make(map[models.SignalType]int, n)
	bestCount := 0
	for _, s := range signals {
		counts[s.Type]++
		if counts[s.Type] > bestCount {
			bestCount = counts[s.Type]
			v.DominantType = s.Type
		}
	}
}

// aggregateHighest passes through the single strongest signal.
func (a *Aggregator) aggregateHighest(v *models.AggregatedVerdict, signals []models.Signal) {
	best := signals[0]
	for _, s := range signals[1:] {
		if abs(s.Strength) > abs(best.Strength) {
			best = s
		}
	}
	v.OverallStrength = models.ClampStrength(best.Strength)
	v.OverallConfidence = models.ClampConfidence(best.Confidence)
	v.Sentiment = best.Direction
	v.DominantType = best.Type
}

func (a *Aggregator) deriveMeta(signals []models.Signal, base *models.Sentiment) models.VerdictMeta {
	meta := models.VerdictMeta{SignalCount: len(signals), ConsensusLevel: 1.0}
	if len(signals) == 0 {
		return meta
	}

	var tfSum time.Duration
	var bull, bear, neutral, volatile, warning int
	for _, s := range signals {
		tfSum += s.Timeframe
		switch s.Direction {
		case models.DirectionBullish:
			bull++
		case models.DirectionBearish:
			bear++
		default:
			neutral++
		}
		if volatileTypes[s.Type] {
			volatile++
		}
		if warningTypes[s.Type] {
			warning++
		}
	}
	meta.AvgTimeframe = tfSum / time.Duration(len(signals))

	if len(signals) > 1 {
		largest := bull
		if bear > largest {
			largest = bear
		}
		if neutral > largest {
			largest = neutral
		}
		meta.ConsensusLevel = float64(largest) / float64(len(signals))
	}

	n := float64(len(signals))
	risk := float64(volatile)/n*0.3 + (1-meta.ConsensusLevel)*0.3 + float64(warning)/n*0.2
	if base != nil && base.Magnitude > 0.8 {
		risk += 0.2
	}
	meta.RiskScore = models.ClampConfidence(risk)
	return meta
}

// weightedPriority checks strength and confidence independently; the
// other strategies use the combined mean in combinedPriority. The two
// policies are never mixed within one strategy.
func weightedPriority(strength, confidence float64) models.Priority {
	s := abs(strength)
	switch {
	case s >= 0.8 && confidence >= 0.75:
		return models.PriorityCritical
	case s >= 0.6 && confidence >= 0.55:
		return models.PriorityHigh
	case s >= 0.35:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func combinedPriority(strength, confidence float64) models.Priority {
	score := (abs(strength) + confidence) / 2
	switch {
	case score >= 0.8:
		return models.PriorityCritical
	case score >= 0.6:
		return models.PriorityHigh
	case score >= 0.4:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func ruleFires(rule models.CombinationRule, byType map[models.SignalType][]models.Signal) bool {
	for _, t := range rule.RequiredTypes {
		if len(byType[t]) == 0 {
			return false
		}
	}
	if rule.Predicate != nil {
		return rule.Predicate(byType)
	}
	return true
}

func groupByType(signals []models.Signal) map[models.SignalType][]models.Signal {
	byType := make(map[models.SignalType][]models.Signal, len(signals))
	for _, s := range signals {
		byType[s.Type] = append(byType[s.Type], s)
	}
	return byType
}

func dominantByStrength(signals []models.Signal) models.SignalType {
	var dominant models.SignalType
	best := -1.0
	for _, s := range signals {
		if abs(s.Strength) > best {
			best = abs(s.Strength)
			dominant = s.Type
		}
	}
	return dominant
}
