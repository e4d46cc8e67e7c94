package hotness

import (
	"math"
	"time"

	"newspulse/internal/domain"
)

// Saturation constants. Each sub-score is normalized with the hyperbolic
// transform x/(x+k): 0 at x=0, 0.5 exactly at x=k, asymptotic to 1.
const (
	priceK      = 0.025 // half-max at a 2.5% deviation from the baseline mean
	volumeK     = 2.0   // half-max at a volume z-score of 2
	volatilityK = 1.5   // half-max at 150% above the baseline range
	scoreCap    = 0.9999

	// Until this much wall-clock time has passed since the event, the first
	// post-event bar is still accruing and the immediate-price term reports
	// a fixed placeholder instead of a premature value.
	immediateSettleTime = 2 * time.Hour
	placeholderScore    = 0.5

	sustainedCandleIndex = 3 // 4th 15-minute bar = one hour after the event
)

// DegradeReason tags why a sub-score fell back to zero (or a placeholder).
// A degraded term is an expected, silent outcome; the composite is still
// computed from the remaining terms.
type DegradeReason string

const (
	ReasonNone          DegradeReason = ""
	ReasonNoPostEvent   DegradeReason = "no post-event candles"
	ReasonTooFewBars    DegradeReason = "not enough post-event candles"
	ReasonTooSoon       DegradeReason = "event too recent, placeholder used"
	ReasonShortBaseline DegradeReason = "baseline window too short"
	ReasonZeroVariance  DegradeReason = "baseline volume has zero variance"
	ReasonFlatBaseline  DegradeReason = "baseline range is zero or not finite"
	ReasonBadCandle     DegradeReason = "post-event candle unusable"
)

// subScore is one tagged sub-score result.
type subScore struct {
	Value  float64
	Reason DegradeReason
}

// saturate maps an unbounded non-negative magnitude into [0, scoreCap].
func saturate(x, k float64) float64 {
	if x <= 0 || math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Min(x/(x+k), scoreCap)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64, mu float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mu
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func closes(s domain.CandleSeries) []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Close
	}
	return out
}

func volumes(s domain.CandleSeries) []float64 {
	out := make([]float64, len(s))
	for i, c := range s {
		out[i] = c.Volume
	}
	return out
}

// priceDeviationScore is the shared body of the immediate and sustained
// price terms: absolute deviation of one post-event close from the baseline
// mean close, saturated at priceK.
func priceDeviationScore(baseline domain.CandleSeries, eventClose float64) subScore {
	avg := mean(closes(baseline))
	if avg <= 0 || math.IsNaN(avg) || math.IsInf(avg, 0) {
		return subScore{Reason: ReasonShortBaseline}
	}
	change := math.Abs(eventClose-avg) / avg
	return subScore{Value: saturate(change, priceK)}
}

// immediateScore reacts to the first post-event bar. Inside the settle
// window it returns the fixed placeholder: a real-time caller querying right
// after publication must not get a falsely low or falsely confident value.
func immediateScore(baseline, post domain.CandleSeries, ref, now time.Time) subScore {
	if len(post) < 1 {
		return subScore{Reason: ReasonNoPostEvent}
	}
	if now.Before(ref.Add(immediateSettleTime)) {
		return subScore{Value: placeholderScore, Reason: ReasonTooSoon}
	}
	return priceDeviationScore(baseline, post[0].Close)
}

// sustainedScore reacts one hour after the event, i.e. the 4th 15-minute bar.
func sustainedScore(baseline, post domain.CandleSeries) subScore {
	if len(post) <= sustainedCandleIndex {
		return subScore{Reason: ReasonTooFewBars}
	}
	return priceDeviationScore(baseline, post[sustainedCandleIndex].Close)
}

// volumeScore is the z-score of the first post-event volume against the
// baseline volume distribution, saturated at volumeK.
func volumeScore(baseline, post domain.CandleSeries) subScore {
	if len(baseline) < minBaselineCandles {
		return subScore{Reason: ReasonShortBaseline}
	}
	if len(post) < 1 {
		return subScore{Reason: ReasonNoPostEvent}
	}
	vols := volumes(baseline)
	mu := mean(vols)
	sigma := stdDev(vols, mu)
	if sigma == 0 {
		// Identical baseline volumes leave nothing to compare against.
		return subScore{Reason: ReasonZeroVariance}
	}
	z := math.Abs(post[0].Volume-mu) / sigma
	return subScore{Value: saturate(z, volumeK)}
}

// volatilityScore compares the first post-event bar's range ratio against
// the baseline average. Unlike the other terms its transform can go negative
// when the ratio is below 1, so it is explicitly floored at zero.
func volatilityScore(baseline, post domain.CandleSeries) subScore {
	if len(baseline) < minBaselineCandles {
		return subScore{Reason: ReasonShortBaseline}
	}
	if len(post) < 1 {
		return subScore{Reason: ReasonNoPostEvent}
	}
	var sum float64
	for _, c := range baseline {
		sum += c.RangeRatio()
	}
	avgRange := sum / float64(len(baseline))
	if avgRange <= 0 || math.IsNaN(avgRange) || math.IsInf(avgRange, 0) {
		return subScore{Reason: ReasonFlatBaseline}
	}
	current := post[0].RangeRatio()
	if current <= 0 {
		return subScore{Reason: ReasonBadCandle}
	}
	ratio := current / avgRange
	score := (ratio - 1) / ((ratio - 1) + volatilityK)
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return subScore{}
	}
	return subScore{Value: math.Min(score, scoreCap)}
}
