package domain

// MarketMetrics holds the four normalized market-reaction sub-scores for a
// news event plus their weighted composite. Every field lies in [0, 1);
// fields that could not be computed stay 0. The value is produced once per
// scoring call and never mutated afterwards.
type MarketMetrics struct {
	ImmediatePriceChange float64 `json:"immediate_price_change"`
	SustainedPriceChange float64 `json:"sustained_price_change"`
	VolumeAnomaly        float64 `json:"volume_anomaly"`
	VolatilitySpike      float64 `json:"volatility_spike"`
	HotnessScore         float64 `json:"hotness_score"`
}
