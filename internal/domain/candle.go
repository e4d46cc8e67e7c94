package domain

import (
	"math"
	"sort"
	"time"
)

// Candle represents a single OHLCV bar of a market index series.
type Candle struct {
	Begin  time.Time // Start time of the bar (inclusive), ordering key
	End    time.Time // End time of the bar
	Open   float64   // Opening price
	High   float64   // Highest price
	Low    float64   // Lowest price
	Close  float64   // Closing price
	Volume float64   // Traded volume
}

// IsValid reports whether the candle may participate in statistics.
// Bars with a non-positive close or any non-finite numeric field are
// excluded from every computation rather than coerced to zero.
func (c Candle) IsValid() bool {
	if c.Close <= 0 {
		return false
	}
	for _, v := range []float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if c.Volume < 0 {
		return false
	}
	return c.High >= c.Open && c.High >= c.Close &&
		c.Low <= c.Open && c.Low <= c.Close && c.Low <= c.High
}

// RangeRatio is the bar's high-low spread relative to its close.
func (c Candle) RangeRatio() float64 {
	if c.Close <= 0 {
		return 0
	}
	return (c.High - c.Low) / c.Close
}

// CandleSeries is an ordered sequence of candles, ascending by Begin with
// unique Begin values. A series is built once per fetch and never mutated.
type CandleSeries []Candle

// NewCandleSeries normalizes raw bars into a series: invalid bars are
// dropped, the rest are sorted by Begin and de-duplicated (first wins).
func NewCandleSeries(raw []Candle) CandleSeries {
	valid := make([]Candle, 0, len(raw))
	for _, c := range raw {
		if c.IsValid() {
			valid = append(valid, c)
		}
	}
	sort.SliceStable(valid, func(i, j int) bool { return valid[i].Begin.Before(valid[j].Begin) })

	out := valid[:0]
	var lastBegin time.Time
	for i, c := range valid {
		if i > 0 && c.Begin.Equal(lastBegin) {
			continue
		}
		out = append(out, c)
		lastBegin = c.Begin
	}
	return CandleSeries(out)
}

// Before returns the candles with Begin strictly earlier than t.
func (s CandleSeries) Before(t time.Time) CandleSeries {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Begin.Before(t) })
	return s[:i]
}

// From returns the candles with Begin at or after t.
func (s CandleSeries) From(t time.Time) CandleSeries {
	i := sort.Search(len(s), func(i int) bool { return !s[i].Begin.Before(t) })
	return s[i:]
}

// Last returns the trailing n candles (the whole series when it is shorter).
func (s CandleSeries) Last(n int) CandleSeries {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}
