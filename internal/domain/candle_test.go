package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bar(begin time.Time, close float64) Candle {
	return Candle{
		Begin:  begin,
		End:    begin.Add(15 * time.Minute),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: 100,
	}
}

func TestCandle_IsValid(t *testing.T) {
	now := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, bar(now, 100).IsValid())

	zeroClose := bar(now, 0)
	assert.False(t, zeroClose.IsValid())

	nanVolume := bar(now, 100)
	nanVolume.Volume = math.NaN()
	assert.False(t, nanVolume.IsValid())

	negVolume := bar(now, 100)
	negVolume.Volume = -1
	assert.False(t, negVolume.IsValid())

	brokenRange := bar(now, 100)
	brokenRange.High = 90 // below close
	assert.False(t, brokenRange.IsValid())
}

func TestCandle_RangeRatio(t *testing.T) {
	c := Candle{Open: 100, High: 102, Low: 98, Close: 100, Volume: 1}
	assert.InDelta(t, 0.04, c.RangeRatio(), 1e-9)
	assert.Zero(t, Candle{}.RangeRatio())
}

func TestNewCandleSeries_SortsDropsAndDedupes(t *testing.T) {
	base := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)

	later := bar(base.Add(15*time.Minute), 101)
	first := bar(base, 100)
	duplicate := bar(base, 999) // same Begin as first, must lose
	invalid := bar(base.Add(30*time.Minute), 0)

	series := NewCandleSeries([]Candle{later, first, duplicate, invalid})

	require.Len(t, series, 2)
	assert.Equal(t, 100.0, series[0].Close, "first occurrence wins on duplicate Begin")
	assert.Equal(t, 101.0, series[1].Close)
}

func TestCandleSeries_Windows(t *testing.T) {
	base := time.Date(2025, 10, 1, 10, 0, 0, 0, time.UTC)
	var raw []Candle
	for i := 0; i < 10; i++ {
		raw = append(raw, bar(base.Add(time.Duration(i)*15*time.Minute), 100+float64(i)))
	}
	series := NewCandleSeries(raw)

	cut := base.Add(5 * 15 * time.Minute)
	before := series.Before(cut)
	from := series.From(cut)

	require.Len(t, before, 5)
	require.Len(t, from, 5)
	assert.True(t, before[len(before)-1].Begin.Before(cut))
	assert.False(t, from[0].Begin.Before(cut), "boundary candle belongs to the post window")

	assert.Len(t, series.Last(3), 3)
	assert.Len(t, series.Last(50), 10)
}
