package moexiss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newspulse/internal/ports"
)

type noopLogger struct{}

func (noopLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (noopLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (noopLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{BaseURL: srv.URL, HTTPClient: srv.Client(), Logger: noopLogger{}})
	require.NoError(t, err)
	return client
}

// The ISS payload is column-ordered: open, close, high, low, value, volume,
// begin, end. The adapter must resolve positions by name.
const validPayload = `{
	"candles": {
		"columns": ["open", "close", "high", "low", "value", "volume", "begin", "end"],
		"data": [
			[100.0, 101.0, 101.5, 99.5, 500000.0, 1000.0, "2025-10-01 14:00:00", "2025-10-01 14:15:00"],
			[101.0, 102.0, 102.5, 100.5, 600000.0, 1100.0, "2025-10-01 14:15:00", "2025-10-01 14:30:00"]
		]
	}
}`

func TestFetchCandles_TranslatesColumnOrderedPayload(t *testing.T) {
	var gotQuery map[string][]string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		assert.Contains(t, r.URL.Path, "/engines/stock/markets/index/boards/SNDX/securities/MOEXOG/candles.json")
		w.Write([]byte(validPayload))
	})

	series, err := client.FetchCandles(context.Background(), "MOEXOG", ports.Bar15m, 50, time.Date(2025, 9, 24, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, series, 2)

	assert.Equal(t, []string{"60"}, gotQuery["interval"], "15-minute bars use ISS code 60")
	assert.Equal(t, []string{"50"}, gotQuery["limit"])
	assert.NotEmpty(t, gotQuery["from"])

	first := series[0]
	assert.Equal(t, 100.0, first.Open)
	assert.Equal(t, 101.0, first.Close)
	assert.Equal(t, 101.5, first.High)
	assert.Equal(t, 99.5, first.Low)
	assert.Equal(t, 1000.0, first.Volume)
	assert.True(t, series[0].Begin.Before(series[1].Begin))
}

func TestFetchCandles_ReorderedColumnsStillParse(t *testing.T) {
	payload := `{
		"candles": {
			"columns": ["begin", "end", "volume", "close", "open", "high", "low", "value"],
			"data": [
				["2025-10-01 14:00:00", "2025-10-01 14:15:00", 1000.0, 101.0, 100.0, 101.5, 99.5, 500000.0]
			]
		}
	}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	})

	series, err := client.FetchCandles(context.Background(), "MOEXOG", ports.Bar15m, 50, time.Time{})
	require.NoError(t, err)
	require.Len(t, series, 1)
	assert.Equal(t, 101.0, series[0].Close)
	assert.Equal(t, 1000.0, series[0].Volume)
}

func TestFetchCandles_MissingColumnIsUnavailable(t *testing.T) {
	payload := `{
		"candles": {
			"columns": ["open", "close", "high", "low", "value", "begin", "end"],
			"data": [[100.0, 101.0, 101.5, 99.5, 500000.0, "2025-10-01 14:00:00", "2025-10-01 14:15:00"]]
		}
	}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	})

	_, err := client.FetchCandles(context.Background(), "MOEXOG", ports.Bar15m, 50, time.Time{})
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestFetchCandles_NonSuccessStatusIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})

	_, err := client.FetchCandles(context.Background(), "MOEXOG", ports.Bar15m, 50, time.Time{})
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestFetchCandles_EmptyDataIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candles": {"columns": ["open","close","high","low","value","volume","begin","end"], "data": []}}`))
	})

	_, err := client.FetchCandles(context.Background(), "MOEXOG", ports.Bar15m, 50, time.Time{})
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestFetchCandles_MalformedBodyIsUnavailable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>not json</html>`))
	})

	_, err := client.FetchCandles(context.Background(), "MOEXOG", ports.Bar15m, 50, time.Time{})
	assert.ErrorIs(t, err, ports.ErrUnavailable)
}

func TestFetchCandles_NonNumericRowsAreDropped(t *testing.T) {
	payload := `{
		"candles": {
			"columns": ["open", "close", "high", "low", "value", "volume", "begin", "end"],
			"data": [
				[100.0, null, 101.5, 99.5, 500000.0, 1000.0, "2025-10-01 14:00:00", "2025-10-01 14:15:00"],
				["101.0", "102.0", "102.5", "100.5", "600000.0", "1100.0", "2025-10-01 14:15:00", "2025-10-01 14:30:00"]
			]
		}
	}`
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	})

	series, err := client.FetchCandles(context.Background(), "MOEXOG", ports.Bar15m, 50, time.Time{})
	require.NoError(t, err)
	// Row with null close is dropped; numeric strings still parse.
	require.Len(t, series, 1)
	assert.Equal(t, 102.0, series[0].Close)
}

func TestFetchCandles_UnsupportedInterval(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(validPayload))
	})

	_, err := client.FetchCandles(context.Background(), "MOEXOG", ports.BarInterval("3min"), 50, time.Time{})
	assert.ErrorIs(t, err, ports.ErrInvalidRequest)
}
