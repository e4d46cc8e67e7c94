package moexiss

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"newspulse/internal/domain"
	"newspulse/internal/ports"
)

const (
	defaultBaseURL = "https://iss.moex.com/iss"

	// ISS timestamps carry no zone marker; the exchange publishes them in
	// Moscow time.
	timeLayout = "2006-01-02 15:04:05"
)

// issIntervalCodes translates the logical bar interval into the ISS candles
// endpoint's interval parameter. Code 60 is the 15-minute bar on this API.
var issIntervalCodes = map[ports.BarInterval]int{
	ports.Bar1m:  1,
	ports.Bar10m: 10,
	ports.Bar15m: 60,
	ports.Bar1h:  4,
	ports.Bar1d:  24,
}

// Client implements ports.MarketDataClient against the MOEX ISS index
// candles endpoint. Every upstream failure mode (transport error, non-success
// status, malformed payload, empty candle list) is reported as
// ports.ErrUnavailable; rows with non-numeric fields are dropped.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     ports.Logger
	location   *time.Location
}

// Config holds configuration specific to the ISS client adapter.
type Config struct {
	BaseURL    string // defaults to the public ISS endpoint
	HTTPClient *http.Client
	Logger     ports.Logger
}

// New creates a new ISS market-data client.
func New(cfg Config) (*Client, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for the ISS client")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	loc, err := time.LoadLocation("Europe/Moscow")
	if err != nil {
		loc = time.FixedZone("MSK", 3*60*60)
	}
	return &Client{baseURL: baseURL, httpClient: httpClient, logger: cfg.Logger, location: loc}, nil
}

// issPayload is the column-ordered candle payload of the ISS API:
// columns names one array, data holds one row per candle in that order.
type issPayload struct {
	Candles struct {
		Columns []string          `json:"columns"`
		Data    [][]json.RawMessage `json:"data"`
	} `json:"candles"`
}

// FetchCandles returns up to count bars for a sector index ticker.
func (c *Client) FetchCandles(ctx context.Context, ticker string, interval ports.BarInterval, count int, from time.Time) (domain.CandleSeries, error) {
	code, ok := issIntervalCodes[interval]
	if !ok {
		return nil, fmt.Errorf("unsupported bar interval %q: %w", interval, ports.ErrInvalidRequest)
	}

	endpoint := fmt.Sprintf("%s/engines/stock/markets/index/boards/SNDX/securities/%s/candles.json",
		c.baseURL, url.PathEscape(ticker))

	params := url.Values{}
	params.Set("interval", strconv.Itoa(code))
	params.Set("limit", strconv.Itoa(count))
	if !from.IsZero() {
		params.Set("from", from.In(c.location).Format("2006-01-02"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build ISS request for %s: %w", ticker, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("ISS request for %s canceled: %w", ticker, ctx.Err())
		}
		return nil, fmt.Errorf("ISS request for %s failed: %w: %v", ticker, ports.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn(ctx, "ISS returned non-success status", map[string]interface{}{
			"ticker": ticker, "status": resp.StatusCode, "body": string(body),
		})
		return nil, fmt.Errorf("ISS returned status %d for %s: %w", resp.StatusCode, ticker, ports.ErrUnavailable)
	}

	var payload issPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed ISS payload for %s: %w: %v", ticker, ports.ErrUnavailable, err)
	}
	return c.translate(ctx, ticker, payload)
}

// translate maps the column-ordered rows into candles. Column positions are
// resolved by name, never assumed: a payload missing a required column is
// Unavailable, not guessed.
func (c *Client) translate(ctx context.Context, ticker string, payload issPayload) (domain.CandleSeries, error) {
	if len(payload.Candles.Data) == 0 {
		return nil, fmt.Errorf("ISS returned no candles for %s: %w", ticker, ports.ErrUnavailable)
	}

	idx := make(map[string]int, len(payload.Candles.Columns))
	for i, name := range payload.Candles.Columns {
		idx[name] = i
	}
	for _, col := range []string{"begin", "end", "open", "high", "low", "close", "volume"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("ISS payload for %s is missing column %q: %w", ticker, col, ports.ErrUnavailable)
		}
	}

	candles := make([]domain.Candle, 0, len(payload.Candles.Data))
	dropped := 0
	for _, row := range payload.Candles.Data {
		candle, err := c.parseRow(row, idx)
		if err != nil {
			dropped++
			continue
		}
		candles = append(candles, candle)
	}
	if dropped > 0 {
		c.logger.Debug(ctx, "Dropped unparsable candle rows", map[string]interface{}{
			"ticker": ticker, "dropped": dropped,
		})
	}

	series := domain.NewCandleSeries(candles)
	if len(series) == 0 {
		return nil, fmt.Errorf("ISS candles for %s were all invalid: %w", ticker, ports.ErrUnavailable)
	}
	return series, nil
}

func (c *Client) parseRow(row []json.RawMessage, idx map[string]int) (domain.Candle, error) {
	if len(row) < len(idx) {
		return domain.Candle{}, fmt.Errorf("row has %d cells, want %d", len(row), len(idx))
	}

	begin, err := c.parseTime(row[idx["begin"]])
	if err != nil {
		return domain.Candle{}, err
	}
	end, err := c.parseTime(row[idx["end"]])
	if err != nil {
		return domain.Candle{}, err
	}

	candle := domain.Candle{Begin: begin, End: end}
	for _, field := range []struct {
		name string
		dst  *float64
	}{
		{"open", &candle.Open},
		{"high", &candle.High},
		{"low", &candle.Low},
		{"close", &candle.Close},
		{"volume", &candle.Volume},
	} {
		v, err := parseNumber(row[idx[field.name]])
		if err != nil {
			return domain.Candle{}, fmt.Errorf("bad %s value: %w", field.name, err)
		}
		*field.dst = v
	}
	return candle, nil
}

func (c *Client) parseTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, fmt.Errorf("timestamp is not a string: %w", err)
	}
	t, err := time.ParseInLocation(timeLayout, s, c.location)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// parseNumber accepts a JSON number or a numeric string; anything else
// (null, empty, prose) disqualifies the row.
func parseNumber(raw json.RawMessage) (float64, error) {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("value %s is not numeric", string(raw))
	}
	return strconv.ParseFloat(s, 64)
}
