// Package alphavantage normalizes the Alpha Vantage TIME_SERIES_INTRADAY API.
// https://www.alphavantage.co/documentation/
package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tradingdata/internal/httpx"
	"tradingdata/internal/logging"
	"tradingdata/internal/provider"
)

const (
	// Origin tags every series produced by this adapter.
	Origin = "alphavantage.co"

	DefaultBaseURL    = "https://www.alphavantage.co/query"
	DefaultInterval   = "15min"
	DefaultOutputSize = "compact"
)

var (
	intervals   = []string{"1min", "5min", "15min", "30min", "60min"}
	outputSizes = []string{"compact", "full"}
)

// Config is fixed at construction; none of it varies per call.
type Config struct {
	APIKey string
	// Interval between points: 1min, 5min, 15min, 30min or 60min.
	Interval string
	// OutputSize is "compact" (latest 100 points) or "full".
	OutputSize string
	// Location is used when the payload does not name its time zone.
	// Defaults to UTC.
	Location *time.Location
}

// Provider implements provider.Provider for Alpha Vantage.
type Provider struct {
	cfg     Config
	baseURL string
	client  httpx.HTTPClient
	header  http.Header
	log     logrus.FieldLogger
}

// Option is a configuration option for the Alpha Vantage provider.
type Option func(*Provider)

// WithBaseURL sets the base URL for the API.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = baseURL }
}

// WithHTTPClient sets the HTTP client for the API.
func WithHTTPClient(client httpx.HTTPClient) Option {
	return func(p *Provider) { p.client = client }
}

// WithHeader sets additional headers to be sent with each request.
func WithHeader(header http.Header) Option {
	return func(p *Provider) {
		for key, values := range header {
			for _, value := range values {
				p.header.Add(key, value)
			}
		}
	}
}

// WithLogger sets the logger used for per-fetch diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Provider) { p.log = log }
}

// New creates an Alpha Vantage provider.
func New(cfg Config, opts ...Option) (*Provider, error) {
	if cfg.Interval == "" {
		cfg.Interval = DefaultInterval
	}
	if cfg.OutputSize == "" {
		cfg.OutputSize = DefaultOutputSize
	}
	if !slices.Contains(intervals, cfg.Interval) {
		return nil, fmt.Errorf("alphavantage: unsupported interval %q", cfg.Interval)
	}
	if !slices.Contains(outputSizes, cfg.OutputSize) {
		return nil, fmt.Errorf("alphavantage: unsupported output size %q", cfg.OutputSize)
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	p := &Provider{
		cfg:     cfg,
		baseURL: DefaultBaseURL,
		client:  http.DefaultClient,
		header:  http.Header{},
		log:     logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *Provider) Name() string { return Origin }

// Fetch retrieves the configured intraday window for symbol.
func (p *Provider) Fetch(ctx context.Context, symbol string) (provider.TradingData, error) {
	if err := provider.CheckSymbol(Origin, symbol); err != nil {
		return provider.TradingData{}, err
	}
	u, err := p.queryURL(symbol)
	if err != nil {
		return provider.TradingData{}, provider.Wrap(Origin, provider.KindRequest, symbol, "building url", err)
	}

	var raw map[string]json.RawMessage
	if err := httpx.GetJSON(ctx, p.client, u, p.header, &raw); err != nil {
		return provider.TradingData{}, provider.FromHTTP(Origin, symbol, err)
	}
	data, err := p.normalize(symbol, raw)
	if err != nil {
		return provider.TradingData{}, err
	}
	p.log.WithFields(logrus.Fields{"origin": Origin, "symbol": data.StockName, "points": len(data.Values)}).Debug("series fetched")
	return data, nil
}

func (p *Provider) queryURL(symbol string) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	q.Set("function", "TIME_SERIES_INTRADAY")
	q.Set("symbol", strings.TrimSpace(symbol))
	q.Set("interval", p.cfg.Interval)
	q.Set("outputsize", p.cfg.OutputSize)
	q.Set("apikey", p.cfg.APIKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

type metaData struct {
	Information   string `json:"1. Information"`
	Symbol        string `json:"2. Symbol"`
	LastRefreshed string `json:"3. Last Refreshed"`
	Interval      string `json:"4. Interval"`
	OutputSize    string `json:"5. Output Size"`
	TimeZone      string `json:"6. Time Zone"`
}

type bar struct {
	Open   provider.Number `json:"1. open"`
	High   provider.Number `json:"2. high"`
	Low    provider.Number `json:"3. low"`
	Close  provider.Number `json:"4. close"`
	Volume provider.Number `json:"5. volume"`
}

// Top-level keys Alpha Vantage uses instead of data when a call is refused.
var messageKeys = []string{"Error Message", "Note", "Information"}

func (p *Provider) normalize(symbol string, raw map[string]json.RawMessage) (provider.TradingData, error) {
	if msg, ok := message(raw, "Error Message"); ok {
		return provider.TradingData{}, provider.Errorf(Origin, provider.KindProviderReported, symbol, "%s", msg)
	}
	key, ok := seriesKey(raw, p.cfg.Interval)
	if !ok {
		for _, k := range messageKeys {
			if msg, ok := message(raw, k); ok {
				return provider.TradingData{}, provider.Errorf(Origin, provider.KindProviderReported, symbol, "%s", msg)
			}
		}
		return provider.TradingData{}, provider.Errorf(Origin, provider.KindResponseFormat, symbol, "missing %q", "Time Series ("+p.cfg.Interval+")")
	}

	var meta metaData
	if m, ok := raw["Meta Data"]; ok {
		if err := json.Unmarshal(m, &meta); err != nil {
			return provider.TradingData{}, provider.Wrap(Origin, provider.KindResponseFormat, symbol, "meta data", err)
		}
	}
	zone := provider.NewZone(meta.TimeZone, p.cfg.Location)

	var series map[string]bar
	if err := json.Unmarshal(raw[key], &series); err != nil {
		return provider.TradingData{}, provider.Wrap(Origin, provider.KindResponseFormat, symbol, key, err)
	}
	values := make([]provider.TradingDataItem, 0, len(series))
	for k, b := range series {
		ts, err := zone.Parse(k, provider.LayoutDateTime, provider.LayoutDate)
		if err != nil {
			return provider.TradingData{}, provider.Wrap(Origin, provider.KindResponseFormat, symbol, key, err)
		}
		it, err := provider.Item(ts, b.Open, b.High, b.Low, b.Close)
		if err != nil {
			return provider.TradingData{}, provider.Wrap(Origin, provider.KindResponseFormat, symbol, key, err)
		}
		values = append(values, it)
	}
	provider.SortValues(values)

	return provider.TradingData{
		Origin:    Origin,
		StockName: provider.StockName(meta.Symbol, symbol),
		Values:    values,
	}, nil
}

// seriesKey finds "Time Series (<interval>)", or the only "Time Series*" key
// when the upstream labels it differently (e.g. daily series).
func seriesKey(raw map[string]json.RawMessage, interval string) (string, bool) {
	want := "Time Series (" + interval + ")"
	if _, ok := raw[want]; ok {
		return want, true
	}
	var found []string
	for k := range raw {
		if strings.HasPrefix(k, "Time Series") {
			found = append(found, k)
		}
	}
	if len(found) == 1 {
		return found[0], true
	}
	return "", false
}

func message(raw map[string]json.RawMessage, key string) (string, bool) {
	m, ok := raw[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(m, &s); err != nil || strings.TrimSpace(s) == "" {
		return "", false
	}
	return strings.TrimSpace(s), true
}
