package alphavantage_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"tradingdata/internal/httpx/httpxmock"
	"tradingdata/internal/provider"
	"tradingdata/internal/provider/alphavantage"
)

const aaplPayload = `{
	"Meta Data": {"2. Symbol": "AAPL"},
	"Time Series (15min)": {
		"2019-10-18 16:00:00": {"1. open": "1.0", "2. high": "2.0", "3. low": "0.5", "4. close": "1.5", "5. volume": "100"}
	}
}`

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(*http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(body)),
		}, nil
	}
}

func newProvider(t *testing.T, httpClient *httpxmock.MockHTTPClient, cfg alphavantage.Config) *alphavantage.Provider {
	t.Helper()
	p, err := alphavantage.New(cfg, alphavantage.WithHTTPClient(httpClient))
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestFetch_NormalizesIntradaySeries(t *testing.T) {
	t.Parallel()

	// Arrange: create a mock HTTP client
	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)

	// Assert: stub the Do method and check the query
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Equal(t, http.MethodGet, req.Method)
			require.True(t, strings.HasPrefix(req.URL.String(), alphavantage.DefaultBaseURL))
			q := req.URL.Query()
			require.Equal(t, "TIME_SERIES_INTRADAY", q.Get("function"))
			require.Equal(t, "AAPL", q.Get("symbol"))
			require.Equal(t, "15min", q.Get("interval"))
			require.Equal(t, "compact", q.Get("outputsize"))
			require.Equal(t, "test-key", q.Get("apikey"))
			return respond(http.StatusOK, aaplPayload)(req)
		}).
		Times(1)

	p := newProvider(t, httpClient, alphavantage.Config{APIKey: "test-key"})

	// Act
	data, err := p.Fetch(t.Context(), "AAPL")

	// Assert
	require.NoError(t, err)
	require.Equal(t, "alphavantage.co", data.Origin)
	require.Equal(t, "AAPL", data.StockName)
	require.Len(t, data.Values, 1)
	got := data.Values[0]
	require.True(t, time.Date(2019, 10, 18, 16, 0, 0, 0, time.UTC).Equal(got.DateTime), "dateTime: %s", got.DateTime)
	require.Equal(t, 1.0, got.Open)
	require.Equal(t, 2.0, got.High)
	require.Equal(t, 0.5, got.Low)
	require.Equal(t, 1.5, got.Close)
}

func TestFetch_UsesPayloadTimeZoneAndSortsOldestFirst(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(respond(http.StatusOK, `{
		"Meta Data": {"2. Symbol": "MSFT", "6. Time Zone": "US/Eastern"},
		"Time Series (15min)": {
			"2019-10-18 16:00:00": {"1. open": "3", "2. high": "3", "3. low": "3", "4. close": "3"},
			"2019-10-18 15:30:00": {"1. open": "1", "2. high": "1", "3. low": "1", "4. close": "1"},
			"2019-10-18 15:45:00": {"1. open": "2", "2. high": "2", "3. low": "2", "4. close": "2"}
		}
	}`)).Times(1)

	p := newProvider(t, httpClient, alphavantage.Config{APIKey: "k"})
	data, err := p.Fetch(t.Context(), "msft")
	require.NoError(t, err)
	require.Len(t, data.Values, 3)

	eastern, err := time.LoadLocation("US/Eastern")
	require.NoError(t, err)
	require.True(t, time.Date(2019, 10, 18, 15, 30, 0, 0, eastern).Equal(data.Values[0].DateTime))
	for i, want := range []float64{1, 2, 3} {
		require.Equal(t, want, data.Values[i].Close)
	}
	// 16:00 US/Eastern is 20:00 UTC during daylight saving time.
	require.Equal(t, 20, data.Values[2].DateTime.UTC().Hour())
}

func TestFetch_FallsBackToRequestedSymbol(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(respond(http.StatusOK, `{
		"Time Series (15min)": {}
	}`)).Times(1)

	p := newProvider(t, httpClient, alphavantage.Config{})
	data, err := p.Fetch(t.Context(), " ibm ")
	require.NoError(t, err)
	require.Equal(t, "IBM", data.StockName)
	require.NotNil(t, data.Values)
	require.Empty(t, data.Values)
}

func TestFetch_BijectionBetweenKeysAndItems(t *testing.T) {
	t.Parallel()

	// Arrange: a synthetic payload with a known timestamp -> OHLC mapping
	base := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	series := map[string]map[string]string{}
	want := map[int64]provider.TradingDataItem{}
	for i := 0; i < 40; i++ {
		at := base.Add(time.Duration(i) * 15 * time.Minute)
		v := float64(i) + 0.25
		series[at.Format(time.DateTime)] = map[string]string{
			"1. open":  fmt.Sprint(v),
			"2. high":  fmt.Sprint(v + 1),
			"3. low":   fmt.Sprint(v - 0.25),
			"4. close": fmt.Sprint(v + 0.5),
		}
		want[at.Unix()] = provider.TradingDataItem{DateTime: at, Open: v, High: v + 1, Low: v - 0.25, Close: v + 0.5}
	}
	body, err := json.Marshal(map[string]any{
		"Meta Data":           map[string]string{"2. Symbol": "SYN"},
		"Time Series (15min)": series,
	})
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(respond(http.StatusOK, string(body))).Times(1)
	p := newProvider(t, httpClient, alphavantage.Config{})

	// Act
	data, err := p.Fetch(t.Context(), "SYN")
	require.NoError(t, err)

	// Assert: every key yields exactly one item with the same values, oldest first
	require.Len(t, data.Values, len(series))
	seen := map[int64]bool{}
	for i, it := range data.Values {
		key := it.DateTime.Unix()
		exp, ok := want[key]
		require.Truef(t, ok, "unexpected timestamp %s", it.DateTime)
		require.False(t, seen[key], "duplicate timestamp %s", it.DateTime)
		seen[key] = true
		require.Equal(t, exp.Open, it.Open)
		require.Equal(t, exp.High, it.High)
		require.Equal(t, exp.Low, it.Low)
		require.Equal(t, exp.Close, it.Close)
		if i > 0 {
			require.True(t, data.Values[i-1].DateTime.Before(it.DateTime))
		}
	}
}

func TestFetch_UnknownTimeZoneUnusedByKeys(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(respond(http.StatusOK, `{
		"Meta Data": {"2. Symbol": "IBM", "6. Time Zone": "Mars/Olympus"},
		"Time Series (15min)": {
			"2019-10-18T16:00:00-04:00": {"1. open": "1", "2. high": "2", "3. low": "0.5", "4. close": "1.5"}
		}
	}`)).Times(1)

	p := newProvider(t, httpClient, alphavantage.Config{APIKey: "k"})
	data, err := p.Fetch(t.Context(), "IBM")
	require.NoError(t, err)
	require.Len(t, data.Values, 1)
	require.True(t, time.Date(2019, 10, 18, 20, 0, 0, 0, time.UTC).Equal(data.Values[0].DateTime))
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		do   func(*http.Request) (*http.Response, error)
		kind provider.Kind
	}{
		{
			name: "error message payload",
			do:   respond(http.StatusOK, `{"Error Message": "Invalid API call."}`),
			kind: provider.KindProviderReported,
		},
		{
			name: "rate limit note",
			do:   respond(http.StatusOK, `{"Note": "Thank you for using Alpha Vantage! Our standard API call frequency is 5 calls per minute."}`),
			kind: provider.KindProviderReported,
		},
		{
			name: "information payload",
			do:   respond(http.StatusOK, `{"Information": "The **demo** API key is for demo purposes only."}`),
			kind: provider.KindProviderReported,
		},
		{
			name: "missing time series",
			do:   respond(http.StatusOK, `{"Meta Data": {"2. Symbol": "AAPL"}}`),
			kind: provider.KindResponseFormat,
		},
		{
			name: "unparsable price",
			do: respond(http.StatusOK, `{"Time Series (15min)": {
				"2019-10-18 16:00:00": {"1. open": "abc", "2. high": "2", "3. low": "1", "4. close": "1"}}}`),
			kind: provider.KindResponseFormat,
		},
		{
			name: "missing price field",
			do: respond(http.StatusOK, `{"Time Series (15min)": {
				"2019-10-18 16:00:00": {"1. open": "1", "2. high": "2", "3. low": "1"}}}`),
			kind: provider.KindResponseFormat,
		},
		{
			name: "bad timestamp key",
			do: respond(http.StatusOK, `{"Time Series (15min)": {
				"yesterday": {"1. open": "1", "2. high": "2", "3. low": "1", "4. close": "1"}}}`),
			kind: provider.KindResponseFormat,
		},
		{
			name: "unknown time zone with zone-less key",
			do: respond(http.StatusOK, `{"Meta Data": {"6. Time Zone": "Mars/Olympus"}, "Time Series (15min)": {
				"2019-10-18 16:00:00": {"1. open": "1", "2. high": "2", "3. low": "1", "4. close": "1"}}}`),
			kind: provider.KindResponseFormat,
		},
		{
			name: "invalid json",
			do:   respond(http.StatusOK, `invalid json`),
			kind: provider.KindResponseFormat,
		},
		{
			name: "unexpected status",
			do:   respond(http.StatusInternalServerError, `boom`),
			kind: provider.KindNetwork,
		},
		{
			name: "transport failure",
			do: func(*http.Request) (*http.Response, error) {
				return nil, errors.New("connection refused")
			},
			kind: provider.KindNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			httpClient := httpxmock.NewMockHTTPClient(ctrl)
			httpClient.EXPECT().Do(gomock.Any()).DoAndReturn(tt.do).Times(1)
			p := newProvider(t, httpClient, alphavantage.Config{})

			data, err := p.Fetch(t.Context(), "AAPL")
			require.Error(t, err)
			require.Empty(t, data.Values)

			var pe *provider.ProviderError
			require.ErrorAs(t, err, &pe)
			require.Equal(t, "alphavantage.co", pe.Origin)
			require.Equalf(t, tt.kind, pe.Kind, "got %v", err)
		})
	}
}

func TestFetch_EmptySymbolSkipsNetwork(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	httpClient.EXPECT().Do(gomock.Any()).Times(0)
	p := newProvider(t, httpClient, alphavantage.Config{})

	_, err := p.Fetch(t.Context(), "  ")
	require.ErrorIs(t, err, provider.ErrEmptySymbol)
	require.True(t, provider.IsKind(err, provider.KindRequest))
}

func TestWithBaseURLAndHeader(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	httpClient := httpxmock.NewMockHTTPClient(ctrl)
	baseURL := "http://localhost:8080/query"
	httpClient.EXPECT().
		Do(gomock.Any()).
		DoAndReturn(func(req *http.Request) (*http.Response, error) {
			require.Truef(t, strings.HasPrefix(req.URL.String(), baseURL), "expected url to start with base url, received: %s", req.URL.String())
			require.Equal(t, "bar", req.Header.Get("foo"))
			require.Equal(t, "application/json", req.Header.Get("Accept"))
			return respond(http.StatusOK, aaplPayload)(req)
		}).
		Times(1)

	p, err := alphavantage.New(alphavantage.Config{},
		alphavantage.WithHTTPClient(httpClient),
		alphavantage.WithBaseURL(baseURL),
		alphavantage.WithHeader(http.Header{"foo": []string{"bar"}}),
	)
	require.NoError(t, err)

	_, err = p.Fetch(t.Context(), "AAPL")
	require.NoError(t, err)
}

func TestNew_RejectsUnsupportedParameters(t *testing.T) {
	t.Parallel()

	_, err := alphavantage.New(alphavantage.Config{Interval: "2min"})
	require.Error(t, err)

	_, err = alphavantage.New(alphavantage.Config{OutputSize: "huge"})
	require.Error(t, err)

	p, err := alphavantage.New(alphavantage.Config{Interval: "60min", OutputSize: "full"})
	require.NoError(t, err)
	require.Equal(t, "alphavantage.co", p.Name())
}
