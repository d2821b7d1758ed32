package provider

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"tradingdata/internal/httpx"
)

func TestProviderError_Error(t *testing.T) {
	t.Parallel()

	err := Wrap("alphavantage.co", KindResponseFormat, "IBM", "Time Series (15min)", errors.New("boom"))
	require.Equal(t, "alphavantage.co: response format (IBM): Time Series (15min): boom", err.Error())

	err = Errorf("worldtradingdata.com", KindProviderReported, "", "%s", "Invalid API Key.")
	require.Equal(t, "worldtradingdata.com: provider reported: Invalid API Key.", err.Error())
}

func TestFromHTTP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		kind Kind
	}{
		{"request", fmt.Errorf("%w: bad url", httpx.ErrRequest), KindRequest},
		{"decode", fmt.Errorf("%w: unexpected EOF", httpx.ErrDecode), KindResponseFormat},
		{"status", &httpx.StatusError{Method: "GET", URL: "https://x", Code: 503}, KindNetwork},
		{"transport", context.DeadlineExceeded, KindNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := FromHTTP("origin", "SYM", tt.err)
			require.True(t, IsKind(err, tt.kind))
			require.ErrorIs(t, err, tt.err)
		})
	}
}

func TestCheckSymbol(t *testing.T) {
	t.Parallel()

	require.NoError(t, CheckSymbol("o", "IBM"))

	err := CheckSymbol("o", " \t")
	require.ErrorIs(t, err, ErrEmptySymbol)
	require.True(t, IsKind(err, KindRequest))
	require.False(t, IsKind(errors.New("plain"), KindRequest))
}
