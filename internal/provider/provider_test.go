package provider

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTradingDataItem_Consistent(t *testing.T) {
	t.Parallel()

	require.True(t, TradingDataItem{Open: 1, High: 2, Low: 0.5, Close: 1.5}.Consistent())
	require.True(t, TradingDataItem{Open: 1, High: 1, Low: 1, Close: 1}.Consistent())
	require.False(t, TradingDataItem{Open: 3, High: 2, Low: 1, Close: 1.5}.Consistent())
	require.False(t, TradingDataItem{Open: 1, High: 2, Low: 1.2, Close: 1.5}.Consistent())
}

func TestStockName(t *testing.T) {
	t.Parallel()

	require.Equal(t, "GOOG", StockName("goog", "AAPL"))
	require.Equal(t, "AAPL", StockName("  ", " aapl "))
}
