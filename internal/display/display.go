// Package display defines where fetched series are sent for rendering.
package display

import "tradingdata/internal/provider"

// Chart renders any number of series, possibly from different origins and
// with different ranges, into one chart identified by containerID.
type Chart interface {
	ShowTradingData(containerID, title string, data ...provider.TradingData) error
}
