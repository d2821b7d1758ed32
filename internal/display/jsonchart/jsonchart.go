// Package jsonchart renders series as a JSON chart document that a browser
// charting library can plot directly.
package jsonchart

import (
	"encoding/json"
	"fmt"
	"io"

	"tradingdata/internal/display"
	"tradingdata/internal/provider"
)

const (
	FigureCandlestick = "candlestick"
	FigureBar         = "bar"
)

// Document is the rendered chart.
type Document struct {
	ContainerID string   `json:"containerId"`
	Title       string   `json:"title"`
	Series      []Series `json:"series"`
}

// Series is one OHLC series on its own Y axis.
type Series struct {
	Name      string `json:"name"`
	Origin    string `json:"origin"`
	StockName string `json:"stockName"`
	Figure    string `json:"figure"`
	YAxis     int    `json:"yAxis"`
	// Points are [unixMillis, open, high, low, close], oldest first.
	Points [][5]float64 `json:"points"`
}

// Build converts series into a Document. Series alternate between
// candlestick and bar figures so overlapping series stay distinguishable.
func Build(containerID, title string, data ...provider.TradingData) Document {
	doc := Document{ContainerID: containerID, Title: title, Series: make([]Series, 0, len(data))}
	for i, d := range data {
		figure := FigureCandlestick
		if i%2 == 1 {
			figure = FigureBar
		}
		points := make([][5]float64, 0, len(d.Values))
		for _, v := range d.Values {
			points = append(points, [5]float64{float64(v.DateTime.UnixMilli()), v.Open, v.High, v.Low, v.Close})
		}
		doc.Series = append(doc.Series, Series{
			Name:      fmt.Sprintf("%s - %s", d.StockName, d.Origin),
			Origin:    d.Origin,
			StockName: d.StockName,
			Figure:    figure,
			YAxis:     i,
			Points:    points,
		})
	}
	return doc
}

// Chart writes one Document per ShowTradingData call to W.
type Chart struct {
	W      io.Writer
	Indent string
}

var _ display.Chart = (*Chart)(nil)

func New(w io.Writer) *Chart { return &Chart{W: w} }

func (c *Chart) ShowTradingData(containerID, title string, data ...provider.TradingData) error {
	if containerID == "" {
		return fmt.Errorf("jsonchart: empty container id")
	}
	enc := json.NewEncoder(c.W)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	if err := enc.Encode(Build(containerID, title, data...)); err != nil {
		return fmt.Errorf("jsonchart: encode: %w", err)
	}
	return nil
}
