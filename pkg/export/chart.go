package export

import (
	"io"
	"sort"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/iqrfdash/core/codec"
	"github.com/kilianp07/iqrfdash/core/history"
	"github.com/kilianp07/iqrfdash/core/model"
)

// TemperaturePoint is one reading extracted from history.
type TemperaturePoint struct {
	Time    time.Time
	Variant model.Variant
	Value   float64
}

// Temperatures decodes the temperature entries, skipping anything else.
func Temperatures(entries []history.Entry) []TemperaturePoint {
	var out []TemperaturePoint
	for _, e := range entries {
		if e.Kind != model.KindTemperature.String() {
			continue
		}
		rec, err := codec.Decode(e.Topic, []byte(e.Payload))
		if err != nil {
			continue
		}
		if r, ok := rec.(model.TemperatureReading); ok {
			out = append(out, TemperaturePoint{Time: e.Time, Variant: r.Variant, Value: r.Value})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}

// WriteTemperatureChart renders a line chart with one series per network
// variant as a standalone HTML page.
func WriteTemperatureChart(w io.Writer, entries []history.Entry) error {
	points := Temperatures(entries)

	// One x label per distinct timestamp; a series has no value where the
	// other variant reported.
	var labels []string
	index := map[time.Time]int{}
	for _, p := range points {
		if _, ok := index[p.Time]; !ok {
			index[p.Time] = len(labels)
			labels = append(labels, p.Time.Format("2006-01-02 15:04:05"))
		}
	}
	series := map[model.Variant][]opts.LineData{
		model.VariantStandard: make([]opts.LineData, len(labels)),
		model.VariantLowPower: make([]opts.LineData, len(labels)),
	}
	for v := range series {
		for i := range series[v] {
			series[v][i] = opts.LineData{Value: "-"}
		}
	}
	for _, p := range points {
		series[p.Variant][index[p.Time]] = opts.LineData{Value: p.Value}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "IQRF temperatures"}),
		charts.WithTitleOpts(opts.Title{Title: "Temperature"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "°C"}),
	)
	line.SetXAxis(labels).
		AddSeries("TEMPERATURE", series[model.VariantStandard]).
		AddSeries("TEMPERATURE 2", series[model.VariantLowPower])
	return line.Render(w)
}
