package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/kitti-ingest/internal/ingest"
	"github.com/banshee-data/kitti-ingest/internal/kitti/difficulty"
)

// echartsAssetsPrefix is the CDN the generated page loads echarts from.
const echartsAssetsPrefix = "https://go-echarts.github.io/go-echarts-assets/assets/"

var summaryLevels = []difficulty.Level{difficulty.Easy, difficulty.Moderate, difficulty.Hard, difficulty.Unknown}

// WriteSummaryHTML writes a stacked bar chart of object counts per class
// and difficulty.
func WriteSummaryHTML(w io.Writer, title string, counts map[string]ingest.DifficultyCounts) error {
	classes := make([]string, 0, len(counts))
	total := 0
	for name, c := range counts {
		classes = append(classes, name)
		for _, l := range summaryLevels {
			total += c.Get(l)
		}
	}
	sort.Strings(classes)

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "100%", Height: "720px", AssetsHost: echartsAssetsPrefix}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("classes=%d objects=%d", len(classes), total)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(classes)
	for _, l := range summaryLevels {
		data := make([]opts.BarData, len(classes))
		for i, name := range classes {
			data[i] = opts.BarData{Value: counts[name].Get(l)}
		}
		bar.AddSeries(l.String(), data, charts.WithBarChartOpts(opts.BarChart{Stack: "difficulty"}))
	}

	page := components.NewPage()
	page.SetAssetsHost(echartsAssetsPrefix)
	page.AddCharts(bar)
	return page.Render(w)
}
