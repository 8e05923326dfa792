package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	chartypes "github.com/go-echarts/go-echarts/v2/types"

	"sable/internal/types"
)

// 中文说明：
// 盈亏报告页：每个标的一条未实现盈亏曲线，外加一张已实现盈亏柱状图。
// 输出纯 HTML（echarts 自渲染），直接在浏览器打开即可。

const (
	colorBackground    = "#060c1b"
	colorTextPrimary   = "#eceff4"
	colorTextSecondary = "#9ca3af"

	chartWidth  = "1200px"
	chartHeight = "420px"
)

// Input 报告所需的快照数据。
type Input struct {
	GeneratedAt time.Time
	Positions   []types.Position
	Assets      []types.Asset
}

// WriteHTML 渲染报告页到 w。
func WriteHTML(w io.Writer, input Input) error {
	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = "sable 盈亏报告"

	if bar := buildRealizedBar(input.Assets); bar != nil {
		page.AddCharts(bar)
	}
	for _, pos := range sortedPositions(input.Positions) {
		if line := buildPnLLine(pos); line != nil {
			page.AddCharts(line)
		}
	}
	return page.Render(w)
}

// WriteFile 渲染报告到指定路径。
func WriteFile(path string, input Input) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("report: 输出路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteHTML(f, input)
}

func sortedPositions(positions []types.Position) []types.Position {
	out := make([]types.Position, len(positions))
	copy(out, positions)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// buildPnLLine 把持仓的盈亏快照画成一条时间序列。快照不足两条时跳过。
func buildPnLLine(pos types.Position) *charts.Line {
	if len(pos.PnLEntries) < 2 {
		return nil
	}
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           chartypes.ThemeWesteros,
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      fmt.Sprintf("%s 持仓盈亏 (%%)", strings.ToUpper(pos.Symbol)),
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Scale:     opts.Bool(true),
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
	)

	xAxis := make([]string, 0, len(pos.PnLEntries))
	series := make([]opts.LineData, 0, len(pos.PnLEntries))
	for _, entry := range pos.PnLEntries {
		xAxis = append(xAxis, entry.Date.Format("01-02 15:04"))
		series = append(series, opts.LineData{Value: entry.Value})
	}
	line.SetXAxis(xAxis)
	line.AddSeries(strings.ToUpper(pos.Symbol), series,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}),
	)
	return line
}

// buildRealizedBar 各标的累计已实现盈亏对比。
func buildRealizedBar(assets []types.Asset) *charts.Bar {
	if len(assets) == 0 {
		return nil
	}
	sorted := make([]types.Asset, len(assets))
	copy(sorted, assets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Theme:           chartypes.ThemeWesteros,
			Width:           chartWidth,
			Height:          chartHeight,
			BackgroundColor: colorBackground,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:      "累计已实现盈亏 (%)",
			Left:       "left",
			TitleStyle: &opts.TextStyle{Color: colorTextPrimary, FontSize: 16},
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:      "category",
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			AxisLabel: &opts.AxisLabel{Color: colorTextSecondary},
		}),
	)

	xAxis := make([]string, 0, len(sorted))
	series := make([]opts.BarData, 0, len(sorted))
	for _, a := range sorted {
		xAxis = append(xAxis, strings.ToUpper(a.Symbol))
		series = append(series, opts.BarData{Value: a.RealizedPnL})
	}
	bar.SetXAxis(xAxis)
	bar.AddSeries("realized_pnl", series)
	return bar
}
