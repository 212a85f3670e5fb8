// Package dashboard renders the KPI table as a standalone HTML page with a
// completion-rate line chart and a grouped order-count bar chart per site.
package dashboard

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"bireport/internal/storage"
)

// Render writes the dashboard HTML. An empty KPI set is an error so the
// caller can log and skip instead of publishing an empty page.
func Render(path string, kpis []storage.KPIRow) error {
	const op = "dashboard.Render"

	if len(kpis) == 0 {
		return fmt.Errorf("%s: no KPI rows to render", op)
	}

	periods, bySite := seriesData(kpis)
	sites := sortedSites(bySite)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Completion rate per site (monthly)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	line.SetXAxis(periods)
	for _, site := range sites {
		data := make([]opts.LineData, len(periods))
		for i, p := range periods {
			if row, ok := bySite[site][p]; ok {
				data[i] = opts.LineData{Value: row.CompletionRate}
			} else {
				// Gap in the series, not a zero.
				data[i] = opts.LineData{Value: nil}
			}
		}
		line.AddSeries(site, data)
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Order count per month and site"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(periods)
	for _, site := range sites {
		data := make([]opts.BarData, len(periods))
		for i, p := range periods {
			if row, ok := bySite[site][p]; ok {
				data[i] = opts.BarData{Value: row.OrdersCount}
			} else {
				data[i] = opts.BarData{Value: nil}
			}
		}
		bar.AddSeries(site, data)
	}

	page := components.NewPage()
	page.PageTitle = "BI Dashboard - KPI Export"
	page.AddCharts(line, bar)

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func seriesData(kpis []storage.KPIRow) ([]string, map[string]map[string]storage.KPIRow) {
	periodSet := make(map[string]struct{})
	bySite := make(map[string]map[string]storage.KPIRow)
	for _, k := range kpis {
		periodSet[k.YearMonth] = struct{}{}
		if bySite[k.Site] == nil {
			bySite[k.Site] = make(map[string]storage.KPIRow)
		}
		bySite[k.Site][k.YearMonth] = k
	}

	periods := make([]string, 0, len(periodSet))
	for p := range periodSet {
		periods = append(periods, p)
	}
	sort.Strings(periods)
	return periods, bySite
}

func sortedSites(bySite map[string]map[string]storage.KPIRow) []string {
	sites := make([]string, 0, len(bySite))
	for s := range bySite {
		sites = append(sites, s)
	}
	sort.Strings(sites)
	return sites
}
