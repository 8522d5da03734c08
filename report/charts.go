// Package report renders an AnalysisResult as an HTML chart page and,
// through a headless browser, as PDF.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"weeromzet/models"
)

const chartWidth = "900px"

func chartInit(title string) charts.GlobalOpts {
	return charts.WithInitializationOpts(opts.Initialization{
		PageTitle: title,
		Width:     chartWidth,
		Height:    "420px",
	})
}

// RenderHTML writes a self-contained chart page for r to w.
func RenderHTML(w io.Writer, r *models.AnalysisResult) error {
	if r == nil {
		return fmt.Errorf("report: nil result")
	}

	page := components.NewPage()
	page.PageTitle = "Omzet analyse"
	page.AddCharts(
		locationChart(r.Locations),
		weekdayChart(r.DayOfWeek),
		monthChart(r.Monthly),
	)
	if r.Weather != nil && r.Weather.HasWeatherData && r.Weather.LocationAnalysis != nil {
		for _, lw := range r.Weather.LocationAnalysis.Locations {
			page.AddCharts(scenarioHeatMap(lw))
		}
	}

	if err := page.Render(w); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	return nil
}

func locationChart(locations []models.LocationStats) *charts.Bar {
	names := make([]string, 0, len(locations))
	totals := make([]opts.BarData, 0, len(locations))
	averages := make([]opts.BarData, 0, len(locations))
	for _, l := range locations {
		names = append(names, l.Name)
		totals = append(totals, opts.BarData{Value: l.TotalRevenue})
		averages = append(averages, opts.BarData{Value: l.AverageRevenue})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		chartInit("Omzet per locatie"),
		charts.WithTitleOpts(opts.Title{Title: "Omzet per locatie", Subtitle: "Totaal en gemiddeld per verkoopdag (EUR)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Right: "10%"}),
	)
	bar.SetXAxis(names).
		AddSeries("Totaal", totals).
		AddSeries("Gemiddeld", averages)
	return bar
}

func weekdayChart(days []models.DayStats) *charts.Bar {
	names := make([]string, 0, len(days))
	averages := make([]opts.BarData, 0, len(days))
	for _, d := range days {
		names = append(names, d.DayName)
		averages = append(averages, opts.BarData{Value: d.AverageRevenue})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		chartInit("Omzet per weekdag"),
		charts.WithTitleOpts(opts.Title{Title: "Omzet per weekdag", Subtitle: "Gemiddelde omzet (EUR)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).AddSeries("Gemiddeld", averages,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}))
	return bar
}

func monthChart(months []models.MonthStats) *charts.Line {
	names := make([]string, 0, len(months))
	totals := make([]opts.LineData, 0, len(months))
	for _, m := range months {
		names = append(names, m.MonthName)
		totals = append(totals, opts.LineData{Value: m.TotalRevenue})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		chartInit("Omzet per maand"),
		charts.WithTitleOpts(opts.Title{Title: "Omzet per maand", Subtitle: "Totale omzet (EUR)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(names).AddSeries("Totaal", totals,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))
	return line
}

var (
	rainLabels = []string{"Droog (<1mm)", "Licht nat (1-5mm)", "Nat (>5mm)"}
	tempLabels = []string{"Koud (<10°C)", "Mild (10-18°C)", "Warm (>18°C)"}
)

// scenarioHeatMap plots the average revenue of each temperature and rain
// cell. Empty cells are left out.
func scenarioHeatMap(lw models.LocationWeather) *charts.HeatMap {
	temps := []models.TempCategory{models.TempKoud, models.TempMild, models.TempWarm}

	var data []opts.HeatMapData
	peak := 0.0
	for y, t := range temps {
		for x, rc := range models.RainCategories {
			s := lw.Scenario(t, rc)
			if s.Count == 0 {
				continue
			}
			if s.AvgRevenue > peak {
				peak = s.AvgRevenue
			}
			data = append(data, opts.HeatMapData{Name: s.Scenario, Value: [3]interface{}{x, y, s.AvgRevenue}})
		}
	}

	hm := charts.NewHeatMap()
	hm.SetGlobalOptions(
		chartInit("Weer scenario's"),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s: omzet per weertype", lw.LocationName),
			Subtitle: fmt.Sprintf("Weergevoeligheid %d/100 (%s)", lw.SensitivityScore, lw.SensitivityLevel),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "category", Data: rainLabels}),
		charts.WithYAxisOpts(opts.YAxis{Type: "category", Data: tempLabels}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(peak),
			InRange:    &opts.VisualMapInRange{Color: []string{"#f6efa6", "#d88273", "#bf444c"}},
		}),
	)
	hm.AddSeries("Gemiddelde omzet", data,
		charts.WithLabelOpts(opts.Label{Show: opts.Bool(true)}))
	return hm
}
