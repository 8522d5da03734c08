package services

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"weeromzet/models"
	"weeromzet/utils"
)

var dutchDayNames = [7]string{"Zondag", "Maandag", "Dinsdag", "Woensdag", "Donderdag", "Vrijdag", "Zaterdag"}

var dutchMonthNames = [12]string{
	"Januari", "Februari", "Maart", "April", "Mei", "Juni",
	"Juli", "Augustus", "September", "Oktober", "November", "December",
}

// Analyzer aggregates SalesRecords into revenue statistics.
type Analyzer struct {
	logger *utils.Logger
}

// NewAnalyzer creates an Analyzer with the given logger.
func NewAnalyzer(logger *utils.Logger) *Analyzer {
	return &Analyzer{logger: logger}
}

// group accumulates one aggregation bucket in first-seen order.
type group struct {
	key     string
	total   decimal.Decimal
	records []models.SalesRecord
}

func (g *group) average() float64 {
	return g.total.InexactFloat64() / float64(len(g.records))
}

type grouper struct {
	index  map[string]int
	groups []*group
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(key string, r models.SalesRecord) {
	i, ok := g.index[key]
	if !ok {
		i = len(g.groups)
		g.index[key] = i
		g.groups = append(g.groups, &group{key: key})
	}
	g.groups[i].total = g.groups[i].total.Add(r.Amount)
	g.groups[i].records = append(g.groups[i].records, r)
}

// Analyze computes summary, per-location, per-weekday and per-month
// statistics plus the narrative insights. It is deterministic for a given
// input and fails with models.ErrEmptyDataset on empty input.
func (a *Analyzer) Analyze(records []models.SalesRecord) (*models.AnalysisResult, error) {
	if len(records) == 0 {
		return nil, models.ErrEmptyDataset
	}

	total := decimal.Zero
	start, end := records[0].Date, records[0].Date
	byLocation, byDay, byMonth := newGrouper(), newGrouper(), newGrouper()

	for _, r := range records {
		total = total.Add(r.Amount)
		if r.Date.Before(start) {
			start = r.Date
		}
		if r.Date.After(end) {
			end = r.Date
		}
		byLocation.add(r.Location, r)
		byDay.add(fmt.Sprint(int(r.Date.Weekday())), r)
		byMonth.add(r.Date.Format("2006-01"), r)
	}

	locations := locationStats(byLocation)
	days := dayStats(byDay)
	months := monthStats(byMonth)

	totalF := total.InexactFloat64()
	summary := models.Summary{
		TotalRevenue:      totalF,
		TotalTransactions: len(records),
		AverageRevenue:    totalF / float64(len(records)),
		BestLocation:      "Onbekend",
		WorstLocation:     "Onbekend",
		DateRange:         models.DateRange{Start: formatDay(start), End: formatDay(end)},
	}
	if len(locations) > 0 {
		summary.BestLocation = locations[0].Name
		summary.WorstLocation = locations[len(locations)-1].Name
	}

	result := &models.AnalysisResult{
		Summary:   summary,
		Locations: locations,
		DayOfWeek: days,
		Monthly:   months,
	}
	result.Insights = RevenueInsights(result)

	a.logger.Info("[analyzer] %d records, %d locations, total €%.2f",
		len(records), len(locations), totalF)
	return result, nil
}

func locationStats(g *grouper) []models.LocationStats {
	out := make([]models.LocationStats, 0, len(g.groups))
	for _, grp := range g.groups {
		best, worst := grp.records[0], grp.records[0]
		for _, r := range grp.records[1:] {
			// First occurrence wins the best day, last occurrence the worst,
			// matching a stable descending sort.
			if r.Amount.GreaterThan(best.Amount) {
				best = r
			}
			if r.Amount.LessThanOrEqual(worst.Amount) {
				worst = r
			}
		}
		out = append(out, models.LocationStats{
			Name:             grp.key,
			TotalRevenue:     grp.total.InexactFloat64(),
			AverageRevenue:   grp.average(),
			TransactionCount: len(grp.records),
			BestDay:          formatDay(best.Date),
			WorstDay:         formatDay(worst.Date),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageRevenue > out[j].AverageRevenue })
	return out
}

func dayStats(g *grouper) []models.DayStats {
	out := make([]models.DayStats, 0, len(g.groups))
	for _, grp := range g.groups {
		day := int(grp.records[0].Date.Weekday())
		out = append(out, models.DayStats{
			Day:              day,
			DayName:          dutchDayNames[day],
			TotalRevenue:     grp.total.InexactFloat64(),
			AverageRevenue:   grp.average(),
			TransactionCount: len(grp.records),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageRevenue > out[j].AverageRevenue })
	return out
}

func monthStats(g *grouper) []models.MonthStats {
	out := make([]models.MonthStats, 0, len(g.groups))
	for _, grp := range g.groups {
		d := grp.records[0].Date
		out = append(out, models.MonthStats{
			Month:            grp.key,
			MonthName:        fmt.Sprintf("%s %d", dutchMonthNames[d.Month()-1], d.Year()),
			TotalRevenue:     grp.total.InexactFloat64(),
			AverageRevenue:   grp.average(),
			TransactionCount: len(grp.records),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out
}

// formatDay renders a date as D-M-YYYY without zero padding.
func formatDay(t time.Time) string {
	return fmt.Sprintf("%d-%d-%d", t.Day(), int(t.Month()), t.Year())
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}
