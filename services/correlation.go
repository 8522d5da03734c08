package services

import (
	"fmt"
	"math"
	"sort"

	"weeromzet/models"
	"weeromzet/utils"
)

// Temperature impact classes.
const (
	ImpactPositive = "positive"
	ImpactNegative = "negative"
	ImpactNeutral  = "neutral"
)

const correlationThreshold = 0.3

// temperatureBuckets are the fixed [min, max) ranges searched for the
// optimal selling temperature. The first bucket spans 10 degrees so that
// frost and near-zero days share one range; the rest are 5 degrees wide.
var temperatureBuckets = [][2]float64{{-5, 5}, {5, 10}, {10, 15}, {15, 20}, {20, 25}, {25, 30}}

// Correlator joins sales with daily weather and derives revenue impact.
type Correlator struct {
	logger *utils.Logger
}

// NewCorrelator creates a Correlator with the given logger.
func NewCorrelator(logger *utils.Logger) *Correlator {
	return &Correlator{logger: logger}
}

// joinedDay is a sales record with the weather of its date.
type joinedDay struct {
	record  models.SalesRecord
	revenue float64
	weather models.WeatherObservation
}

// join keeps only the records that have an observation for their ISO date.
func join(records []models.SalesRecord, observations []models.WeatherObservation) []joinedDay {
	byDate := make(map[string]models.WeatherObservation, len(observations))
	for _, o := range observations {
		byDate[o.Date] = o
	}
	out := make([]joinedDay, 0, len(records))
	for _, r := range records {
		if w, ok := byDate[r.DateKey()]; ok {
			out = append(out, joinedDay{record: r, revenue: r.Revenue(), weather: w})
		}
	}
	return out
}

func meanRevenue(days []joinedDay) float64 {
	if len(days) == 0 {
		return 0
	}
	sum := 0.0
	for _, d := range days {
		sum += d.revenue
	}
	return sum / float64(len(days))
}

// Correlate computes temperature, precipitation and condition impact over
// the records that have weather for their date. It fails with
// models.ErrNoMatchingWeather when nothing joins.
func (c *Correlator) Correlate(records []models.SalesRecord, observations []models.WeatherObservation) (*models.WeatherCorrelation, error) {
	days := join(records, observations)
	if len(days) == 0 {
		return nil, models.ErrNoMatchingWeather
	}
	baseline := meanRevenue(days)

	corr := &models.WeatherCorrelation{
		Baseline:      baseline,
		JoinedCount:   len(days),
		Temperature:   temperatureCorrelation(days),
		Precipitation: precipitationCorrelation(days, baseline),
		Conditions:    conditionImpacts(days, baseline),
	}
	c.logger.Info("[correlation] Joined %d/%d records, temperature r=%.2f (%s)",
		len(days), len(records), corr.Temperature.Correlation, corr.Temperature.Impact)
	return corr, nil
}

func temperatureCorrelation(days []joinedDay) models.TemperatureCorrelation {
	temps := make([]float64, len(days))
	revs := make([]float64, len(days))
	for i, d := range days {
		temps[i] = d.weather.Temperature
		revs[i] = d.revenue
	}
	r := pearson(temps, revs)

	best := temperatureBuckets[0]
	bestRevenue := 0.0
	for _, b := range temperatureBuckets {
		var sum float64
		var n int
		for _, d := range days {
			if d.weather.Temperature >= b[0] && d.weather.Temperature < b[1] {
				sum += d.revenue
				n++
			}
		}
		if n > 0 && sum/float64(n) > bestRevenue {
			bestRevenue = sum / float64(n)
			best = b
		}
	}

	impact := ImpactNeutral
	switch {
	case r > correlationThreshold:
		impact = ImpactPositive
	case r < -correlationThreshold:
		impact = ImpactNegative
	}
	return models.TemperatureCorrelation{
		Correlation:  roundTo2(r),
		OptimalRange: best,
		Impact:       impact,
	}
}

func precipitationCorrelation(days []joinedDay, baseline float64) models.PrecipitationCorrelation {
	var rainy, dry []joinedDay
	for _, d := range days {
		switch {
		case d.weather.Precipitation > 0:
			rainy = append(rainy, d)
		case d.weather.Precipitation == 0:
			dry = append(dry, d)
		}
	}
	if len(rainy) == 0 {
		return models.PrecipitationCorrelation{Impact: "No rain data available"}
	}

	dryAvg := baseline
	if len(dry) > 0 {
		dryAvg = meanRevenue(dry)
	}
	impact := meanRevenue(rainy) - dryAvg

	var desc string
	switch {
	case impact < -25:
		desc = fmt.Sprintf("Regen verlaagt omzet met €%.0f gemiddeld", math.Abs(roundHalfUp(impact)))
	case impact > 25:
		desc = fmt.Sprintf("Regen verhoogt omzet met €%.0f gemiddeld", roundHalfUp(impact))
	default:
		desc = "Regen heeft minimale impact op omzet"
	}

	corr := 0.0
	if baseline != 0 {
		corr = roundTo2(impact / baseline)
	}
	return models.PrecipitationCorrelation{
		Correlation:   corr,
		AverageImpact: roundHalfUp(impact),
		Impact:        desc,
	}
}

func conditionImpacts(days []joinedDay, baseline float64) []models.ConditionImpact {
	g := newGrouper()
	for _, d := range days {
		g.add(d.weather.WeatherMain, d.record)
	}

	out := []models.ConditionImpact{}
	for _, grp := range g.groups {
		if len(grp.records) < 2 {
			continue
		}
		avg := grp.average()
		impact := avg - baseline
		out = append(out, models.ConditionImpact{
			Condition:        grp.key,
			AverageRevenue:   roundHalfUp(avg),
			RevenueImpact:    roundHalfUp(impact),
			TransactionCount: len(grp.records),
			Description:      conditionDescription(grp.key, impact),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RevenueImpact > out[j].RevenueImpact })
	return out
}

func conditionDescription(condition string, impact float64) string {
	abs := roundHalfUp(math.Abs(impact))
	if abs < 25 {
		return fmt.Sprintf("%s heeft een neutrale impact op de omzet", condition)
	}
	direction := "verlaagt"
	if impact > 0 {
		direction = "verhoogt"
	}
	return fmt.Sprintf("%s %s de omzet met gemiddeld €%.0f", condition, direction, abs)
}

// pearson is the sample correlation coefficient via the sums formula.
// It returns 0 for fewer than two points or zero variance.
func pearson(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	n := float64(len(x))
	var sumX, sumY, sumXY, sumXX, sumYY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
		sumYY += y[i] * y[i]
	}
	num := n*sumXY - sumX*sumY
	den := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if den == 0 || math.IsNaN(den) {
		return 0
	}
	return num / den
}

func roundTo2(f float64) float64 {
	return roundHalfUp(f*100) / 100
}

// PerformanceDays returns the top and worst n joined sales days by revenue,
// each with the weather of that day.
func PerformanceDays(records []models.SalesRecord, observations []models.WeatherObservation, n int) (top, worst []models.PerformanceDay) {
	days := join(records, observations)
	sort.SliceStable(days, func(i, j int) bool { return days[i].revenue > days[j].revenue })

	toDay := func(d joinedDay, rank int) models.PerformanceDay {
		return models.PerformanceDay{
			Rank:        rank,
			Date:        formatDay(d.record.Date),
			Location:    d.record.Location,
			Revenue:     d.revenue,
			Temperature: d.weather.Temperature,
			Rain:        d.weather.Precipitation,
			Condition:   d.weather.WeatherMain,
			Description: d.weather.WeatherDescription,
		}
	}

	for i := 0; i < n && i < len(days); i++ {
		top = append(top, toDay(days[i], i+1))
	}
	start := len(days) - n
	if start < 0 {
		start = 0
	}
	for i, rank := len(days)-1, 1; i >= start; i, rank = i-1, rank+1 {
		worst = append(worst, toDay(days[i], rank))
	}
	return top, worst
}
