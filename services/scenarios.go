package services

import (
	"fmt"
	"math"

	"weeromzet/models"
)

const (
	minLocationDays      = 5
	minScenarioDays      = 2
	minQualifyingCells   = 2
	scenarioUpliftPct    = 15
	rainSensitivityPct   = 20
	sensitivityCap       = 100
	sensitivityMiddelMin = 20
	sensitivityHoogMin   = 40
)

var scenarioDescriptions = map[string]string{
	"warmDroog":    "warm en droog weer (>18°C, <1mm)",
	"warmLichtNat": "warm met lichte regen (>18°C, 1-5mm)",
	"warmNat":      "warm maar nat weer (>18°C, >5mm)",
	"mildDroog":    "mild en droog weer (10-18°C, <1mm)",
	"mildLichtNat": "mild met lichte regen (10-18°C, 1-5mm)",
	"mildNat":      "mild maar nat weer (10-18°C, >5mm)",
	"koudDroog":    "koud en droog weer (<10°C, <1mm)",
	"koudLichtNat": "koud met lichte regen (<10°C, 1-5mm)",
	"koudNat":      "koud en nat weer (<10°C, >5mm)",
}

func scenarioDescription(name string) string {
	if d, ok := scenarioDescriptions[name]; ok {
		return d
	}
	return name
}

func tempCategory(celsius float64) models.TempCategory {
	switch {
	case celsius < 10:
		return models.TempKoud
	case celsius < 18:
		return models.TempMild
	default:
		return models.TempWarm
	}
}

func rainCategory(mm float64) models.RainCategory {
	switch {
	case mm < 1:
		return models.RainDroog
	case mm < 5:
		return models.RainLichtNat
	default:
		return models.RainNat
	}
}

// LocationImpact builds the 3x3 temperature by precipitation matrix for
// every location with enough joined days and scores its weather
// sensitivity. It fails with models.ErrNoMatchingWeather when nothing joins.
func (c *Correlator) LocationImpact(records []models.SalesRecord, observations []models.WeatherObservation) (*models.LocationWeatherAnalysis, error) {
	days := join(records, observations)
	if len(days) == 0 {
		return nil, models.ErrNoMatchingWeather
	}

	var order []string
	byLocation := make(map[string][]joinedDay)
	for _, d := range days {
		loc := d.record.Location
		if _, ok := byLocation[loc]; !ok {
			order = append(order, loc)
		}
		byLocation[loc] = append(byLocation[loc], d)
	}

	out := &models.LocationWeatherAnalysis{Locations: []models.LocationWeather{}}
	for _, loc := range order {
		lw, ok := analyseLocation(loc, byLocation[loc])
		if !ok {
			c.logger.Debug("[correlation] Skipping %q: not enough weather variety", loc)
			continue
		}
		out.Locations = append(out.Locations, lw)
	}
	out.Overall = overallSensitivity(out.Locations)
	return out, nil
}

func analyseLocation(name string, days []joinedDay) (models.LocationWeather, bool) {
	if len(days) < minLocationDays {
		return models.LocationWeather{}, false
	}

	cells := make([]models.ScenarioStats, 0, 9)
	for _, t := range models.TempCategories {
		for _, r := range models.RainCategories {
			cells = append(cells, scenarioStats(days, t, r))
		}
	}

	baseline := meanRevenue(days)

	var qualifying []models.ScenarioStats
	for _, s := range cells {
		if s.Count >= minScenarioDays {
			qualifying = append(qualifying, s)
		}
	}
	if len(qualifying) < minQualifyingCells {
		return models.LocationWeather{}, false
	}

	best, worst := qualifying[0], qualifying[0]
	for _, s := range qualifying[1:] {
		if s.AvgRevenue > best.AvgRevenue {
			best = s
		}
		if s.AvgRevenue < worst.AvgRevenue {
			worst = s
		}
	}

	score := sensitivityScore(best.AvgRevenue-worst.AvgRevenue, baseline)
	lw := models.LocationWeather{
		LocationName:     name,
		TotalDays:        len(days),
		BaselineRevenue:  roundHalfUp(baseline),
		Scenarios:        cells,
		SensitivityScore: score,
		SensitivityLevel: sensitivityLevel(score),
		BestScenario:     best.Scenario,
		WorstScenario:    worst.Scenario,
	}
	lw.Insights = locationInsights(&lw, baseline, best, worst)
	return lw, true
}

// sensitivityScore is the best-to-worst spread as a percentage of the
// location baseline, capped at 100 after the division. A non-positive
// baseline scores 0.
func sensitivityScore(spread, baseline float64) int {
	if baseline <= 0 {
		return 0
	}
	score := roundHalfUp(spread / baseline * 100)
	if math.IsNaN(score) || score < 0 {
		return 0
	}
	if score > sensitivityCap {
		return sensitivityCap
	}
	return int(score)
}

func sensitivityLevel(score int) string {
	switch {
	case score < sensitivityMiddelMin:
		return models.SensitivityLaag
	case score < sensitivityHoogMin:
		return models.SensitivityMiddel
	default:
		return models.SensitivityHoog
	}
}

func scenarioStats(days []joinedDay, t models.TempCategory, r models.RainCategory) models.ScenarioStats {
	s := models.ScenarioStats{Scenario: models.ScenarioName(t, r)}
	var total float64
	for _, d := range days {
		if tempCategory(d.weather.Temperature) == t && rainCategory(d.weather.Precipitation) == r {
			total += d.revenue
			s.Count++
		}
	}
	if s.Count > 0 {
		s.AvgRevenue = roundHalfUp(total / float64(s.Count))
		s.TotalRevenue = roundHalfUp(total)
	}
	return s
}

func locationInsights(lw *models.LocationWeather, baseline float64, best, worst models.ScenarioStats) []models.LocationInsight {
	insights := []models.LocationInsight{}
	if baseline <= 0 {
		return insights
	}

	bestImpact := int(roundHalfUp((best.AvgRevenue - baseline) / baseline * 100))
	if bestImpact > scenarioUpliftPct {
		insights = append(insights, models.LocationInsight{
			Type:    "positive",
			Weather: best.Scenario,
			Message: fmt.Sprintf("Ga hier zeker naartoe bij %s (+%d%% omzet)", scenarioDescription(best.Scenario), bestImpact),
			Impact:  bestImpact,
		})
	}

	worstImpact := int(roundHalfUp((worst.AvgRevenue - baseline) / baseline * 100))
	if worstImpact < -scenarioUpliftPct {
		insights = append(insights, models.LocationInsight{
			Type:    "negative",
			Weather: worst.Scenario,
			Message: fmt.Sprintf("Vermijd deze locatie bij %s (%d%% omzet)", scenarioDescription(worst.Scenario), worstImpact),
			Impact:  worstImpact,
		})
	}

	dryAvg, dryN := 0.0, 0
	wetAvg, wetN := 0.0, 0
	for _, t := range models.TempCategories {
		if s := lw.Scenario(t, models.RainDroog); s.Count > 0 {
			dryAvg += s.AvgRevenue
			dryN++
		}
		if s := lw.Scenario(t, models.RainNat); s.Count > 0 {
			wetAvg += s.AvgRevenue
			wetN++
		}
	}
	if dryN > 0 && wetN > 0 {
		dryAvg /= float64(dryN)
		wetAvg /= float64(wetN)
		if dryAvg > 0 {
			rainImpact := int(roundHalfUp((wetAvg - dryAvg) / dryAvg * 100))
			if rainImpact > rainSensitivityPct || rainImpact < -rainSensitivityPct {
				in := models.LocationInsight{Type: "negative", Weather: "regen", Impact: rainImpact,
					Message: fmt.Sprintf("Regen heeft grote impact hier (%d%% vs droog weer)", rainImpact)}
				if rainImpact > 0 {
					in.Type = "positive"
					in.Message = fmt.Sprintf("Deze locatie werkt goed in de regen (+%d%% vs droog weer)", rainImpact)
				}
				insights = append(insights, in)
			}
		}
	}
	return insights
}

func overallSensitivity(locations []models.LocationWeather) models.OverallSensitivity {
	if len(locations) == 0 {
		return models.OverallSensitivity{}
	}
	sum := 0
	most, least := locations[0], locations[0]
	for _, l := range locations {
		sum += l.SensitivityScore
		if l.SensitivityScore > most.SensitivityScore {
			most = l
		}
		if l.SensitivityScore < least.SensitivityScore {
			least = l
		}
	}
	return models.OverallSensitivity{
		AvgSensitivity: int(roundHalfUp(float64(sum) / float64(len(locations)))),
		MostSensitive:  most.LocationName,
		LeastSensitive: least.LocationName,
	}
}
