package services

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeromzet/models"
)

func TestCorrelateNoMatchingWeather(t *testing.T) {
	c := NewCorrelator(newTestLogger())
	records := []models.SalesRecord{
		rec("2024-01-10", "Dam", "100"),
		rec("2024-01-11", "Dam", "200"),
	}
	weather := []models.WeatherObservation{
		obs("2024-02-10", 5, 0, "Clouds"),
		obs("2024-02-11", 6, 0, "Clouds"),
	}

	_, err := c.Correlate(records, weather)
	assert.True(t, errors.Is(err, models.ErrNoMatchingWeather), "got %v", err)

	_, err = c.LocationImpact(records, weather)
	assert.True(t, errors.Is(err, models.ErrNoMatchingWeather), "got %v", err)

	_, err = c.Correlate(records, nil)
	assert.ErrorIs(t, err, models.ErrNoMatchingWeather)
}

func TestCorrelateTemperature(t *testing.T) {
	c := NewCorrelator(newTestLogger())
	records := []models.SalesRecord{
		rec("2024-06-01", "Dam", "100"),
		rec("2024-06-02", "Dam", "200"),
		rec("2024-06-03", "Dam", "300"),
		rec("2024-06-04", "Dam", "999"), // no weather, dropped from the join
	}
	weather := []models.WeatherObservation{
		obs("2024-06-01", 10, 0, "Clouds"),
		obs("2024-06-02", 20, 0, "Clouds"),
		obs("2024-06-03", 30, 0, "Clear"),
	}

	corr, err := c.Correlate(records, weather)
	require.NoError(t, err)

	assert.Equal(t, 3, corr.JoinedCount)
	assert.Equal(t, 200.0, corr.Baseline)
	assert.Equal(t, 1.0, corr.Temperature.Correlation)
	assert.Equal(t, ImpactPositive, corr.Temperature.Impact)
	assert.Equal(t, [2]float64{20, 25}, corr.Temperature.OptimalRange)
	assert.Equal(t, "No rain data available", corr.Precipitation.Impact)
	assert.Equal(t, 0.0, corr.Precipitation.AverageImpact)
}

func TestCorrelateDefaultOptimalRange(t *testing.T) {
	c := NewCorrelator(newTestLogger())
	records := []models.SalesRecord{rec("2024-07-01", "Dam", "100"), rec("2024-07-02", "Dam", "100")}
	weather := []models.WeatherObservation{obs("2024-07-01", 33, 0, "Clear"), obs("2024-07-02", 35, 0, "Clear")}

	corr, err := c.Correlate(records, weather)
	require.NoError(t, err)
	assert.Equal(t, [2]float64{-5, 5}, corr.Temperature.OptimalRange)
	assert.Equal(t, ImpactNeutral, corr.Temperature.Impact)
}

func TestCorrelateFirstBucketSpansFrost(t *testing.T) {
	c := NewCorrelator(newTestLogger())
	records := []models.SalesRecord{
		rec("2024-01-01", "Dam", "500"),
		rec("2024-01-02", "Dam", "700"),
		rec("2024-01-03", "Dam", "300"),
	}
	weather := []models.WeatherObservation{
		obs("2024-01-01", -4, 0, "Clear"),
		obs("2024-01-02", 3, 0, "Clear"),
		obs("2024-01-03", 7, 0, "Clouds"),
	}

	corr, err := c.Correlate(records, weather)
	require.NoError(t, err)
	// -4 and 3 average together in one range, beating 7
	assert.Equal(t, [2]float64{-5, 5}, corr.Temperature.OptimalRange)
}

func TestCorrelatePrecipitationAndConditions(t *testing.T) {
	c := NewCorrelator(newTestLogger())
	records := []models.SalesRecord{
		rec("2024-05-01", "Dam", "100"),
		rec("2024-05-02", "Dam", "100"),
		rec("2024-05-03", "Dam", "200"),
		rec("2024-05-04", "Dam", "200"),
		rec("2024-05-05", "Dam", "150"),
	}
	weather := []models.WeatherObservation{
		obs("2024-05-01", 12, 4, "Rain"),
		obs("2024-05-02", 12, 6, "Rain"),
		obs("2024-05-03", 12, 0, "Clear"),
		obs("2024-05-04", 12, 0, "Clear"),
		obs("2024-05-05", 12, 0, "Snow"),
	}

	corr, err := c.Correlate(records, weather)
	require.NoError(t, err)

	// rainy 100 vs dry (200+200+150)/3
	assert.Equal(t, -83.0, corr.Precipitation.AverageImpact)
	assert.Equal(t, "Regen verlaagt omzet met €83 gemiddeld", corr.Precipitation.Impact)
	assert.Equal(t, -0.56, corr.Precipitation.Correlation)

	require.Len(t, corr.Conditions, 2, "single-day conditions are excluded")
	assert.Equal(t, "Clear", corr.Conditions[0].Condition)
	assert.Equal(t, 50.0, corr.Conditions[0].RevenueImpact)
	assert.Equal(t, "Clear verhoogt de omzet met gemiddeld €50", corr.Conditions[0].Description)
	assert.Equal(t, "Rain", corr.Conditions[1].Condition)
	assert.Equal(t, "Rain verlaagt de omzet met gemiddeld €50", corr.Conditions[1].Description)
}

func TestConditionDescriptionNeutral(t *testing.T) {
	assert.Equal(t, "Clouds heeft een neutrale impact op de omzet", conditionDescription("Clouds", 24.4))
	assert.Equal(t, "Clouds heeft een neutrale impact op de omzet", conditionDescription("Clouds", -10))
}

func TestPearson(t *testing.T) {
	tests := []struct {
		x, y []float64
		want float64
	}{
		{[]float64{1, 2, 3}, []float64{2, 4, 6}, 1},
		{[]float64{1, 2, 3}, []float64{6, 4, 2}, -1},
		{[]float64{1, 1, 1}, []float64{1, 2, 3}, 0},
		{[]float64{1}, []float64{1}, 0},
	}
	for _, tt := range tests {
		if got := pearson(tt.x, tt.y); got < tt.want-1e-9 || got > tt.want+1e-9 {
			t.Errorf("pearson(%v, %v) = %v; want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func scenarioFixture() ([]models.SalesRecord, []models.WeatherObservation) {
	var records []models.SalesRecord
	var weather []models.WeatherObservation
	for i := 0; i < 3; i++ {
		d := isoDay("2024-07-01", i)
		records = append(records, rec(d, "Museumplein", "600"))
		weather = append(weather, obs(d, 22, 0, "Clear"))
	}
	for i := 3; i < 6; i++ {
		d := isoDay("2024-07-01", i)
		records = append(records, rec(d, "Museumplein", "200"))
		weather = append(weather, obs(d, 5, 8, "Rain"))
	}
	// Too few days for its own matrix.
	for i := 0; i < 4; i++ {
		records = append(records, rec(isoDay("2024-07-01", i), "Vondelpark", "300"))
	}
	return records, weather
}

func TestLocationImpactMatrix(t *testing.T) {
	c := NewCorrelator(newTestLogger())
	records, weather := scenarioFixture()

	la, err := c.LocationImpact(records, weather)
	require.NoError(t, err)
	require.Len(t, la.Locations, 1)

	lw := la.Locations[0]
	assert.Equal(t, "Museumplein", lw.LocationName)
	assert.Equal(t, 6, lw.TotalDays)
	assert.Equal(t, 400.0, lw.BaselineRevenue)
	assert.Len(t, lw.Scenarios, 9)
	assert.Equal(t, models.ScenarioStats{Scenario: "warmDroog", Count: 3, AvgRevenue: 600, TotalRevenue: 1800}, lw.Scenario(models.TempWarm, models.RainDroog))
	assert.Equal(t, models.ScenarioStats{Scenario: "koudNat", Count: 3, AvgRevenue: 200, TotalRevenue: 600}, lw.Scenario(models.TempKoud, models.RainNat))
	assert.Equal(t, 0, lw.Scenario(models.TempMild, models.RainLichtNat).Count)

	assert.Equal(t, 100, lw.SensitivityScore)
	assert.Equal(t, models.SensitivityHoog, lw.SensitivityLevel)
	assert.Equal(t, "warmDroog", lw.BestScenario)
	assert.Equal(t, "koudNat", lw.WorstScenario)

	require.Len(t, lw.Insights, 3)
	assert.Equal(t, "Ga hier zeker naartoe bij warm en droog weer (>18°C, <1mm) (+50% omzet)", lw.Insights[0].Message)
	assert.Equal(t, "Vermijd deze locatie bij koud en nat weer (<10°C, >5mm) (-50% omzet)", lw.Insights[1].Message)
	assert.Equal(t, "Regen heeft grote impact hier (-67% vs droog weer)", lw.Insights[2].Message)
	assert.Equal(t, "regen", lw.Insights[2].Weather)

	assert.Equal(t, models.OverallSensitivity{AvgSensitivity: 100, MostSensitive: "Museumplein", LeastSensitive: "Museumplein"}, la.Overall)
}

func TestLocationImpactNeedsTwoScenarios(t *testing.T) {
	c := NewCorrelator(newTestLogger())
	var records []models.SalesRecord
	var weather []models.WeatherObservation
	for i := 0; i < 6; i++ {
		d := isoDay("2024-08-01", i)
		records = append(records, rec(d, "Dam", "300"))
		weather = append(weather, obs(d, 20, 0, "Clear"))
	}

	la, err := c.LocationImpact(records, weather)
	require.NoError(t, err)
	assert.Empty(t, la.Locations)
	assert.Equal(t, models.OverallSensitivity{}, la.Overall)
}

func TestSensitivityScore(t *testing.T) {
	tests := []struct {
		spread, baseline float64
		want             int
	}{
		{400, 400, 100},
		{999, 400.6, 100},
		{50, 400, 13},
		{0, 400, 0},
		{100, 0, 0},
		{100, -5, 0},
	}
	for _, tt := range tests {
		if got := sensitivityScore(tt.spread, tt.baseline); got != tt.want {
			t.Errorf("sensitivityScore(%v, %v) = %d; want %d", tt.spread, tt.baseline, got, tt.want)
		}
	}
	assert.Equal(t, models.SensitivityLaag, sensitivityLevel(19))
	assert.Equal(t, models.SensitivityMiddel, sensitivityLevel(20))
	assert.Equal(t, models.SensitivityHoog, sensitivityLevel(40))
}

func TestSensitivityScoreBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := NewCorrelator(newTestLogger())

	for round := 0; round < 25; round++ {
		var records []models.SalesRecord
		var weather []models.WeatherObservation
		for i := 0; i < 120; i++ {
			d := isoDay("2023-01-01", i)
			weather = append(weather, obs(d, rng.Float64()*40-10, rng.Float64()*12, "Clouds"))
			loc := fmt.Sprintf("Loc%d", i%4)
			records = append(records, rec(d, loc, fmt.Sprintf("%.2f", rng.Float64()*rng.Float64()*2000)))
		}

		la, err := c.LocationImpact(records, weather)
		require.NoError(t, err)
		for _, l := range la.Locations {
			if l.SensitivityScore < 0 || l.SensitivityScore > 100 {
				t.Fatalf("round %d: %s score %d out of [0,100]", round, l.LocationName, l.SensitivityScore)
			}
		}
	}
}

func TestCategories(t *testing.T) {
	assert.Equal(t, models.TempKoud, tempCategory(9.9))
	assert.Equal(t, models.TempMild, tempCategory(10))
	assert.Equal(t, models.TempWarm, tempCategory(18))
	assert.Equal(t, models.RainDroog, rainCategory(0.99))
	assert.Equal(t, models.RainLichtNat, rainCategory(1))
	assert.Equal(t, models.RainNat, rainCategory(5))
}

func TestPerformanceDays(t *testing.T) {
	records, weather := scenarioFixture()
	top, worst := PerformanceDays(records, weather, 2)

	require.Len(t, top, 2)
	require.Len(t, worst, 2)
	assert.Equal(t, 1, top[0].Rank)
	assert.Equal(t, 600.0, top[0].Revenue)
	assert.Equal(t, "1-7-2024", top[0].Date)
	assert.Equal(t, 200.0, worst[0].Revenue)
	assert.Equal(t, "6-7-2024", worst[0].Date)
	assert.Equal(t, 2, worst[1].Rank)
}

func TestWeatherInsights(t *testing.T) {
	corr := &models.WeatherCorrelation{
		Temperature: models.TemperatureCorrelation{Correlation: 0.45, OptimalRange: [2]float64{20, 25}, Impact: ImpactPositive},
		Precipitation: models.PrecipitationCorrelation{
			AverageImpact: -83, Impact: "Regen verlaagt omzet met €83 gemiddeld",
		},
		Conditions: []models.ConditionImpact{
			{Condition: "Clear", RevenueImpact: 50, Description: "Clear verhoogt de omzet met gemiddeld €50"},
			{Condition: "Rain", RevenueImpact: -50, Description: "Rain verlaagt de omzet met gemiddeld €50"},
		},
	}

	assert.Equal(t, []string{
		"Warmer weer heeft een positieve impact op je omzet (correlatie: 0.45)",
		"Optimale temperatuur voor verkoop: 20°C - 25°C",
		"Regen verlaagt omzet met €83 gemiddeld",
		"Clear verhoogt de omzet met gemiddeld €50",
		"Rain verlaagt de omzet met gemiddeld €50",
		"Weersomstandigheden hebben significante impact: verschil van €100 tussen beste en slechtste weer",
	}, WeatherInsights(corr))

	assert.Equal(t, []string{"Geen significante weersinvloeden gevonden in je data."},
		WeatherInsights(&models.WeatherCorrelation{Temperature: models.TemperatureCorrelation{Impact: ImpactNeutral}}))
}
