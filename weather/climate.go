package weather

import (
	"context"
	"time"

	"weeromzet/models"
	"weeromzet/utils"
)

// monthClimate holds 30-year Amsterdam normals for one month.
type monthClimate struct {
	avgTemp   float64
	tempRange float64
	rainDays  float64
	avgRain   float64
}

var amsterdamNormals = [12]monthClimate{
	{4.2, 6, 17, 62},
	{4.8, 6, 13, 43},
	{7.8, 7, 14, 59},
	{11.0, 8, 13, 41},
	{15.0, 8, 13, 48},
	{17.9, 7, 14, 68},
	{19.8, 6, 14, 75},
	{19.6, 6, 14, 71},
	{16.5, 7, 15, 67},
	{12.3, 6, 17, 72},
	{7.6, 5, 18, 81},
	{4.9, 5, 17, 74},
}

// ClimateFetcher generates plausible weather from monthly climate normals.
// The same date always yields the same observation.
type ClimateFetcher struct {
	logger *utils.Logger
}

// NewClimateFetcher creates a ClimateFetcher.
func NewClimateFetcher(logger *utils.Logger) *ClimateFetcher {
	return &ClimateFetcher{logger: logger}
}

// FetchObservations never fails; unparseable dates are skipped.
func (c *ClimateFetcher) FetchObservations(ctx context.Context, dates []string, _ models.Coordinates) ([]models.WeatherObservation, error) {
	var out []models.WeatherObservation
	for _, d := range uniqueDates(dates) {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.logger.Debug("[climate] Skipping invalid date %q", d)
			continue
		}
		out = append(out, climateObservation(t))
	}
	c.logger.Info("[climate] Generated %d observations from Amsterdam climate normals", len(out))
	return out, nil
}

// seeded is a linear congruential value in [0, 1).
func seeded(seed int64) float64 {
	return float64((seed*9301+49297)%233280) / 233280
}

func climateObservation(t time.Time) models.WeatherObservation {
	seed := int64(t.Year()*10000 + int(t.Month())*100 + t.Day())
	climate := amsterdamNormals[t.Month()-1]

	temp := round1(climate.avgTemp + (seeded(seed)-0.5)*climate.tempRange)

	precip := 0.0
	if seeded(seed+1) < climate.rainDays/30 {
		precip = float64(int(seeded(seed+2)*climate.avgRain/10+0.5)) / 10
	}

	var main, desc string
	switch {
	case precip > 0 && precip < 0.5:
		main, desc = "Drizzle", "lichte motregen"
	case precip > 0 && precip < 2.5:
		main, desc = "Rain", "lichte regen"
	case precip > 0:
		main, desc = "Rain", "matige regen"
	case temp < 0:
		main, desc = "Clouds", "zwaar bewolkt"
	case temp > 25:
		main, desc = "Clear", "heldere hemel"
	case seeded(seed+3) < 0.3:
		main, desc = "Clear", "heldere hemel"
	case seeded(seed+3) < 0.6:
		main, desc = "Clouds", "lichte bewolking"
	default:
		main, desc = "Clouds", "verspreide bewolking"
	}

	humidity := float64(int(60 + (seeded(seed+4)-0.5)*40 + 0.5))
	pressure := float64(int(1013 + (seeded(seed+6)-0.5)*50 + 0.5))

	return models.WeatherObservation{
		Date:               t.Format("2006-01-02"),
		Temperature:        temp,
		Precipitation:      precip,
		Humidity:           clamp(humidity, 20, 100),
		WindSpeed:          round1(seeded(seed+5) * 12),
		Pressure:           clamp(pressure, 950, 1050),
		WeatherMain:        main,
		WeatherDescription: desc,
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
