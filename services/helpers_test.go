package services

import (
	"io"
	"time"

	"github.com/shopspring/decimal"

	"weeromzet/models"
	"weeromzet/utils"
)

func newTestLogger() *utils.Logger { return utils.NewLoggerTo(io.Discard, utils.LevelDebug) }

// rec builds a record dated at noon UTC from an ISO date.
func rec(date, location, amount string) models.SalesRecord {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return models.SalesRecord{
		Date:     d.Add(12 * time.Hour),
		Location: location,
		Amount:   decimal.RequireFromString(amount),
		RawLine:  date + "," + location + "," + amount,
	}
}

func obs(date string, temp, rain float64, main string) models.WeatherObservation {
	return models.WeatherObservation{
		Date:               date,
		Temperature:        temp,
		Precipitation:      rain,
		WeatherMain:        main,
		WeatherDescription: main,
	}
}

// isoDay returns the ISO date n days after start.
func isoDay(start string, n int) string {
	d, _ := time.Parse("2006-01-02", start)
	return d.AddDate(0, 0, n).Format("2006-01-02")
}
