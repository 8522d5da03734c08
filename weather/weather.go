// Package weather supplies daily weather observations for sales dates:
// the Meteostat daily API, a deterministic climate-normal generator, an
// LRU/Redis cache and a fallback combinator.
package weather

import (
	"context"
	"errors"
	"math"
	"sort"

	"weeromzet/models"
	"weeromzet/utils"
)

var (
	// ErrNoAPIKey is returned when Meteostat is used without a RapidAPI key.
	ErrNoAPIKey = errors.New("meteostat: RAPIDAPI_KEY is not configured")
	// ErrRateLimited is returned when the monthly quota is exhausted (HTTP 429).
	ErrRateLimited = errors.New("meteostat: rate limit exceeded")
	// ErrUnauthorized is returned when the key is not subscribed to the API (HTTP 401/403).
	ErrUnauthorized = errors.New("meteostat: API subscription required")
)

// Fetcher returns observations for the requested ISO dates. Dates the
// source has no data for are simply absent from the result.
type Fetcher interface {
	FetchObservations(ctx context.Context, dates []string, loc models.Coordinates) ([]models.WeatherObservation, error)
}

// uniqueDates returns the distinct dates in ascending order.
func uniqueDates(dates []string) []string {
	set := utils.NewDateSet()
	for _, d := range dates {
		set.Add(d)
	}
	return set.Sorted()
}

func sortByDate(obs []models.WeatherObservation) {
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date < obs[j].Date })
}

// round1 rounds half up to one decimal.
func round1(f float64) float64 {
	return math.Floor(f*10+0.5) / 10
}
