package weather

import (
	"context"

	"weeromzet/models"
	"weeromzet/utils"
)

// FallbackFetcher asks primary first and fills whatever it could not
// deliver from secondary, including everything when primary fails.
type FallbackFetcher struct {
	primary   Fetcher
	secondary Fetcher
	logger    *utils.Logger
}

// NewFallbackFetcher combines primary with a secondary source.
func NewFallbackFetcher(primary, secondary Fetcher, logger *utils.Logger) *FallbackFetcher {
	return &FallbackFetcher{primary: primary, secondary: secondary, logger: logger}
}

func (f *FallbackFetcher) FetchObservations(ctx context.Context, dates []string, loc models.Coordinates) ([]models.WeatherObservation, error) {
	wanted := uniqueDates(dates)

	got, err := f.primary.FetchObservations(ctx, wanted, loc)
	if err != nil {
		if IsQuotaError(err) {
			f.logger.Warn("[weather] Provider refused the request (%v), using climate normals for all %d dates", err, len(wanted))
		} else {
			f.logger.Warn("[weather] Provider failed (%v), using climate normals for all %d dates", err, len(wanted))
		}
		return f.secondary.FetchObservations(ctx, wanted, loc)
	}

	have := utils.NewDateSet()
	for _, o := range got {
		have.Add(o.Date)
	}
	var missing []string
	for _, d := range wanted {
		if !have.Contains(d) {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return got, nil
	}

	f.logger.Info("[weather] No provider data for %d dates, filling from climate normals", len(missing))
	filled, err := f.secondary.FetchObservations(ctx, missing, loc)
	if err != nil {
		f.logger.Warn("[weather] Climate fill failed: %v", err)
		return got, nil
	}
	out := append(got, filled...)
	sortByDate(out)
	return out, nil
}
