package weather

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"weeromzet/models"
	"weeromzet/utils"
)

// maxWindowDays is the longest range Meteostat serves in one daily request.
const maxWindowDays = 370

// MeteostatOptions configures a MeteostatClient.
type MeteostatOptions struct {
	BaseURL        string
	APIKey         string
	Host           string
	Timeout        time.Duration
	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
	RetryDelay     time.Duration
}

// MeteostatClient fetches historical daily weather from the Meteostat
// point/daily endpoint on RapidAPI.
type MeteostatClient struct {
	opts   MeteostatOptions
	client *fasthttp.Client
	retry  utils.RetryConfig
	logger *utils.Logger
}

// NewMeteostatClient creates a client. Zero options fall back to sane defaults.
func NewMeteostatClient(opts MeteostatOptions, logger *utils.Logger) *MeteostatClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://meteostat.p.rapidapi.com"
	}
	if opts.Host == "" {
		opts.Host = "meteostat.p.rapidapi.com"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = time.Second
	}
	return &MeteostatClient{
		opts: opts,
		client: &fasthttp.Client{
			Name:                "weeromzet",
			MaxIdleConnDuration: 30 * time.Second,
		},
		retry: utils.RetryConfig{
			MaxAttempts: opts.MaxRetries,
			BaseDelay:   opts.RetryDelay,
			Logger:      logger,
		},
		logger: logger,
	}
}

// dailyRecord is one row of the Meteostat daily response. Every value can be null.
type dailyRecord struct {
	Date string   `json:"date"`
	Tavg *float64 `json:"tavg"`
	Tmin *float64 `json:"tmin"`
	Tmax *float64 `json:"tmax"`
	Prcp *float64 `json:"prcp"`
	Snow *float64 `json:"snow"`
	Wspd *float64 `json:"wspd"`
	Pres *float64 `json:"pres"`
}

type dailyResponse struct {
	Data []dailyRecord `json:"data"`
}

type window struct {
	start, end string
}

// FetchObservations deduplicates dates, splits them into request windows
// and fetches the windows concurrently through a rate-limited worker pool.
func (c *MeteostatClient) FetchObservations(ctx context.Context, dates []string, loc models.Coordinates) ([]models.WeatherObservation, error) {
	if c.opts.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	wanted := uniqueDates(dates)
	if len(wanted) == 0 {
		return nil, nil
	}
	windows, err := splitWindows(wanted, maxWindowDays)
	if err != nil {
		return nil, err
	}
	want := make(map[string]struct{}, len(wanted))
	for _, d := range wanted {
		want[d] = struct{}{}
	}

	c.logger.Info("[meteostat] Fetching %d dates in %d window(s) for %.4f,%.4f",
		len(wanted), len(windows), loc.Lat, loc.Lon)

	var (
		mu       sync.Mutex
		firstErr error
		out      []models.WeatherObservation
	)
	pool := utils.NewWorkerPool(c.opts.MaxConcurrency, c.opts.RateLimitMs)
	for _, w := range windows {
		pool.Submit(func() {
			var days []dailyRecord
			err := c.retry.Do(ctx, "meteostat "+w.start+".."+w.end, func(ctx context.Context) error {
				var err error
				days, err = c.fetchWindow(ctx, w, loc)
				return err
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			for _, d := range days {
				o, ok := toObservation(d)
				if !ok {
					continue
				}
				if _, ok := want[o.Date]; ok {
					out = append(out, o)
				}
			}
		})
	}
	pool.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	sortByDate(out)
	c.logger.Info("[meteostat] Got %d/%d daily observations", len(out), len(wanted))
	return out, nil
}

func (c *MeteostatClient) fetchWindow(ctx context.Context, w window, loc models.Coordinates) ([]dailyRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, utils.Permanent(err)
	}
	timeout := c.opts.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.requestURL(w, loc))
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("x-rapidapi-key", c.opts.APIKey)
	req.Header.Set("x-rapidapi-host", c.opts.Host)
	req.Header.Set("Accept", "application/json")

	if err := c.client.DoTimeout(req, resp, timeout); err != nil {
		return nil, fmt.Errorf("meteostat: request: %w", err)
	}

	switch status := resp.StatusCode(); {
	case status == fasthttp.StatusOK:
	case status == fasthttp.StatusTooManyRequests:
		return nil, utils.Permanent(ErrRateLimited)
	case status == fasthttp.StatusUnauthorized || status == fasthttp.StatusForbidden:
		return nil, utils.Permanent(ErrUnauthorized)
	case status >= 500:
		return nil, fmt.Errorf("meteostat: server error %d", status)
	default:
		return nil, utils.Permanent(fmt.Errorf("meteostat: unexpected status %d: %s", status, truncateBody(resp.Body())))
	}

	var body dailyResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, utils.Permanent(fmt.Errorf("meteostat: decode: %w", err))
	}
	return body.Data, nil
}

func (c *MeteostatClient) requestURL(w window, loc models.Coordinates) string {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	q.Set("start", w.start)
	q.Set("end", w.end)
	return c.opts.BaseURL + "/point/daily?" + q.Encode()
}

// splitWindows groups sorted ISO dates into ranges no longer than maxDays.
func splitWindows(sorted []string, maxDays int) ([]window, error) {
	var out []window
	var start time.Time
	var cur window
	for i, d := range sorted {
		t, err := time.Parse("2006-01-02", d)
		if err != nil {
			return nil, fmt.Errorf("meteostat: invalid date %q: %w", d, err)
		}
		if i == 0 || t.Sub(start) >= time.Duration(maxDays)*24*time.Hour {
			if i > 0 {
				out = append(out, cur)
			}
			start = t
			cur = window{start: d}
		}
		cur.end = d
	}
	if len(sorted) > 0 {
		out = append(out, cur)
	}
	return out, nil
}

func toObservation(d dailyRecord) (models.WeatherObservation, bool) {
	if len(d.Date) < 10 {
		return models.WeatherObservation{}, false
	}
	date := d.Date[:10]
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return models.WeatherObservation{}, false
	}

	temp := orDefault(d.Tavg, (orDefault(d.Tmin, 10)+orDefault(d.Tmax, 20))/2)
	prcp := orDefault(d.Prcp, 0)
	snow := orDefault(d.Snow, 0)

	return models.WeatherObservation{
		Date:               date,
		Temperature:        round1(temp),
		Precipitation:      round1(prcp),
		Humidity:           estimateHumidity(temp, prcp),
		WindSpeed:          round1(orDefault(d.Wspd, 3) / 3.6),
		Pressure:           float64(int(orDefault(d.Pres, 1013) + 0.5)),
		WeatherMain:        conditionFor(temp, prcp, snow),
		WeatherDescription: dutchDescription(temp, prcp, snow),
	}, true
}

func orDefault(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}

func conditionFor(temp, prcp, snow float64) string {
	switch {
	case snow > 0:
		return "Sneeuw"
	case prcp > 2.5:
		return "Rain"
	case prcp > 0.5:
		return "Drizzle"
	case temp > 25:
		return "Clear"
	case temp < 0:
		return "Sneeuw"
	default:
		return "Clouds"
	}
}

func dutchDescription(temp, prcp, snow float64) string {
	switch {
	case snow > 5:
		return "zware sneeuwval"
	case snow > 0:
		return "sneeuw"
	case prcp > 10:
		return "zware regen"
	case prcp > 5:
		return "matige regen"
	case prcp > 1:
		return "lichte regen"
	case prcp > 0.1:
		return "motregen"
	case temp > 30:
		return "zeer warm en zonnig"
	case temp > 25:
		return "warm en zonnig"
	case temp > 20:
		return "aangenaam weer"
	case temp > 15:
		return "mild weer"
	case temp > 10:
		return "fris weer"
	case temp > 5:
		return "koud weer"
	case temp < 0:
		return "vriesweer"
	default:
		return "bewolkt"
	}
}

// estimateHumidity approximates relative humidity, which the daily
// endpoint does not report.
func estimateHumidity(temp, prcp float64) float64 {
	switch {
	case prcp > 5:
		return 85
	case prcp > 1:
		return 75
	case temp > 25:
		return 50
	case temp < 5:
		return 80
	default:
		return 65
	}
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}

// IsQuotaError reports whether err means the provider will keep refusing
// requests until the key or quota changes.
func IsQuotaError(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnauthorized)
}
