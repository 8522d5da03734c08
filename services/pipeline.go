package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"weeromzet/models"
	"weeromzet/utils"
)

const performanceDayCount = 5

// WeatherFetcher supplies daily observations for a set of ISO dates.
type WeatherFetcher interface {
	FetchObservations(ctx context.Context, dates []string, loc models.Coordinates) ([]models.WeatherObservation, error)
}

// ValidationError is returned when a dataset has critical issues. It
// matches models.ErrInvalidDataset with errors.Is.
type ValidationError struct {
	Result *models.ValidationResult
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Result.Issues))
	for _, i := range e.Result.CriticalIssues() {
		msgs = append(msgs, i.Message)
	}
	return fmt.Sprintf("%v: %s", models.ErrInvalidDataset, strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() error { return models.ErrInvalidDataset }

// Pipeline runs raw text through parsing, validation, analysis and the
// optional weather correlation.
type Pipeline struct {
	Parser     *Parser
	Validator  *Validator
	Analyzer   *Analyzer
	Correlator *Correlator

	weather  WeatherFetcher
	coords   models.Coordinates
	maxBytes int
	logger   *utils.Logger
}

// NewPipeline wires every stage with logger. weather may be nil, in which
// case weather analysis always falls back to the base result.
func NewPipeline(logger *utils.Logger, weather WeatherFetcher, coords models.Coordinates, maxBytes int) *Pipeline {
	return &Pipeline{
		Parser:     NewParser(logger),
		Validator:  NewValidator(logger),
		Analyzer:   NewAnalyzer(logger),
		Correlator: NewCorrelator(logger),
		weather:    weather,
		coords:     coords,
		maxBytes:   maxBytes,
		logger:     logger,
	}
}

// Ingest guards, parses and validates payload without analysing it.
func (p *Pipeline) Ingest(payload []byte) (models.ParseResult, *models.ValidationResult, error) {
	if err := CheckPayload(payload, p.maxBytes); err != nil {
		return models.ParseResult{}, nil, err
	}
	parsed := p.Parser.Parse(string(payload))
	if len(parsed.Records) == 0 {
		return parsed, nil, fmt.Errorf("%w (%d rijen, %d fouten)",
			models.ErrEmptyDataset, parsed.Summary.TotalRows, parsed.Summary.ErrorRows)
	}
	return parsed, p.Validator.Validate(parsed.Records), nil
}

// Run analyses payload. With withWeather set it also fetches observations
// and correlates them; weather failures never fail the run.
func (p *Pipeline) Run(ctx context.Context, payload []byte, withWeather bool) (*models.AnalysisResult, []models.SalesRecord, error) {
	parsed, checks, err := p.Ingest(payload)
	if err != nil {
		return nil, nil, err
	}
	if !checks.IsValid {
		return nil, parsed.Records, &ValidationError{Result: checks}
	}

	result, err := p.analyse(ctx, parsed.Records, withWeather)
	if err != nil {
		return nil, parsed.Records, err
	}
	format := parsed.Format
	result.Format = &format
	result.Parse = &parsed.Summary
	result.Errors = parsed.Errors
	result.Checks = checks
	return result, parsed.Records, nil
}

// Reanalyse runs validation and analysis on records that were parsed
// earlier, e.g. read back from storage.
func (p *Pipeline) Reanalyse(ctx context.Context, records []models.SalesRecord, withWeather bool) (*models.AnalysisResult, error) {
	if len(records) == 0 {
		return nil, models.ErrEmptyDataset
	}
	checks := p.Validator.Validate(records)
	if !checks.IsValid {
		return nil, &ValidationError{Result: checks}
	}
	result, err := p.analyse(ctx, records, withWeather)
	if err != nil {
		return nil, err
	}
	result.Checks = checks
	return result, nil
}

func (p *Pipeline) analyse(ctx context.Context, records []models.SalesRecord, withWeather bool) (*models.AnalysisResult, error) {
	result, err := p.Analyzer.Analyze(records)
	if err != nil {
		return nil, err
	}
	if withWeather {
		result.Weather = p.weatherSection(ctx, records)
	}
	return result, nil
}

func (p *Pipeline) weatherSection(ctx context.Context, records []models.SalesRecord) *models.WeatherSection {
	unavailable := func(err error) *models.WeatherSection {
		p.logger.Warn("[pipeline] Weather analysis unavailable: %v", err)
		return &models.WeatherSection{
			HasWeatherData: false,
			Insights:       []string{fmt.Sprintf("Weer data kon niet worden opgehaald: %v", err)},
		}
	}
	if p.weather == nil {
		return unavailable(errors.New("geen weerbron geconfigureerd"))
	}

	dates := utils.NewDateSet()
	for _, r := range records {
		dates.Add(r.DateKey())
	}
	p.logger.Info("[pipeline] Fetching weather for %d dates", dates.Size())
	obs, err := p.weather.FetchObservations(ctx, dates.Sorted(), p.coords)
	if err != nil {
		return unavailable(err)
	}

	corr, err := p.Correlator.Correlate(records, obs)
	if err != nil {
		return unavailable(err)
	}
	locations, err := p.Correlator.LocationImpact(records, obs)
	if err != nil {
		return unavailable(err)
	}
	top, worst := PerformanceDays(records, obs, performanceDayCount)

	insights := WeatherInsights(corr)
	if len(top) > 0 {
		insights = append(insights, dayInsight("Beste dag", top[0]))
	}
	if len(worst) > 0 {
		insights = append(insights, dayInsight("Slechtste dag", worst[0]))
	}

	return &models.WeatherSection{
		HasWeatherData:   true,
		Correlation:      corr,
		LocationAnalysis: locations,
		TopDays:          top,
		WorstDays:        worst,
		Insights:         insights,
	}
}

func dayInsight(label string, d models.PerformanceDay) string {
	return fmt.Sprintf("%s: %s bij %s - €%s bij %s°C, %s",
		label, d.Date, d.Location, formatNumber(d.Revenue), formatNumber(d.Temperature), d.Description)
}
