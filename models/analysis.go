package models

// LocationStats aggregates revenue for one location.
type LocationStats struct {
	Name             string  `json:"name"`
	TotalRevenue     float64 `json:"total_revenue"`
	AverageRevenue   float64 `json:"average_revenue"`
	TransactionCount int     `json:"transaction_count"`
	BestDay          string  `json:"best_day"`
	WorstDay         string  `json:"worst_day"`
}

// DayStats aggregates revenue for one weekday (0 = Sunday).
type DayStats struct {
	Day              int     `json:"day"`
	DayName          string  `json:"day_name"`
	TotalRevenue     float64 `json:"total_revenue"`
	AverageRevenue   float64 `json:"average_revenue"`
	TransactionCount int     `json:"transaction_count"`
}

// MonthStats aggregates revenue for one YYYY-MM month.
type MonthStats struct {
	Month            string  `json:"month"`
	MonthName        string  `json:"month_name"`
	TotalRevenue     float64 `json:"total_revenue"`
	AverageRevenue   float64 `json:"average_revenue"`
	TransactionCount int     `json:"transaction_count"`
}

// DateRange is an inclusive range of D-M-YYYY dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Summary holds dataset-wide figures.
type Summary struct {
	TotalRevenue      float64   `json:"total_revenue"`
	TotalTransactions int       `json:"total_transactions"`
	AverageRevenue    float64   `json:"average_revenue"`
	BestLocation      string    `json:"best_location"`
	WorstLocation     string    `json:"worst_location"`
	DateRange         DateRange `json:"date_range"`
}

// AnalysisResult is the full output of one analysis run.
type AnalysisResult struct {
	Summary   Summary           `json:"summary"`
	Locations []LocationStats   `json:"locations"`
	DayOfWeek []DayStats        `json:"day_of_week_stats"`
	Monthly   []MonthStats      `json:"monthly_stats"`
	Insights  []string          `json:"insights"`
	Weather   *WeatherSection   `json:"weather,omitempty"`
	Parse     *ParseSummary     `json:"parse,omitempty"`
	Format    *DetectedFormat   `json:"detected_format,omitempty"`
	Errors    []ParseError      `json:"parse_errors,omitempty"`
	Checks    *ValidationResult `json:"validation,omitempty"`
}

// WeatherSection extends an AnalysisResult when weather data was requested.
type WeatherSection struct {
	HasWeatherData   bool                     `json:"has_weather_data"`
	Correlation      *WeatherCorrelation      `json:"correlation,omitempty"`
	LocationAnalysis *LocationWeatherAnalysis `json:"location_analysis,omitempty"`
	TopDays          []PerformanceDay         `json:"top_days,omitempty"`
	WorstDays        []PerformanceDay         `json:"worst_days,omitempty"`
	Insights         []string                 `json:"insights"`
}
