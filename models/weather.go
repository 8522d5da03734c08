package models

// Coordinates is a WGS84 point used for weather lookups.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Amsterdam is the default lookup point.
var Amsterdam = Coordinates{Lat: 52.3676, Lon: 4.9041}

// WeatherObservation is one day of weather as supplied by a provider.
type WeatherObservation struct {
	Date               string  `json:"date"` // YYYY-MM-DD
	Temperature        float64 `json:"temperature"`
	Precipitation      float64 `json:"precipitation"`
	Humidity           float64 `json:"humidity"`
	WindSpeed          float64 `json:"wind_speed"`
	Pressure           float64 `json:"pressure"`
	WeatherMain        string  `json:"weather_main"`
	WeatherDescription string  `json:"weather_description"`
}

// TemperatureCorrelation relates temperature to revenue.
type TemperatureCorrelation struct {
	Correlation  float64    `json:"correlation"`
	OptimalRange [2]float64 `json:"optimal_range"`
	Impact       string     `json:"impact"`
}

// PrecipitationCorrelation compares rainy with dry days.
type PrecipitationCorrelation struct {
	Correlation   float64 `json:"correlation"`
	AverageImpact float64 `json:"average_impact"`
	Impact        string  `json:"impact"`
}

// ConditionImpact is the revenue delta for one weatherMain group.
type ConditionImpact struct {
	Condition        string  `json:"condition"`
	AverageRevenue   float64 `json:"average_revenue"`
	RevenueImpact    float64 `json:"revenue_impact"`
	TransactionCount int     `json:"transaction_count"`
	Description      string  `json:"description"`
}

// WeatherCorrelation is the output of the correlation engine.
type WeatherCorrelation struct {
	Baseline      float64                  `json:"baseline"`
	JoinedCount   int                      `json:"joined_count"`
	Temperature   TemperatureCorrelation   `json:"temperature"`
	Precipitation PrecipitationCorrelation `json:"precipitation"`
	Conditions    []ConditionImpact        `json:"conditions"`
}

// TempCategory buckets a daily temperature.
type TempCategory string

const (
	TempWarm TempCategory = "warm"
	TempMild TempCategory = "mild"
	TempKoud TempCategory = "koud"
)

// RainCategory buckets daily precipitation.
type RainCategory string

const (
	RainDroog    RainCategory = "Droog"
	RainLichtNat RainCategory = "LichtNat"
	RainNat      RainCategory = "Nat"
)

// TempCategories and RainCategories list the scenario axes in display order.
var (
	TempCategories = []TempCategory{TempWarm, TempMild, TempKoud}
	RainCategories = []RainCategory{RainDroog, RainLichtNat, RainNat}
)

// ScenarioName joins the two categories, e.g. "warmDroog".
func ScenarioName(t TempCategory, r RainCategory) string {
	return string(t) + string(r)
}

// ScenarioStats holds one cell of the 3x3 matrix.
type ScenarioStats struct {
	Scenario     string  `json:"scenario"`
	Count        int     `json:"count"`
	AvgRevenue   float64 `json:"avg_revenue"`
	TotalRevenue float64 `json:"total_revenue"`
}

// LocationInsight is an actionable message for one location.
type LocationInsight struct {
	Type    string `json:"type"` // positive|negative|neutral
	Weather string `json:"weather"`
	Message string `json:"message"`
	Impact  int    `json:"impact"`
}

// Sensitivity levels.
const (
	SensitivityLaag   = "laag"
	SensitivityMiddel = "middel"
	SensitivityHoog   = "hoog"
)

// LocationWeather is the scenario analysis of a single location.
type LocationWeather struct {
	LocationName     string            `json:"location_name"`
	TotalDays        int               `json:"total_days"`
	BaselineRevenue  float64           `json:"baseline_revenue"`
	Scenarios        []ScenarioStats   `json:"scenarios"` // 9 cells, TempCategories x RainCategories
	SensitivityScore int               `json:"sensitivity_score"`
	SensitivityLevel string            `json:"sensitivity_level"`
	BestScenario     string            `json:"best_scenario"`
	WorstScenario    string            `json:"worst_scenario"`
	Insights         []LocationInsight `json:"insights"`
}

// Scenario returns the cell for the given categories.
func (l *LocationWeather) Scenario(t TempCategory, r RainCategory) ScenarioStats {
	name := ScenarioName(t, r)
	for _, s := range l.Scenarios {
		if s.Scenario == name {
			return s
		}
	}
	return ScenarioStats{Scenario: name}
}

// OverallSensitivity summarises every qualifying location.
type OverallSensitivity struct {
	AvgSensitivity int    `json:"avg_sensitivity"`
	MostSensitive  string `json:"most_sensitive"`
	LeastSensitive string `json:"least_sensitive"`
}

// LocationWeatherAnalysis is the per-location scenario matrix output.
type LocationWeatherAnalysis struct {
	Locations []LocationWeather  `json:"locations"`
	Overall   OverallSensitivity `json:"overall_sensitivity"`
}

// PerformanceDay is a sales day joined with its weather.
type PerformanceDay struct {
	Rank        int     `json:"rank"`
	Date        string  `json:"date"`
	Location    string  `json:"location"`
	Revenue     float64 `json:"revenue"`
	Temperature float64 `json:"temperature"`
	Rain        float64 `json:"precipitation"`
	Condition   string  `json:"condition"`
	Description string  `json:"description"`
}
