package models

// Issue levels.
const (
	LevelCritical = "CRITICAL"
	LevelWarning  = "WARNING"
)

// Issue is a single validation finding.
type Issue struct {
	Level   string `json:"level"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsCritical reports whether the issue invalidates the dataset.
func (i Issue) IsCritical() bool {
	return i.Level == LevelCritical
}

// BasicChecks describes the structural shape of the dataset.
type BasicChecks struct {
	RowCount      int      `json:"row_count"`
	ColumnsFound  []string `json:"columns_found"`
	DateFormat    string   `json:"date_format"`
	RevenueFormat string   `json:"revenue_format"`
}

// SampleRow is one of the first rows, echoed back for display.
type SampleRow struct {
	Index   int    `json:"index"`
	Datum   string `json:"datum"`
	Locatie string `json:"locatie"`
	Omzet   string `json:"omzet"`
	Weer    string `json:"weer"`
}

// LocationCount is how often a location occurs in the dataset.
type LocationCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ValidationResult is the verdict of the data validator.
type ValidationResult struct {
	IsValid       bool            `json:"is_valid"`
	BasicChecks   BasicChecks     `json:"basic_checks"`
	SampleData    []SampleRow     `json:"sample_data"`
	LocationStats []LocationCount `json:"location_stats"`
	Issues        []Issue         `json:"issues"`
	Duplicates    []string        `json:"duplicates,omitempty"`
	Conclusion    string          `json:"conclusion"`
}

// CriticalIssues returns only the critical findings.
func (v *ValidationResult) CriticalIssues() []Issue {
	var out []Issue
	for _, i := range v.Issues {
		if i.IsCritical() {
			out = append(out, i)
		}
	}
	return out
}
