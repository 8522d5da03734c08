package services

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"weeromzet/models"
	"weeromzet/utils"
)

// Issue codes reported by the Validator.
const (
	CodeLowRowCount      = "LOW_ROW_COUNT"
	CodeTooFewRows       = "TOO_FEW_ROWS"
	CodeEventLocation    = "EVENT_LOCATION"
	CodeWeekdaySkew      = "WEEKDAY_SKEW"
	CodeDuplicateEntries = "DUPLICATE_ENTRIES"
	CodeRevenueOutliers  = "REVENUE_OUTLIERS"
)

const (
	minValidRows       = 5
	recommendedRows    = 10
	weekdaySkewPercent = 30.0
	outlierHighFactor  = 3.0
	outlierLowFactor   = 0.2
)

var eventKeywords = []string{"festival", "parade", "koningsdag", "pride", "uitmarkt", "canal parade", "kingsday"}

// strict two-digit layouts used for the report's date format line
var reportDateFormats = []struct {
	re   *regexp.Regexp
	name string
}{
	{regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`), string(models.DateYMDDash)},
	{regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`), string(models.DateDMYDash)},
	{regexp.MustCompile(`^\d{2}/\d{2}/\d{4}$`), string(models.DateDMYSlash)},
	{regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}$`), string(models.DateDMYDot)},
}

// Validator sanity-checks a parsed dataset without modifying it.
type Validator struct {
	logger *utils.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate runs every check and returns the verdict. The dataset is valid
// when it has at least five rows and no critical issue.
func (v *Validator) Validate(records []models.SalesRecord) *models.ValidationResult {
	res := &models.ValidationResult{
		BasicChecks: models.BasicChecks{
			RowCount:      len(records),
			ColumnsFound:  []string{"datum", "locatie", "omzet"},
			DateFormat:    reportDateFormat(records),
			RevenueFormat: "Onbekend",
		},
		SampleData:    sampleData(records),
		LocationStats: locationFrequency(records),
		Issues:        []models.Issue{},
	}
	if len(records) > 0 {
		res.BasicChecks.RevenueFormat = "Numeriek (goed)"
	}

	res.Issues = append(res.Issues, checkRowCount(len(records))...)
	res.Issues = append(res.Issues, checkEventLocations(res.LocationStats)...)
	res.Issues = append(res.Issues, checkWeekdaySkew(records)...)
	dupIssues, dups := checkDuplicates(records)
	res.Issues = append(res.Issues, dupIssues...)
	res.Duplicates = dups
	res.Issues = append(res.Issues, checkOutliers(records)...)

	res.IsValid = len(records) >= minValidRows && len(res.CriticalIssues()) == 0
	if res.IsValid {
		res.Conclusion = "Data ready voor analyse"
	} else {
		res.Conclusion = "Data heeft problemen die aandacht vereisen"
	}

	v.logger.Info("[validator] %d rows, %d issues (%d critical), valid=%v",
		len(records), len(res.Issues), len(res.CriticalIssues()), res.IsValid)
	return res
}

func checkRowCount(n int) []models.Issue {
	switch {
	case n < minValidRows:
		return []models.Issue{{
			Level:   models.LevelCritical,
			Code:    CodeTooFewRows,
			Message: fmt.Sprintf("Slechts %d rijen data (minimaal %d vereist, %d aanbevolen)", n, minValidRows, recommendedRows),
		}}
	case n < recommendedRows:
		return []models.Issue{{
			Level:   models.LevelWarning,
			Code:    CodeLowRowCount,
			Message: fmt.Sprintf("Slechts %d rijen data (minimum %d aanbevolen)", n, recommendedRows),
		}}
	}
	return nil
}

func checkEventLocations(locations []models.LocationCount) []models.Issue {
	var issues []models.Issue
	for _, loc := range locations {
		if containsAny(strings.ToLower(loc.Name), eventKeywords) {
			issues = append(issues, models.Issue{
				Level:   models.LevelWarning,
				Code:    CodeEventLocation,
				Message: fmt.Sprintf("Locatie %q lijkt een event, niet een locatie", loc.Name),
			})
		}
	}
	return issues
}

func checkWeekdaySkew(records []models.SalesRecord) []models.Issue {
	if len(records) == 0 {
		return nil
	}
	var counts [7]int
	for _, r := range records {
		counts[r.Date.Weekday()]++
	}
	dominant := 0
	for d := 1; d < 7; d++ {
		if counts[d] > counts[dominant] {
			dominant = d
		}
	}
	pct := float64(counts[dominant]) / float64(len(records)) * 100
	if pct <= weekdaySkewPercent {
		return nil
	}
	return []models.Issue{{
		Level:   models.LevelWarning,
		Code:    CodeWeekdaySkew,
		Message: fmt.Sprintf("%d%% van data is %s (verwacht: ~14%%)", int(math.Round(pct)), dutchDayNames[dominant]),
	}}
}

func checkDuplicates(records []models.SalesRecord) ([]models.Issue, []string) {
	seen := make(map[string]struct{}, len(records))
	var dups []string
	for _, r := range records {
		key := r.DateKey() + "-" + r.Location
		if _, ok := seen[key]; ok {
			dups = append(dups, key)
			continue
		}
		seen[key] = struct{}{}
	}
	if len(dups) == 0 {
		return nil, nil
	}
	return []models.Issue{{
		Level:   models.LevelCritical,
		Code:    CodeDuplicateEntries,
		Message: fmt.Sprintf("%d duplicate datum/locatie combinaties gevonden", len(dups)),
	}}, dups
}

func checkOutliers(records []models.SalesRecord) []models.Issue {
	if len(records) == 0 {
		return nil
	}
	sum := 0.0
	for _, r := range records {
		sum += r.Revenue()
	}
	mean := sum / float64(len(records))

	outliers := 0
	for _, r := range records {
		rev := r.Revenue()
		if rev > mean*outlierHighFactor || rev < mean*outlierLowFactor {
			outliers++
		}
	}
	if outliers == 0 {
		return nil
	}
	return []models.Issue{{
		Level:   models.LevelWarning,
		Code:    CodeRevenueOutliers,
		Message: fmt.Sprintf("%d omzet waarden lijken onrealistisch", outliers),
	}}
}

func sampleData(records []models.SalesRecord) []models.SampleRow {
	n := len(records)
	if n > 3 {
		n = 3
	}
	rows := make([]models.SampleRow, 0, n)
	for i := 0; i < n; i++ {
		r := records[i]
		rows = append(rows, models.SampleRow{
			Index:   i + 1,
			Datum:   r.DateKey(),
			Locatie: r.Location,
			Omzet:   r.Amount.String(),
			Weer:    "N/A",
		})
	}
	return rows
}

// locationFrequency counts rows per trimmed location, most frequent first.
func locationFrequency(records []models.SalesRecord) []models.LocationCount {
	idx := make(map[string]int)
	var out []models.LocationCount
	for _, r := range records {
		name := strings.TrimSpace(r.Location)
		if i, ok := idx[name]; ok {
			out[i].Count++
			continue
		}
		idx[name] = len(out)
		out = append(out, models.LocationCount{Name: name, Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func reportDateFormat(records []models.SalesRecord) string {
	if len(records) == 0 {
		return "Onbekend"
	}
	raw, _, ok := findEmbeddedDate(records[0].RawLine)
	if !ok {
		return "Onbekend"
	}
	for _, f := range reportDateFormats {
		if f.re.MatchString(raw) {
			return f.name
		}
	}
	return "Mixed/Auto-detected"
}

// GenerateReport renders a ValidationResult as the plain-text report shown
// to users before analysis.
func GenerateReport(v *models.ValidationResult) string {
	var b strings.Builder
	mark := func(ok bool) string {
		if ok {
			return "✓"
		}
		return "✗"
	}

	b.WriteString("DATA VALIDATIE RAPPORT\n")
	b.WriteString("======================\n\n")

	b.WriteString("BASIC CHECKS:\n")
	fmt.Fprintf(&b, "%s Aantal rijen: %d\n", mark(v.BasicChecks.RowCount >= recommendedRows), v.BasicChecks.RowCount)
	fmt.Fprintf(&b, "✓ Kolommen gevonden: [%s]\n", strings.Join(v.BasicChecks.ColumnsFound, ", "))
	fmt.Fprintf(&b, "✓ Datum format: %s\n", v.BasicChecks.DateFormat)
	fmt.Fprintf(&b, "✓ Omzet format: %s\n\n", v.BasicChecks.RevenueFormat)

	b.WriteString("SAMPLE DATA (eerste 3 rijen):\n")
	for _, row := range v.SampleData {
		fmt.Fprintf(&b, "%d. %s | %s | %s | %s\n", row.Index, row.Datum, row.Locatie, row.Omzet, row.Weer)
	}
	b.WriteString("\n")

	b.WriteString("LOCATIES GEVONDEN:\n")
	for i, loc := range v.LocationStats {
		if i == 8 {
			fmt.Fprintf(&b, "... en %d meer\n", len(v.LocationStats)-8)
			break
		}
		fmt.Fprintf(&b, "- %s (%dx)\n", loc.Name, loc.Count)
	}
	b.WriteString("\n")

	b.WriteString("DATA ISSUES:\n")
	if len(v.Issues) == 0 {
		b.WriteString("✓ Geen problemen gevonden\n")
	}
	for _, issue := range v.Issues {
		if issue.IsCritical() {
			fmt.Fprintf(&b, "✗ [%s] %s\n", issue.Code, issue.Message)
		} else {
			fmt.Fprintf(&b, "⚠️ [%s] %s\n", issue.Code, issue.Message)
		}
	}
	b.WriteString("\n")

	b.WriteString("CONCLUSIE:\n")
	fmt.Fprintf(&b, "%s %s", mark(v.IsValid), v.Conclusion)
	return b.String()
}
