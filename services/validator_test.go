package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weeromzet/models"
)

func issueCodes(v *models.ValidationResult) []string {
	codes := make([]string, 0, len(v.Issues))
	for _, i := range v.Issues {
		codes = append(codes, i.Code)
	}
	return codes
}

func TestValidatorCleanDataset(t *testing.T) {
	var records []models.SalesRecord
	for i := 0; i < 10; i++ {
		loc := "Dam"
		if i%2 == 1 {
			loc = "Museumplein"
		}
		records = append(records, rec(isoDay("2024-01-01", i), loc, []string{
			"100", "110", "120", "130", "140", "150", "160", "170", "180", "190",
		}[i]))
	}

	v := NewValidator(newTestLogger()).Validate(records)

	assert.True(t, v.IsValid)
	assert.Empty(t, v.Issues)
	assert.Equal(t, "Data ready voor analyse", v.Conclusion)
	assert.Equal(t, 10, v.BasicChecks.RowCount)
	assert.Equal(t, "YYYY-MM-DD", v.BasicChecks.DateFormat)
	assert.Equal(t, "Numeriek (goed)", v.BasicChecks.RevenueFormat)
	require.Len(t, v.SampleData, 3)
	assert.Equal(t, models.SampleRow{Index: 1, Datum: "2024-01-01", Locatie: "Dam", Omzet: "100", Weer: "N/A"}, v.SampleData[0])
	assert.Equal(t, []models.LocationCount{{Name: "Dam", Count: 5}, {Name: "Museumplein", Count: 5}}, v.LocationStats)
}

func TestValidatorDuplicateIsCritical(t *testing.T) {
	records := []models.SalesRecord{
		rec("2024-01-15", "Dam", "100"),
		rec("2024-01-15", "Dam", "100"),
	}

	v := NewValidator(newTestLogger()).Validate(records)

	assert.False(t, v.IsValid)
	assert.Contains(t, issueCodes(v), CodeDuplicateEntries)
	assert.Contains(t, issueCodes(v), CodeTooFewRows)
	assert.Equal(t, []string{"2024-01-15-Dam"}, v.Duplicates)
	for _, i := range v.Issues {
		if i.Code == CodeDuplicateEntries {
			assert.True(t, i.IsCritical())
			assert.Equal(t, "1 duplicate datum/locatie combinaties gevonden", i.Message)
		}
	}
}

func TestValidatorDuplicatesInvalidateLargeDataset(t *testing.T) {
	var records []models.SalesRecord
	for i := 0; i < 12; i++ {
		records = append(records, rec(isoDay("2024-03-01", i), "Dam", "200"))
	}
	records = append(records, rec("2024-03-01", "Dam", "210"))

	v := NewValidator(newTestLogger()).Validate(records)
	assert.False(t, v.IsValid)
	assert.Len(t, v.CriticalIssues(), 1)
}

func TestValidatorAdvisoryIssues(t *testing.T) {
	// Six Mondays, one event location, one outlier.
	records := []models.SalesRecord{
		rec("2024-01-01", "Dam", "100"),
		rec("2024-01-08", "Dam", "100"),
		rec("2024-01-15", "Koningsdag Festival", "100"),
		rec("2024-01-22", "Dam", "100"),
		rec("2024-01-29", "Dam", "100"),
		rec("2024-02-05", "Dam", "1000"),
	}

	v := NewValidator(newTestLogger()).Validate(records)

	assert.True(t, v.IsValid, "advisory issues must not invalidate")
	assert.Equal(t, []string{CodeLowRowCount, CodeEventLocation, CodeWeekdaySkew, CodeRevenueOutliers}, issueCodes(v))
	for _, i := range v.Issues {
		assert.False(t, i.IsCritical(), i.Code)
	}
	assert.Equal(t, "100% van data is Maandag (verwacht: ~14%)", v.Issues[2].Message)
	assert.Equal(t, "1 omzet waarden lijken onrealistisch", v.Issues[3].Message)
}

func TestValidatorTooFewRows(t *testing.T) {
	records := []models.SalesRecord{
		rec("2024-01-01", "Dam", "100"),
		rec("2024-01-02", "Noord", "120"),
	}
	v := NewValidator(newTestLogger()).Validate(records)
	assert.False(t, v.IsValid)
	assert.Equal(t, CodeTooFewRows, v.Issues[0].Code)
	assert.Equal(t, models.LevelCritical, v.Issues[0].Level)
}

func TestGenerateReport(t *testing.T) {
	records := []models.SalesRecord{
		rec("2024-01-15", "Dam", "100"),
		rec("2024-01-15", "Dam", "100"),
	}
	v := NewValidator(newTestLogger()).Validate(records)
	report := GenerateReport(v)

	assert.Contains(t, report, "DATA VALIDATIE RAPPORT")
	assert.Contains(t, report, "✗ Aantal rijen: 2")
	assert.Contains(t, report, "1. 2024-01-15 | Dam | 100 | N/A")
	assert.Contains(t, report, "- Dam (2x)")
	assert.Contains(t, report, "[DUPLICATE_ENTRIES]")
	assert.Contains(t, report, "✗ Data heeft problemen die aandacht vereisen")
}
