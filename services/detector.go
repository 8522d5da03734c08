package services

import (
	"encoding/csv"
	"regexp"
	"strings"

	"weeromzet/models"
)

const sampleSize = 5

// candidateSeparators are tried in this order; earlier wins on a tie.
var candidateSeparators = []models.Separator{
	models.SeparatorComma,
	models.SeparatorSemicolon,
	models.SeparatorTab,
	models.SeparatorPipe,
}

var (
	headerDateWords     = []string{"datum", "date", "dag", "day", "tijd", "time"}
	headerLocationWords = []string{"locatie", "location", "plaats", "place", "spot", "adres", "address"}
	headerAmountWords   = []string{"omzet", "revenue", "amount", "bedrag", "waarde", "value", "euro", "eur", "€"}

	multiSpaceRegexp = regexp.MustCompile(`\s{2,}`)
)

// DetectFormat infers separator, header presence, column roles and date
// format from the leading lines of an input. It never fails: without any
// signal it returns comma, no headers and YYYY-MM-DD.
func DetectFormat(lines []string) models.DetectedFormat {
	format := models.DetectedFormat{
		Separator:  models.SeparatorComma,
		DateFormat: models.DateYMDDash,
		Mapping:    models.DefaultColumnMapping,
	}
	if len(lines) == 0 {
		format.ColumnOrder = columnOrderFor(format.Mapping, 3)
		return format
	}

	format.Separator = detectSeparator(lines)
	format.HasHeaders = detectHeaders(lines[0], format.Separator)

	sample := sampleRows(lines, format.HasHeaders)
	format.Mapping = detectColumnMapping(lines[0], sample, format.Separator, format.HasHeaders)
	format.DateFormat = detectDateFormat(sample, format.Separator, format.Mapping.DateIndex)

	switch {
	case format.HasHeaders:
		format.ColumnOrder = splitRow(lines[0], format.Separator)
	case format.Separator == models.SeparatorSingleColumn:
		format.ColumnOrder = []string{"alle data in één kolom"}
	default:
		format.ColumnOrder = columnOrderFor(format.Mapping, len(splitRow(lines[0], format.Separator)))
	}
	return format
}

func sampleRows(lines []string, hasHeaders bool) []string {
	start := 0
	if hasHeaders {
		start = 1
	}
	end := start + sampleSize
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	return lines[start:end]
}

func detectSeparator(lines []string) models.Separator {
	sample := lines
	if len(sample) > sampleSize {
		sample = sample[:sampleSize]
	}

	totalWords := 0
	anySeparator := false
	for _, line := range sample {
		totalWords += len(strings.Fields(line))
		for _, sep := range candidateSeparators {
			if strings.Contains(line, string(sep)) {
				anySeparator = true
			}
		}
	}
	avgWords := float64(totalWords) / float64(len(sample))

	if !anySeparator && avgWords >= 3 {
		return models.SeparatorSingleColumn
	}

	best := models.Separator("")
	bestConsistency := -1.0
	for _, sep := range candidateSeparators {
		occurrences := 0
		counts := make([]int, len(sample))
		for i, line := range sample {
			n := strings.Count(line, string(sep))
			occurrences += n
			counts[i] = n + 1
		}
		// Three fields need at least two separators per line.
		if float64(occurrences)/float64(len(sample)) < 2 {
			continue
		}
		if c := consistency(counts); c > bestConsistency {
			best, bestConsistency = sep, c
		}
	}
	if best != "" {
		return best
	}

	for _, line := range sample {
		if multiSpaceRegexp.MatchString(line) {
			return models.SeparatorSpace
		}
	}
	if avgWords >= 3 {
		return models.SeparatorSingleColumn
	}
	return models.SeparatorComma
}

// consistency is the share of lines whose column count equals the modal count.
func consistency(counts []int) float64 {
	freq := make(map[int]int, len(counts))
	modal := 0
	for _, c := range counts {
		freq[c]++
		if freq[c] > modal {
			modal = freq[c]
		}
	}
	return float64(modal) / float64(len(counts))
}

// detectHeaders treats the first line as a header when a token names a known
// column and no token looks like data.
func detectHeaders(firstLine string, sep models.Separator) bool {
	tokens := splitRow(firstLine, sep)
	if sep == models.SeparatorSingleColumn {
		tokens = strings.Fields(firstLine)
	}
	named := false
	for _, tok := range tokens {
		if isDateLike(tok) || isAmountLike(tok) {
			return false
		}
		if headerRole(tok) != "" {
			named = true
		}
	}
	return named
}

// headerRole returns which vocabulary a header token belongs to, if any.
func headerRole(token string) string {
	lower := strings.ToLower(strings.TrimSpace(token))
	switch {
	case containsAny(lower, headerDateWords):
		return "date"
	case containsAny(lower, headerLocationWords):
		return "location"
	case containsAny(lower, headerAmountWords):
		return "amount"
	}
	return ""
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func findColumn(columns []string, words []string) int {
	for i, col := range columns {
		if containsAny(strings.ToLower(strings.TrimSpace(col)), words) {
			return i
		}
	}
	return -1
}

func detectColumnMapping(firstLine string, sample []string, sep models.Separator, hasHeaders bool) models.ColumnMapping {
	if hasHeaders {
		cols := splitRow(firstLine, sep)
		d := findColumn(cols, headerDateWords)
		l := findColumn(cols, headerLocationWords)
		a := findColumn(cols, headerAmountWords)
		if d != -1 && l != -1 && a != -1 {
			return models.ColumnMapping{DateIndex: d, LocationIndex: l, AmountIndex: a}
		}
	}
	return guessColumnMapping(sample, sep)
}

// guessColumnMapping scores each column index over the sample rows and
// assigns roles by argmax.
func guessColumnMapping(sample []string, sep models.Separator) models.ColumnMapping {
	if len(sample) == 0 {
		return models.DefaultColumnMapping
	}
	rows := make([][]string, len(sample))
	for i, line := range sample {
		rows[i] = splitRow(line, sep)
	}
	width := len(rows[0])
	if width < 3 {
		return models.DefaultColumnMapping
	}

	score := func(col int, pred func(string) bool) float64 {
		hits := 0
		for _, r := range rows {
			if col < len(r) && r[col] != "" && pred(r[col]) {
				hits++
			}
		}
		return float64(hits) / float64(len(rows))
	}

	dateIdx, dateBest := 0, -1.0
	for col := 0; col < width; col++ {
		if s := score(col, isDateLike); s > dateBest {
			dateIdx, dateBest = col, s
		}
	}

	amountIdx, amountBest := -1, -1.0
	for col := 0; col < width; col++ {
		if col == dateIdx {
			continue
		}
		if s := score(col, isAmountLike); s > amountBest {
			amountIdx, amountBest = col, s
		}
	}
	if dateBest == 0 && amountBest == 0 {
		return models.DefaultColumnMapping
	}

	locationIdx := -1
	for col := 0; col < width; col++ {
		if col != dateIdx && col != amountIdx {
			locationIdx = col
			break
		}
	}

	return models.ColumnMapping{DateIndex: dateIdx, LocationIndex: locationIdx, AmountIndex: amountIdx}
}

func detectDateFormat(sample []string, sep models.Separator, dateIdx int) models.DateFormat {
	checked := 0
	for _, line := range sample {
		if checked == 3 {
			break
		}
		cols := splitRow(line, sep)
		if dateIdx >= len(cols) || cols[dateIdx] == "" {
			continue
		}
		checked++
		if f, ok := matchDateFormat(cols[dateIdx]); ok {
			return f
		}
	}
	return models.DateYMDDash
}

// columnOrderFor names each column index by its mapped role.
func columnOrderFor(m models.ColumnMapping, width int) []string {
	if width < 3 {
		width = 3
	}
	order := make([]string, width)
	for i := range order {
		order[i] = "onbekend"
	}
	set := func(i int, name string) {
		if i >= 0 && i < width {
			order[i] = name
		}
	}
	set(m.DateIndex, "datum")
	set(m.LocationIndex, "locatie")
	set(m.AmountIndex, "omzet")
	return order
}

// splitRow splits a line into trimmed fields. Character separators go
// through encoding/csv so quoted fields may contain the separator.
func splitRow(line string, sep models.Separator) []string {
	switch sep {
	case models.SeparatorSingleColumn:
		return []string{strings.TrimSpace(line)}
	case models.SeparatorSpace:
		return strings.Fields(line)
	}

	r := csv.NewReader(strings.NewReader(line))
	r.Comma = []rune(string(sep))[0]
	r.LazyQuotes = true
	r.FieldsPerRecord = -1
	fields, err := r.Read()
	if err != nil {
		fields = strings.Split(line, string(sep))
	}
	for i, f := range fields {
		fields[i] = cleanField(f)
	}
	return fields
}

// cleanField trims a field and strips one pair of surrounding quotes.
func cleanField(f string) string {
	f = strings.TrimSpace(f)
	f = strings.TrimPrefix(f, `"`)
	f = strings.TrimPrefix(f, `'`)
	f = strings.TrimSuffix(f, `"`)
	f = strings.TrimSuffix(f, `'`)
	return strings.TrimSpace(f)
}
