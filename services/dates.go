package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"weeromzet/models"
)

// dateLayout ties a supported textual format to its anchored pattern and the
// submatch positions of year, month and day.
type dateLayout struct {
	format  models.DateFormat
	re      *regexp.Regexp
	y, m, d int
}

// dateLayouts is in detection priority order.
var dateLayouts = []dateLayout{
	{models.DateYMDDash, regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`), 1, 2, 3},
	{models.DateDMYDash, regexp.MustCompile(`^(\d{1,2})-(\d{1,2})-(\d{4})$`), 3, 2, 1},
	{models.DateDMYSlash, regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`), 3, 2, 1},
	{models.DateYMDSlash, regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`), 1, 2, 3},
	{models.DateDMYDot, regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})\.(\d{4})$`), 3, 2, 1},
}

// embeddedDateRegexps find a date anywhere inside a longer line.
var embeddedDateRegexps = []*regexp.Regexp{
	regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}-\d{1,2}-\d{4}\b`),
	regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{4}\b`),
	regexp.MustCompile(`\b\d{4}/\d{1,2}/\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}\.\d{1,2}\.\d{4}\b`),
}

const (
	minYear = 1900
	maxYear = 2100 // exclusive
)

func (l dateLayout) parse(s string) (time.Time, bool) {
	m := l.re.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[l.y])
	month, _ := strconv.Atoi(m[l.m])
	day, _ := strconv.Atoi(m[l.d])
	if year < minYear || year >= maxYear || month < 1 || month > 12 || day < 1 {
		return time.Time{}, false
	}

	// Noon UTC keeps the calendar day stable in any local timezone.
	t := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
	if t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}

// parseDate parses s using the preferred format first and then every other
// supported format.
func parseDate(s string, preferred models.DateFormat) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if l.format == preferred {
			if t, ok := l.parse(s); ok {
				return t, true
			}
		}
	}
	for _, l := range dateLayouts {
		if l.format == preferred {
			continue
		}
		if t, ok := l.parse(s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// tryParseDate parses s with any supported format in priority order.
func tryParseDate(s string) (time.Time, bool) {
	return parseDate(s, dateLayouts[0].format)
}

// matchDateFormat returns the first format whose pattern matches s.
func matchDateFormat(s string) (models.DateFormat, bool) {
	s = strings.TrimSpace(s)
	for _, l := range dateLayouts {
		if l.re.MatchString(s) {
			return l.format, true
		}
	}
	return "", false
}

func isDateLike(s string) bool {
	_, ok := matchDateFormat(s)
	return ok
}

// findEmbeddedDate returns the first date substring found in line.
func findEmbeddedDate(line string) (string, time.Time, bool) {
	for _, re := range embeddedDateRegexps {
		match := re.FindString(line)
		if match == "" {
			continue
		}
		if t, ok := tryParseDate(match); ok {
			return match, t, true
		}
	}
	return "", time.Time{}, false
}
