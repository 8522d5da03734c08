package services

import (
	"regexp"
	"strings"

	"weeromzet/models"
)

// rowStrategy tries to split one packed single-column line into a record.
type rowStrategy struct {
	name  string
	apply func(line string, tokens []string) (models.SalesRecord, bool)
}

// singleColumnStrategies run in order; the first success wins.
var singleColumnStrategies = []rowStrategy{
	{name: "date-first", apply: dateFirstStrategy},
	{name: "date-middle", apply: dateMiddleStrategy},
	{name: "embedded-date", apply: embeddedDateStrategy},
}

var (
	trailingAmountRegexp = regexp.MustCompile(`€?\d+[.,]?\d*`)
	euroSpaceRegexp      = regexp.MustCompile(`[€\s]+`)
)

// dateFirstStrategy handles "2024-01-15 Museumplein Amsterdam €450,50":
// date first, amount found scanning back from the end, location between.
func dateFirstStrategy(_ string, tokens []string) (models.SalesRecord, bool) {
	date, ok := tryParseDate(tokens[0])
	if !ok {
		return models.SalesRecord{}, false
	}
	for i := len(tokens) - 1; i >= 2; i-- {
		amount, ok := parsePositiveAmount(tokens[i])
		if !ok {
			continue
		}
		location := strings.Join(tokens[1:i], " ")
		if location == "" {
			continue
		}
		return models.SalesRecord{Date: date, Location: location, Amount: amount}, true
	}
	return models.SalesRecord{}, false
}

// dateMiddleStrategy handles "Museumplein 15-01-2024 €450,50": the date sits
// at an inner position and the amount is the first number after it.
func dateMiddleStrategy(_ string, tokens []string) (models.SalesRecord, bool) {
	for di := 1; di < len(tokens)-1; di++ {
		date, ok := tryParseDate(tokens[di])
		if !ok {
			continue
		}
		for ai := di + 1; ai < len(tokens); ai++ {
			amount, ok := parsePositiveAmount(tokens[ai])
			if !ok {
				continue
			}
			parts := make([]string, 0, len(tokens))
			parts = append(parts, tokens[:di]...)
			parts = append(parts, tokens[di+1:ai]...)
			location := strings.Join(parts, " ")
			if location == "" {
				continue
			}
			return models.SalesRecord{Date: date, Location: location, Amount: amount}, true
		}
	}
	return models.SalesRecord{}, false
}

// embeddedDateStrategy scans the whole line for a date pattern, takes the
// last currency-like number in the remainder and keeps the rest as location.
func embeddedDateStrategy(line string, _ []string) (models.SalesRecord, bool) {
	dateStr, date, ok := findEmbeddedDate(line)
	if !ok {
		return models.SalesRecord{}, false
	}
	withoutDate := strings.TrimSpace(strings.Replace(line, dateStr, " ", 1))

	matches := trailingAmountRegexp.FindAllString(withoutDate, -1)
	if len(matches) == 0 {
		return models.SalesRecord{}, false
	}
	amountStr := matches[len(matches)-1]
	amount, ok := parsePositiveAmount(amountStr)
	if !ok {
		return models.SalesRecord{}, false
	}

	location := strings.Replace(withoutDate, amountStr, "", 1)
	location = strings.TrimSpace(euroSpaceRegexp.ReplaceAllString(location, " "))
	if location == "" {
		return models.SalesRecord{}, false
	}
	return models.SalesRecord{Date: date, Location: location, Amount: amount}, true
}
