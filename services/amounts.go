package services

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

var (
	errInvalidAmount  = errors.New("invalid amount")
	errNegativeAmount = errors.New("negative amount")

	// plainNumberRegexp is what remains once currency and grouping are gone.
	plainNumberRegexp = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	// currencyCodeRegexp matches ISO codes written next to the number.
	currencyCodeRegexp = regexp.MustCompile(`(?i)eur|usd|gbp`)
	// digitsOnlyRegexp is used to tell a decimal comma from a grouping comma.
	digitsOnlyRegexp = regexp.MustCompile(`^\d+$`)
)

// stripCurrency removes currency symbols, ISO codes and all whitespace.
func stripCurrency(s string) string {
	s = currencyCodeRegexp.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '€' || r == '$' || r == '£' || r == '¥':
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
}

// normaliseAmount rewrites a locale-formatted amount into a plain
// dot-decimal number string.
//
//	"1.234,56" -> "1234.56"
//	"1,234.56" -> "1234.56"
//	"450,50"   -> "450.50"
//	"1,234"    -> "1234"
func normaliseAmount(raw string) string {
	cleaned := stripCurrency(raw)
	// Dutch whole-euro notation: "450,-"
	cleaned = strings.TrimSuffix(strings.TrimSuffix(cleaned, ",-"), ".-")

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case hasComma:
		after := cleaned[strings.Index(cleaned, ",")+1:]
		if len(after) >= 1 && len(after) <= 2 && digitsOnlyRegexp.MatchString(after) {
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case strings.Count(cleaned, ".") > 1:
		// "1.234.567" only makes sense as grouping.
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	return cleaned
}

// parseAmount converts raw into a non-negative decimal.
func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := normaliseAmount(raw)
	if !plainNumberRegexp.MatchString(cleaned) {
		return decimal.Zero, errInvalidAmount
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, errInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, errNegativeAmount
	}
	return d, nil
}

// parsePositiveAmount is used by the single-column strategies, which only
// accept amounts above zero.
func parsePositiveAmount(raw string) (decimal.Decimal, bool) {
	d, err := parseAmount(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// isAmountLike reports whether s is all digits once currency symbols,
// grouping and whitespace are removed.
func isAmountLike(s string) bool {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '€' || r == '$' || r == '£' || r == '¥' || r == ',' || r == '.':
			return -1
		case unicode.IsSpace(r):
			return -1
		}
		return r
	}, s)
	return digitsOnlyRegexp.MatchString(cleaned)
}
