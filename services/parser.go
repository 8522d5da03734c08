package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"weeromzet/models"
	"weeromzet/utils"
)

var lineBreakRegexp = regexp.MustCompile(`\r?\n`)

// Parser turns raw sales text into SalesRecords and per-row ParseErrors.
type Parser struct {
	logger *utils.Logger
}

// NewParser creates a Parser with the given logger.
func NewParser(logger *utils.Logger) *Parser {
	return &Parser{logger: logger}
}

// SplitLines breaks text into its non-blank lines, dropping a leading BOM.
func SplitLines(text string) []string {
	text = strings.TrimPrefix(text, "\ufeff")
	raw := lineBreakRegexp.Split(strings.TrimSpace(text), -1)
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// Parse detects the format of text, drops the header row if present and
// parses every remaining line.
func (p *Parser) Parse(text string) models.ParseResult {
	lines := SplitLines(text)
	format := DetectFormat(lines)

	p.logger.Info("[parser] Detected separator=%q headers=%v dateFormat=%s mapping=%+v",
		format.Separator.DisplayName(), format.HasHeaders, format.DateFormat, format.Mapping)

	data := lines
	if format.HasHeaders && len(data) > 0 {
		data = data[1:]
	}
	return p.ParseRows(data, format)
}

// ParseRows parses data lines according to format. Every non-blank line
// yields exactly one record or one error.
func (p *Parser) ParseRows(lines []string, format models.DetectedFormat) models.ParseResult {
	result := models.ParseResult{
		Records: make([]models.SalesRecord, 0, len(lines)),
		Errors:  []models.ParseError{},
		Format:  format,
	}

	row := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		row++

		rec, perr := p.parseLine(line, row, format)
		if perr != nil {
			p.logger.Debug("[parser] %v", perr)
			result.Errors = append(result.Errors, *perr)
			continue
		}
		result.Records = append(result.Records, rec)
	}

	result.Summary = models.ParseSummary{
		TotalRows:      row,
		SuccessfulRows: len(result.Records),
		ErrorRows:      len(result.Errors),
	}
	p.logger.Info("[parser] Parsed %d rows: %d ok, %d errors",
		row, result.Summary.SuccessfulRows, result.Summary.ErrorRows)
	return result
}

func (p *Parser) parseLine(line string, row int, format models.DetectedFormat) (models.SalesRecord, *models.ParseError) {
	fail := func(msg string, args ...any) (models.SalesRecord, *models.ParseError) {
		return models.SalesRecord{}, &models.ParseError{RowIndex: row, Message: fmt.Sprintf(msg, args...)}
	}

	cols := splitRow(line, format.Separator)

	if len(cols) == 1 {
		packed := strings.TrimSpace(cols[0])
		tokens := strings.Fields(packed)
		if len(tokens) >= 3 {
			for _, s := range singleColumnStrategies {
				rec, ok := s.apply(packed, tokens)
				if !ok {
					continue
				}
				p.logger.Debug("[parser] Row %d split by %s strategy", row, s.name)
				rec.SourceRowIndex = row
				rec.RawLine = line
				return rec, nil
			}
		}
		return fail("Kon data niet splitsen uit single column %q", packed)
	}

	if len(cols) < 3 {
		return fail("Onvoldoende kolommen (%d gevonden, 3 verwacht)", len(cols))
	}

	m := format.Mapping
	dateStr := column(cols, m.DateIndex)
	location := column(cols, m.LocationIndex)
	amountStr := column(cols, m.AmountIndex)
	if dateStr == "" || location == "" || amountStr == "" {
		return fail("Lege waarden gevonden")
	}

	date, ok := parseDate(dateStr, format.DateFormat)
	if !ok {
		return fail("Ongeldige datum %q", dateStr)
	}

	amount, err := parseAmount(amountStr)
	if errors.Is(err, errNegativeAmount) {
		return fail("Negatief bedrag %q", amountStr)
	}
	if err != nil {
		return fail("Ongeldig bedrag %q", amountStr)
	}

	return models.SalesRecord{
		Date:           date,
		Location:       location,
		Amount:         amount,
		SourceRowIndex: row,
		RawLine:        line,
	}, nil
}

func column(cols []string, i int) string {
	if i < 0 || i >= len(cols) {
		return ""
	}
	return cleanField(cols[i])
}
