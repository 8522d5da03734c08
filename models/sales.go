package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Separator identifies how fields are split within a line.
type Separator string

const (
	SeparatorComma        Separator = ","
	SeparatorSemicolon    Separator = ";"
	SeparatorTab          Separator = "\t"
	SeparatorPipe         Separator = "|"
	SeparatorSpace        Separator = " "
	SeparatorSingleColumn Separator = "single-column"
)

// DisplayName returns the human-readable separator name.
func (s Separator) DisplayName() string {
	switch s {
	case SeparatorTab:
		return "tab"
	case SeparatorSpace:
		return "space"
	case SeparatorSingleColumn:
		return "single-column"
	default:
		return string(s)
	}
}

// DateFormat is one of the supported textual date layouts.
type DateFormat string

const (
	DateYMDDash  DateFormat = "YYYY-MM-DD"
	DateDMYDash  DateFormat = "DD-MM-YYYY"
	DateDMYSlash DateFormat = "DD/MM/YYYY"
	DateYMDSlash DateFormat = "YYYY/MM/DD"
	DateDMYDot   DateFormat = "DD.MM.YYYY"
)

// ColumnMapping maps column roles to column indices.
type ColumnMapping struct {
	DateIndex     int `json:"date_index"`
	LocationIndex int `json:"location_index"`
	AmountIndex   int `json:"amount_index"`
}

// DefaultColumnMapping is the date, location, amount ordering.
var DefaultColumnMapping = ColumnMapping{DateIndex: 0, LocationIndex: 1, AmountIndex: 2}

// DetectedFormat is computed once per input and consumed by the row parser.
type DetectedFormat struct {
	Separator   Separator     `json:"separator"`
	HasHeaders  bool          `json:"has_headers"`
	DateFormat  DateFormat    `json:"date_format"`
	ColumnOrder []string      `json:"column_order"`
	Mapping     ColumnMapping `json:"mapping"`
}

// SalesRecord is one successfully parsed (date, location, amount) line.
type SalesRecord struct {
	Date           time.Time       `json:"date"`
	Location       string          `json:"location"`
	Amount         decimal.Decimal `json:"amount"`
	SourceRowIndex int             `json:"source_row_index"`
	RawLine        string          `json:"raw_line"`
}

// DateKey returns the record date as YYYY-MM-DD.
func (r SalesRecord) DateKey() string {
	return r.Date.Format("2006-01-02")
}

// Revenue returns the amount as a float64 for statistics.
func (r SalesRecord) Revenue() float64 {
	return r.Amount.InexactFloat64()
}

// ParseError describes a line that failed every parse strategy.
type ParseError struct {
	RowIndex int    `json:"row_index"`
	Message  string `json:"message"`
}

func (e ParseError) Error() string {
	return fmt.Sprintf("rij %d: %s", e.RowIndex, e.Message)
}

// ParseSummary counts the outcome of a parse pass.
type ParseSummary struct {
	TotalRows      int `json:"total_rows"`
	SuccessfulRows int `json:"successful_rows"`
	ErrorRows      int `json:"error_rows"`
}

// ParseResult holds every record and error produced from one input payload.
type ParseResult struct {
	Records []SalesRecord  `json:"records"`
	Errors  []ParseError   `json:"errors"`
	Format  DetectedFormat `json:"detected_format"`
	Summary ParseSummary   `json:"summary"`
}
