package core

// convert.go provides type conversion functions for CSV cells.
//
// These functions handle the messy reality of user-provided CSV data:
//   - Multiple date formats (ISO, RFC 3339, US, EU)
//   - Currency symbols and thousand separators in numbers
//   - Excel formula prefixes (="value")
//   - Common CSV artifacts (whitespace, wrapping quotes)
//
// The Parse* functions return an error for malformed input; callers decide
// whether an empty cell is acceptable before calling them.

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	errInvalidInteger = errors.New("invalid integer")
	errInvalidNumber  = errors.New("invalid number")
	errInvalidDate    = errors.New("invalid date (use YYYY-MM-DD)")
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted.
// Years that would result in dates more than this many years in the future
// are assumed to be in the previous century.
var TwoDigitYearPivot = 20

// Date layouts split by year format for proper 2-digit year handling.
// ISO forms come first; they are what the exporter writes.
var (
	isoLayouts = []string{
		"2006-01-02",
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04:05Z07:00",
	}
	twoDigitYearLayouts = []string{
		"1/2/06", "01/02/06", "1-2-06", "1.2.06", "01.02.06",
	}
	fourDigitYearLayouts = []string{
		"1/2/2006", "01/02/2006", "1-2-2006", "01-02-2006", "1.2.2006", "01.02.2006",
		"2006/01/02", "2006.01.02",
		"Jan 2, 2006", "2 Jan 2006",
		"20060102",
	}
)

// ParseInteger parses a whole number such as an id or a quantity.
func ParseInteger(s string) (int64, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, errInvalidInteger
	}
	return n, nil
}

// ParseDecimal parses a money value.
// Handles currency symbols, thousands separators, and accounting format (parentheses for negative).
func ParseDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return decimal.Decimal{}, errInvalidNumber
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, errInvalidNumber
	}
	return d, nil
}

// ParseDate parses a date or timestamp. Results are in UTC.
// Supports multiple date formats and handles 2-digit years with pivot.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errInvalidDate
	}

	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	// Try 4-digit year layouts first (unambiguous)
	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// Try 2-digit year layouts with pivot year adjustment
	pivotYear := time.Now().Year() + TwoDigitYearPivot

	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return t, nil
		}
	}

	return time.Time{}, errInvalidDate
}

// FormatDate renders t for export: YYYY-MM-DD at midnight UTC, RFC 3339
// otherwise. ParseDate accepts both.
func FormatDate(t time.Time) string {
	t = t.UTC()
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339Nano)
}

// FormatDecimal renders a money value with two fraction digits.
func FormatDecimal(d decimal.Decimal) string {
	return d.StringFixed(MoneyScale)
}

// FormatOptional renders a nullable text column; NULL becomes an empty cell.
func FormatOptional(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// MakeHeaderIndex creates a HeaderIndex from a CSV header row.
// Keys are lowercased for case-insensitive matching. The first occurrence of
// a duplicated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(CleanCell(h))
		if key == "" {
			continue
		}
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes one pair of matching surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		return strings.TrimSpace(s[2 : len(s)-1])
	}

	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '"' || first == '\'') && first == last {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}

	return s
}

// Cell returns the trimmed value of the named column, or "" when the column
// is not in the header or the row is short. Text is otherwise kept as
// written, quotes included, so an exported value imports unchanged.
func Cell(row []string, idx HeaderIndex, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[pos])
}

// valueCell is Cell for numbers and dates, with spreadsheet quoting removed.
func valueCell(row []string, idx HeaderIndex, name string) string {
	return CleanCell(Cell(row, idx, name))
}

// OptionalText returns nil for an empty cell.
func OptionalText(row []string, idx HeaderIndex, name string) *string {
	v := Cell(row, idx, name)
	if v == "" {
		return nil
	}
	return &v
}

// IntegerCell parses an integer column; an empty cell yields 0.
func IntegerCell(row []string, idx HeaderIndex, name string) (int64, error) {
	v := valueCell(row, idx, name)
	if v == "" {
		return 0, nil
	}
	n, err := ParseInteger(v)
	if err != nil {
		return 0, &ValidationError{Field: name, Value: v, Message: err.Error()}
	}
	return n, nil
}

// OptionalIntegerCell parses an integer column; an empty cell yields nil.
func OptionalIntegerCell(row []string, idx HeaderIndex, name string) (*int64, error) {
	if valueCell(row, idx, name) == "" {
		return nil, nil
	}
	n, err := IntegerCell(row, idx, name)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// DecimalCell parses a money column; an empty cell yields nil.
func DecimalCell(row []string, idx HeaderIndex, name string) (*decimal.Decimal, error) {
	v := valueCell(row, idx, name)
	if v == "" {
		return nil, nil
	}
	d, err := ParseDecimal(v)
	if err != nil {
		return nil, &ValidationError{Field: name, Value: v, Message: err.Error()}
	}
	return &d, nil
}

// DateCell parses a date column; an empty cell yields nil.
func DateCell(row []string, idx HeaderIndex, name string) (*Date, error) {
	v := valueCell(row, idx, name)
	if v == "" {
		return nil, nil
	}
	t, err := ParseDate(v)
	if err != nil {
		return nil, &ValidationError{Field: name, Value: v, Message: err.Error()}
	}
	return &Date{Time: t}, nil
}

// Date is a timestamp that accepts every layout ParseDate does when decoded
// from JSON, so "2024-01-15" is as valid as a full RFC 3339 value.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return &ValidationError{Field: "date", Value: string(b), Message: errInvalidDate.Error()}
	}
	t, err := ParseDate(s)
	if err != nil {
		return &ValidationError{Field: "date", Value: s, Message: err.Error()}
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(FormatDate(d.Time))
}
