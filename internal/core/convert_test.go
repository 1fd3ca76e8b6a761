package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ParseDecimal Tests
// ----------------------------------------------------------------------------

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue string
	}{
		{name: "positive integer", input: "123", wantValid: true, wantValue: "123"},
		{name: "zero", input: "0", wantValid: true, wantValue: "0"},
		{name: "negative", input: "-456", wantValid: true, wantValue: "-456"},
		{name: "two decimals", input: "9.99", wantValid: true, wantValue: "9.99"},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: "0.99"},
		{name: "trailing decimal point", input: "99.", wantValid: true, wantValue: "99"},
		{name: "surrounding whitespace", input: "  19.99 ", wantValid: true, wantValue: "19.99"},
		{name: "dollar sign", input: "$19.99", wantValid: true, wantValue: "19.99"},
		{name: "euro sign", input: "€5", wantValid: true, wantValue: "5"},
		{name: "pound sign", input: "£7.50", wantValid: true, wantValue: "7.5"},
		{name: "thousands separator", input: "1,234.56", wantValid: true, wantValue: "1234.56"},
		{name: "accounting negative", input: "(12.50)", wantValid: true, wantValue: "-12.5"},
		{name: "scientific notation", input: "1.5e2", wantValid: true, wantValue: "150"},

		{name: "empty", input: "", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "mixed", input: "12abc", wantValid: false},
		{name: "two points", input: "1.2.3", wantValid: false},
		{name: "only sign", input: "-", wantValid: false},
		{name: "NaN", input: "NaN", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimal(tt.input)
			if !tt.wantValid {
				if err == nil {
					t.Fatalf("ParseDecimal(%q) = %s, want error", tt.input, got)
				}
				if err.Error() != "invalid number" {
					t.Errorf("error = %q, want %q", err.Error(), "invalid number")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal(%q) error: %v", tt.input, err)
			}
			if got.String() != tt.wantValue {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.input, got.String(), tt.wantValue)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseInteger Tests
// ----------------------------------------------------------------------------

func TestParseInteger(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{input: "1", want: 1},
		{input: " 42 ", want: 42},
		{input: "-3", want: -3},
		{input: "9223372036854775807", want: 9223372036854775807},
		{input: "", wantErr: true},
		{input: "1.5", wantErr: true},
		{input: "one", wantErr: true},
		{input: "1,000", wantErr: true},
		{input: "9223372036854775808", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInteger(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseInteger(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseInteger(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseInteger(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ParseDate Tests
// ----------------------------------------------------------------------------

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "ISO date",
			input: "2024-01-15",
			want:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "ISO leap day",
			input: "2024-02-29",
			want:  time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "RFC 3339 UTC",
			input: "2024-03-01T10:30:00Z",
			want:  time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "RFC 3339 with offset normalised to UTC",
			input: "2024-03-01T12:30:00+02:00",
			want:  time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "ISO date time without zone",
			input: "2024-03-01T10:30:00",
			want:  time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "ISO date time with space",
			input: "2024-03-01 10:30:00",
			want:  time.Date(2024, time.March, 1, 10, 30, 0, 0, time.UTC),
		},
		{
			name:  "US format with slashes",
			input: "01/15/2024",
			want:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "US format single digits",
			input: "1/5/2024",
			want:  time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "slash ISO",
			input: "2024/01/15",
			want:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "month name",
			input: "Jan 15, 2024",
			want:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "compact",
			input: "20240115",
			want:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "whitespace trimmed",
			input: "  2024-01-15  ",
			want:  time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, input := range []string{"", "yesterday", "2024-13-01", "2024-02-30", "15/15/2024", "2024-1"} {
		t.Run(input, func(t *testing.T) {
			if got, err := ParseDate(input); err == nil {
				t.Errorf("ParseDate(%q) = %v, want error", input, got)
			}
		})
	}
}

func TestParseDate_TwoDigitYear(t *testing.T) {
	originalPivot := TwoDigitYearPivot
	defer func() { TwoDigitYearPivot = originalPivot }()
	TwoDigitYearPivot = 20

	got, err := ParseDate("1/15/24")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if got.Year() != 2024 {
		t.Errorf("year = %d, want 2024", got.Year())
	}

	// A year far beyond the pivot belongs to the previous century.
	got, err = ParseDate("1/15/98")
	if err != nil {
		t.Fatalf("ParseDate error: %v", err)
	}
	if got.Year() != 1998 {
		t.Errorf("year = %d, want 1998", got.Year())
	}
}

// ----------------------------------------------------------------------------
// Formatting Tests
// ----------------------------------------------------------------------------

func TestFormatDate(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "midnight UTC is a plain date",
			in:   time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC),
			want: "2024-01-15",
		},
		{
			name: "time of day keeps RFC 3339",
			in:   time.Date(2024, time.January, 15, 9, 5, 0, 0, time.UTC),
			want: "2024-01-15T09:05:00Z",
		},
		{
			name: "other zones are converted to UTC",
			in:   time.Date(2024, time.January, 15, 2, 0, 0, 0, time.FixedZone("CEST", 2*3600)),
			want: "2024-01-15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDate(tt.in)
			if got != tt.want {
				t.Errorf("FormatDate() = %q, want %q", got, tt.want)
			}

			back, err := ParseDate(got)
			if err != nil {
				t.Fatalf("ParseDate(%q) error: %v", got, err)
			}
			if !back.Equal(tt.in) {
				t.Errorf("round trip = %v, want %v", back, tt.in)
			}
		})
	}
}

func TestFormatDecimal(t *testing.T) {
	for in, want := range map[string]string{"9.99": "9.99", "10": "10.00", "0.5": "0.50", "0": "0.00"} {
		d, err := ParseDecimal(in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q): %v", in, err)
		}
		if got := FormatDecimal(d); got != want {
			t.Errorf("FormatDecimal(%s) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatOptional(t *testing.T) {
	s := "Acme"
	if got := FormatOptional(&s); got != "Acme" {
		t.Errorf("FormatOptional(&%q) = %q", s, got)
	}
	if got := FormatOptional(nil); got != "" {
		t.Errorf("FormatOptional(nil) = %q, want empty", got)
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple string unchanged", input: "hello", want: "hello"},
		{name: "empty string", input: "", want: ""},
		{name: "whitespace only", input: "   ", want: ""},
		{name: "surrounded by whitespace", input: "  hello  ", want: "hello"},
		{name: "Excel formula with quotes", input: `="12345"`, want: "12345"},
		{name: "matching double quotes", input: `"hello"`, want: "hello"},
		{name: "matching single quotes", input: `'hello'`, want: "hello"},
		{name: "unmatched quote kept", input: `"hello`, want: `"hello`},
		{name: "mismatched quotes kept", input: `"hello'`, want: `"hello'`},
		{name: "inner quotes kept", input: `Bob's "Best"`, want: `Bob's "Best"`},
		{name: "single quote char", input: `"`, want: `"`},
		{name: "bare equals kept", input: "=SUM(A1)", want: "=SUM(A1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// Header and Cell Tests
// ----------------------------------------------------------------------------

func TestMakeHeaderIndex(t *testing.T) {
	tests := []struct {
		name   string
		header []string
		checks map[string]int
	}{
		{
			name:   "simple headers",
			header: []string{"name", "category_id", "price"},
			checks: map[string]int{"name": 0, "category_id": 1, "price": 2},
		},
		{
			name:   "case insensitive",
			header: []string{"NAME", "Category_ID", "pRiCe"},
			checks: map[string]int{"name": 0, "category_id": 1, "price": 2},
		},
		{
			name:   "whitespace and quotes cleaned",
			header: []string{"  name ", `"price"`},
			checks: map[string]int{"name": 0, "price": 1},
		},
		{
			name:   "empty header",
			header: []string{},
			checks: map[string]int{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := MakeHeaderIndex(tt.header)
			if len(idx) != len(tt.checks) {
				t.Errorf("len = %d, want %d", len(idx), len(tt.checks))
			}
			for key, wantPos := range tt.checks {
				if gotPos, ok := idx[key]; !ok || gotPos != wantPos {
					t.Errorf("idx[%q] = %d (found %v), want %d", key, gotPos, ok, wantPos)
				}
			}
		})
	}
}

func TestMakeHeaderIndex_DuplicateHeaders(t *testing.T) {
	idx := MakeHeaderIndex([]string{"name", "price", "Name"})
	if got := idx["name"]; got != 0 {
		t.Errorf("name index = %d, want 0 (first occurrence)", got)
	}
}

func TestMakeHeaderIndex_BlankColumnsIgnored(t *testing.T) {
	idx := MakeHeaderIndex([]string{"name", "", "  "})
	if _, ok := idx[""]; ok {
		t.Error("blank header should not be indexed")
	}
}

func TestCellHelpers(t *testing.T) {
	idx := HeaderIndex{"id": 0, "name": 1, "price": 2, "date": 3}

	t.Run("short row yields empty", func(t *testing.T) {
		if got := Cell([]string{"1"}, idx, "name"); got != "" {
			t.Errorf("Cell = %q", got)
		}
		if got := Cell([]string{"1"}, idx, "brand"); got != "" {
			t.Errorf("Cell for absent column = %q", got)
		}
	})

	t.Run("optional values", func(t *testing.T) {
		row := []string{"", " ", "", ""}
		if v := OptionalText(row, idx, "name"); v != nil {
			t.Errorf("OptionalText = %q, want nil", *v)
		}
		if v, err := OptionalIntegerCell(row, idx, "id"); err != nil || v != nil {
			t.Errorf("OptionalIntegerCell = %v, %v", v, err)
		}
		if v, err := DecimalCell(row, idx, "price"); err != nil || v != nil {
			t.Errorf("DecimalCell = %v, %v", v, err)
		}
		if v, err := DateCell(row, idx, "date"); err != nil || v != nil {
			t.Errorf("DateCell = %v, %v", v, err)
		}
	})

	t.Run("present values", func(t *testing.T) {
		row := []string{"7", "Widget", "9.99", "2024-01-15"}
		id, err := OptionalIntegerCell(row, idx, "id")
		if err != nil || id == nil || *id != 7 {
			t.Errorf("OptionalIntegerCell = %v, %v", id, err)
		}
		price, err := DecimalCell(row, idx, "price")
		if err != nil || price == nil || price.String() != "9.99" {
			t.Errorf("DecimalCell = %v, %v", price, err)
		}
		date, err := DateCell(row, idx, "date")
		if err != nil || date == nil || FormatDate(date.Time) != "2024-01-15" {
			t.Errorf("DateCell = %v, %v", date, err)
		}
	})

	t.Run("text keeps quotes, values drop them", func(t *testing.T) {
		row := []string{`="7"`, ` 'Widget' `, `"9.99"`, `'2024-01-15'`}
		if got := Cell(row, idx, "name"); got != "'Widget'" {
			t.Errorf("Cell = %q, want 'Widget'", got)
		}
		if v := OptionalText([]string{"", `="x"`}, idx, "name"); v == nil || *v != `="x"` {
			t.Errorf("OptionalText = %v, want =\"x\"", v)
		}
		id, err := OptionalIntegerCell(row, idx, "id")
		if err != nil || id == nil || *id != 7 {
			t.Errorf("OptionalIntegerCell = %v, %v", id, err)
		}
		price, err := DecimalCell(row, idx, "price")
		if err != nil || price == nil || price.String() != "9.99" {
			t.Errorf("DecimalCell = %v, %v", price, err)
		}
		date, err := DateCell(row, idx, "date")
		if err != nil || date == nil || FormatDate(date.Time) != "2024-01-15" {
			t.Errorf("DateCell = %v, %v", date, err)
		}
	})

	t.Run("malformed values report the field", func(t *testing.T) {
		row := []string{"x", "Widget", "abc", "soon"}

		_, err := IntegerCell(row, idx, "id")
		assertFieldError(t, err, "id", "x")

		_, err = DecimalCell(row, idx, "price")
		assertFieldError(t, err, "price", "abc")

		_, err = DateCell(row, idx, "date")
		assertFieldError(t, err, "date", "soon")
	})
}

func assertFieldError(t *testing.T, err error, field, value string) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if ve.Field != field || ve.Value != value {
		t.Errorf("got field %q value %q, want %q %q", ve.Field, ve.Value, field, value)
	}
}

func TestDate_JSON(t *testing.T) {
	var payload struct {
		Date *Date `json:"date"`
	}

	if err := json.Unmarshal([]byte(`{"date":"2024-01-15"}`), &payload); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if payload.Date == nil || FormatDate(payload.Date.Time) != "2024-01-15" {
		t.Fatalf("Date = %v", payload.Date)
	}

	out, err := json.Marshal(payload.Date)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `"2024-01-15"` {
		t.Errorf("Marshal = %s", out)
	}

	err = json.Unmarshal([]byte(`{"date":"not a date"}`), &payload)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "date" {
		t.Errorf("err = %v, want date *ValidationError", err)
	}
}
