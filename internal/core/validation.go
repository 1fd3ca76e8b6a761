package core

// validation.go provides validation for CSV data and JSON payloads before
// insertion.
//
// Validation happens at three levels:
//  1. Header validation: ensures required columns are present
//  2. Row validation: checks each cell against its FieldSpec (presence, type)
//  3. Struct validation: checks the typed input built from the row or the
//     JSON body against its `validate` tags (sign constraints, lengths)
//
// Every failure is a *ValidationError naming the field, the offending value
// and a human-readable message.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ValidationError represents a single validation error for a field.
type ValidationError struct {
	Field   string // Field/column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// MissingColumnsError lists required columns absent from a CSV header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing required columns: " + strings.Join(e.Columns, ", ")
}

// RowValidator validates rows against a table's field specifications.
type RowValidator struct {
	specs     []FieldSpec
	headerIdx HeaderIndex
}

// NewRowValidator creates a validator for the given field specs and header index.
func NewRowValidator(specs []FieldSpec, headerIdx HeaderIndex) *RowValidator {
	return &RowValidator{
		specs:     specs,
		headerIdx: headerIdx,
	}
}

// Validate checks a row and returns the first problem found, or nil.
// Optional columns that are absent from the header are skipped.
func (v *RowValidator) Validate(row []string) *ValidationError {
	for _, spec := range v.specs {
		pos, ok := v.headerIdx[spec.Name]
		if !ok {
			if spec.Required {
				return &ValidationError{Field: spec.Name, Message: "missing required column"}
			}
			continue
		}

		raw := ""
		if pos < len(row) {
			raw = strings.TrimSpace(row[pos])
			if spec.Type != FieldText {
				raw = CleanCell(raw)
			}
		}

		if raw == "" {
			if spec.Required {
				return &ValidationError{Field: spec.Name, Message: "required field is empty"}
			}
			continue
		}

		if err := ValidateCell(raw, spec); err != nil {
			return err
		}
	}
	return nil
}

// ValidateCell validates a single non-empty cell against a field spec.
func ValidateCell(value string, spec FieldSpec) *ValidationError {
	var err error
	switch spec.Type {
	case FieldInteger:
		_, err = ParseInteger(value)
	case FieldDecimal:
		_, err = ParseDecimal(value)
	case FieldDate:
		_, err = ParseDate(value)
	}
	if err != nil {
		return &ValidationError{Field: spec.Name, Value: value, Message: err.Error()}
	}
	return nil
}

// ValidateHeaders validates that all required columns exist in the CSV headers.
// An alias present in the header is indexed under the canonical name.
// Returns a *MissingColumnsError listing every absent column.
func ValidateHeaders(headers []string, specs []FieldSpec) (HeaderIndex, error) {
	idx := MakeHeaderIndex(headers)
	var missing []string

	for _, spec := range specs {
		if _, ok := idx[spec.Name]; ok {
			continue
		}
		for _, alias := range spec.Aliases {
			if pos, ok := idx[strings.ToLower(alias)]; ok {
				idx[spec.Name] = pos
				break
			}
		}
		if _, ok := idx[spec.Name]; !ok && spec.Required {
			missing = append(missing, spec.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	return idx, nil
}

// MoneyScale is the number of fraction digits stored for money values.
const MoneyScale = 2

var (
	structValidator     *validator.Validate
	structValidatorOnce sync.Once
)

func getValidator() *validator.Validate {
	structValidatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report JSON names so errors match what the client sent.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})

		v.RegisterCustomTypeFunc(func(f reflect.Value) any {
			if d, ok := f.Interface().(decimal.Decimal); ok {
				v, _ := d.Float64()
				return v
			}
			return nil
		}, decimal.Decimal{})

		// money: at most two fraction digits. The custom type func above
		// hands the value over as float64; the shortest decimal form of a
		// float parsed from a short decimal string is that string again.
		_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
			f := fl.Field()
			if f.Kind() != reflect.Float64 {
				return false
			}
			return decimal.NewFromFloat(f.Float()).Exponent() >= -MoneyScale
		})

		structValidator = v
	})
	return structValidator
}

// ValidateStruct checks v against its `validate` tags and returns the first
// failure as a *ValidationError.
func ValidateStruct(v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	ve := &ValidationError{
		Field:   fe.Field(),
		Message: tagMessage(fe),
	}
	if fe.Tag() != "required" {
		ve.Value = fmt.Sprint(fe.Value())
	}
	return ve
}

// DecodeInput reads a JSON payload into dst and validates it. Malformed JSON
// and wrongly typed values are reported as *ValidationError too.
func DecodeInput(body io.Reader, dst any) error {
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		var ve *ValidationError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &ve):
			return ve
		case errors.As(err, &typeErr):
			return &ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("expected %s, got JSON %s", typeErr.Type, typeErr.Value),
			}
		case errors.Is(err, io.EOF):
			return &ValidationError{Message: "request body is empty"}
		default:
			return &ValidationError{Message: "invalid JSON: " + err.Error()}
		}
	}
	return ValidateStruct(dst)
}

func tagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "money":
		return fmt.Sprintf("must have at most %d decimal places", MoneyScale)
	default:
		return "failed " + fe.Tag() + " check"
	}
}

// String returns a human-readable name for a field type.
func (ft FieldType) String() string {
	switch ft {
	case FieldText:
		return "text"
	case FieldInteger:
		return "integer"
	case FieldDecimal:
		return "number"
	case FieldDate:
		return "date"
	default:
		return "value"
	}
}
