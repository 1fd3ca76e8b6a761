package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrConstraintViolation matches every *ConstraintError via errors.Is.
var ErrConstraintViolation = errors.New("constraint violation")

// Constraint kinds reported in ConstraintError.Kind.
const (
	ConstraintUnique     = "unique"
	ConstraintForeignKey = "foreign_key"
	ConstraintCheck      = "check"
	ConstraintNotNull    = "not_null"
)

// PostgreSQL SQLSTATE codes for integrity violations.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgNotNullViolation    = "23502"
)

// ConstraintError reports a write rejected by a database constraint.
type ConstraintError struct {
	Kind       string
	Table      string
	Constraint string // constraint name when the driver reports one
	Detail     string
	Err        error
}

func (e *ConstraintError) Error() string {
	var b strings.Builder
	switch e.Kind {
	case ConstraintUnique:
		b.WriteString("duplicate value violates unique constraint")
	case ConstraintForeignKey:
		b.WriteString("referenced record does not exist")
	case ConstraintCheck:
		b.WriteString("value violates check constraint")
	case ConstraintNotNull:
		b.WriteString("missing value for required column")
	default:
		b.WriteString("constraint violation")
	}
	if e.Constraint != "" {
		fmt.Fprintf(&b, " %q", e.Constraint)
	}
	if e.Table != "" {
		fmt.Fprintf(&b, " on %s", e.Table)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *ConstraintError) Unwrap() error { return e.Err }

func (e *ConstraintError) Is(target error) bool {
	return target == ErrConstraintViolation
}

// classify turns driver integrity errors into *ConstraintError and returns
// every other error unchanged.
func classify(table string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := ""
		switch pgErr.Code {
		case pgUniqueViolation:
			kind = ConstraintUnique
		case pgForeignKeyViolation:
			kind = ConstraintForeignKey
		case pgCheckViolation:
			kind = ConstraintCheck
		case pgNotNullViolation:
			kind = ConstraintNotNull
		}
		if kind != "" {
			t := pgErr.TableName
			if t == "" {
				t = table
			}
			return &ConstraintError{
				Kind:       kind,
				Table:      t,
				Constraint: pgErr.ConstraintName,
				Detail:     pgErr.Detail,
				Err:        err,
			}
		}
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintError{Kind: ConstraintUnique, Table: table, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintError{Kind: ConstraintForeignKey, Table: table, Err: err}
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return &ConstraintError{Kind: ConstraintCheck, Table: table, Err: err}
	}

	// SQLite reports constraint failures by message only.
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return &ConstraintError{Kind: ConstraintUnique, Table: table, Detail: sqliteDetail(msg), Err: err}
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return &ConstraintError{Kind: ConstraintForeignKey, Table: table, Err: err}
	case strings.Contains(msg, "CHECK constraint failed"):
		return &ConstraintError{Kind: ConstraintCheck, Table: table, Detail: sqliteDetail(msg), Err: err}
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return &ConstraintError{Kind: ConstraintNotNull, Table: table, Detail: sqliteDetail(msg), Err: err}
	}

	return err
}

// sqliteDetail extracts "categories.name" from
// "constraint failed: UNIQUE constraint failed: categories.name (2067)".
func sqliteDetail(msg string) string {
	i := strings.LastIndex(msg, "failed: ")
	if i < 0 {
		return ""
	}
	detail := msg[i+len("failed: "):]
	if j := strings.Index(detail, " ("); j >= 0 {
		detail = detail[:j]
	}
	return strings.TrimSpace(detail)
}
