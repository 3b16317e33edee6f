package sumstats

import (
	"fmt"
	"strings"
)

// InputSchemaError means that an input lacks a column that the requested
// analysis needs. Nothing should be processed when this is returned.
type InputSchemaError struct {
	Source  string
	Missing []Column
}

func (e *InputSchemaError) Error() string {
	names := make([]string, len(e.Missing))
	for i, v := range e.Missing {
		names[i] = string(v)
	}

	return fmt.Sprintf("%s: required column(s) missing: %s", e.Source, strings.Join(names, ", "))
}

// CheckColumns returns an InputSchemaError if any of want is absent from have.
func CheckColumns(source string, have ColumnSet, want ...Column) error {
	if missing := have.Missing(want...); len(missing) > 0 {
		return &InputSchemaError{Source: source, Missing: missing}
	}

	return nil
}

// RowError describes a malformed record.
type RowError struct {
	Line int
	RSID string
	Err  error
}

func (e *RowError) Error() string {
	if e.RSID != "" {
		return fmt.Sprintf("line %d (%s): %v", e.Line, e.RSID, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
