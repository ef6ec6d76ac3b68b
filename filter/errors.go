package filter

import "fmt"

type ColumnNotAllowedError struct {
	Column string
}

func (e ColumnNotAllowedError) Error() string {
	return fmt.Sprintf("column not allowed: %s", e.Column)
}

type InvalidPaginationError struct {
	Field string
	Value int
}

func (e InvalidPaginationError) Error() string {
	return fmt.Sprintf("invalid %s: %d (must not be negative)", e.Field, e.Value)
}

type InvalidColumnNameError struct {
	Column string
}

func (e InvalidColumnNameError) Error() string {
	return fmt.Sprintf("invalid column name: %q", e.Column)
}
