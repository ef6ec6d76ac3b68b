package filter

import "github.com/rs/zerolog"

type Option func(*Converter)

// WithDialect selects the SQL dialect the converter emits. The default is
// Postgres.
func WithDialect(d Dialect) Option {
	return func(c *Converter) {
		c.dialect = d
	}
}

// WithAllowColumns is an option to allow only the specified columns in where
// and order clauses. Without it every column is allowed.
func WithAllowColumns(columns ...string) Option {
	return func(c *Converter) {
		c.allowedColumns = append(c.allowedColumns, columns...)
	}
}

// WithDisallowColumns is an option to disallow the specified columns in where
// and order clauses.
func WithDisallowColumns(columns ...string) Option {
	return func(c *Converter) {
		c.disallowedColumns = append(c.disallowedColumns, columns...)
	}
}

// WithNestedJSONB is an option to specify the column name that contains a
// nested JSON object. (e.g. listings have an `attributes` column holding
// category specific fields)
//
// When this option is set, all filter keys are directed to the nested column,
// you can exempt some keys by providing them as the second argument.
//
// Example:
//
//	c := filter.NewConverter(filter.WithNestedJSONB("attributes", "id", "price", "created_at"))
func WithNestedJSONB(column string, exemption ...string) Option {
	return func(c *Converter) {
		c.nestedColumn = column
		c.nestedExemptions = exemption
	}
}

// WithEmptyCondition is an option to specify the condition Convert returns
// when the input filter is empty.
//
// The default value is `FALSE`, because it's the safer choice in most cases.
func WithEmptyCondition(condition string) Option {
	return func(c *Converter) {
		c.emptyCondition = condition
	}
}

// WithDefaultPageSize sets the page size used for an offset without a limit.
func WithDefaultPageSize(n int) Option {
	return func(c *Converter) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithLogger sets the logger that receives unsupported operator warnings.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}
