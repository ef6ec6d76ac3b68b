package filter

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Converter compiles Filters and Queries into squirrel statements. It holds no
// per-call state and is safe for concurrent use.
type Converter struct {
	dialect           Dialect
	allowedColumns    []string
	disallowedColumns []string
	nestedColumn      string
	nestedExemptions  []string
	emptyCondition    string
	pageSize          int
	logger            zerolog.Logger
}

// NewConverter creates a new Converter. Without options it emits Postgres
// SQL and allows every column.
func NewConverter(options ...Option) *Converter {
	converter := &Converter{
		emptyCondition: "FALSE",
		pageSize:       DefaultPageSize,
		logger:         log.Logger,
	}
	for _, option := range options {
		if option != nil {
			option(converter)
		}
	}
	converter.logger = converter.logger.With().Str("component", "filter").Logger()
	return converter
}

// Dialect returns the dialect the converter emits.
func (c *Converter) Dialect() Dialect {
	return c.dialect
}

// Convert converts a JSON filter into a standalone SQL condition and its
// values. Postgres placeholders are numbered from startAtParameterIndex so the
// condition can be combined with other parameters.
func (c *Converter) Convert(query []byte, startAtParameterIndex int) (conditions string, values []any, err error) {
	f, err := ParseFilter(query)
	if err != nil {
		return "", nil, err
	}

	preds, err := c.Where(f)
	if err != nil {
		return "", nil, err
	}
	if len(preds) == 0 {
		return c.emptyCondition, nil, nil
	}

	conditions, values, err = sq.And(preds).ToSql()
	if err != nil {
		return "", nil, err
	}
	if c.dialect == Postgres {
		if startAtParameterIndex < 1 {
			startAtParameterIndex = 1
		}
		conditions, err = dollarFrom(startAtParameterIndex).ReplacePlaceholders(conditions)
		if err != nil {
			return "", nil, err
		}
	}
	return conditions, values, nil
}

// Conditions flattens a Filter into conditions, ordered by field and then by
// operator key. Unsupported operators are logged and treated as equality.
func (c *Converter) Conditions(f Filter) ([]Condition, error) {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var conditions []Condition
	for _, key := range keys {
		if err := c.checkColumn(key); err != nil {
			return nil, err
		}

		operators, ok := asOperatorObject(f[key])
		if !ok {
			conditions = append(conditions, Condition{Field: key, Op: OpEq, Value: f[key]})
			continue
		}

		opKeys := make([]string, 0, len(operators))
		for opKey := range operators {
			opKeys = append(opKeys, opKey)
		}
		sort.Strings(opKeys)
		for _, opKey := range opKeys {
			op, ok := ParseOperator(opKey)
			if !ok {
				c.logger.Warn().
					Str("field", key).
					Str("operator", opKey).
					Msg("unsupported filter operator, falling back to equality")
			}
			conditions = append(conditions, Condition{Field: key, Op: op, Value: operators[opKey]})
		}
	}
	return conditions, nil
}

// Where compiles a Filter into one predicate per condition. Applying them with
// successive Where calls ANDs them together.
func (c *Converter) Where(f Filter) ([]sq.Sqlizer, error) {
	conditions, err := c.Conditions(f)
	if err != nil {
		return nil, err
	}
	preds := make([]sq.Sqlizer, 0, len(conditions))
	for _, cond := range conditions {
		preds = append(preds, c.predicate(cond))
	}
	return preds, nil
}

// Select builds a SELECT applying where, order, limit and range in that
// order. Without columns every column is selected.
func (c *Converter) Select(table string, q Query, columns ...string) (sq.SelectBuilder, error) {
	b := c.statements().Select(quoteColumns(columns)...).From(QuoteIdent(table))

	preds, err := c.Where(q.Where)
	if err != nil {
		return b, err
	}
	for _, p := range preds {
		b = b.Where(p)
	}

	for _, o := range q.Order {
		if err := c.checkColumn(o.Field); err != nil {
			return b, err
		}
		dir := "DESC"
		if o.Asc() {
			dir = "ASC"
		}
		b = b.OrderBy(c.columnExpr(o.Field, false) + " " + dir)
	}

	if q.Limit != nil && *q.Limit > 0 {
		b = b.Limit(uint64(*q.Limit))
	}

	from, to, ok, err := Range(q.Limit, q.Offset, c.pageSize)
	if err != nil {
		return b, err
	}
	if ok {
		b = b.Limit(uint64(to - from + 1)).Offset(uint64(from))
	}
	return b, nil
}

// Count builds a count-only SELECT. Order and pagination are ignored.
func (c *Converter) Count(table string, q Query) (sq.SelectBuilder, error) {
	b := c.statements().Select("count(*) AS " + QuoteIdent("count")).From(QuoteIdent(table))
	preds, err := c.Where(q.Where)
	if err != nil {
		return b, err
	}
	for _, p := range preds {
		b = b.Where(p)
	}
	return b, nil
}

// Insert builds an INSERT of a single row returning the stored row.
func (c *Converter) Insert(table string, row map[string]any) sq.InsertBuilder {
	return c.statements().
		Insert(QuoteIdent(table)).
		SetMap(quoteKeys(row)).
		Suffix("RETURNING *")
}

// Update builds an UPDATE restricted by f.
func (c *Converter) Update(table string, values map[string]any, f Filter) (sq.UpdateBuilder, error) {
	b := c.statements().Update(QuoteIdent(table)).SetMap(quoteKeys(values))
	preds, err := c.Where(f)
	if err != nil {
		return b, err
	}
	for _, p := range preds {
		b = b.Where(p)
	}
	return b, nil
}

// Delete builds a DELETE restricted by f.
func (c *Converter) Delete(table string, f Filter) (sq.DeleteBuilder, error) {
	b := c.statements().Delete(QuoteIdent(table))
	preds, err := c.Where(f)
	if err != nil {
		return b, err
	}
	for _, p := range preds {
		b = b.Where(p)
	}
	return b, nil
}

func (c *Converter) statements() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(c.dialect.placeholders())
}

func (c *Converter) predicate(cond Condition) sq.Sqlizer {
	col := c.columnExpr(cond.Field, castsNumeric(cond))

	switch cond.Op {
	case OpNe:
		return sq.NotEq{col: cond.Value}
	case OpGt:
		return sq.Gt{col: cond.Value}
	case OpGte:
		return sq.GtOrEq{col: cond.Value}
	case OpLt:
		return sq.Lt{col: cond.Value}
	case OpLte:
		return sq.LtOrEq{col: cond.Value}
	case OpIn:
		return sq.Eq{col: toSlice(cond.Value)}
	case OpLike:
		return c.pattern(col, cond.Value, false)
	case OpILike:
		return c.pattern(col, cond.Value, true)
	default:
		return sq.Eq{col: cond.Value}
	}
}

// pattern renders a substring match. SQLite has no ILIKE; its LIKE is already
// case-insensitive for ASCII and GLOB is the case-sensitive form.
func (c *Converter) pattern(col string, value any, insensitive bool) sq.Sqlizer {
	s := fmt.Sprint(value)
	if c.dialect == SQLite {
		if insensitive {
			return sq.Like{col: "%" + s + "%"}
		}
		return sq.Expr(col+" GLOB ?", "*"+s+"*")
	}
	if insensitive {
		return sq.ILike{col: "%" + s + "%"}
	}
	return sq.Like{col: "%" + s + "%"}
}

func (c *Converter) columnExpr(field string, numeric bool) string {
	if !c.isNested(field) {
		return QuoteIdent(field)
	}
	if c.dialect == SQLite {
		return fmt.Sprintf("json_extract(%s, %s)", QuoteIdent(c.nestedColumn), quoteLiteral(`$."`+field+`"`))
	}
	expr := fmt.Sprintf("%s->>%s", QuoteIdent(c.nestedColumn), quoteLiteral(field))
	if numeric {
		return "(" + expr + ")::numeric"
	}
	return expr
}

func (c *Converter) isNested(field string) bool {
	return c.nestedColumn != "" && !slices.Contains(c.nestedExemptions, field)
}

func (c *Converter) checkColumn(column string) error {
	// "?" would be read as a placeholder when the statement is numbered.
	if column == "" || strings.ContainsAny(column, "?\x00") {
		return InvalidColumnNameError{Column: column}
	}
	if slices.Contains(c.disallowedColumns, column) {
		return ColumnNotAllowedError{Column: column}
	}
	if len(c.allowedColumns) == 0 || slices.Contains(c.allowedColumns, column) || c.isNested(column) {
		return nil
	}
	return ColumnNotAllowedError{Column: column}
}

func castsNumeric(cond Condition) bool {
	switch cond.Op {
	case OpLike, OpILike:
		return false
	case OpIn:
		values := toSlice(cond.Value)
		if len(values) == 0 {
			return false
		}
		for _, v := range values {
			if !isNumeric(v) {
				return false
			}
		}
		return true
	default:
		return isNumeric(cond.Value)
	}
}

func asOperatorObject(v any) (map[string]any, bool) {
	switch v := v.(type) {
	case map[string]any:
		return v, true
	case Filter:
		return v, true
	default:
		return nil, false
	}
}

func quoteColumns(columns []string) []string {
	if len(columns) == 0 {
		return []string{"*"}
	}
	out := make([]string, len(columns))
	for i, col := range columns {
		if col == "*" {
			out[i] = col
			continue
		}
		out[i] = QuoteIdent(col)
	}
	return out
}

func quoteKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[QuoteIdent(k)] = v
	}
	return out
}
