package filter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultPageSize is the page size used when an offset is given without a
// limit.
const DefaultPageSize = 10

// Filter maps a field name to a literal value or an operator object.
type Filter map[string]any

// OrderBy is one (field, direction) pair. Any direction other than a
// case-insensitive "asc" sorts descending.
type OrderBy struct {
	Field     string `json:"field"`
	Direction string `json:"direction"`
}

// Asc reports whether the entry sorts ascending.
func (o OrderBy) Asc() bool {
	return strings.EqualFold(strings.TrimSpace(o.Direction), "asc")
}

// UnmarshalJSON accepts ["field", "DIR"], {"field": ..., "direction": ...}
// or a bare "field" (ascending).
func (o *OrderBy) UnmarshalJSON(data []byte) error {
	var pair []string
	if err := json.Unmarshal(data, &pair); err == nil {
		switch len(pair) {
		case 1:
			*o = OrderBy{Field: pair[0], Direction: "ASC"}
		case 2:
			*o = OrderBy{Field: pair[0], Direction: pair[1]}
		default:
			return fmt.Errorf("order entry must be [field, direction], got %d elements", len(pair))
		}
		return nil
	}

	var field string
	if err := json.Unmarshal(data, &field); err == nil {
		*o = OrderBy{Field: field, Direction: "ASC"}
		return nil
	}

	type plain OrderBy
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("invalid order entry %s: %w", data, err)
	}
	*o = OrderBy(p)
	return nil
}

// Query describes what to select: a filter, an ordering and an optional page.
type Query struct {
	Where  Filter    `json:"where"`
	Order  []OrderBy `json:"order"`
	Limit  *int      `json:"limit"`
	Offset *int      `json:"offset"`
}

// WithLimit returns a copy of q with the limit set.
func (q Query) WithLimit(n int) Query {
	q.Limit = &n
	return q
}

// WithOffset returns a copy of q with the offset set.
func (q Query) WithOffset(n int) Query {
	q.Offset = &n
	return q
}

// OrderedBy returns a copy of q with an ordering appended.
func (q Query) OrderedBy(field, direction string) Query {
	order := make([]OrderBy, 0, len(q.Order)+1)
	order = append(order, q.Order...)
	q.Order = append(order, OrderBy{Field: field, Direction: direction})
	return q
}

// Range converts limit and offset into an inclusive row range [from, to].
// ok is false when no offset was given; a non-positive limit counts as absent.
func Range(limit, offset *int, pageSize int) (from, to int, ok bool, err error) {
	if offset == nil {
		return 0, 0, false, nil
	}
	if *offset < 0 {
		return 0, 0, false, InvalidPaginationError{Field: "offset", Value: *offset}
	}
	size := pageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if limit != nil && *limit > 0 {
		size = *limit
	}
	return *offset, *offset + size - 1, true, nil
}

// ParseQuery decodes the JSON form of a Query.
func ParseQuery(data []byte) (Query, error) {
	var q Query
	if len(strings.TrimSpace(string(data))) == 0 {
		return q, nil
	}
	if err := json.Unmarshal(data, &q); err != nil {
		return Query{}, fmt.Errorf("failed to parse query: %w", err)
	}
	return q, nil
}

// ParseFilter decodes the JSON form of a Filter.
func ParseFilter(data []byte) (Filter, error) {
	var f Filter
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return f, nil
}
