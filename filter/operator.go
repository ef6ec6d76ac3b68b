package filter

import "strings"

// Operator is one of the comparison operators a Filter may use.
type Operator int

const (
	OpEq Operator = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpIn
	OpLike
	OpILike
)

var operatorNames = map[string]Operator{
	"eq":    OpEq,
	"ne":    OpNe,
	"gt":    OpGt,
	"gte":   OpGte,
	"lt":    OpLt,
	"lte":   OpLte,
	"in":    OpIn,
	"like":  OpLike,
	"ilike": OpILike,
}

// ParseOperator resolves an operator key such as "$gte" or "gte".
// The second result is false for keys outside the supported set, in which
// case OpEq is returned.
func ParseOperator(key string) (Operator, bool) {
	op, ok := operatorNames[strings.TrimPrefix(key, "$")]
	if !ok {
		return OpEq, false
	}
	return op, true
}

func (o Operator) String() string {
	switch o {
	case OpEq:
		return "$eq"
	case OpNe:
		return "$ne"
	case OpGt:
		return "$gt"
	case OpGte:
		return "$gte"
	case OpLt:
		return "$lt"
	case OpLte:
		return "$lte"
	case OpIn:
		return "$in"
	case OpLike:
		return "$like"
	case OpILike:
		return "$ilike"
	default:
		return "$unknown"
	}
}

// Condition is a single field comparison.
type Condition struct {
	Field string
	Op    Operator
	Value any
}
