package filter

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"
)

func isNumeric(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	default:
		return false
	}
}

// toSlice turns any slice or array into []any. A scalar becomes a single
// element slice.
func toSlice(v any) []any {
	switch v := v.(type) {
	case nil:
		return []any{nil}
	case []any:
		return v
	case string, []byte:
		return []any{v}
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// QuoteIdent quotes an identifier for Postgres and SQLite: na"me -> "na""me".
func QuoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

// dollarFrom numbers placeholders as $n starting at its own value, so a
// converted fragment can be appended after other parameters.
type dollarFrom int

func (d dollarFrom) ReplacePlaceholders(sql string) (string, error) {
	buf := &bytes.Buffer{}
	n := int(d)
	for {
		p := strings.Index(sql, "?")
		if p == -1 {
			break
		}

		if len(sql[p:]) > 1 && sql[p:p+2] == "??" {
			buf.WriteString(sql[:p])
			buf.WriteString("?")
			sql = sql[p+2:]
			continue
		}

		fmt.Fprintf(buf, "%s$%d", sql[:p], n)
		n++
		sql = sql[p+1:]
	}
	buf.WriteString(sql)
	return buf.String(), nil
}
