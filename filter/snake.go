package filter

import (
	"strings"
	"unicode"
)

// ToSnakeCase rewrites a camelCase key such as "featuredImage" into
// "featured_image".
//
// Keys that already contain an underscore, or that have no lowercase letter
// followed by an uppercase one, are returned unchanged. The rewrite is one way
// and best effort: "imageURL" becomes "image_u_r_l".
func ToSnakeCase(key string) string {
	if strings.Contains(key, "_") || !hasCamelHump(key) {
		return key
	}

	var b strings.Builder
	b.Grow(len(key) + 4)
	for i, r := range key {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeKeys returns a copy of data with every key passed through
// ToSnakeCase. When two keys collapse onto the same name the one that was
// already snake_case wins.
func NormalizeKeys(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		sk := ToSnakeCase(k)
		if _, taken := out[sk]; taken && sk != k {
			continue
		}
		out[sk] = v
	}
	return out
}

func hasCamelHump(s string) bool {
	prevLower := false
	for _, r := range s {
		if prevLower && unicode.IsUpper(r) {
			return true
		}
		prevLower = unicode.IsLower(r)
	}
	return false
}
