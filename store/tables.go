package store

// DefaultTables maps the marketplace's model names to their tables.
var DefaultTables = map[string]string{
	"Listing":  "listings",
	"Category": "categories",
	"User":     "users",
	"Favorite": "favorites",
}

// resolveTable returns the physical table for a model name. Unknown names
// pass through unchanged.
func (s *Store) resolveTable(name string) string {
	if table, ok := s.tables[name]; ok {
		return table
	}
	return name
}
