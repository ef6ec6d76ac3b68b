package filter_test

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/martaz/querykit/filter"
)

func TestConverter_Convert(t *testing.T) {
	tests := []struct {
		name       string
		option     filter.Option
		input      string
		conditions string
		values     []any
		err        error
	}{
		{
			"flat single value",
			nil,
			`{"name": "John"}`,
			`("name" = $1)`,
			[]any{"John"},
			nil,
		},
		{
			"flat multi value",
			nil,
			`{"age": 30, "name": "John"}`,
			`("age" = $1 AND "name" = $2)`,
			[]any{float64(30), "John"},
			nil,
		},
		{
			"operator single value",
			nil,
			`{"players": {"$gt": 0}}`,
			`("players" > $1)`,
			[]any{float64(0)},
			nil,
		},
		{
			"operator flat multi value",
			nil,
			`{"age": {"$gte": 18}, "name": "John"}`,
			`("age" >= $1 AND "name" = $2)`,
			[]any{float64(18), "John"},
			nil,
		},
		{
			"operators without dollar prefix",
			nil,
			`{"price": {"gte": 100, "lte": 200}}`,
			`("price" >= $1 AND "price" <= $2)`,
			[]any{float64(100), float64(200)},
			nil,
		},
		{
			"not equal",
			nil,
			`{"status": {"$ne": "sold"}}`,
			`("status" <> $1)`,
			[]any{"sold"},
			nil,
		},
		{
			"less than",
			nil,
			`{"price": {"$lt": 50}}`,
			`("price" < $1)`,
			[]any{float64(50)},
			nil,
		},
		{
			"null literal",
			nil,
			`{"deleted_at": null}`,
			`("deleted_at" IS NULL)`,
			nil,
			nil,
		},
		{
			"nested jsonb single value",
			filter.WithNestedJSONB("meta"),
			`{"name": "John"}`,
			`("meta"->>'name' = $1)`,
			[]any{"John"},
			nil,
		},
		{
			"nested jsonb multi value",
			filter.WithNestedJSONB("meta", "created_at", "updated_at"),
			`{"created_at": {"$gte": "2020-01-01T00:00:00Z"}, "name": "John", "role": "admin"}`,
			`("created_at" >= $1 AND "meta"->>'name' = $2 AND "meta"->>'role' = $3)`,
			[]any{"2020-01-01T00:00:00Z", "John", "admin"},
			nil,
		},
		{
			"nested jsonb numeric comparison",
			filter.WithNestedJSONB("attributes", "price"),
			`{"rooms": {"$gte": 2}}`,
			`(("attributes"->>'rooms')::numeric >= $1)`,
			[]any{float64(2)},
			nil,
		},
		{
			"fields are order alphabetically",
			nil,
			`{"b": 1, "c": 2, "a": 3}`,
			`("a" = $1 AND "b" = $2 AND "c" = $3)`,
			[]any{float64(3), float64(1), float64(2)},
			nil,
		},
		{
			"in-array operator simple",
			nil,
			`{"status": {"$in": ["NEW", "OPEN"]}}`,
			`("status" IN ($1,$2))`,
			[]any{"NEW", "OPEN"},
			nil,
		},
		{
			"$in scalar value",
			nil,
			`{"status": {"$in": "text"}}`,
			`("status" IN ($1))`,
			[]any{"text"},
			nil,
		},
		{
			"$in empty array matches nothing",
			nil,
			`{"status": {"$in": []}}`,
			`((1=0))`,
			nil,
			nil,
		},
		{
			"like wraps value",
			nil,
			`{"title": {"$like": "iPhone"}}`,
			`("title" LIKE $1)`,
			[]any{"%iPhone%"},
			nil,
		},
		{
			"ilike wraps value",
			nil,
			`{"title": {"$ilike": "iphone"}}`,
			`("title" ILIKE $1)`,
			[]any{"%iphone%"},
			nil,
		},
		{
			"unsupported operator falls back to equality",
			nil,
			`{"price": {"$foo": 1}}`,
			`("price" = $1)`,
			[]any{float64(1)},
			nil,
		},
		{
			"empty filter",
			nil,
			`{}`,
			`FALSE`,
			nil,
			nil,
		},
		{
			"empty filter custom condition",
			filter.WithEmptyCondition("TRUE"),
			`{}`,
			`TRUE`,
			nil,
			nil,
		},
		{
			"disallowed column",
			filter.WithDisallowColumns("password"),
			`{"password": "hunter2"}`,
			``,
			nil,
			filter.ColumnNotAllowedError{Column: "password"},
		},
		{
			"column outside allow list",
			filter.WithAllowColumns("title", "price"),
			`{"owner_id": 3}`,
			``,
			nil,
			filter.ColumnNotAllowedError{Column: "owner_id"},
		},
		{
			"empty column name",
			nil,
			`{"": 1}`,
			``,
			nil,
			filter.InvalidColumnNameError{Column: ""},
		},
		{
			"sqlite like uses glob",
			filter.WithDialect(filter.SQLite),
			`{"title": {"$like": "Phone"}}`,
			`("title" GLOB ?)`,
			[]any{"*Phone*"},
			nil,
		},
		{
			"sqlite ilike uses like",
			filter.WithDialect(filter.SQLite),
			`{"title": {"$ilike": "phone"}}`,
			`("title" LIKE ?)`,
			[]any{"%phone%"},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := filter.NewConverter(tt.option, filter.WithLogger(zerolog.Nop()))
			conditions, values, err := c.Convert([]byte(tt.input), 1)
			if err != nil && (tt.err == nil || err.Error() != tt.err.Error()) {
				t.Fatalf("Convert() error = %v, want %v", err, tt.err)
			}
			if err == nil && tt.err != nil {
				t.Fatalf("Convert() error = nil, want %v", tt.err)
			}
			if conditions != tt.conditions {
				t.Errorf("Convert() conditions = %v, want %v", conditions, tt.conditions)
			}
			if !sameValues(values, tt.values) {
				t.Errorf("Convert() values = %#v, want %#v", values, tt.values)
			}
		})
	}
}

func TestConverter_Convert_startAtParameterIndex(t *testing.T) {
	c := filter.NewConverter()
	conditions, values, err := c.Convert([]byte(`{"category_id": 4, "price": {"$lte": 300}}`), 3)
	if err != nil {
		t.Fatal(err)
	}
	if want := `("category_id" = $3 AND "price" <= $4)`; conditions != want {
		t.Errorf("conditions = %v, want %v", conditions, want)
	}
	if len(values) != 2 {
		t.Errorf("values = %#v, want 2 values", values)
	}
}

func TestConverter_Convert_invalidJSON(t *testing.T) {
	c := filter.NewConverter()
	if _, _, err := c.Convert([]byte(`{"name": `), 1); err == nil {
		t.Fatal("expected an error for truncated input")
	}
}

func TestConverter_UnsupportedOperatorWarns(t *testing.T) {
	var buf bytes.Buffer
	c := filter.NewConverter(filter.WithLogger(zerolog.New(&buf)))

	fallback, err := c.Conditions(filter.Filter{"price": map[string]any{"$foo": 1}})
	if err != nil {
		t.Fatal(err)
	}
	explicit, err := c.Conditions(filter.Filter{"price": map[string]any{"$eq": 1}})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(fallback, explicit) {
		t.Errorf("fallback = %#v, want %#v", fallback, explicit)
	}

	out := buf.String()
	if strings.Count(out, "unsupported filter operator") != 1 {
		t.Errorf("expected exactly one warning, got %q", out)
	}
	if !strings.Contains(out, `"operator":"$foo"`) || !strings.Contains(out, `"level":"warn"`) {
		t.Errorf("warning is missing context: %q", out)
	}
}

func TestConverter_Select(t *testing.T) {
	tests := []struct {
		name    string
		query   filter.Query
		columns []string
		sql     string
		args    []any
	}{
		{
			"scenario page",
			filter.Query{
				Where: filter.Filter{"price": map[string]any{"$gte": 100}},
				Order: []filter.OrderBy{{Field: "price", Direction: "ASC"}},
			}.WithLimit(10).WithOffset(0),
			nil,
			`SELECT * FROM "listings" WHERE "price" >= $1 ORDER BY "price" ASC LIMIT 10 OFFSET 0`,
			[]any{100},
		},
		{
			"offset without limit uses default page size",
			filter.Query{}.WithOffset(20),
			nil,
			`SELECT * FROM "listings" LIMIT 10 OFFSET 20`,
			nil,
		},
		{
			"limit only",
			filter.Query{}.WithLimit(5),
			nil,
			`SELECT * FROM "listings" LIMIT 5`,
			nil,
		},
		{
			"non positive limit is ignored",
			filter.Query{}.WithLimit(0),
			nil,
			`SELECT * FROM "listings"`,
			nil,
		},
		{
			"orderings compose in sequence",
			filter.Query{}.OrderedBy("featured", "desc").OrderedBy("price", "asc"),
			nil,
			`SELECT * FROM "listings" ORDER BY "featured" DESC, "price" ASC`,
			nil,
		},
		{
			"unknown direction sorts descending",
			filter.Query{}.OrderedBy("created_at", "newest"),
			nil,
			`SELECT * FROM "listings" ORDER BY "created_at" DESC`,
			nil,
		},
		{
			"projection",
			filter.Query{Where: filter.Filter{"status": "active"}},
			[]string{"id", "title"},
			`SELECT "id", "title" FROM "listings" WHERE "status" = $1`,
			[]any{"active"},
		},
	}

	c := filter.NewConverter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := c.Select("listings", tt.query, tt.columns...)
			if err != nil {
				t.Fatal(err)
			}
			sql, args, err := b.ToSql()
			if err != nil {
				t.Fatal(err)
			}
			if sql != tt.sql {
				t.Errorf("sql = %v, want %v", sql, tt.sql)
			}
			if !sameValues(args, tt.args) {
				t.Errorf("args = %#v, want %#v", args, tt.args)
			}
		})
	}
}

func TestConverter_Select_negativeOffset(t *testing.T) {
	c := filter.NewConverter()
	_, err := c.Select("listings", filter.Query{}.WithOffset(-1))

	var perr filter.InvalidPaginationError
	if !errors.As(err, &perr) || perr.Field != "offset" {
		t.Fatalf("err = %v, want InvalidPaginationError", err)
	}
}

func TestConverter_Count(t *testing.T) {
	c := filter.NewConverter()
	q := filter.Query{Where: filter.Filter{"status": "active"}}.
		OrderedBy("price", "asc").
		WithLimit(3).
		WithOffset(6)

	b, err := c.Count("listings", q)
	if err != nil {
		t.Fatal(err)
	}
	sql, args, err := b.ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if want := `SELECT count(*) AS "count" FROM "listings" WHERE "status" = $1`; sql != want {
		t.Errorf("sql = %v, want %v", sql, want)
	}
	if !sameValues(args, []any{"active"}) {
		t.Errorf("args = %#v", args)
	}
}

func TestConverter_Writes(t *testing.T) {
	c := filter.NewConverter()

	sql, args, err := c.Insert("listings", map[string]any{"title": "Bike", "id": "a1"}).ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if want := `INSERT INTO "listings" ("id","title") VALUES ($1,$2) RETURNING *`; sql != want {
		t.Errorf("insert sql = %v, want %v", sql, want)
	}
	if !sameValues(args, []any{"a1", "Bike"}) {
		t.Errorf("insert args = %#v", args)
	}

	ub, err := c.Update("listings", map[string]any{"price": 90, "updated_at": "now"}, filter.Filter{"id": "a1"})
	if err != nil {
		t.Fatal(err)
	}
	sql, args, err = ub.ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if want := `UPDATE "listings" SET "price" = $1, "updated_at" = $2 WHERE "id" = $3`; sql != want {
		t.Errorf("update sql = %v, want %v", sql, want)
	}
	if !sameValues(args, []any{90, "now", "a1"}) {
		t.Errorf("update args = %#v", args)
	}

	db, err := c.Delete("favorites", filter.Filter{"user_id": 7})
	if err != nil {
		t.Fatal(err)
	}
	sql, args, err = db.ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if want := `DELETE FROM "favorites" WHERE "user_id" = $1`; sql != want {
		t.Errorf("delete sql = %v, want %v", sql, want)
	}
	if !sameValues(args, []any{7}) {
		t.Errorf("delete args = %#v", args)
	}
}

func TestConverter_NestedSQLite(t *testing.T) {
	c := filter.NewConverter(
		filter.WithDialect(filter.SQLite),
		filter.WithNestedJSONB("attributes", "price"),
	)
	conditions, values, err := c.Convert([]byte(`{"color": "red", "price": {"$lt": 10}}`), 1)
	if err != nil {
		t.Fatal(err)
	}
	if want := `(json_extract("attributes", '$."color"') = ? AND "price" < ?)`; conditions != want {
		t.Errorf("conditions = %v, want %v", conditions, want)
	}
	if !sameValues(values, []any{"red", float64(10)}) {
		t.Errorf("values = %#v", values)
	}
}

func sameValues(got, want []any) bool {
	if len(got) == 0 && len(want) == 0 {
		return true
	}
	return reflect.DeepEqual(got, want)
}
