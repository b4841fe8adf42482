package storefront

import (
	"strings"
	"testing"
)

// normalize collapses whitespace so the clause assembly can be asserted
// without caring about padding between optional clauses.
func normalize(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func TestConditionToWhereString(t *testing.T) {
	tests := []struct {
		name       string
		condition  Condition
		wantClause string
		wantArgs   []interface{}
	}{
		{
			name:       "simple condition",
			condition:  Condition{Field: "stock", Operator: ">", Value: 0},
			wantClause: "stock > ?",
			wantArgs:   []interface{}{0},
		},
		{
			name: "and of two conditions",
			condition: Condition{
				Logic: "AND",
				Nested: []Condition{
					{Field: "available", Operator: "=", Value: true},
					{Field: "stock", Operator: ">", Value: 0},
				},
			},
			wantClause: "(available = ?) AND (stock > ?)",
			wantArgs:   []interface{}{true, 0},
		},
		{
			name: "or of statuses",
			condition: Condition{
				Logic: "OR",
				Nested: []Condition{
					{Field: "status", Operator: "=", Value: "pending"},
					{Field: "status", Operator: "=", Value: "processing"},
				},
			},
			wantClause: "(status = ?) OR (status = ?)",
			wantArgs:   []interface{}{"pending", "processing"},
		},
		{
			name: "nested mixed logic",
			condition: Condition{
				Logic: "AND",
				Nested: []Condition{
					{Field: "user_id", Operator: "=", Value: "u1"},
					{
						Logic: "OR",
						Nested: []Condition{
							{Field: "status", Operator: "=", Value: "pending"},
							{Field: "paid", Operator: "=", Value: false},
						},
					},
				},
			},
			wantClause: "(user_id = ?) AND ((status = ?) OR (paid = ?))",
			wantArgs:   []interface{}{"u1", "pending", false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := tt.condition.ToWhereString()
			if clause != tt.wantClause {
				t.Errorf("clause = %q, want %q", clause, tt.wantClause)
			}
			if len(args) != len(tt.wantArgs) {
				t.Fatalf("args = %v, want %v", args, tt.wantArgs)
			}
			for i := range args {
				if args[i] != tt.wantArgs[i] {
					t.Errorf("arg[%d] = %v, want %v", i, args[i], tt.wantArgs[i])
				}
			}
		})
	}
}

func TestConditionToSelectString(t *testing.T) {
	t.Run("where with order and pagination", func(t *testing.T) {
		c := Condition{
			Field:    "category_id",
			Operator: "=",
			Value:    "c1",
			OrderBy:  []string{"name"},
			Limit:    10,
			Offset:   20,
		}
		query, args := c.ToSelectString("products")
		want := "SELECT * FROM products WHERE category_id = ? ORDER BY name LIMIT 10 OFFSET 20"
		if normalize(query) != want {
			t.Errorf("query = %q, want %q", normalize(query), want)
		}
		if len(args) != 1 || args[0] != "c1" {
			t.Errorf("args = %v", args)
		}
	})

	t.Run("no where clause", func(t *testing.T) {
		c := Condition{OrderBy: []string{"created DESC"}}
		query, args := c.ToSelectString("orders")
		want := "SELECT * FROM orders ORDER BY created DESC"
		if normalize(query) != want {
			t.Errorf("query = %q, want %q", normalize(query), want)
		}
		if len(args) != 0 {
			t.Errorf("args = %v, want none", args)
		}
	})

	t.Run("offset without limit uses default", func(t *testing.T) {
		c := Condition{Offset: 50}
		query, _ := c.ToSelectString("reviews")
		if !strings.Contains(query, "LIMIT 50") {
			t.Errorf("query %q missing default limit", query)
		}
		if !strings.Contains(query, "OFFSET 50") {
			t.Errorf("query %q missing offset", query)
		}
	})
}

func TestDBRecordToInsertSQLParameterized(t *testing.T) {
	rec := DBRecord{
		TableName: "review_votes",
		Data: map[string]interface{}{
			"review_id": "r1",
			"user_id":   "u1",
		},
	}
	query, values := rec.ToInsertSQLParameterized()

	if !strings.HasPrefix(query, "INSERT INTO review_votes (") {
		t.Errorf("query = %q", query)
	}
	if !strings.HasSuffix(query, "VALUES (?, ?)") {
		t.Errorf("query = %q", query)
	}
	if len(values) != 2 {
		t.Errorf("values = %v, want 2 entries", values)
	}
	// Column order is map order, but values must line up with columns.
	cols := query[strings.Index(query, "(")+1 : strings.Index(query, ")")]
	for i, col := range strings.Split(cols, ", ") {
		want := map[string]interface{}{"review_id": "r1", "user_id": "u1"}[col]
		if values[i] != want {
			t.Errorf("value for %s = %v, want %v", col, values[i], want)
		}
	}
}

func TestDBRecordsBatching(t *testing.T) {
	orig := MAX_MULTIPLE_INSERTS
	MAX_MULTIPLE_INSERTS = 2
	defer func() { MAX_MULTIPLE_INSERTS = orig }()

	var records DBRecords
	for _, id := range []string{"i1", "i2", "i3", "i4", "i5"} {
		records.Append(DBRecord{
			TableName: "order_items",
			Data:      map[string]interface{}{"id": id, "order_id": "o1"},
		})
	}

	statements := records.ToInsertSQLParameterized()
	if len(statements) != 3 {
		t.Fatalf("statements = %d, want 3 batches of max 2", len(statements))
	}
	// First batch holds two rows, the last holds one.
	if got := strings.Count(statements[0].Query, "(?, ?)"); got != 2 {
		t.Errorf("first batch rows = %d, want 2: %s", got, statements[0].Query)
	}
	if got := strings.Count(statements[2].Query, "(?, ?)"); got != 1 {
		t.Errorf("last batch rows = %d, want 1: %s", got, statements[2].Query)
	}
	if len(statements[0].Values) != 4 || len(statements[2].Values) != 2 {
		t.Errorf("value counts = %d/%d, want 4/2",
			len(statements[0].Values), len(statements[2].Values))
	}
}

func TestDBRecordsEmptyAndNil(t *testing.T) {
	var empty DBRecords
	if got := empty.ToInsertSQLParameterized(); got != nil {
		t.Errorf("empty records produced %v", got)
	}
	nilData := DBRecords{{TableName: "orders"}}
	if got := nilData.ToInsertSQLParameterized(); got != nil {
		t.Errorf("nil data produced %v", got)
	}
}
