package postgres

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsAreOrderedAndUnique(t *testing.T) {
	seen := map[int64]bool{}
	names := map[string]bool{}
	for i, m := range Migrations {
		assert.False(t, seen[m.Version], "duplicate version %d", m.Version)
		assert.False(t, names[m.Name], "duplicate name %s", m.Name)
		seen[m.Version], names[m.Name] = true, true
		if i > 0 {
			assert.Greater(t, m.Version, Migrations[i-1].Version)
		}
		assert.NotEmpty(t, m.Up, m.Name)
		assert.NotEmpty(t, m.Down, m.Name)
	}
}

func find(t *testing.T, name string) Migration {
	t.Helper()
	for _, m := range Migrations {
		if m.Name == name {
			return m
		}
	}
	t.Fatalf("migration %s not found", name)
	return Migration{}
}

func TestJoinTableForeignKeys(t *testing.T) {
	tests := []struct {
		migration, column, constraint, references string
	}{
		{"AddOrderIdOrdersProducts", "order_id", `"OrdersOrdersProducts"`, "orders(id)"},
		{"AddProductIdOrdersProducts", "product_id", `"ProductsOrdersProducts"`, "products(id)"},
	}

	for _, tc := range tests {
		t.Run(tc.migration, func(t *testing.T) {
			m := find(t, tc.migration)
			require.Len(t, m.Up, 2)
			assert.Contains(t, m.Up[0], "ADD COLUMN "+tc.column+" uuid NOT NULL")
			assert.Contains(t, m.Up[1], tc.constraint)
			assert.Contains(t, m.Up[1], "FOREIGN KEY ("+tc.column+") REFERENCES "+tc.references)

			// the constraint goes before the column it depends on
			require.Len(t, m.Down, 2)
			assert.Contains(t, m.Down[0], "DROP CONSTRAINT "+tc.constraint)
			assert.Contains(t, m.Down[1], "DROP COLUMN "+tc.column)
		})
	}
}

func TestJoinTableMigrationsRunAfterTheirTables(t *testing.T) {
	index := map[string]int{}
	for i, m := range Migrations {
		index[m.Name] = i
	}
	assert.Less(t, index["CreateOrdersProducts"], index["AddOrderIdOrdersProducts"])
	assert.Less(t, index["CreateOrders"], index["AddOrderIdOrdersProducts"])
	assert.Less(t, index["CreateProducts"], index["AddProductIdOrdersProducts"])
}

func TestSortedOrdersByVersion(t *testing.T) {
	in := []Migration{{Version: 3, Name: "c"}, {Version: 1, Name: "a"}, {Version: 2, Name: "b"}}
	out := sorted(in)

	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].Name, out[1].Name, out[2].Name})
	assert.Equal(t, "c", in[0].Name)
}

func TestProductsSchemaKeepsMoneyExact(t *testing.T) {
	up := strings.Join(find(t, "CreateProducts").Up, "\n")
	assert.Contains(t, up, "price decimal(10,2)")
	assert.Contains(t, up, "quantity integer")
}

func TestParseIDs(t *testing.T) {
	a, b := uuid.New(), uuid.New()

	got := parseIDs([]string{b.String(), "nope", a.String(), b.String(), ""})

	assert.Equal(t, []uuid.UUID{b, a}, got)
}

func TestIsUniqueViolation(t *testing.T) {
	pgErr := &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "customers_email_key"}
	wrapped := fmt.Errorf("insert: %w", pgErr)

	assert.True(t, isUniqueViolation(wrapped, "customers_email_key"))
	assert.True(t, isUniqueViolation(wrapped, ""))
	assert.False(t, isUniqueViolation(wrapped, "products_name_key"))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}, ""))
	assert.False(t, isUniqueViolation(errors.New("plain"), ""))
}
