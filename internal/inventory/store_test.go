// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"encoding/json"
	"io"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/stockroom/stockroom/internal/testutil"
)

const testProductsCSV = `id,name,category,quantity,reorder_threshold,unit_price
1,Ceiling Fan,appliances,12,5,49.99
2,Space Heater,appliances,7,4,89.50
3,Umbrella,accessories,40,10,12.00
4,Sunscreen SPF50,personal care,25,8,9.75
5,Wool Blanket,home,9,3,34.20
`

const testSalesCSV = `sale_id,product_id,product_name,quantity_sold,sale_date,total_amount
101,1,Ceiling Fan,2,14/03/2025,99.98
102,3,Umbrella,5,02/06/2025,60.00
103,2,Space Heater,1,21/12/2024,89.50
`

// newDataDir writes both fixture tables into a fresh directory.
func newDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, ProductsFile), []byte(testProductsCSV), 0o644)
	testutil.MustWriteFile(t, filepath.Join(dir, SalesFile), []byte(testSalesCSV), 0o644)
	return dir
}

func newTestStore(t *testing.T, dir string) *Store {
	t.Helper()
	return NewStore(dir, WithLogger(log.New(io.Discard)))
}

// productIDs extracts the id column from a page of products.
func productIDs(rows []Row) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.Get("id"))
	}
	return ids
}

func TestStore_Load(t *testing.T) {
	t.Parallel()

	t.Run("loads both tables", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, newDataDir(t))
		store.Load()

		products, sales := store.Counts()
		if products != 5 {
			t.Errorf("expected 5 products, got %d", products)
		}
		if sales != 3 {
			t.Errorf("expected 3 sales, got %d", sales)
		}

		page := store.Products(DefaultLimit, 0)
		if len(page) != 5 {
			t.Fatalf("expected 5 product rows, got %d", len(page))
		}
		if got := page[0].Get("name"); got != "Ceiling Fan" {
			t.Errorf("expected first product %q, got %q", "Ceiling Fan", got)
		}

		wantColumns := []string{"id", "name", "category", "quantity", "reorder_threshold", "unit_price"}
		if got := page[0].Columns(); !slices.Equal(got, wantColumns) {
			t.Errorf("expected columns %v, got %v", wantColumns, got)
		}

		if got := store.Sales(); len(got) != 3 {
			t.Errorf("expected 3 sale rows, got %d", len(got))
		}
	})

	t.Run("missing files yield empty tables", func(t *testing.T) {
		t.Parallel()

		store := newTestStore(t, t.TempDir())
		store.Load()

		products, sales := store.Counts()
		if products != 0 || sales != 0 {
			t.Errorf("expected empty tables, got %d products and %d sales", products, sales)
		}

		// The empty page must marshal as a JSON array, not null.
		data, err := json.Marshal(store.Products(DefaultLimit, 0))
		if err != nil {
			t.Fatalf("marshal products: %v", err)
		}
		if string(data) != "[]" {
			t.Errorf("expected empty page to marshal as [], got %s", data)
		}
	})

	t.Run("malformed file yields an empty table", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.MustWriteFile(t, filepath.Join(dir, ProductsFile),
			[]byte("id,name\n1,\"unclosed\n"), 0o644)
		testutil.MustWriteFile(t, filepath.Join(dir, SalesFile), []byte(testSalesCSV), 0o644)

		store := newTestStore(t, dir)
		store.Load()

		products, sales := store.Counts()
		if products != 0 {
			t.Errorf("expected the malformed product table to be empty, got %d rows", products)
		}
		if sales != 3 {
			t.Errorf("expected the sales table to load independently, got %d rows", sales)
		}
	})

	t.Run("short records pad missing columns", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.MustWriteFile(t, filepath.Join(dir, ProductsFile),
			[]byte("id,name,category\n7,Visor\n"), 0o644)

		store := newTestStore(t, dir)
		store.Load()

		page := store.Products(DefaultLimit, 0)
		if len(page) != 1 {
			t.Fatalf("expected 1 row, got %d", len(page))
		}
		if got := page[0].Get("category"); got != "" {
			t.Errorf("expected empty category, got %q", got)
		}
		if !page[0].Has("category") {
			t.Error("expected the padded column to exist")
		}
	})

	t.Run("reload swaps in changed data", func(t *testing.T) {
		t.Parallel()

		dir := newDataDir(t)
		store := newTestStore(t, dir)
		store.Load()

		if products, _ := store.Counts(); products != 5 {
			t.Fatalf("expected 5 products before reload, got %d", products)
		}

		updated := testProductsCSV + "6,Rain Boots,footwear,15,6,27.80\n"
		testutil.MustWriteFile(t, filepath.Join(dir, ProductsFile), []byte(updated), 0o644)
		store.Load()

		if products, _ := store.Counts(); products != 6 {
			t.Errorf("expected 6 products after reload, got %d", products)
		}
	})
}

func TestStore_Products_Pagination(t *testing.T) {
	t.Parallel()

	store := newTestStore(t, newDataDir(t))
	store.Load()

	tests := []struct {
		name   string
		limit  int
		offset int
		want   []string
	}{
		{name: "first page", limit: 2, offset: 0, want: []string{"1", "2"}},
		{name: "second page", limit: 2, offset: 2, want: []string{"3", "4"}},
		{name: "short final page", limit: 2, offset: 4, want: []string{"5"}},
		{name: "limit past the end truncates", limit: DefaultLimit, offset: 0, want: []string{"1", "2", "3", "4", "5"}},
		{name: "zero limit is empty", limit: 0, offset: 0, want: []string{}},
		{name: "negative limit is empty", limit: -1, offset: 0, want: []string{}},
		{name: "negative offset is empty", limit: 2, offset: -1, want: []string{}},
		{name: "offset at the end is empty", limit: 2, offset: 5, want: []string{}},
		{name: "offset past the end is empty", limit: 2, offset: 7, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := productIDs(store.Products(tt.limit, tt.offset))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Products(%d, %d) ids = %v, want %v", tt.limit, tt.offset, got, tt.want)
			}
		})
	}
}

func TestRow_MarshalJSON(t *testing.T) {
	t.Parallel()

	t.Run("fields keep column order", func(t *testing.T) {
		t.Parallel()

		row := newRow(
			[]string{"id", "name", "unit_price"},
			[]string{"1", "Ceiling Fan", "49.99"},
		)

		data, err := json.Marshal(row)
		if err != nil {
			t.Fatalf("marshal row: %v", err)
		}
		want := `{"id":"1","name":"Ceiling Fan","unit_price":"49.99"}`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})

	t.Run("unknown columns survive", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		testutil.MustWriteFile(t, filepath.Join(dir, ProductsFile),
			[]byte("id,name,color\n9,Parasol,red\n"), 0o644)

		store := newTestStore(t, dir)
		store.Load()

		data, err := json.Marshal(store.Products(DefaultLimit, 0))
		if err != nil {
			t.Fatalf("marshal products: %v", err)
		}
		want := `[{"id":"9","name":"Parasol","color":"red"}]`
		if string(data) != want {
			t.Errorf("expected %s, got %s", want, data)
		}
	})
}
