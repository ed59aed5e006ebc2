// SPDX-License-Identifier: MPL-2.0

package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stockroom/stockroom/internal/inventory"
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

// summerDate falls in the March-May summer window.
var summerDate = time.Date(2025, time.April, 15, 9, 30, 0, 0, time.UTC)

func newTestServer(t *testing.T, now time.Time) *Server {
	t.Helper()

	dir := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(dir, inventory.ProductsFile), []byte(testProductsCSV), 0o644)
	testutil.MustWriteFile(t, filepath.Join(dir, inventory.SalesFile), []byte(testSalesCSV), 0o644)

	store := inventory.NewStore(dir, inventory.WithLogger(log.New(io.Discard)))
	store.Load()

	return New(store,
		WithLogger(log.New(io.Discard)),
		WithNowFunc(func() time.Time { return now }),
	)
}

// resultText extracts the single text content block from a tool result.
func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	if res == nil {
		t.Fatal("expected a tool result")
	}
	if len(res.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(res.Content))
	}
	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func decodeRows(t *testing.T, payload string) []map[string]string {
	t.Helper()

	var rows []map[string]string
	if err := json.Unmarshal([]byte(payload), &rows); err != nil {
		t.Fatalf("failed to decode rows from %s: %v", payload, err)
	}
	return rows
}

func intPtr(v int) *int {
	return &v
}

func TestGetAllProducts(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, summerDate)

	tests := []struct {
		name      string
		args      getAllProductsParams
		wantCount int
		wantFirst string
	}{
		{name: "defaults return everything", args: getAllProductsParams{}, wantCount: 5, wantFirst: "Ceiling Fan"},
		{name: "limit truncates", args: getAllProductsParams{Limit: intPtr(2)}, wantCount: 2, wantFirst: "Ceiling Fan"},
		{name: "offset pages forward", args: getAllProductsParams{Limit: intPtr(2), Offset: 2}, wantCount: 2, wantFirst: "Umbrella"},
		{name: "explicit zero limit is empty", args: getAllProductsParams{Limit: intPtr(0)}, wantCount: 0},
		{name: "offset past the end is empty", args: getAllProductsParams{Offset: 10}, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, out, err := srv.getAllProducts(context.Background(), nil, tt.args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out != nil {
				t.Errorf("expected nil structured output, got %v", out)
			}

			payload := resultText(t, res)
			rows := decodeRows(t, payload)
			if len(rows) != tt.wantCount {
				t.Fatalf("expected %d rows, got %d", tt.wantCount, len(rows))
			}
			if tt.wantCount == 0 {
				if payload != "[]" {
					t.Errorf("expected empty JSON array, got %s", payload)
				}
				return
			}
			if got := rows[0]["name"]; got != tt.wantFirst {
				t.Errorf("expected first product %q, got %q", tt.wantFirst, got)
			}
		})
	}
}

func TestGetSalesData(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, summerDate)

	res, _, err := srv.getSalesData(context.Background(), nil, getSalesDataParams{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rows := decodeRows(t, resultText(t, res))
	if len(rows) != 3 {
		t.Fatalf("expected 3 sale rows, got %d", len(rows))
	}
	if got := rows[0]["product_name"]; got != "Ceiling Fan" {
		t.Errorf("expected first sale for Ceiling Fan, got %q", got)
	}
}

func TestGetSeason(t *testing.T) {
	t.Parallel()

	t.Run("summer report", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, summerDate)

		res, _, err := srv.getSeason(context.Background(), nil, getSeasonParams{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var report map[string]any
		payload := resultText(t, res)
		if err := json.Unmarshal([]byte(payload), &report); err != nil {
			t.Fatalf("failed to decode report from %s: %v", payload, err)
		}

		if got := report["current_season"]; got != "summer" {
			t.Errorf("expected season summer, got %v", got)
		}
		if got := report["current_date"]; got != "15/04/2025" {
			t.Errorf("expected date 15/04/2025, got %v", got)
		}
		want := "Current season is summer. Focus on stocking fan, air conditioner, ac and related items."
		if got := report["recommendation"]; got != want {
			t.Errorf("expected recommendation %q, got %v", want, got)
		}
	})

	t.Run("autumn reports the catalog gap", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, time.Date(2025, time.October, 3, 0, 0, 0, 0, time.UTC))

		res, _, err := srv.getSeason(context.Background(), nil, getSeasonParams{})
		if res != nil {
			t.Errorf("expected no result, got %+v", res)
		}
		if !errors.Is(err, inventory.ErrNoSeasonCatalog) {
			t.Errorf("expected ErrNoSeasonCatalog, got %v", err)
		}
	})
}

func TestReadInventorySummary(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, summerDate)

	res, err := srv.readInventorySummary(context.Background(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("expected 1 resource content, got %d", len(res.Contents))
	}

	contents := res.Contents[0]
	if contents.URI != summaryResourceURI {
		t.Errorf("expected URI %s, got %s", summaryResourceURI, contents.URI)
	}
	if contents.MIMEType != "application/json" {
		t.Errorf("expected JSON MIME type, got %s", contents.MIMEType)
	}

	var summary inventorySummary
	if err := json.Unmarshal([]byte(contents.Text), &summary); err != nil {
		t.Fatalf("failed to decode summary from %s: %v", contents.Text, err)
	}
	if summary.Products != 5 || summary.Sales != 3 {
		t.Errorf("expected 5 products and 3 sales, got %d and %d", summary.Products, summary.Sales)
	}
	if summary.Season != inventory.SeasonSummer {
		t.Errorf("expected season summer, got %s", summary.Season)
	}
}

func TestToolDocs(t *testing.T) {
	t.Parallel()

	docs := ToolDocs()
	if len(docs) != 3 {
		t.Fatalf("expected 3 tool docs, got %d", len(docs))
	}

	wantNames := []string{"get_all_products", "get_sales_data", "get_season"}
	for i, doc := range docs {
		if doc.Name != wantNames[i] {
			t.Errorf("expected tool %q at index %d, got %q", wantNames[i], i, doc.Name)
		}
		if strings.TrimSpace(doc.Description) == "" {
			t.Errorf("tool %q has an empty description", doc.Name)
		}
	}
}
