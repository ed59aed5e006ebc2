// SPDX-License-Identifier: MPL-2.0

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/stockroom/stockroom/internal/inventory"
)

// summaryResourceURI identifies the inventory summary resource.
const summaryResourceURI = "stockroom://inventory/summary"

const (
	descGetAllProducts = `Retrieve all products from inventory.

Returns a JSON array of product rows read from products.csv. Rows keep the
CSV column order. Use limit and offset for pagination; an offset past the
end yields an empty array.`

	descGetSalesData = `Retrieve all sales data.

Returns a JSON array of sale rows read from sales_data.csv.`

	descGetSeason = `Get current seasonal product priorities based on weather/season.

Returns the current date and season together with the high and medium
priority product lists, the reorder threshold multiplier, and a stocking
recommendation. Autumn has no priority catalog and reports an error.`

	descInventorySummary = `Inventory snapshot: product and sale row counts, the
current season, and the directory the data files are read from.`
)

type (
	getAllProductsParams struct {
		// Limit distinguishes absent (default 100) from an explicit zero,
		// which yields an empty page.
		Limit  *int `json:"limit,omitempty" jsonschema:"maximum number of products to return (default 100)"`
		Offset int  `json:"offset,omitempty" jsonschema:"number of products to skip for pagination (default 0)"`
	}

	getSalesDataParams struct{}

	getSeasonParams struct{}

	inventorySummary struct {
		Products int              `json:"products"`
		Sales    int              `json:"sales"`
		Season   inventory.Season `json:"season"`
		DataDir  string           `json:"data_dir"`
	}

	// ToolDoc describes one published tool, for rendered documentation.
	ToolDoc struct {
		Name        string
		Description string
	}
)

// ToolDocs returns the published tools in registration order.
func ToolDocs() []ToolDoc {
	return []ToolDoc{
		{Name: "get_all_products", Description: descGetAllProducts},
		{Name: "get_sales_data", Description: descGetSalesData},
		{Name: "get_season", Description: descGetSeason},
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_all_products",
		Description: descGetAllProducts,
	}, s.getAllProducts)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_sales_data",
		Description: descGetSalesData,
	}, s.getSalesData)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_season",
		Description: descGetSeason,
	}, s.getSeason)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         summaryResourceURI,
		Name:        "inventory-summary",
		Description: descInventorySummary,
		MIMEType:    "application/json",
	}, s.readInventorySummary)
}

func (s *Server) getAllProducts(ctx context.Context, req *mcp.CallToolRequest, args getAllProductsParams) (*mcp.CallToolResult, any, error) {
	limit := inventory.DefaultLimit
	if args.Limit != nil {
		limit = *args.Limit
	}
	return jsonResult(s.store.Products(limit, args.Offset))
}

func (s *Server) getSalesData(ctx context.Context, req *mcp.CallToolRequest, args getSalesDataParams) (*mcp.CallToolResult, any, error) {
	return jsonResult(s.store.Sales())
}

func (s *Server) getSeason(ctx context.Context, req *mcp.CallToolRequest, args getSeasonParams) (*mcp.CallToolResult, any, error) {
	report, err := inventory.SeasonReportFor(s.now())
	if err != nil {
		return nil, nil, err
	}
	return jsonResult(report)
}

func (s *Server) readInventorySummary(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	products, sales := s.store.Counts()
	summary := inventorySummary{
		Products: products,
		Sales:    sales,
		Season:   inventory.SeasonFor(s.now()),
		DataDir:  s.store.Dir(),
	}

	data, err := json.Marshal(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inventory summary: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      summaryResourceURI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// jsonResult marshals v into a single text content block, the same JSON
// payload shape the Python server produced.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil, nil
}
