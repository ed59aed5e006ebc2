// SPDX-License-Identifier: MPL-2.0

// Package mcpserver exposes the inventory store over the Model Context
// Protocol. The server publishes three tools (get_all_products,
// get_sales_data, get_season) and an inventory summary resource, and can
// serve either on stdio or over HTTP with the SSE transport.
package mcpserver
