// SPDX-License-Identifier: MPL-2.0

// Package inventory reads the product and sales tables the MCP server
// serves. Data lives in two fixed-name CSV files beside the server
// entrypoint; rows keep their column order so tool output mirrors the
// files, and unknown columns survive untouched. The package also carries
// the seasonal priority catalog behind the get_season tool.
package inventory
