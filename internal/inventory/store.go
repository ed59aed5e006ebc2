// SPDX-License-Identifier: MPL-2.0

package inventory

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
)

// Data file names, fixed beside the server entrypoint.
const (
	// ProductsFile holds the product table.
	ProductsFile = "products.csv"
	// SalesFile holds the sales table.
	SalesFile = "sales_data.csv"
)

// DefaultLimit is the product page size when a caller asks for none.
const DefaultLimit = 100

type (
	// StoreOption configures a Store.
	StoreOption func(*Store)

	// Store holds the inventory tables read from a data directory. Load
	// populates it and may be called again to pick up changed files;
	// readers always see a consistent snapshot.
	Store struct {
		dir    string
		logger *log.Logger

		mu       sync.RWMutex
		products []Row
		sales    []Row
	}
)

// WithLogger sets the store's logger.
func WithLogger(logger *log.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store reading from dir. Call Load to populate
// it.
func NewStore(dir string, opts ...StoreOption) *Store {
	s := &Store{
		dir:      dir,
		products: []Row{},
		sales:    []Row{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "inventory",
		})
	}
	return s
}

// Dir returns the data directory the store reads from.
func (s *Store) Dir() string {
	return s.dir
}

// Load reads both data files. It never fails: a missing or unreadable
// file yields an empty table and the server keeps serving. Calling Load
// again picks up changed files; the swap is atomic with respect to
// readers.
func (s *Store) Load() {
	products := s.readTable(filepath.Join(s.dir, ProductsFile))
	sales := s.readTable(filepath.Join(s.dir, SalesFile))

	s.mu.Lock()
	s.products = products
	s.sales = sales
	s.mu.Unlock()

	s.logger.Debug("inventory data loaded", "products", len(products), "sales", len(sales))
}

// Products returns one page of the product table. Offsets outside the
// table and non-positive limits yield an empty page; a limit reaching
// past the end is truncated.
func (s *Store) Products(limit, offset int) []Row {
	s.mu.RLock()
	rows := s.products
	s.mu.RUnlock()

	return paginate(rows, limit, offset)
}

// Sales returns the full sales table.
func (s *Store) Sales() []Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sales
}

// Counts reports the table sizes, for summaries and health output.
func (s *Store) Counts() (products, sales int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products), len(s.sales)
}

// readTable reads one CSV file into rows. Every failure mode degrades to
// an empty table: the data files are optional by contract, and a half
// written file must not take the server down mid-reload.
func (s *Store) readTable(path string) []Row {
	rows := []Row{}

	f, err := os.Open(path)
	if err != nil {
		s.logger.Debug("data file unavailable", "path", path, "error", err)
		return rows
	}
	defer f.Close() //nolint:errcheck // read-only file

	reader := csv.NewReader(f)
	// Tolerate ragged records; newRow pads short ones.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		s.logger.Debug("data file has no header", "path", path, "error", err)
		return rows
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Debug("data file is malformed", "path", path, "error", err)
			return []Row{}
		}
		rows = append(rows, newRow(header, record))
	}
	return rows
}

// paginate slices rows to one page. The empty page is a non-nil slice so
// it marshals as a JSON array, never null.
func paginate(rows []Row, limit, offset int) []Row {
	if limit <= 0 || offset < 0 || offset >= len(rows) {
		return []Row{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}
