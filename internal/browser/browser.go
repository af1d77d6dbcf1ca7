package browser

import (
	"context"
	"time"
)

// Browser is the subset of browser automation the snapshot collector needs.
type Browser interface {
	// Navigate loads url in the current page and waits for the document.
	Navigate(ctx context.Context, url string) error

	// WaitVisible blocks until an element matching selector is present, or
	// returns ErrTimeout after timeout.
	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error

	// ScrollBy scrolls the window vertically by dy pixels.
	ScrollBy(ctx context.Context, dy int) error

	// ScrollHeight returns document.body.scrollHeight.
	ScrollHeight(ctx context.Context) (int, error)

	// ExtractTable returns the header and body cell texts of the first
	// table matching selector, or ErrNotFound.
	ExtractTable(ctx context.Context, selector string) (*Table, error)

	// Close releases the page and any process behind it.
	Close() error
}

// Table is the rendered text of an HTML table.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Records zips every row with Headers. Cells beyond the header count, and
// headers beyond the cell count, are dropped. Repeated headers keep the
// rightmost cell.
func (t *Table) Records() []map[string]string {
	records := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		n := min(len(row), len(t.Headers))
		rec := make(map[string]string, n)
		for i := 0; i < n; i++ {
			rec[t.Headers[i]] = row[i]
		}
		records = append(records, rec)
	}
	return records
}
