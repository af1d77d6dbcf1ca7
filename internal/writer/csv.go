package writer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"

	"github.com/rickgao/coin-crawler/internal/model"
)

// CSVWriterMetrics tracks writer activity.
type CSVWriterMetrics struct {
	Rows   int64
	Errors int64
}

// CSVWriter appends ranked entries to a CSV file.
type CSVWriter struct {
	path   string
	header []string
	logger *slog.Logger

	mu      sync.Mutex
	metrics CSVWriterMetrics
}

// NewCSVWriter creates a writer for path using model.SnapshotHeader.
func NewCSVWriter(path string, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{
		path:   path,
		header: model.SnapshotHeader,
		logger: logger,
	}
}

// Path returns the output file path.
func (w *CSVWriter) Path() string { return w.path }

// Reset removes the output file if it exists.
func (w *CSVWriter) Reset() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := os.Remove(w.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("reset %s: %w", w.path, err)
	}
	w.metrics = CSVWriterMetrics{}
	return nil
}

// Append writes entry, preceded by the header if the file does not exist yet.
func (w *CSVWriter) Append(entry model.RankedEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.append(entry.Record()); err != nil {
		w.metrics.Errors++
		w.logger.Error("csv append failed", "path", w.path, "rank", entry.Rank, "error", err)
		return err
	}
	w.metrics.Rows++
	return nil
}

func (w *CSVWriter) append(record []string) error {
	_, statErr := os.Stat(w.path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.path, err)
	}

	cw := csv.NewWriter(f)
	cw.UseCRLF = true
	if isNew {
		if err := cw.Write(w.header); err != nil {
			f.Close()
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := cw.Write(record); err != nil {
		f.Close()
		return fmt.Errorf("write record: %w", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", w.path, err)
	}
	return f.Close()
}

// Stats returns current writer metrics.
func (w *CSVWriter) Stats() CSVWriterMetrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.metrics
}
