package crawl

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/hazyhaar/phishsense/feature"
)

// Writer appends dataset rows to a CSV file. The file is opened O_APPEND and
// every row goes out as one Write call, so rows from concurrent workers are
// never interleaved even if the mutex discipline slips. The header is written
// only when the file is created.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	schema feature.Schema
	rows   int
}

// OpenWriter opens (or creates) the output file for appending.
func OpenWriter(path string, schema feature.Schema) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("crawl: open output: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("crawl: stat output: %w", err)
	}
	w := &Writer{f: f, schema: schema}
	if info.Size() == 0 {
		line := strings.Join(schema.Header(), ",") + "\n"
		if _, err := f.WriteString(line); err != nil {
			f.Close()
			return nil, fmt.Errorf("crawl: write header: %w", err)
		}
	}
	return w, nil
}

// Append writes one row: url, schema-ordered features, label.
func (w *Writer) Append(url string, row []float64, label int) error {
	if len(row) != len(w.schema.Fields) {
		return fmt.Errorf("crawl: row has %d values, schema wants %d", len(row), len(w.schema.Fields))
	}

	var b strings.Builder
	b.WriteString(escapeField(url))
	for _, v := range row {
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	b.WriteByte(',')
	b.WriteString(strconv.Itoa(label))
	b.WriteByte('\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(b.String()); err != nil {
		return fmt.Errorf("crawl: append row: %w", err)
	}
	w.rows++
	return nil
}

// Rows returns the number of rows appended by this writer.
func (w *Writer) Rows() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}

// Close syncs and closes the output file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.f.Sync(); err != nil {
		w.f.Close()
		return fmt.Errorf("crawl: sync output: %w", err)
	}
	return w.f.Close()
}

// escapeField keeps URLs single-cell without CSV quoting by percent-encoding
// the separator, matching what the replay side decodes.
func escapeField(s string) string {
	return strings.ReplaceAll(s, ",", "%2C")
}

func unescapeField(s string) string {
	return strings.ReplaceAll(s, "%2C", ",")
}
