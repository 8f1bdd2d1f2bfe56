// Package export writes labeled rows to flat files.
package export

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/model"
)

// Format names an output encoding.
type Format string

const (
	// FormatJSONL writes one JSON object per line.
	FormatJSONL Format = "jsonl"
	// FormatCSV writes a header plus one record per row.
	FormatCSV Format = "csv"
	// FormatSQLite writes into a SQLite database file.
	FormatSQLite Format = "sqlite"
)

// DetectFormat resolves the output format from an explicit override or,
// failing that, from the file extension. Stdout ("-" or "") is JSONL.
func DetectFormat(path, override string) (Format, error) {
	if override != "" {
		switch f := Format(strings.ToLower(override)); f {
		case FormatJSONL, FormatCSV, FormatSQLite:
			return f, nil
		case "json", "ndjson":
			return FormatJSONL, nil
		case "db", "sqlite3":
			return FormatSQLite, nil
		default:
			return "", fmt.Errorf("%w: output format %q", common.ErrUnsupportedFormat, override)
		}
	}

	if path == "" || path == "-" {
		return FormatJSONL, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson", ".json":
		return FormatJSONL, nil
	case ".csv":
		return FormatCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite, nil
	default:
		return "", fmt.Errorf("%w: cannot infer output format from %q", common.ErrUnsupportedFormat, path)
	}
}

// JSONLWriter writes rows as JSON lines through a buffer.
type JSONLWriter struct {
	buf    *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONLWriter wraps w. When w is an io.Closer it is closed by Close.
func NewJSONLWriter(w io.Writer) *JSONLWriter {
	buf := bufio.NewWriterSize(w, 256*1024)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	jw := &JSONLWriter{buf: buf, enc: enc}
	if c, ok := w.(io.Closer); ok {
		jw.closer = c
	}
	return jw
}

// Write encodes each row on its own line.
func (j *JSONLWriter) Write(_ context.Context, rows []model.OutputRow) error {
	for _, row := range rows {
		if err := j.enc.Encode(row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row.Seq, err)
		}
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer.
func (j *JSONLWriter) Flush() error {
	return j.buf.Flush()
}

// Close flushes and closes the underlying writer.
func (j *JSONLWriter) Close() error {
	if err := j.Flush(); err != nil {
		return err
	}
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}

// CSVWriter writes rows with a header of model.Columns.
type CSVWriter struct {
	cw          *csv.Writer
	closer      io.Closer
	wroteHeader bool
}

// NewCSVWriter wraps w. When w is an io.Closer it is closed by Close.
func NewCSVWriter(w io.Writer) *CSVWriter {
	cw := &CSVWriter{cw: csv.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		cw.closer = c
	}
	return cw
}

// Write appends rows, emitting the header first.
func (c *CSVWriter) Write(_ context.Context, rows []model.OutputRow) error {
	if !c.wroteHeader {
		if err := c.cw.Write(model.Columns); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		c.wroteHeader = true
	}
	for _, row := range rows {
		cells, err := row.Cells()
		if err != nil {
			return fmt.Errorf("failed to render row %d: %w", row.Seq, err)
		}
		if err := c.cw.Write(cells); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", row.Seq, err)
		}
	}
	return nil
}

// Flush pushes buffered rows to the underlying writer.
func (c *CSVWriter) Flush() error {
	c.cw.Flush()
	return c.cw.Error()
}

// Close writes the header for empty outputs, flushes, and closes.
func (c *CSVWriter) Close() error {
	if !c.wroteHeader {
		if err := c.Write(context.Background(), nil); err != nil {
			return err
		}
	}
	if err := c.Flush(); err != nil {
		return err
	}
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
