// Package sample builds a bounded labeling corpus from a larger JSONL dump:
// at most PerBusinessCap reviews per business, at most TotalRecordCap in
// all, in input order.
package sample

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
)

// Options bounds the sample. Non-positive caps are unlimited.
type Options struct {
	PerBusinessCap int
	TotalRecordCap int
}

// FromConfig copies the sampling section.
func FromConfig(cfg config.Sampling) Options {
	return Options{PerBusinessCap: cfg.PerBusinessCap, TotalRecordCap: cfg.TotalRecordCap}
}

// Stats counts what happened to each input line.
type Stats struct {
	Read       int  `json:"read"`
	Kept       int  `json:"kept"`
	OverCap    int  `json:"over_business_cap"`
	Malformed  int  `json:"malformed"`
	Blank      int  `json:"blank"`
	Businesses int  `json:"businesses"`
	Truncated  bool `json:"truncated"` // stopped at TotalRecordCap
}

// Sample copies selected lines from src to dst verbatim. Lines that are not
// JSON objects are skipped and counted. Reading stops as soon as the total
// cap is reached or ctx is canceled.
func Sample(ctx context.Context, src io.Reader, dst io.Writer, opts Options) (Stats, error) {
	var stats Stats
	perBusiness := make(map[string]int)

	br := bufio.NewReaderSize(src, 64*1024)
	bw := bufio.NewWriterSize(dst, 64*1024)
	lineNo := 0

	for {
		if err := ctx.Err(); err != nil {
			return stats, flush(bw, err)
		}
		if opts.TotalRecordCap > 0 && stats.Kept >= opts.TotalRecordCap {
			// Anything left unread means the cap cut the corpus short.
			if _, err := br.Peek(1); err == nil {
				stats.Truncated = true
			}
			break
		}

		raw, err := br.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return stats, flush(bw, fmt.Errorf("%w: line %d: %w", common.ErrInputRead, lineNo+1, err))
		}
		atEOF := err != nil

		if len(raw) > 0 {
			lineNo++
			stats.Read++
			if werr := consider(raw, lineNo, bw, opts, perBusiness, &stats); werr != nil {
				return stats, werr
			}
		}

		if atEOF {
			break
		}
	}

	stats.Businesses = len(perBusiness)
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("%w: %w", common.ErrOutputWrite, err)
	}
	return stats, nil
}

func consider(raw []byte, lineNo int, bw *bufio.Writer, opts Options, perBusiness map[string]int, stats *Stats) error {
	line := bytes.TrimSpace(raw)
	if len(line) == 0 {
		stats.Blank++
		return nil
	}

	fields, err := model.ParseObject(line)
	if err != nil {
		stats.Malformed++
		slog.Warn("Skipping malformed line", "line", lineNo, "error", err)
		return nil
	}

	key := businessKey(fields)
	if opts.PerBusinessCap > 0 && perBusiness[key] >= opts.PerBusinessCap {
		stats.OverCap++
		return nil
	}
	perBusiness[key]++

	if _, err := bw.Write(line); err != nil {
		return fmt.Errorf("%w: %w", common.ErrOutputWrite, err)
	}
	if err := bw.WriteByte('\n'); err != nil {
		return fmt.Errorf("%w: %w", common.ErrOutputWrite, err)
	}
	stats.Kept++
	return nil
}

// businessKey returns gmap_id as text; records without one (or with a
// null one) share the empty key.
func businessKey(fields map[string]json.RawMessage) string {
	raw, ok := fields["gmap_id"]
	if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func flush(bw *bufio.Writer, cause error) error {
	if err := bw.Flush(); err != nil {
		return errors.Join(cause, fmt.Errorf("%w: %w", common.ErrOutputWrite, err))
	}
	return cause
}
