package engine

import (
	"context"

	"github.com/Veraticus/sieve/internal/model"
)

// RowWriter receives emitted rows in input order. Flush is called at every
// chunk boundary; Close once the run is over.
type RowWriter interface {
	Write(ctx context.Context, rows []model.OutputRow) error
	Flush() error
	Close() error
}

// ProgressReporter is advanced by the number of rows emitted per chunk.
type ProgressReporter interface {
	Add(n int)
	Finish()
}
