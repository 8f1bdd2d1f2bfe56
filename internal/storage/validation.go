package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Argument and lookup errors.
var (
	ErrNilContext      = errors.New("nil context")
	ErrMissingArgument = errors.New("required argument is empty")
	ErrRunNotFound     = errors.New("run not found")
)

func requireContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

func requireValue(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s", ErrMissingArgument, name)
	}
	return nil
}

// requireRun checks the arguments every run-scoped query takes.
func requireRun(ctx context.Context, runID string) error {
	if err := requireContext(ctx); err != nil {
		return err
	}
	return requireValue("run id", runID)
}
