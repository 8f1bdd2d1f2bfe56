package common

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: " INFO ", want: slog.LevelInfo},
		{in: "", want: slog.LevelInfo},
		{in: "warning", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "trace", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidConfig, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(slog.LevelInfo, "json", &buf))
	LogDebug("hidden", nil)
	LogInfo("shown", Fields{"rows": 3})
	LogError(errors.New("boom"), "failed", Fields{"line": 7})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"rows":3`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"line":7`)

	assert.ErrorIs(t, SetupLogger(slog.LevelInfo, "xml", &buf), ErrInvalidConfig)
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "nil", err: nil},
		{name: "record", err: fmt.Errorf("line 3: %w", ErrMalformedRecord)},
		{name: "input", err: fmt.Errorf("%w: EOF", ErrInputRead), want: true},
		{name: "output", err: fmt.Errorf("%w: disk full", ErrOutputWrite), want: true},
		{name: "other", err: errors.New("x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFatal(tt.err))
		})
	}
}

func TestUserError(t *testing.T) {
	err := NewUserError("cannot open input", ErrInputRead)
	assert.Equal(t, "cannot open input: failed to read input", err.Error())
	assert.ErrorIs(t, err, ErrInputRead)

	assert.Equal(t, "plain", NewUserError("plain", nil).Error())
}

func TestWordAlternation(t *testing.T) {
	assert.Equal(t, `(?i)\b(?:contact\s+me|a\.b|dm)\b`,
		WordAlternation([]string{"dm", " Contact  me ", "a.b", "DM", ""}))
}

func TestCompileWords(t *testing.T) {
	re, err := CompileWords([]string{"discount code", "promo"})
	require.NoError(t, err)

	assert.True(t, re.MatchString("Use this DISCOUNT   code today"))
	assert.True(t, re.MatchString("promo!"))
	assert.False(t, re.MatchString("promotional"), "terms match whole words only")

	_, err = CompileWords(nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
