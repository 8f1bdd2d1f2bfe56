package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 10, "Labeling reviews...")

	p.Add(4)
	p.Add(6)
	p.Finish()

	assert.Contains(t, buf.String(), "Labeling reviews...")
	assert.Contains(t, buf.String(), "10/10")
}

func TestProgress_UnknownTotal(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, -1, "Labeling reviews...")

	p.Add(3)
	p.Finish()

	assert.Contains(t, buf.String(), "Labeling reviews...")
}

func TestLabelStyle(t *testing.T) {
	assert.Equal(t, SuccessStyle, LabelStyle("trustworthy"))
	assert.Equal(t, ErrorStyle, LabelStyle("untrustworthy"))
	assert.Equal(t, WarningStyle, LabelStyle("ignore"))
	assert.Equal(t, SubtleStyle, LabelStyle("ERROR"))
}

func TestRenderBox(t *testing.T) {
	out := RenderBox("Summary", "rows: 3")
	assert.Contains(t, out, "Summary")
	assert.Contains(t, out, "rows: 3")
}
