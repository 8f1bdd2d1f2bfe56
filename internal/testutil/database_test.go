package testutil

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupTestDBWithRun(t *testing.T) {
	store := SetupTestDBWithRun(t, "run-1")

	runs, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestJSONL(t *testing.T) {
	corpus := JSONL(Scenarios()...)
	lines := strings.Split(strings.TrimSuffix(corpus, "\n"), "\n")
	require.Len(t, lines, 3)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[2]), &decoded))
	assert.Equal(t, "u-promo", decoded["user_id"])
	assert.Equal(t, true, decoded["robot_review"])
	assert.NotContains(t, decoded, "category")
}

func TestCorpus(t *testing.T) {
	reviews := Corpus(7, 3)
	require.Len(t, reviews, 7)
	assert.Equal(t, "g0", reviews[3].GmapID)
	assert.Equal(t, 5, reviews[4].Rating)
}

func TestWriteFile(t *testing.T) {
	path := WriteFile(t, "in.jsonl", "x\n")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x\n", string(data))
}
