package classification

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/sieve/internal/common"
	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFoodCategories_IsFood(t *testing.T) {
	foods := NewFoodCategories(config.DefaultFoodCategories)

	tests := []struct {
		name     string
		category model.Category
		want     bool
	}{
		{name: "unknown defaults to food", category: model.UnknownCategory(), want: true},
		{name: "single food", category: model.SingleCategory("Restaurant"), want: true},
		{name: "single non-food", category: model.SingleCategory("Auto repair shop"), want: false},
		{name: "list with a food entry", category: model.ManyCategories("Gift shop", " Cafe "), want: true},
		{name: "list without food", category: model.ManyCategories("RV park", "Campground"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, foods.IsFood(tt.category))
		})
	}
}

func TestInlineDetector(t *testing.T) {
	d := NewInlineDetector(NewFoodCategories(config.DefaultFoodCategories))
	assert.Equal(t, config.DetectorInline, d.Name())

	restaurant := model.SingleCategory("restaurant")
	store := model.SingleCategory("hardware store")

	// delivery is on-topic for food businesses only
	assert.False(t, d.IsOffTopic(restaurant, "delivery was quick and the pizza hot"))
	assert.True(t, d.IsOffTopic(store, "delivery was quick"))

	assert.True(t, d.IsOffTopic(restaurant, "invest in bitcoin now"))
	assert.False(t, d.IsOffTopic(restaurant, "carrots were fresh"))
	assert.False(t, d.IsOffTopic(restaurant, ""))
}

func TestNewOffTopicDetector(t *testing.T) {
	foods := NewFoodCategories(config.DefaultFoodCategories)
	dir := t.TempDir()

	good := filepath.Join(dir, "keywords.yaml")
	require.NoError(t, os.WriteFile(good, []byte("food: [crypto]\ngeneral: [crypto, refund]\n"), 0o600))

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("food: []\n"), 0o600))

	t.Run("inline", func(t *testing.T) {
		d, err := NewOffTopicDetector(config.OffTopic{Detector: config.DetectorInline}, foods)
		require.NoError(t, err)
		assert.Equal(t, config.DetectorInline, d.Name())
	})

	t.Run("external", func(t *testing.T) {
		d, err := NewOffTopicDetector(config.OffTopic{Detector: config.DetectorExternal, KeywordsFile: good}, foods)
		require.NoError(t, err)
		assert.Equal(t, config.DetectorExternal, d.Name())

		assert.False(t, d.IsOffTopic(model.SingleCategory("cafe"), "asked for a refund"))
		assert.True(t, d.IsOffTopic(model.SingleCategory("gym"), "asked for a refund"))
		// the built-in terms are not consulted
		assert.False(t, d.IsOffTopic(model.SingleCategory("gym"), "talked about the election"))
	})

	t.Run("external missing file", func(t *testing.T) {
		_, err := NewOffTopicDetector(config.OffTopic{
			Detector:     config.DetectorExternal,
			KeywordsFile: filepath.Join(dir, "missing.yaml"),
		}, foods)
		require.Error(t, err)
	})

	t.Run("external empty lists", func(t *testing.T) {
		_, err := NewOffTopicDetector(config.OffTopic{Detector: config.DetectorExternal, KeywordsFile: empty}, foods)
		require.Error(t, err)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := NewOffTopicDetector(config.OffTopic{Detector: "oracle"}, foods)
		assert.ErrorIs(t, err, common.ErrInvalidConfig)
	})
}
