package aggregate

import (
	"math"
	"sync"
	"testing"

	"github.com/Veraticus/sieve/internal/labeling"
	"github.com/Veraticus/sieve/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeights(t *testing.T) {
	tests := []struct {
		name       string
		voter      string
		strictness float64
		want       float64
	}{
		{name: "promo base", voter: labeling.Promo, strictness: 0, want: 2.0},
		{name: "promo strict", voter: labeling.Promo, strictness: 2, want: 4.0},
		{name: "sent_conflict strict", voter: labeling.SentimentConflict, strictness: 1, want: 2.8},
		{name: "political strict", voter: PoliticalContent, strictness: 1, want: 4.0},
		{name: "offtopic half rate", voter: labeling.OffTopic, strictness: 2, want: 1.6},
		{name: "near_dupe half rate", voter: labeling.NearDuplicate, strictness: 1, want: 2.3},
		{name: "trust_signal invariant", voter: labeling.TrustSignal, strictness: 5, want: 2.5},
		{name: "template invariant", voter: labeling.Template, strictness: 3, want: 0.8},
		{name: "unlisted voter", voter: labeling.UserExtremeHistory, strictness: 2, want: DefaultWeight},
		{name: "unknown name", voter: "nope", strictness: 0, want: DefaultWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Weights(tt.strictness).Weight(tt.voter), 1e-12)
		})
	}
}

func TestWeights_Snapshots(t *testing.T) {
	lenient := WeightPolicy{Strictness: 0}.Table()
	strict := WeightPolicy{Strictness: 3}.Table()

	assert.InDelta(t, 2.0, lenient.Weight(labeling.Promo), 1e-12)
	assert.InDelta(t, 5.0, strict.Weight(labeling.Promo), 1e-12)
	assert.InDelta(t, 3.0, strict.Strictness(), 1e-12)

	var zero WeightTable
	assert.InDelta(t, DefaultWeight, zero.Weight(labeling.Promo), 1e-12)

	entries := lenient.Entries()
	require.Len(t, entries, 15)
	assert.Equal(t, labeling.BusinessBurst, entries[0].Name)
}

func TestWeights_ConcurrentReaders(t *testing.T) {
	table := Weights(1)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				_ = table.Weight(labeling.Promo)
			}
		}()
	}
	wg.Wait()
	assert.InDelta(t, 3.0, table.Weight(labeling.Promo), 1e-12)
}

func TestAggregate_AllAbstain(t *testing.T) {
	votes := model.VoteSet{}
	for _, name := range labeling.Names() {
		votes = append(votes, model.Abstain(name))
	}

	res := Aggregate(votes, Weights(0))

	assert.Zero(t, res.RawScore)
	assert.Equal(t, 0.5, res.Probability)
	assert.Empty(t, res.Contributions)
}

func TestAggregate_Contributions(t *testing.T) {
	votes := model.VoteSet{
		model.Untrust(labeling.Template, 0.80),
		model.Abstain(labeling.Promo),
		model.Untrust(labeling.EntitySparse, 0.60),
		model.Trust(labeling.TrustSignal, 0.70),
	}

	res := Aggregate(votes, Weights(0))

	require.Len(t, res.Contributions, 3)
	first := res.Contributions[0]
	assert.Equal(t, labeling.Template, first.Name)
	assert.Equal(t, model.LabelUntrust, first.Label)
	assert.InDelta(t, 0.80, first.Confidence, 1e-12)
	assert.InDelta(t, 0.8, first.Weight, 1e-12)
	assert.InDelta(t, 0.64, first.Signed, 1e-12)
	assert.InDelta(t, -1.75, res.Contributions[2].Signed, 1e-12)

	sum := 0.0
	for _, c := range res.Contributions {
		sum += c.Signed
	}
	assert.InDelta(t, sum, res.RawScore, 1e-12)
	assert.InDelta(t, 0.64+0.36-1.75, res.RawScore, 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(-res.RawScore)), res.Probability, 1e-12)
}

func TestAggregate_FixedWeights(t *testing.T) {
	table := FixedWeights(map[string]float64{"a": 2})
	res := Aggregate(model.VoteSet{
		model.Untrust("a", 0.5),
		model.Untrust("b", 0.5),
	}, table)

	assert.InDelta(t, 1.5, res.RawScore, 1e-12)
	assert.InDelta(t, DefaultWeight, res.Contributions[1].Weight, 1e-12)
}

func TestSigmoid(t *testing.T) {
	assert.Equal(t, 0.5, Sigmoid(0))

	prev := Sigmoid(-1000)
	for x := -999.0; x <= 1000; x += 0.5 {
		p := Sigmoid(x)
		assert.Greater(t, p, 0.0)
		assert.Less(t, p, 1.0)
		assert.GreaterOrEqual(t, p, prev, "not monotonic at %v", x)
		prev = p
	}

	// strict increase wherever float64 can represent it
	for _, x := range []float64{-30, -5, -1, -0.1, 0, 0.1, 1, 5, 30} {
		assert.Less(t, Sigmoid(x), Sigmoid(x+0.01), "at %v", x)
	}

	assert.Greater(t, Sigmoid(math.Inf(-1)), 0.0)
	assert.Less(t, Sigmoid(math.Inf(1)), 1.0)
	assert.False(t, math.IsNaN(Sigmoid(-1e308)))
}
