package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/everything-launcher/internal/rng"
)

func TestCardOf(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "♠A"},
		{12, "♠K"},
		{13, "♥A"},
		{35, "♦10"},
		{51, "♣K"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CardOf(tt.value).String(), "value %d", tt.value)
	}
}

func TestIdentityCards(t *testing.T) {
	cards := Identity().Cards()
	require.Len(t, cards, Size)
	seen := make(map[string]bool, Size)
	for i, c := range cards {
		assert.Equal(t, i, c.Value)
		seen[c.String()] = true
	}
	assert.Len(t, seen, Size, "every card face should be distinct")
}

func TestValidate(t *testing.T) {
	require.NoError(t, Identity().Validate())

	short := Identity()[:51]
	assert.Error(t, short.Validate())

	dup := Identity()
	dup[5] = 4
	assert.Error(t, dup.Validate())

	out := Identity()
	out[0] = 52
	assert.Error(t, out.Validate())
}

func TestShufflersProducePermutations(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmKeySort, AlgorithmFisherYates} {
		t.Run(string(alg), func(t *testing.T) {
			s, err := NewShuffler(alg, rng.Entropy())
			require.NoError(t, err)

			p := Identity()
			for i := 0; i < 500; i++ {
				s.Shuffle(p)
				require.NoError(t, p.Validate(), "shuffle %d", i)
			}
		})
	}
}

func TestShuffleSeededIsReproducible(t *testing.T) {
	for _, alg := range []Algorithm{AlgorithmKeySort, AlgorithmFisherYates} {
		t.Run(string(alg), func(t *testing.T) {
			a, err := NewShuffler(alg, rng.NewSeeded("server", "client", 1))
			require.NoError(t, err)
			b, err := NewShuffler(alg, rng.NewSeeded("server", "client", 1))
			require.NoError(t, err)

			pa, pb := Identity(), Identity()
			for i := 0; i < 20; i++ {
				a.Shuffle(pa)
				b.Shuffle(pb)
				require.Equal(t, pa, pb, "shuffle %d", i)
			}
			assert.NotEqual(t, Identity(), pa)
		})
	}
}

func TestNewShufflerUnknown(t *testing.T) {
	_, err := NewShuffler("bubble", rng.Entropy())
	assert.Error(t, err)

	s, err := NewShuffler("", rng.Entropy())
	require.NoError(t, err)
	assert.IsType(t, &KeySortShuffler{}, s)
}

func TestEvaluate(t *testing.T) {
	reversed := make(Permutation, Size)
	for i := range reversed {
		reversed[i] = Size - 1 - i
	}
	swapped := Identity()
	swapped[0], swapped[1] = swapped[1], swapped[0]

	tests := []struct {
		name string
		p    Permutation
		want Score
	}{
		{"identity", Identity(), Score{CorrectPositions: 52, TotalDisplacement: 0}},
		{"reversed", reversed, Score{CorrectPositions: 0, TotalDisplacement: 1352}},
		{"adjacent swap", swapped, Score{CorrectPositions: 50, TotalDisplacement: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(tt.p))
		})
	}
}

func TestEvaluateSortedIffAllCorrect(t *testing.T) {
	s, err := NewShuffler(AlgorithmFisherYates, rng.NewSeeded("a", "b", 3))
	require.NoError(t, err)

	p := Identity()
	for i := 0; i < 1000; i++ {
		s.Shuffle(p)
		score := Evaluate(p)
		require.GreaterOrEqual(t, score.TotalDisplacement, 0)
		require.Equal(t, score.Sorted(), score.CorrectPositions == Size)
	}
	assert.True(t, Evaluate(Identity()).Sorted())
}
