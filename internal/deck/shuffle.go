package deck

import (
	"fmt"
	"sort"

	"github.com/MJE43/everything-launcher/internal/rng"
)

// Algorithm names a shuffling strategy.
type Algorithm string

const (
	// AlgorithmKeySort assigns each card a random key in [0, 1) and sorts by it.
	AlgorithmKeySort Algorithm = "keysort"
	// AlgorithmFisherYates is the in-place random-swap shuffle.
	AlgorithmFisherYates Algorithm = "fisheryates"
)

// Shuffler permutes a deck in place.
type Shuffler interface {
	Shuffle(p Permutation)
}

// NewShuffler returns the shuffler for alg drawing from src.
// An empty alg selects AlgorithmKeySort.
func NewShuffler(alg Algorithm, src rng.Source) (Shuffler, error) {
	switch alg {
	case AlgorithmKeySort, "":
		return &KeySortShuffler{src: src}, nil
	case AlgorithmFisherYates:
		return &FisherYatesShuffler{src: src}, nil
	default:
		return nil, fmt.Errorf("deck: unknown shuffle algorithm %q", alg)
	}
}

// KeySortShuffler is a sort-based shuffle. Key ties are possible but
// negligible; the stable sort keeps the input order for them.
type KeySortShuffler struct {
	src  rng.Source
	keys []keyed
}

type keyed struct {
	key   float64
	value int
}

func (s *KeySortShuffler) Shuffle(p Permutation) {
	if cap(s.keys) < len(p) {
		s.keys = make([]keyed, len(p))
	}
	keys := s.keys[:len(p)]
	for i, v := range p {
		keys[i] = keyed{key: s.src.Float64(), value: v}
	}
	sort.SliceStable(keys, func(i, j int) bool { return keys[i].key < keys[j].key })
	for i, k := range keys {
		p[i] = k.value
	}
}

// FisherYatesShuffler is an exactly uniform shuffle.
type FisherYatesShuffler struct {
	src rng.Source
}

func (s *FisherYatesShuffler) Shuffle(p Permutation) {
	for i := len(p) - 1; i > 0; i-- {
		j := s.src.Intn(i + 1)
		p[i], p[j] = p[j], p[i]
	}
}
