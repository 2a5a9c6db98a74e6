package search

import (
	"time"

	"github.com/MJE43/everything-launcher/internal/deck"
)

// DefaultBatchSize is the number of shuffles per batch when none is configured.
const DefaultBatchSize = 1000

// State is the run lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateStopped State = "stopped"
)

// Snapshot is the read-only view published after every batch.
type Snapshot struct {
	RunID             uint64           `json:"runId"`
	State             State            `json:"state"`
	Current           deck.Permutation `json:"current"`
	Stats             deck.Score       `json:"stats"`
	Best              BestResult       `json:"best"`
	Solved            bool             `json:"solved"`
	TotalShuffles     int64            `json:"totalShuffles"`
	Batches           int64            `json:"batches"`
	BatchSize         int              `json:"batchSize"`
	ShufflesPerSecond float64          `json:"shufflesPerSecond"`
	StartedAt         time.Time        `json:"startedAt"`
}

func (s Snapshot) clone() Snapshot {
	s.Current = s.Current.Clone()
	s.Best = s.Best.clone()
	return s
}

// Run is the mutable state of one search. It is owned by a single goroutine;
// only the Snapshots it returns are shared.
type Run struct {
	shuffler  deck.Shuffler
	tracker   *Tracker
	batchSize int

	identity deck.Permutation
	work     deck.Permutation

	total   int64
	batches int64
}

// NewRun creates a run with a zero counter and the sentinel best.
// A batchSize <= 0 selects DefaultBatchSize.
func NewRun(shuffler deck.Shuffler, batchSize int) *Run {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Run{
		shuffler:  shuffler,
		tracker:   NewTracker(),
		batchSize: batchSize,
		identity:  deck.Identity(),
		work:      make(deck.Permutation, deck.Size),
	}
}

// Batch performs batchSize shuffle+score iterations and returns the
// resulting snapshot. Current is the last permutation of the batch.
func (r *Run) Batch() Snapshot {
	var stats deck.Score
	for i := 0; i < r.batchSize; i++ {
		copy(r.work, r.identity)
		r.shuffler.Shuffle(r.work)
		stats = deck.Evaluate(r.work)
		r.tracker.Observe(r.work, stats)
	}
	r.total += int64(r.batchSize)
	r.batches++

	best := r.tracker.Best()
	return Snapshot{
		Current:       r.work.Clone(),
		Stats:         stats,
		Best:          best,
		Solved:        best.Found && best.Score.Sorted(),
		TotalShuffles: r.total,
		Batches:       r.batches,
		BatchSize:     r.batchSize,
	}
}

// TotalShuffles returns the cumulative permutation count.
func (r *Run) TotalShuffles() int64 {
	return r.total
}
