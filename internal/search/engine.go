// Package search runs the shuffle search: repeated shuffle, score and
// best-tracking in fixed batches on a background goroutine, publishing a
// snapshot after every batch.
package search

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/MJE43/everything-launcher/internal/deck"
	"github.com/MJE43/everything-launcher/internal/rng"
)

// DefaultFrameInterval is the pause between batches, one display frame at 60Hz.
const DefaultFrameInterval = 16 * time.Millisecond

// ErrRunning is returned by Start while a run is active.
var ErrRunning = errors.New("search: already running")

// EventEmitter receives every published snapshot.
type EventEmitter interface {
	EmitShuffleState(snap Snapshot)
}

// Options configure a run.
type Options struct {
	// BatchSize is the number of shuffles between yields. Defaults to DefaultBatchSize.
	BatchSize int
	// FrameInterval is how long the loop waits after each batch. Zero only
	// yields the processor.
	FrameInterval time.Duration
	// MaxBatches stops the run after that many batches. Zero means unbounded.
	MaxBatches int64
	// Algorithm selects the shuffler. Defaults to deck.AlgorithmKeySort.
	Algorithm deck.Algorithm
	// Source supplies randomness. Defaults to rng.Entropy().
	Source rng.Source
	// Shuffler overrides Algorithm and Source when set.
	Shuffler deck.Shuffler
}

// Engine owns the search loop lifecycle.
type Engine struct {
	mu     sync.RWMutex
	state  State
	snap   Snapshot
	runID  uint64
	cancel context.CancelFunc
	done   chan struct{}

	emitter EventEmitter
}

// NewEngine creates an idle engine. emitter may be nil.
func NewEngine(emitter EventEmitter) *Engine {
	return &Engine{
		state:   StateIdle,
		snap:    Snapshot{State: StateIdle, Best: NoBest()},
		emitter: emitter,
	}
}

// Start resets the counter and best result and begins a new run. The run
// ends when Stop is called, ctx is cancelled or MaxBatches is reached.
func (e *Engine) Start(ctx context.Context, opts Options) error {
	shuffler := opts.Shuffler
	if shuffler == nil {
		if opts.Source == nil {
			opts.Source = rng.Entropy()
		}
		var err error
		if shuffler, err = deck.NewShuffler(opts.Algorithm, opts.Source); err != nil {
			return err
		}
	}
	if opts.FrameInterval < 0 {
		return fmt.Errorf("search: negative frame interval %s", opts.FrameInterval)
	}
	run := NewRun(shuffler, opts.BatchSize)

	e.mu.Lock()
	if e.state == StateRunning {
		e.mu.Unlock()
		return ErrRunning
	}
	e.runID++
	runID := e.runID
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	e.cancel = cancel
	e.done = done
	e.state = StateRunning
	e.snap = Snapshot{
		RunID:     runID,
		State:     StateRunning,
		Best:      NoBest(),
		BatchSize: run.batchSize,
		StartedAt: time.Now(),
	}
	e.mu.Unlock()

	zerolog.Ctx(ctx).Info().
		Uint64("run", runID).
		Int("batch_size", run.batchSize).
		Str("algorithm", string(opts.Algorithm)).
		Dur("frame_interval", opts.FrameInterval).
		Msg("shuffle search started")

	e.emit()
	go e.loop(runCtx, runID, run, opts, done)
	return nil
}

// Stop asks the loop to finish its current batch and exit, and waits for it.
// Stopping an engine that is not running does nothing.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	cancel, done := e.cancel, e.done
	e.mu.Unlock()

	cancel()
	<-done
}

// Done returns a channel closed when the current run's loop has exited.
// It is nil before the first Start.
func (e *Engine) Done() <-chan struct{} {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.done
}

// GetState returns a copy of the latest snapshot.
func (e *Engine) GetState() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap.clone()
}

func (e *Engine) loop(ctx context.Context, runID uint64, run *Run, opts Options, done chan struct{}) {
	defer close(done)
	logger := zerolog.Ctx(ctx)
	solved := false

	for {
		// The stop signal is only honoured between batches.
		if ctx.Err() != nil {
			e.finish(runID)
			logger.Info().Uint64("run", runID).Int64("shuffles", run.TotalShuffles()).Msg("shuffle search stopped")
			return
		}

		snap := run.Batch()
		if !e.publish(runID, snap) {
			return
		}
		if snap.Solved && !solved {
			solved = true
			logger.Info().Uint64("run", runID).Int64("shuffles", snap.TotalShuffles).Msg("sorted deck found")
		}
		if opts.MaxBatches > 0 && snap.Batches >= opts.MaxBatches {
			e.finish(runID)
			logger.Debug().Uint64("run", runID).Int64("batches", snap.Batches).Msg("batch limit reached")
			return
		}

		if opts.FrameInterval == 0 {
			runtime.Gosched()
			continue
		}
		timer := time.NewTimer(opts.FrameInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
}

// publish installs snap if runID is still the current run.
func (e *Engine) publish(runID uint64, snap Snapshot) bool {
	e.mu.Lock()
	if e.runID != runID || e.state != StateRunning {
		e.mu.Unlock()
		return false
	}
	snap.RunID = runID
	snap.State = StateRunning
	snap.StartedAt = e.snap.StartedAt
	if elapsed := time.Since(snap.StartedAt).Seconds(); elapsed > 0 {
		snap.ShufflesPerSecond = float64(snap.TotalShuffles) / elapsed
	}
	e.snap = snap
	e.mu.Unlock()

	e.emit()
	return true
}

func (e *Engine) finish(runID uint64) {
	e.mu.Lock()
	if e.runID != runID {
		e.mu.Unlock()
		return
	}
	e.state = StateStopped
	e.snap.State = StateStopped
	if e.cancel != nil {
		e.cancel()
	}
	e.mu.Unlock()

	e.emit()
}

func (e *Engine) emit() {
	if e.emitter == nil {
		return
	}
	e.emitter.EmitShuffleState(e.GetState())
}
