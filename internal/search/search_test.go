package search

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/MJE43/everything-launcher/internal/deck"
	"github.com/MJE43/everything-launcher/internal/rng"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingEmitter struct {
	mu    sync.Mutex
	snaps []Snapshot
}

func (r *recordingEmitter) EmitShuffleState(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
}

func (r *recordingEmitter) all() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Snapshot(nil), r.snaps...)
}

func seededShuffler(t *testing.T) deck.Shuffler {
	t.Helper()
	s, err := deck.NewShuffler(deck.AlgorithmKeySort, rng.NewSeeded("server", "client", 1))
	require.NoError(t, err)
	return s
}

func TestTrackerSentinel(t *testing.T) {
	best := NewTracker().Best()
	assert.False(t, best.Found)
	assert.Nil(t, best.Deck)
	assert.Equal(t, math.MaxInt, best.Score.TotalDisplacement)
}

func TestTrackerKeepsBetterResult(t *testing.T) {
	p1, p2, p3 := deck.Identity(), deck.Identity(), deck.Identity()
	p1[0], p1[1] = p1[1], p1[0]
	p2[2], p2[3] = p2[3], p2[2]
	p3[4], p3[5] = p3[5], p3[4]

	tr := NewTracker()
	assert.True(t, tr.Observe(p1, deck.Score{TotalDisplacement: 30}))
	assert.False(t, tr.Observe(p2, deck.Score{TotalDisplacement: 45}))
	assert.True(t, tr.Observe(p3, deck.Score{TotalDisplacement: 10}))

	best := tr.Best()
	assert.True(t, best.Found)
	assert.Equal(t, 10, best.Score.TotalDisplacement)
	assert.Equal(t, p3, best.Deck)
}

func TestTrackerTiesDoNotReplace(t *testing.T) {
	first, second := deck.Identity(), deck.Identity()
	second[0], second[1] = second[1], second[0]

	tr := NewTracker()
	tr.Observe(first, deck.Score{TotalDisplacement: 20})
	assert.False(t, tr.Observe(second, deck.Score{TotalDisplacement: 20}))
	assert.Equal(t, first, tr.Best().Deck)
}

func TestTrackerCopiesDeck(t *testing.T) {
	p := deck.Identity()
	tr := NewTracker()
	tr.Observe(p, deck.Evaluate(p))
	p[0], p[1] = p[1], p[0]

	assert.Equal(t, deck.Identity(), tr.Best().Deck)

	best := tr.Best()
	best.Deck[0] = 99
	assert.Equal(t, 0, tr.Best().Deck[0])
}

// identityShuffler leaves the deck in identity order.
type identityShuffler struct{}

func (identityShuffler) Shuffle(deck.Permutation) {}

func TestRunReportsSolved(t *testing.T) {
	snap := NewRun(seededShuffler(t), 10).Batch()
	assert.False(t, snap.Solved)

	snap = NewRun(identityShuffler{}, 10).Batch()
	assert.True(t, snap.Solved)
	assert.Equal(t, 0, snap.Best.Score.TotalDisplacement)
}

func TestEngineKeepsRunningWhenSolved(t *testing.T) {
	eng := NewEngine(nil)
	require.NoError(t, eng.Start(context.Background(), Options{BatchSize: 5, MaxBatches: 3, Shuffler: identityShuffler{}}))
	<-eng.Done()

	snap := eng.GetState()
	assert.True(t, snap.Solved)
	assert.Equal(t, int64(3), snap.Batches)
}

func TestRunCountsBatches(t *testing.T) {
	const batches, size = 7, 250
	run := NewRun(seededShuffler(t), size)

	var snap Snapshot
	for i := 0; i < batches; i++ {
		snap = run.Batch()
	}
	assert.Equal(t, int64(batches*size), snap.TotalShuffles)
	assert.Equal(t, int64(batches), snap.Batches)
	assert.Equal(t, size, snap.BatchSize)
	require.NoError(t, snap.Current.Validate())
	assert.Equal(t, deck.Evaluate(snap.Current), snap.Stats)
}

func TestRunDefaultBatchSize(t *testing.T) {
	run := NewRun(seededShuffler(t), 0)
	assert.Equal(t, int64(DefaultBatchSize), run.Batch().TotalShuffles)
}

func TestRunBestIsMonotonic(t *testing.T) {
	run := NewRun(seededShuffler(t), 100)

	prev := math.MaxInt
	for i := 0; i < 50; i++ {
		snap := run.Batch()
		require.True(t, snap.Best.Found)
		require.LessOrEqual(t, snap.Best.Score.TotalDisplacement, prev, "batch %d", i)
		require.LessOrEqual(t, snap.Best.Score.TotalDisplacement, snap.Stats.TotalDisplacement)
		require.Equal(t, deck.Evaluate(snap.Best.Deck), snap.Best.Score)
		prev = snap.Best.Score.TotalDisplacement
	}
}

func TestEngineBoundedRun(t *testing.T) {
	const batches, size = 12, 100
	em := &recordingEmitter{}
	eng := NewEngine(em)

	require.NoError(t, eng.Start(context.Background(), Options{
		BatchSize:  size,
		MaxBatches: batches,
		Source:     rng.NewSeeded("server", "client", 9),
	}))
	<-eng.Done()

	snap := eng.GetState()
	assert.Equal(t, StateStopped, snap.State)
	assert.Equal(t, int64(batches*size), snap.TotalShuffles)
	assert.Equal(t, int64(batches), snap.Batches)

	prev := math.MaxInt
	for _, s := range em.all() {
		assert.LessOrEqual(t, s.Best.Score.TotalDisplacement, prev)
		prev = s.Best.Score.TotalDisplacement
	}
}

func TestEngineStopIsIdempotent(t *testing.T) {
	eng := NewEngine(nil)
	require.NoError(t, eng.Start(context.Background(), Options{BatchSize: 50}))

	require.Eventually(t, func() bool {
		return eng.GetState().Batches > 0
	}, 2*time.Second, 5*time.Millisecond)

	eng.Stop()
	first := eng.GetState()
	assert.Equal(t, StateStopped, first.State)
	assert.Equal(t, first.Batches*50, first.TotalShuffles)

	eng.Stop()
	assert.Equal(t, first, eng.GetState())
}

// gatedShuffler blocks its first Shuffle call until release is closed.
type gatedShuffler struct {
	inner   deck.Shuffler
	calls   atomic.Int64
	entered chan struct{}
	release chan struct{}
}

func (g *gatedShuffler) Shuffle(p deck.Permutation) {
	if g.calls.Add(1) == 1 {
		close(g.entered)
		<-g.release
	}
	g.inner.Shuffle(p)
}

func TestEngineStopFinishesInFlightBatch(t *testing.T) {
	const size = 500
	g := &gatedShuffler{
		inner:   seededShuffler(t),
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}
	em := &recordingEmitter{}
	eng := NewEngine(em)
	require.NoError(t, eng.Start(context.Background(), Options{
		BatchSize:     size,
		FrameInterval: time.Hour,
		Shuffler:      g,
	}))

	<-g.entered
	stopped := make(chan struct{})
	go func() {
		eng.Stop()
		close(stopped)
	}()

	// Stop must wait for the batch in progress.
	assert.Never(t, func() bool {
		select {
		case <-stopped:
			return true
		default:
			return false
		}
	}, 50*time.Millisecond, 5*time.Millisecond)

	close(g.release)
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}

	snap := eng.GetState()
	assert.Equal(t, StateStopped, snap.State)
	assert.Equal(t, int64(size), snap.TotalShuffles)
	assert.Equal(t, int64(1), snap.Batches)
	assert.Equal(t, int64(size), g.calls.Load())
	assert.True(t, snap.Best.Found)

	var published []int64
	for _, s := range em.all() {
		if s.State == StateRunning && s.Batches > 0 {
			published = append(published, s.Batches)
		}
	}
	assert.Equal(t, []int64{1}, published)
}

func TestEngineStopBeforeStart(t *testing.T) {
	eng := NewEngine(nil)
	eng.Stop()
	snap := eng.GetState()
	assert.Equal(t, StateIdle, snap.State)
	assert.False(t, snap.Best.Found)
}

func TestEngineStartWhileRunning(t *testing.T) {
	eng := NewEngine(nil)
	require.NoError(t, eng.Start(context.Background(), Options{BatchSize: 10, FrameInterval: time.Millisecond}))
	defer eng.Stop()

	assert.ErrorIs(t, eng.Start(context.Background(), Options{}), ErrRunning)
}

func TestEngineRestartResetsState(t *testing.T) {
	eng := NewEngine(nil)
	ctx := context.Background()

	require.NoError(t, eng.Start(ctx, Options{BatchSize: 100, MaxBatches: 5}))
	<-eng.Done()
	first := eng.GetState()
	require.Equal(t, int64(500), first.TotalShuffles)

	require.NoError(t, eng.Start(ctx, Options{BatchSize: 100, MaxBatches: 2}))
	<-eng.Done()
	second := eng.GetState()
	assert.Equal(t, int64(200), second.TotalShuffles)
	assert.Greater(t, second.RunID, first.RunID)
}

func TestEngineContextCancelStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	eng := NewEngine(nil)
	require.NoError(t, eng.Start(ctx, Options{BatchSize: 10, FrameInterval: time.Millisecond}))

	cancel()
	select {
	case <-eng.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after context cancel")
	}
	assert.Equal(t, StateStopped, eng.GetState().State)
}

func TestEngineRejectsBadOptions(t *testing.T) {
	eng := NewEngine(nil)
	assert.Error(t, eng.Start(context.Background(), Options{Algorithm: "bubble"}))
	assert.Error(t, eng.Start(context.Background(), Options{FrameInterval: -time.Second}))
	assert.Equal(t, StateIdle, eng.GetState().State)
}

func TestSnapshotIsACopy(t *testing.T) {
	eng := NewEngine(nil)
	require.NoError(t, eng.Start(context.Background(), Options{BatchSize: 10, MaxBatches: 1}))
	<-eng.Done()

	snap := eng.GetState()
	snap.Current[0] = -1
	snap.Best.Deck[0] = -1
	again := eng.GetState()
	assert.NoError(t, again.Current.Validate())
	assert.NoError(t, again.Best.Deck.Validate())
}

func BenchmarkRunBatch(b *testing.B) {
	s, _ := deck.NewShuffler(deck.AlgorithmKeySort, rng.Entropy())
	run := NewRun(s, DefaultBatchSize)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		run.Batch()
	}
}
