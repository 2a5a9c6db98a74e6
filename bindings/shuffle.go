package bindings

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	wruntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/MJE43/everything-launcher/internal/deck"
	"github.com/MJE43/everything-launcher/internal/rng"
	"github.com/MJE43/everything-launcher/internal/search"
)

// ShuffleStateEvent is the Wails event carrying each published snapshot.
const ShuffleStateEvent = "shuffle:state"

// ShuffleModule is the Wails-bound control surface for the shuffle search.
type ShuffleModule struct {
	mu      sync.Mutex
	ctx     context.Context
	engine  *search.Engine
	opts    search.Options
	logger  zerolog.Logger
	emitter *wailsShuffleEmitter
}

// wailsShuffleEmitter forwards snapshots to the frontend as Wails events.
type wailsShuffleEmitter struct {
	mu  sync.RWMutex
	ctx context.Context
}

func (e *wailsShuffleEmitter) EmitShuffleState(snap search.Snapshot) {
	e.mu.RLock()
	ctx := e.ctx
	e.mu.RUnlock()
	if ctx == nil {
		return
	}
	wruntime.EventsEmit(ctx, ShuffleStateEvent, snap)
}

func (e *wailsShuffleEmitter) setContext(ctx context.Context) {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()
}

// NewShuffleModule creates the module. opts.Source is ignored; each run
// picks its own source.
func NewShuffleModule(opts search.Options, logger zerolog.Logger) *ShuffleModule {
	emitter := &wailsShuffleEmitter{}
	opts.Source = nil
	return &ShuffleModule{
		engine:  search.NewEngine(emitter),
		opts:    opts,
		logger:  logger.With().Str("component", "shuffle").Logger(),
		emitter: emitter,
	}
}

// Startup is called by Wails on application startup.
func (m *ShuffleModule) Startup(ctx context.Context) {
	m.mu.Lock()
	m.ctx = ctx
	m.mu.Unlock()
	m.emitter.setContext(ctx)
}

// Start (re)starts the search with fresh entropy. A running search is
// stopped first.
func (m *ShuffleModule) Start() error {
	return m.start(rng.Entropy())
}

// StartSeeded starts a reproducible search driven by the given seeds.
// Identical seeds and options replay the same sequence of decks.
func (m *ShuffleModule) StartSeeded(serverSeed, clientSeed string) error {
	return m.start(rng.NewSeeded(serverSeed, clientSeed, 0))
}

func (m *ShuffleModule) start(src rng.Source) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.engine.Stop()

	ctx := m.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	opts := m.opts
	opts.Source = src
	return m.engine.Start(m.logger.WithContext(ctx), opts)
}

// Stop halts the search after its current batch. The last snapshot stays
// readable.
func (m *ShuffleModule) Stop() {
	m.engine.Stop()
}

// GetState returns the most recently published snapshot.
func (m *ShuffleModule) GetState() search.Snapshot {
	return m.engine.GetState()
}

// Cards maps card values to faces for rendering.
func (m *ShuffleModule) Cards(values []int) []deck.Card {
	return deck.Permutation(values).Cards()
}
