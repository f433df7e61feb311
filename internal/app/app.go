// Package app runs a pose source through a scoring session.
package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ayusman/lungescore/internal/hook"
	"github.com/ayusman/lungescore/internal/pose"
	"github.com/ayusman/lungescore/internal/session"
	"github.com/ayusman/lungescore/internal/store"
)

// Config holds configuration options for the application.
type Config struct {
	// Store resolves Reference. Optional.
	Store *store.Store
	// Reference is the ID or name of a stored reference waveform. Empty uses the
	// session's own references.
	Reference string
	// Session is the scoring configuration.
	Session session.Config
	// FPS paces delivery for recordings. Zero replays as fast as possible.
	FPS int
	// HookDir holds event hooks. Empty disables hooks.
	HookDir string
	// HookTimeout bounds one hook run. Zero means DefaultHookTimeout.
	HookTimeout time.Duration
}

// DefaultHookTimeout is used when Config.HookTimeout is zero.
const DefaultHookTimeout = 5 * time.Second

// App feeds frames from a Source into one Session.
type App struct {
	config  Config
	source  pose.Source
	session *session.Session

	onResult func(session.Result)

	hooks    *hook.Manager
	executor *hook.Executor
	hookWG   sync.WaitGroup

	mu      sync.RWMutex
	summary Summary
	cancel  context.CancelFunc
	done    chan struct{}
}

// New creates an App, loading the stored reference if one is named.
func New(config Config) (*App, error) {
	cfg := config.Session
	if config.Reference != "" {
		if config.Store == nil {
			return nil, fmt.Errorf("reference %q requested without a store", config.Reference)
		}
		ref, set, err := config.Store.Load(config.Reference)
		if err != nil {
			return nil, fmt.Errorf("load reference %q: %w", config.Reference, err)
		}
		cfg.References = &set
		cfg.Frequency = set.Len()
		log.Printf("Scoring against reference %s (%d frames)", ref.Name, cfg.Frequency)
	}

	s, err := session.New(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{config: config, session: s}

	if config.HookDir != "" {
		a.hooks = hook.NewManager(config.HookDir)
		if err := a.hooks.Discover(); err != nil {
			return nil, fmt.Errorf("discover hooks: %w", err)
		}
		timeout := config.HookTimeout
		if timeout == 0 {
			timeout = DefaultHookTimeout
		}
		a.executor = hook.NewExecutor(timeout)
		log.Printf("Loaded %d hooks from %s", len(a.hooks.List()), config.HookDir)
	}

	return a, nil
}

// SetSource sets the frame source. It must be called before Run or Start.
func (a *App) SetSource(src pose.Source) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.source = src
}

// OnResult registers a callback invoked with every frame's result, in order.
func (a *App) OnResult(fn func(session.Result)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onResult = fn
}

// Session returns the scoring session.
func (a *App) Session() *session.Session {
	return a.session
}

// Summary returns the running totals.
func (a *App) Summary() Summary {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.summary
}

// Run processes frames until the source is exhausted or ctx is done.
func (a *App) Run(ctx context.Context) (Summary, error) {
	a.mu.RLock()
	src := a.source
	a.mu.RUnlock()

	if src == nil {
		return Summary{}, fmt.Errorf("no frame source set")
	}

	err := a.runPipeline(ctx, src)
	return a.Summary(), err
}

// Start runs the pipeline in the background until Stop is called or the source ends.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// Don't start if already running
	if a.done != nil {
		return nil
	}
	if a.source == nil {
		return fmt.Errorf("no frame source set")
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.done = make(chan struct{})

	go func(src pose.Source, done chan struct{}) {
		defer close(done)
		if err := a.runPipeline(ctx, src); err != nil {
			log.Printf("Pipeline error: %v", err)
		}
	}(a.source, a.done)

	log.Println("Scoring pipeline started")
	return nil
}

// Stop halts the pipeline, waits for it to exit, and closes the source.
func (a *App) Stop() {
	a.mu.Lock()
	cancel, done, src := a.cancel, a.done, a.source
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if src != nil {
		// Closing unblocks a source waiting on its producer.
		if err := src.Close(); err != nil {
			log.Printf("Error closing source: %v", err)
		}
	}
	if done != nil {
		<-done
	}

	log.Println("Scoring pipeline stopped")
}
