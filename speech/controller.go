package speech

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jagu382/LiveVoiceToText/log"
)

// Status is a snapshot of the controller's observable state. The UI reads
// it; nothing else couples the two.
type Status struct {
	Listening        bool
	Supported        bool
	PermissionDenied bool
	Language         string
	Final            string
	Interim          string
	Confidence       float64
	HasConfidence    bool
	LastError        string
}

// Options configure a Controller.
type Options struct {
	Engine       Factory        // nil means recognition is unsupported on this host
	Permission   PermissionGate // nil means no gate (always granted)
	Language     string
	RestartDelay time.Duration // 0 means DefaultRestartDelay
}

// Controller owns the lifecycle of one recognition session: it sequences
// permission before a start, feeds engine results into the transcript, and
// re-acquires the engine when it ends while the user still wants to listen.
// The engine handle is owned exclusively by the controller.
type Controller struct {
	mu         sync.Mutex
	factory    Factory
	gate       PermissionGate
	lang       string
	listening  bool // desired state; the engine's actual state may lag
	denied     bool
	lastErr    error
	engine     Engine
	gen        uint64 // engine generation; events from older instances are ignored
	transcript Transcript
	restart    *restarter
	updates    chan Status
	done       bool
}

// NewController builds an idle controller. It never fails: with a nil engine
// factory it reports Supported=false and refuses to start.
func NewController(opts Options) *Controller {
	gate := opts.Permission
	if gate == nil {
		gate = GrantAlways()
	}
	return &Controller{
		factory: opts.Engine,
		gate:    gate,
		lang:    opts.Language,
		restart: newRestarter(opts.RestartDelay),
		updates: make(chan Status, 1),
	}
}

// Updates returns a coalescing snapshot channel: the latest Status wins, a
// slow reader never blocks the controller. Closed by Teardown.
func (c *Controller) Updates() <-chan Status { return c.updates }

// Status returns the current snapshot.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.statusLocked()
}

// RequestStart asks for a session. Already listening is a no-op. The
// permission gate runs on every attempt; on denial the desired state stays
// idle, PermissionDenied is raised, and the engine is never started.
func (c *Controller) RequestStart(ctx context.Context) error {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return nil
	}
	if c.factory == nil {
		c.mu.Unlock()
		return ErrUnsupported
	}
	if c.listening {
		c.mu.Unlock()
		return nil
	}
	gate := c.gate
	c.mu.Unlock()

	granted, err := gate.Acquire(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || c.listening {
		return nil
	}
	if err != nil || !granted {
		c.denied = true
		if err != nil {
			c.lastErr = err
		}
		c.publishLocked()
		return ErrPermissionDenied
	}
	c.denied = false
	c.listening = true
	if err := c.startLocked(); err != nil {
		c.listening = false
		c.lastErr = err
		c.publishLocked()
		return err
	}
	c.publishLocked()
	return nil
}

// RequestStop ends the session. Stopping an idle or never-started session is
// a no-op; stop-time engine failures are swallowed.
func (c *Controller) RequestStop() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.listening = false
	c.restart.Cancel()
	eng := c.engine
	c.engine = nil
	c.gen++ // late events from the superseded instance become no-ops
	c.publishLocked()
	c.mu.Unlock()

	if eng != nil {
		eng.Stop()
	}
}

// SetLanguage records the tag immediately. A running engine is not
// hot-reconfigured: the tag takes effect on the next engine acquisition.
func (c *Controller) SetLanguage(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.lang = tag
	c.publishLocked()
}

// Clear resets the transcript. It never stops or restarts the session.
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done {
		return
	}
	c.transcript.Clear()
	c.publishLocked()
}

// Teardown stops everything, detaches the engine, cancels any pending
// restart, and closes the updates channel. Safe to call repeatedly.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.done {
		c.mu.Unlock()
		return
	}
	c.done = true
	c.listening = false
	c.restart.Cancel()
	eng := c.engine
	c.engine = nil
	c.gen++
	close(c.updates)
	c.mu.Unlock()

	if eng != nil {
		eng.Stop()
	}
}

// startLocked acquires a fresh engine instance and starts it for the current
// language. Callers hold c.mu; engines deliver callbacks from their own
// goroutine, never synchronously from Start.
func (c *Controller) startLocked() error {
	eng, err := c.factory()
	if err != nil {
		return fmt.Errorf("acquire engine: %w", err)
	}
	c.gen++
	gen := c.gen
	cfg := StartConfig{
		Language:       c.lang,
		Continuous:     true,
		InterimResults: true,
	}
	h := Handlers{
		Result: func(ev ResultEvent) { c.handleResult(gen, ev) },
		End:    func() { c.handleEnd(gen) },
		Error:  func(err error) { c.handleError(gen, err) },
	}
	if err := eng.Start(cfg, h); err != nil {
		return fmt.Errorf("engine start: %w", err)
	}
	c.engine = eng
	c.lastErr = nil // a live engine supersedes whatever failed before it
	return nil
}

func (c *Controller) handleResult(gen uint64, ev ResultEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || gen != c.gen {
		return
	}
	c.transcript.Merge(ev)
	c.publishLocked()
}

func (c *Controller) handleEnd(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || gen != c.gen {
		return
	}
	// Stop is idempotent; releasing the spent engine here frees whatever it
	// still holds (audio capture included) before a successor starts.
	if c.engine != nil {
		c.engine.Stop()
		c.engine = nil
	}
	log.EngineEnd(c.listening)
	if !c.listening {
		return // ended intentionally
	}
	c.restart.Schedule(c.restartNow)
}

func (c *Controller) handleError(gen uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || gen != c.gen {
		return
	}
	// Non-fatal: an error may still be followed by an end event, which is
	// what drives the restart decision.
	c.lastErr = err
	c.publishLocked()
}

// restartNow runs when the debounce fires. A restart attempt that fails is
// recorded and waits for the next end event instead of rescheduling itself.
func (c *Controller) restartNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done || !c.listening {
		return
	}
	if err := c.startLocked(); err != nil {
		c.lastErr = err
	}
	c.publishLocked()
}

func (c *Controller) statusLocked() Status {
	conf, scored := c.transcript.Confidence()
	st := Status{
		Listening:        c.listening,
		Supported:        c.factory != nil,
		PermissionDenied: c.denied,
		Language:         c.lang,
		Final:            c.transcript.Final(),
		Interim:          c.transcript.Interim(),
		Confidence:       conf,
		HasConfidence:    scored,
	}
	if c.lastErr != nil {
		st.LastError = c.lastErr.Error()
	}
	return st
}

func (c *Controller) publishLocked() {
	if c.done {
		return
	}
	st := c.statusLocked()
	select {
	case c.updates <- st:
	default:
		// Displace the stale snapshot.
		select {
		case <-c.updates:
		default:
		}
		select {
		case c.updates <- st:
		default:
		}
	}
}
