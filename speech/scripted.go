package speech

import "sync"

// ScriptedEngine is an in-process engine driven by the caller: tests and the
// headless test mode emit results, ends, and errors on demand. Sim* calls on
// an instance that is not the controller's current engine are harmless —
// generation checks turn them into no-ops downstream.
type ScriptedEngine struct {
	mu       sync.Mutex
	handlers Handlers
	cfg      StartConfig
	started  bool
	stopped  bool
	startErr error
	starts   int
	stops    int
	index    int
}

// NewScriptedEngine returns an idle scripted engine.
func NewScriptedEngine() *ScriptedEngine { return &ScriptedEngine{} }

// FailStarts makes subsequent Start calls return err (nil to clear).
func (e *ScriptedEngine) FailStarts(err error) {
	e.mu.Lock()
	e.startErr = err
	e.mu.Unlock()
}

func (e *ScriptedEngine) Start(cfg StartConfig, h Handlers) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.starts++
	if e.startErr != nil {
		return e.startErr
	}
	e.cfg = cfg
	e.handlers = h
	e.started = true
	e.stopped = false
	return nil
}

func (e *ScriptedEngine) Stop() {
	e.mu.Lock()
	e.stops++
	e.stopped = true
	e.mu.Unlock()
}

// Starts reports how many times Start was invoked.
func (e *ScriptedEngine) Starts() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.starts
}

// Stops reports how many times Stop was invoked.
func (e *ScriptedEngine) Stops() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stops
}

// Config returns the StartConfig from the most recent Start.
func (e *ScriptedEngine) Config() StartConfig {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg
}

// SimInterim emits a non-final result for the current stream index.
func (e *ScriptedEngine) SimInterim(text string) {
	e.emit(Result{Alternatives: []Alternative{{Text: text}}})
}

// SimFinal emits a final result with a confidence score and advances the
// stream index.
func (e *ScriptedEngine) SimFinal(text string, confidence float64) {
	e.emit(Result{Final: true, Alternatives: []Alternative{{Text: text, Confidence: confidence}}})
}

// SimEnd emits the end event and marks the instance spent.
func (e *ScriptedEngine) SimEnd() {
	e.mu.Lock()
	h := e.handlers
	e.started = false
	e.mu.Unlock()
	if h.End != nil {
		h.End()
	}
}

// SimError emits a non-fatal engine error.
func (e *ScriptedEngine) SimError(err error) {
	e.mu.Lock()
	h := e.handlers
	e.mu.Unlock()
	if h.Error != nil {
		h.Error(err)
	}
}

func (e *ScriptedEngine) emit(r Result) {
	e.mu.Lock()
	h := e.handlers
	idx := e.index
	if r.Final {
		e.index++
	}
	e.mu.Unlock()
	if h.Result != nil {
		h.Result(ResultEvent{Index: idx, Results: []Result{r}})
	}
}
