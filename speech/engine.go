package speech

import "errors"

var (
	// ErrUnsupported means no recognition engine is available on this host.
	// Starting is disabled; the rest of the app keeps working.
	ErrUnsupported = errors.New("speech recognition not available")

	// ErrPermissionDenied means the microphone permission gate refused the
	// start attempt. The user may retry.
	ErrPermissionDenied = errors.New("microphone access denied")
)

// Alternative is one recognition hypothesis for a segment of the result
// stream. Confidence is 0 when the engine did not score the hypothesis.
type Alternative struct {
	Text       string
	Confidence float64
}

// Result is a single segment of the engine's result stream. A segment may be
// reported any number of times while interim and exactly once as final.
type Result struct {
	Final        bool
	Alternatives []Alternative
}

// Top returns the text of the first alternative, or "".
func (r Result) Top() string {
	if len(r.Alternatives) == 0 {
		return ""
	}
	return r.Alternatives[0].Text
}

// ResultEvent carries the tail of the result stream starting at Index.
// Events for a given index arrive monotonically.
type ResultEvent struct {
	Index   int
	Results []Result
}

// Handlers receive engine callbacks. An engine invokes them one at a time,
// in emission order. After End fires the instance emits nothing further.
type Handlers struct {
	Result func(ResultEvent)
	End    func()
	Error  func(error)
}

// StartConfig selects the engine's streaming behavior for one session.
type StartConfig struct {
	Language       string
	Continuous     bool
	InterimResults bool
}

// Engine is one streaming recognition instance. Start may be called at most
// once; after End the instance is spent and a fresh one must be acquired.
// Stop is idempotent and never fails, including on a never-started instance.
type Engine interface {
	Start(cfg StartConfig, h Handlers) error
	Stop()
}

// Factory acquires a fresh engine instance. The controller calls it on every
// start and every automatic restart; instances are never reused across an
// end event.
type Factory func() (Engine, error)

// AudioSource supplies 16-bit little-endian mono PCM to a streaming engine.
// Start installs the frame callback and begins capture; Stop halts capture
// and detaches it. Both are idempotent.
type AudioSource interface {
	Start(fn func(pcm []byte)) error
	Stop()
}
