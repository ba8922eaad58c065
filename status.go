package main

import (
	"strings"

	"github.com/jagu382/LiveVoiceToText/speech"
)

type sessionEdge int

const (
	sessionUnchanged sessionEdge = iota
	sessionStarted
	sessionEnded
)

// statusTracker turns the controller's snapshot stream back into edges so
// the event loop logs each session transition, transcript line, and
// confidence value once. Snapshots coalesce, so it diffs against the last
// one seen rather than counting events.
type statusTracker struct {
	listening  bool
	final      string
	confidence float64
	scored     bool
}

func newStatusTracker() *statusTracker {
	return &statusTracker{}
}

func (tr *statusTracker) sessionEdge(st speech.Status) sessionEdge {
	was := tr.listening
	tr.listening = st.Listening
	switch {
	case st.Listening && !was:
		return sessionStarted
	case !st.Listening && was:
		return sessionEnded
	}
	return sessionUnchanged
}

// transcriptDelta returns the text finalized since the previous snapshot.
// Committed text is append-only, so the previous value is always a prefix.
func (tr *statusTracker) transcriptDelta(st speech.Status) string {
	if st.Final == tr.final {
		return ""
	}
	delta := strings.TrimSpace(strings.TrimPrefix(st.Final, tr.final))
	tr.final = st.Final
	return delta
}

func (tr *statusTracker) confidenceChange(st speech.Status) (float64, bool) {
	if !st.HasConfidence {
		tr.scored = false
		return 0, false
	}
	if tr.scored && st.Confidence == tr.confidence {
		return 0, false
	}
	tr.confidence = st.Confidence
	tr.scored = true
	return st.Confidence, true
}
