package main

import (
	"testing"

	"github.com/jagu382/LiveVoiceToText/speech"
)

func TestStatusTrackerSessionEdges(t *testing.T) {
	tr := newStatusTracker()

	if got := tr.sessionEdge(speech.Status{Listening: true}); got != sessionStarted {
		t.Errorf("first listening snapshot = %v, want sessionStarted", got)
	}
	if got := tr.sessionEdge(speech.Status{Listening: true}); got != sessionUnchanged {
		t.Errorf("repeated listening snapshot = %v, want sessionUnchanged", got)
	}
	if got := tr.sessionEdge(speech.Status{}); got != sessionEnded {
		t.Errorf("stop snapshot = %v, want sessionEnded", got)
	}
	if got := tr.sessionEdge(speech.Status{}); got != sessionUnchanged {
		t.Errorf("repeated idle snapshot = %v, want sessionUnchanged", got)
	}
}

func TestStatusTrackerTranscriptDelta(t *testing.T) {
	tr := newStatusTracker()

	if got := tr.transcriptDelta(speech.Status{Final: "hello"}); got != "hello" {
		t.Errorf("delta = %q, want hello", got)
	}
	if got := tr.transcriptDelta(speech.Status{Final: "hello"}); got != "" {
		t.Errorf("unchanged final produced delta %q", got)
	}
	if got := tr.transcriptDelta(speech.Status{Final: "hello world"}); got != "world" {
		t.Errorf("delta = %q, want world", got)
	}
}

func TestStatusTrackerConfidenceLoggedOncePerValue(t *testing.T) {
	tr := newStatusTracker()

	if _, changed := tr.confidenceChange(speech.Status{}); changed {
		t.Error("unscored snapshot reported a confidence change")
	}

	scored := speech.Status{HasConfidence: true, Confidence: 0.9}
	if conf, changed := tr.confidenceChange(scored); !changed || conf != 0.9 {
		t.Errorf("first scored snapshot = (%v, %v), want (0.9, true)", conf, changed)
	}
	// Interim updates republish the same snapshot fields; the value must
	// not be re-logged.
	if _, changed := tr.confidenceChange(scored); changed {
		t.Error("repeated confidence reported as changed")
	}
	if conf, changed := tr.confidenceChange(speech.Status{HasConfidence: true, Confidence: 0.7}); !changed || conf != 0.7 {
		t.Errorf("new confidence = (%v, %v), want (0.7, true)", conf, changed)
	}
}

func TestStatusTrackerConfidenceResetOnClear(t *testing.T) {
	tr := newStatusTracker()

	scored := speech.Status{HasConfidence: true, Confidence: 0.9}
	tr.confidenceChange(scored)
	tr.confidenceChange(speech.Status{}) // Clear drops the score
	if _, changed := tr.confidenceChange(scored); !changed {
		t.Error("same value after a clear should log again")
	}
}
