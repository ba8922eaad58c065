package speech

import "strings"

// Transcript merges ordered engine results into committed text plus a
// volatile interim tail. The committed text is the durable record; the
// interim tail is replaced wholesale by every batch that carries no final
// segment and cleared by any batch that does.
type Transcript struct {
	committed  string
	interim    string
	confidence float64
	scored     bool
}

// MergeDelta describes what a single Merge changed.
type MergeDelta struct {
	Committed  string // text committed by this merge, "" if none
	Confidence float64
	Scored     bool // true when a final segment carried a confidence score
}

// Merge folds one result event into the transcript. Finalized segments are
// space-joined and appended to the committed text; otherwise the interim tail
// is replaced with the batch's space-joined interim text. An event with no
// segments is a no-op. When several finals in one batch carry scores, the
// last one wins.
func (t *Transcript) Merge(ev ResultEvent) MergeDelta {
	if len(ev.Results) == 0 {
		return MergeDelta{}
	}

	var finals, interims []string
	var delta MergeDelta
	anyFinal := false
	for _, r := range ev.Results {
		top := r.Top()
		if r.Final {
			anyFinal = true
			if top != "" {
				finals = append(finals, top)
			}
			if len(r.Alternatives) > 0 && r.Alternatives[0].Confidence > 0 {
				delta.Confidence = r.Alternatives[0].Confidence
				delta.Scored = true
			}
		} else if top != "" {
			interims = append(interims, top)
		}
	}

	if anyFinal {
		// Any final in the batch clears the interim tail, even when its
		// text turns out to be empty.
		if segment := strings.TrimSpace(strings.Join(finals, " ")); segment != "" {
			if t.committed != "" {
				t.committed += " " + segment
			} else {
				t.committed = segment
			}
			delta.Committed = segment
		}
		t.interim = ""
	} else {
		t.interim = strings.Join(interims, " ")
	}

	if delta.Scored {
		t.confidence = delta.Confidence
		t.scored = true
	}
	return delta
}

// Final returns the committed text.
func (t *Transcript) Final() string { return t.committed }

// Interim returns the volatile tail. It must never be treated as committed.
func (t *Transcript) Interim() string { return t.interim }

// Confidence returns the score of the most recent scored final segment.
func (t *Transcript) Confidence() (float64, bool) { return t.confidence, t.scored }

// Clear resets the transcript. It is independent of the engine: clearing
// never stops or restarts a session.
func (t *Transcript) Clear() {
	t.committed = ""
	t.interim = ""
	t.confidence = 0
	t.scored = false
}
