package speech

import "testing"

func interimEvent(index int, texts ...string) ResultEvent {
	ev := ResultEvent{Index: index}
	for _, t := range texts {
		ev.Results = append(ev.Results, Result{Alternatives: []Alternative{{Text: t}}})
	}
	return ev
}

func finalEvent(index int, text string, confidence float64) ResultEvent {
	return ResultEvent{
		Index: index,
		Results: []Result{{
			Final:        true,
			Alternatives: []Alternative{{Text: text, Confidence: confidence}},
		}},
	}
}

func TestInterimReplacedWholesale(t *testing.T) {
	var tr Transcript
	tr.Merge(interimEvent(0, "hel"))
	tr.Merge(interimEvent(0, "hello"))
	tr.Merge(interimEvent(0, "hello wor"))

	if got := tr.Interim(); got != "hello wor" {
		t.Errorf("Interim = %q, want %q", got, "hello wor")
	}
	if got := tr.Final(); got != "" {
		t.Errorf("Final = %q, want empty", got)
	}
}

func TestFinalAppendsAndClearsInterim(t *testing.T) {
	var tr Transcript
	tr.Merge(interimEvent(0, "hello"))
	delta := tr.Merge(finalEvent(0, "hello world", 0.9))

	if got := tr.Final(); got != "hello world" {
		t.Errorf("Final = %q, want %q", got, "hello world")
	}
	if got := tr.Interim(); got != "" {
		t.Errorf("Interim = %q, want empty", got)
	}
	if conf, ok := tr.Confidence(); !ok || conf != 0.9 {
		t.Errorf("Confidence = %v,%v, want 0.9,true", conf, ok)
	}
	if delta.Committed != "hello world" {
		t.Errorf("delta.Committed = %q", delta.Committed)
	}
}

func TestFinalSegmentsJoinWithSingleSpace(t *testing.T) {
	var tr Transcript
	tr.Merge(finalEvent(0, "hello world", 0))
	tr.Merge(finalEvent(1, "  how are you  ", 0))

	if got := tr.Final(); got != "hello world how are you" {
		t.Errorf("Final = %q, want %q", got, "hello world how are you")
	}
}

func TestEmptyEventIsNoop(t *testing.T) {
	var tr Transcript
	tr.Merge(interimEvent(0, "draft"))
	delta := tr.Merge(ResultEvent{Index: 1})

	if delta != (MergeDelta{}) {
		t.Errorf("delta = %+v, want zero", delta)
	}
	if got := tr.Interim(); got != "draft" {
		t.Errorf("Interim = %q, want %q", got, "draft")
	}
}

func TestMixedBatchCommitsFinalsAndDropsInterim(t *testing.T) {
	var tr Transcript
	tr.Merge(ResultEvent{
		Index: 0,
		Results: []Result{
			{Final: true, Alternatives: []Alternative{{Text: "first part", Confidence: 0.8}}},
			{Alternatives: []Alternative{{Text: "second dra"}}},
		},
	})

	if got := tr.Final(); got != "first part" {
		t.Errorf("Final = %q, want %q", got, "first part")
	}
	if got := tr.Interim(); got != "" {
		t.Errorf("Interim = %q, want empty (final in batch clears it)", got)
	}
}

func TestConfidenceLastWriteWins(t *testing.T) {
	var tr Transcript
	tr.Merge(ResultEvent{
		Index: 0,
		Results: []Result{
			{Final: true, Alternatives: []Alternative{{Text: "one", Confidence: 0.8}}},
			{Final: true, Alternatives: []Alternative{{Text: "two", Confidence: 0.6}}},
		},
	})

	if conf, ok := tr.Confidence(); !ok || conf != 0.6 {
		t.Errorf("Confidence = %v,%v, want 0.6,true", conf, ok)
	}
}

func TestUnscoredFinalKeepsPreviousConfidence(t *testing.T) {
	var tr Transcript
	tr.Merge(finalEvent(0, "scored", 0.75))
	tr.Merge(finalEvent(1, "unscored", 0))

	if conf, ok := tr.Confidence(); !ok || conf != 0.75 {
		t.Errorf("Confidence = %v,%v, want 0.75,true", conf, ok)
	}
}

func TestEmptyFinalStillClearsInterim(t *testing.T) {
	var tr Transcript
	tr.Merge(interimEvent(0, "dangling"))
	tr.Merge(ResultEvent{
		Index:   0,
		Results: []Result{{Final: true}},
	})

	if got := tr.Interim(); got != "" {
		t.Errorf("Interim = %q, want empty", got)
	}
	if got := tr.Final(); got != "" {
		t.Errorf("Final = %q, want empty", got)
	}
}

func TestClearIsIdempotent(t *testing.T) {
	var tr Transcript
	tr.Merge(finalEvent(0, "something", 0.9))
	tr.Merge(interimEvent(1, "more"))

	tr.Clear()
	tr.Clear()

	if got := tr.Final(); got != "" {
		t.Errorf("Final = %q, want empty", got)
	}
	if got := tr.Interim(); got != "" {
		t.Errorf("Interim = %q, want empty", got)
	}
	if _, ok := tr.Confidence(); ok {
		t.Error("Confidence should be unset after Clear")
	}
}

func TestOnlyTopAlternativeCounts(t *testing.T) {
	var tr Transcript
	tr.Merge(ResultEvent{
		Index: 0,
		Results: []Result{{
			Final: true,
			Alternatives: []Alternative{
				{Text: "best guess", Confidence: 0.9},
				{Text: "worse guess", Confidence: 0.4},
			},
		}},
	})

	if got := tr.Final(); got != "best guess" {
		t.Errorf("Final = %q, want %q", got, "best guess")
	}
}
