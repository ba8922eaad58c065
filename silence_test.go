package main

import "testing"

func feedN(m *quietMonitor, speech bool, n int) QuietEvent {
	var last QuietEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestQuietWarnAfter8s(t *testing.T) {
	m := newQuietMonitor()
	// 79 ticks of silence — no warning yet
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != QuietNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	// 80th tick triggers warning (8s)
	if ev := m.Tick(false); ev != QuietWarn {
		t.Fatalf("expected QuietWarn at tick 80, got %d", ev)
	}
}

func TestQuietWarnClearsOnSpeech(t *testing.T) {
	m := newQuietMonitor()
	feedN(m, false, 80) // triggers warn

	// Sustained speech clears warning (need 25% of 80-tick window)
	for i := 0; i < 80; i++ {
		ev := m.Tick(true)
		if ev == QuietWarnClear {
			return
		}
	}
	t.Fatal("expected QuietWarnClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := newQuietMonitor()
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == QuietWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestAutoStopAfter30s(t *testing.T) {
	m := newQuietMonitor()
	var gotStop bool
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == QuietAutoStop {
			gotStop = true
			break
		}
	}
	if !gotStop {
		t.Fatal("expected QuietAutoStop after 300 ticks")
	}
}

func TestAutoStopPreventedBySpeech(t *testing.T) {
	m := newQuietMonitor()
	for i := 0; i < 500; i++ {
		speech := i%10 < 7
		if ev := m.Tick(speech); ev == QuietAutoStop {
			t.Fatalf("unexpected auto-stop with speech at tick %d", i)
		}
	}
}

func TestWarnOnlyOnce(t *testing.T) {
	m := newQuietMonitor()
	warns := 0
	for i := 0; i < 250; i++ {
		if ev := m.Tick(false); ev == QuietWarn {
			warns++
		}
	}
	if warns != 1 {
		t.Fatalf("expected exactly 1 QuietWarn, got %d", warns)
	}
}

func TestWarnStaysDuringNoise(t *testing.T) {
	m := newQuietMonitor()
	feedN(m, false, 80) // triggers warn

	// Occasional VAD false positives (< 25% speech) should NOT clear
	clears := 0
	for i := 0; i < 80; i++ {
		speech := i%10 == 0 // 10% speech — below clear threshold
		if ev := m.Tick(speech); ev == QuietWarnClear {
			clears++
		}
	}
	if clears > 0 {
		t.Fatalf("expected warning to stay with 10%% speech, got %d clears", clears)
	}
}
