package main

import "time"

const (
	tickInterval     = 100 * time.Millisecond
	quietWarnEvery   = 8 * time.Second
	quietAutoStopDur = 30 * time.Second
	speechMinRatio   = 0.10
	speechClearRatio = 0.25 // higher threshold to clear warning (hysteresis)
)

type QuietEvent int

const (
	QuietNone      QuietEvent = iota
	QuietWarn                 // no voice detected
	QuietWarnClear            // speech resumed after warning
	QuietAutoStop             // 30s of silence ends the session
)

// quietMonitor watches per-tick speech flags while a session is live and
// decides when to warn about a dead microphone and when to stop listening
// outright. One instance per session; ticks arrive at tickInterval.
type quietMonitor struct {
	warnAt   int
	windowSz int

	ticks       int
	window      []bool
	speechCount int
	warned      bool
}

func newQuietMonitor() *quietMonitor {
	warnAt := int(quietWarnEvery / tickInterval)
	windowSz := int(quietAutoStopDur / tickInterval)
	return &quietMonitor{
		warnAt:   warnAt,
		windowSz: windowSz,
		window:   make([]bool, windowSz),
	}
}

func (m *quietMonitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *quietMonitor) Tick(hasSpeech bool) QuietEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.speechCount--
	}
	m.window[idx] = hasSpeech
	if hasSpeech {
		m.speechCount++
	}
	m.ticks++

	r := m.ratio(m.warnAt)

	// Warn: 8s window below threshold
	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		return QuietWarn
	}
	// Clear: speech ratio above clear threshold
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return QuietWarnClear
	}

	// Auto-stop: 30s window below threshold
	if m.ticks >= m.windowSz && float64(m.speechCount)/float64(m.windowSz) < speechMinRatio {
		return QuietAutoStop
	}

	return QuietNone
}
