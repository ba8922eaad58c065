package audio

import (
	"sync"
	"sync/atomic"
)

// Source adapts a CaptureDevice to an engine's audio feed and lets the app
// tap the same PCM stream for level metering and voice-activity checks.
// Start/Stop are idempotent so an engine can stop a source it never managed
// to start.
type Source struct {
	dev CaptureDevice
	tap atomic.Pointer[func(pcm []byte)]

	mu      sync.Mutex
	running bool
}

func NewSource(dev CaptureDevice) *Source {
	return &Source{dev: dev}
}

// SetTap installs a secondary consumer of the captured PCM. Pass nil to
// remove it. The tap runs on the capture callback thread and must not block.
func (s *Source) SetTap(fn func(pcm []byte)) {
	if fn == nil {
		s.tap.Store(nil)
		return
	}
	s.tap.Store(&fn)
}

func (s *Source) Start(fn func(pcm []byte)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}
	s.dev.SetCallback(func(data []byte, _ uint32) {
		if len(data) == 0 {
			return
		}
		pcm := make([]byte, len(data))
		copy(pcm, data)
		if tap := s.tap.Load(); tap != nil {
			(*tap)(pcm)
		}
		fn(pcm)
	})
	if err := s.dev.Start(); err != nil {
		s.dev.ClearCallback()
		return err
	}
	s.running = true
	return nil
}

func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.dev.Stop()
	s.dev.ClearCallback()
	s.running = false
}

// DeviceName reports the underlying capture device.
func (s *Source) DeviceName() string {
	return s.dev.DeviceName()
}
