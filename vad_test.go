package main

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/jagu382/LiveVoiceToText/audio"
)

// pcmTone synthesizes a mono PCM16 sine burst. webrtcvad is trained on
// speech, so tests asserting voice on a pure tone skip when the classifier
// disagrees rather than fail.
func pcmTone(freq float64, ms int) []byte {
	n := audio.SampleRate * ms / 1000
	buf := make([]byte, n*2)
	for i := 0; i < n; i++ {
		s := int16(16000 * math.Sin(2*math.Pi*freq*float64(i)/float64(audio.SampleRate)))
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}

func pcmSilence(ms int) []byte {
	return make([]byte, audio.SampleRate*ms/1000*2)
}

// feedTone processes a tone burst and reports whether the classifier took it
// for speech; callers skip when it did not.
func feedTone(t *testing.T, vp *vadProcessor) bool {
	t.Helper()
	vp.Process(pcmTone(440, 200))
	if !vp.VoiceDetected() {
		t.Log("classifier rejected the synthetic tone, skipping")
		return false
	}
	return true
}

func TestVADSilenceStaysQuiet(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	vp.Process(pcmSilence(200))
	if vp.VoiceDetected() {
		t.Error("VoiceDetected = true on silence")
	}
	if !vp.LastVoiceTime().IsZero() {
		t.Error("LastVoiceTime should stay zero on silence")
	}
}

func TestVADUnalignedChunks(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	// Capture callbacks deliver whatever the backend buffered; frames must
	// reassemble across chunk boundaries that don't divide vadFrameBytes.
	silence := pcmSilence(200)
	for i := 0; i < len(silence); i += 100 {
		end := i + 100
		if end > len(silence) {
			end = len(silence)
		}
		vp.Process(silence[i:end])
	}
	if vp.VoiceDetected() {
		t.Error("VoiceDetected = true on chunked silence")
	}
}

func TestVADToneTriggersDetection(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	if !feedTone(t, vp) {
		t.Skip()
	}
	if vp.LastVoiceTime().IsZero() {
		t.Error("LastVoiceTime should be set once voice is detected")
	}
}

func TestVADHasSpeechTickEmptyWindow(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	if vp.HasSpeechTick() {
		t.Error("HasSpeechTick = true with no frames processed")
	}
	vp.Process(pcmSilence(200))
	if vp.HasSpeechTick() {
		t.Error("HasSpeechTick = true on an all-silence window")
	}
}

func TestVADHasSpeechTickConsumesWindow(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	if !feedTone(t, vp) {
		t.Skip()
	}
	if !vp.HasSpeechTick() {
		t.Error("HasSpeechTick = false right after a speech burst")
	}
	// The window is the delta since the previous call; with no new frames
	// the next tick reads as quiet.
	if vp.HasSpeechTick() {
		t.Error("HasSpeechTick = true with no frames since last tick")
	}
}

func TestVADResetClearsEverything(t *testing.T) {
	vp, err := newVADProcessor()
	if err != nil {
		t.Fatal(err)
	}
	vp.Process(pcmTone(440, 200))
	vp.Reset()

	if vp.VoiceDetected() {
		t.Error("VoiceDetected survived Reset")
	}
	if !vp.LastVoiceTime().IsZero() {
		t.Error("LastVoiceTime survived Reset")
	}
	if vp.HasSpeechTick() {
		t.Error("tick counters survived Reset")
	}
}
