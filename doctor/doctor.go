// Package doctor runs interactive end-to-end checks of everything the app
// needs: the global hotkey, microphone access, the recognition service, and
// the clipboard.
package doctor

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/jagu382/LiveVoiceToText/audio"
	"github.com/jagu382/LiveVoiceToText/clipboard"
	"github.com/jagu382/LiveVoiceToText/hotkey"
	"github.com/jagu382/LiveVoiceToText/speech"
)

// Run executes the diagnostic checks and returns an exit code (0=all pass,
// 1=any fail).
func Run() int {
	resetTerminal()
	setupInterruptHandler()

	fmt.Println("livevoice doctor - interactive system diagnostics")
	fmt.Println("=================================================")

	allPass := true

	if !checkHotkey() {
		allPass = false
	}
	if allPass && !checkMicrophone() {
		allPass = false
	}
	if allPass && !checkRecognition() {
		allPass = false
	}
	if allPass && !checkClipboard() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func checkHotkey() bool {
	fmt.Println()
	fmt.Println("[1/4] Hotkey detection")
	fmt.Println("Press Ctrl+Shift+Space...")

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register hotkey: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Presses():
		fmt.Println("  PASS: hotkey detected")
		// Reset terminal after hotkey - it may leave terminal in raw mode
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for hotkey")
		return false
	}
}

func checkMicrophone() bool {
	fmt.Println()
	fmt.Println("[2/4] Microphone access")

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	devices, err := ctx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	probe := audio.AccessProbe{Context: ctx}
	granted, err := probe.Acquire(context.Background())
	if !granted {
		fmt.Printf("  FAIL: microphone access denied: %v\n", err)
		return false
	}

	fmt.Print("Speak for 2 seconds...")
	level, err := sampleLevel(ctx, 2*time.Second)
	fmt.Println()
	if err != nil {
		fmt.Printf("  FAIL: capture error: %v\n", err)
		return false
	}
	if level < 0.005 {
		fmt.Printf("  WARN: very low input level (%.4f) - check the microphone\n", level)
	}
	fmt.Printf("  PASS: %d device(s), peak level %.3f\n", len(devices), level)
	return true
}

func sampleLevel(ctx audio.Context, dur time.Duration) (float64, error) {
	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return 0, err
	}
	defer dev.Close()

	var peak float64
	dev.SetCallback(func(data []byte, _ uint32) {
		for i := 0; i+1 < len(data); i += 2 {
			s := math.Abs(float64(int16(binary.LittleEndian.Uint16(data[i:]))) / 32768.0)
			if s > peak {
				peak = s
			}
		}
	})
	if err := dev.Start(); err != nil {
		return 0, err
	}
	time.Sleep(dur)
	dev.Stop()
	return peak, nil
}

func checkRecognition() bool {
	fmt.Println()
	fmt.Println("[3/4] Speech recognition")

	apiKey := os.Getenv("DEEPGRAM_API_KEY")
	if apiKey == "" {
		fmt.Println("  FAIL: DEEPGRAM_API_KEY not set")
		return false
	}

	ctx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer ctx.Close()

	dev, err := ctx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		fmt.Printf("  FAIL: capture init error: %v\n", err)
		return false
	}
	defer dev.Close()

	source := audio.NewSource(dev)
	ctrl := speech.NewController(speech.Options{
		Engine:   speech.NewDeepgramFactory(apiKey, source, speech.DeepgramConfig{}),
		Language: "en-US",
	})
	defer ctrl.Teardown()

	fmt.Print("Press Enter and speak for 3 seconds...")
	bufio.NewReader(os.Stdin).ReadString('\n')

	if err := ctrl.RequestStart(context.Background()); err != nil {
		fmt.Printf("  FAIL: session start error: %v\n", err)
		return false
	}
	time.Sleep(3 * time.Second)
	ctrl.RequestStop()
	// Let trailing finals arrive
	time.Sleep(500 * time.Millisecond)

	st := ctrl.Status()
	text := strings.TrimSpace(st.Final + " " + st.Interim)
	if text == "" {
		fmt.Println("  FAIL: no transcription received (no speech, or service unreachable)")
		return false
	}

	fmt.Printf("\n  Transcribed text: %s\n\n", text)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func checkClipboard() bool {
	fmt.Println()
	fmt.Println("[4/4] Clipboard copy")

	testStr := fmt.Sprintf("livevoice-doctor-%d", time.Now().UnixNano())

	type cbResult struct {
		readback string
		err      error
		phase    string
	}
	ch := make(chan cbResult, 1)
	go func() {
		if err := clipboard.Copy(testStr); err != nil {
			ch <- cbResult{err: err, phase: "write"}
			return
		}
		got, err := clipboard.Read()
		if err != nil {
			ch <- cbResult{err: err, phase: "read"}
			return
		}
		ch <- cbResult{readback: got}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			fmt.Printf("  FAIL: clipboard %s failed: %v\n", res.phase, res.err)
			return false
		}
		if res.readback != testStr {
			fmt.Printf("  FAIL: clipboard mismatch: wrote %q, got %q\n", testStr, res.readback)
			return false
		}
		fmt.Println("  PASS: clipboard write/read verified")
		return true
	case <-time.After(3 * time.Second):
		fmt.Println("  FAIL: clipboard timed out (clipboard tool hung - compositor not accessible?)")
		return false
	}
}
