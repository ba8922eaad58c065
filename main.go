package main

import (
	"context"
	"encoding/binary"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jagu382/LiveVoiceToText/audio"
	"github.com/jagu382/LiveVoiceToText/clipboard"
	"github.com/jagu382/LiveVoiceToText/doctor"
	"github.com/jagu382/LiveVoiceToText/hotkey"
	"github.com/jagu382/LiveVoiceToText/log"
	"github.com/jagu382/LiveVoiceToText/shutdown"
	"github.com/jagu382/LiveVoiceToText/speech"
)

var version = "dev"

// Language rotation for the 'l' key. The change takes effect on the next
// session start, never mid-stream.
var languages = []string{"en-US", "es-ES", "fr-FR", "de-DE", "it-IT", "pt-BR", "ja-JP", "zh-CN"}

var shutdownOnce sync.Once

func gracefulShutdown(ctrl *speech.Controller) {
	shutdownOnce.Do(func() {
		if ctrl != nil {
			ctrl.RequestStop()
			ctrl.Teardown()
		}
		log.Close()
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	if dev != nil {
		name = dev.Name
	}
	return "mic: " + name
}

func run() {
	langFlag := flag.String("lang", "en-US", "Recognition language tag (e.g., en-US, es-ES)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	tuiFlag := flag.Bool("tui", true, "Run with terminal UI")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)

	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	// Re-point crash output now that -logpath is known; the early hook in
	// initCrashLog used the default location.
	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	if crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("livevoice %s\n", version)
		os.Exit(0)
	}

	if *doctorFlag {
		os.Exit(doctor.Run())
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	if *testFlag {
		runTestMode(*langFlag)
		return
	}

	apiKey := os.Getenv("DEEPGRAM_API_KEY")
	if apiKey == "" {
		log.Warn("DEEPGRAM_API_KEY not set, recognition unavailable")
	}

	ctx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Printf("Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer ctx.Close()

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		selectedDevice = audio.FindDevice(ctx, *deviceFlag)
		if selectedDevice == nil {
			log.Warnf("device not found: %s", *deviceFlag)
			fmt.Printf("Warning: device %q not found, using default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(ctx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	captureConfig := audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	}
	captureDevice, err := ctx.NewCapture(selectedDevice, captureConfig)
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Printf("Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer captureDevice.Close()

	source := audio.NewSource(captureDevice)

	vp, err := newVADProcessor()
	if err != nil {
		log.Warnf("VAD init failed: %v", err)
		vp = nil
	}
	source.SetTap(func(pcm []byte) {
		tuiSend(AudioLevelMsg{Level: rmsLevel(pcm)})
		if vp != nil {
			vp.Process(pcm)
		}
	})

	var factory speech.Factory
	if apiKey != "" {
		factory = speech.NewDeepgramFactory(apiKey, source, speech.DeepgramConfig{})
	}

	ctrl := speech.NewController(speech.Options{
		Engine:     factory,
		Permission: audio.AccessProbe{Context: ctx, Device: selectedDevice},
		Language:   *langFlag,
	})

	intents := make(chan Intent, 8)

	if !*tuiFlag {
		tuiReadyOnce.Do(func() { close(tuiReady) })
	} else {
		tuiMu.Lock()
		tuiProgram = NewTUIProgram(intents)
		tuiMu.Unlock()

		go func() {
			if _, err := tuiProgram.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown(ctrl)
		}()

		<-tuiReady
	}

	hk := hotkey.New()
	if err := hk.Register(); err != nil {
		// Not fatal: the in-app keys still work
		log.Errorf("hotkey register error: %v", err)
		logToTUI("hotkey unavailable: %v", err)
	} else {
		defer hk.Unregister()
	}

	sigChan := make(chan os.Signal, 1)
	shutdown.Notify(sigChan)

	tuiSend(DeviceLineMsg{Text: deviceLineText(selectedDevice)})
	tuiSend(StatusMsg{Status: ctrl.Status()})

	var listening atomic.Bool
	go runQuietWatchdog(ctrl, vp, &listening)

	langIdx := 0
	for i, l := range languages {
		if l == *langFlag {
			langIdx = i
			break
		}
	}

	toggle := func() {
		if ctrl.Status().Listening {
			ctrl.RequestStop()
		} else {
			startSession(ctrl)
		}
	}

	tracker := newStatusTracker()
	for {
		select {
		case st, ok := <-ctrl.Updates():
			if !ok {
				return
			}
			listening.Store(st.Listening)
			switch tracker.sessionEdge(st) {
			case sessionStarted:
				log.SessionStart("deepgram", st.Language, captureDevice.DeviceName())
			case sessionEnded:
				log.SessionEnd(len(st.Final))
			}
			if delta := tracker.transcriptDelta(st); delta != "" {
				log.TranscriptLine(delta)
			}
			if conf, changed := tracker.confidenceChange(st); changed {
				log.Confidence(conf)
			}
			tuiSend(StatusMsg{Status: st})

		case in := <-intents:
			switch in {
			case IntentToggle:
				toggle()
			case IntentStart:
				startSession(ctrl)
			case IntentStop:
				ctrl.RequestStop()
			case IntentClear:
				ctrl.Clear()
			case IntentCopy:
				st := ctrl.Status()
				text := strings.TrimSpace(st.Final + " " + st.Interim)
				if text == "" {
					break
				}
				if err := clipboard.Copy(text); err != nil {
					log.Errorf("clipboard copy error: %v", err)
					logToTUI("copy failed: %v", err)
				} else {
					log.Info("transcript_copied")
					tuiSend(CopiedMsg{})
				}
			case IntentCycleLanguage:
				langIdx = (langIdx + 1) % len(languages)
				lang := languages[langIdx]
				ctrl.SetLanguage(lang)
				log.LanguageChange(lang)
				logToTUI("language: %s (applies on next start)", lang)
			case IntentQuit:
				gracefulShutdown(ctrl)
			}

		case <-hk.Presses():
			log.Info("hotkey_toggle")
			toggle()

		case <-sigChan:
			gracefulShutdown(ctrl)
		}
	}
}

// startSession runs the permission probe off the app loop so a slow device
// open never blocks intent handling.
func startSession(ctrl *speech.Controller) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ctrl.RequestStart(ctx); err != nil {
			if errors.Is(err, speech.ErrPermissionDenied) {
				log.PermissionDenied(err.Error())
			} else {
				log.Errorf("session start error: %v", err)
			}
		}
	}()
}

// runQuietWatchdog polls the VAD while a session is live, surfacing a
// dead-microphone warning and ending the session after sustained silence.
func runQuietWatchdog(ctrl *speech.Controller, vp *vadProcessor, listening *atomic.Bool) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var mon *quietMonitor
	for range ticker.C {
		if !listening.Load() {
			mon = nil
			continue
		}
		if mon == nil {
			mon = newQuietMonitor()
			if vp != nil {
				vp.Reset()
			}
		}
		hasSpeech := vp != nil && vp.HasSpeechTick()
		switch mon.Tick(hasSpeech) {
		case QuietWarn:
			log.Info("no_voice_warning")
			tuiSend(QuietWarningMsg{On: true})
		case QuietWarnClear:
			tuiSend(QuietWarningMsg{On: false})
		case QuietAutoStop:
			log.Info("silence_auto_stop")
			ctrl.RequestStop()
			mon = nil
		}
	}
}

func rmsLevel(pcm []byte) float64 {
	if len(pcm) < 2 {
		return 0
	}
	var sumSquares float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(binary.LittleEndian.Uint16(pcm[i:]))
		normalized := float64(sample) / 32768.0
		sumSquares += normalized * normalized
	}
	return math.Sqrt(sumSquares / float64(len(pcm)/2))
}
