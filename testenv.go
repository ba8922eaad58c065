package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jagu382/LiveVoiceToText/log"
	"github.com/jagu382/LiveVoiceToText/speech"
)

// runTestMode drives the session controller from a stdin script instead of
// a microphone and a recognition service. Each line is one command:
//
//	START, STOP, CLEAR, STATE, QUIT
//	LANG <tag>
//	RESULT <interim text>
//	FINAL <confidence> <text>
//	END, ERR <message>
//	DENY, GRANT
//	SLEEP <ms>
//
// STATE prints the latest controller snapshot on stdout, which is what the
// integration tests assert against.
func runTestMode(lang string) {
	defer log.Close()

	var mu sync.Mutex
	granted := true
	var engine *speech.ScriptedEngine

	factory := func() (speech.Engine, error) {
		eng := speech.NewScriptedEngine()
		mu.Lock()
		engine = eng
		mu.Unlock()
		return eng, nil
	}
	gate := speech.PermissionFunc(func(context.Context) (bool, error) {
		mu.Lock()
		defer mu.Unlock()
		return granted, nil
	})

	ctrl := speech.NewController(speech.Options{
		Engine:     factory,
		Permission: gate,
		Language:   lang,
	})

	updatesDone := make(chan struct{})
	go func() {
		defer close(updatesDone)
		for range ctrl.Updates() {
		}
	}()

	currentEngine := func() *speech.ScriptedEngine {
		mu.Lock()
		defer mu.Unlock()
		return engine
	}

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		cmd, rest, _ := strings.Cut(line, " ")
		switch cmd {
		case "", "#":
		case "START":
			if err := ctrl.RequestStart(context.Background()); err != nil {
				fmt.Printf("ERR %v\n", err)
			}
		case "STOP":
			ctrl.RequestStop()
		case "CLEAR":
			ctrl.Clear()
		case "LANG":
			ctrl.SetLanguage(rest)
		case "RESULT":
			if eng := currentEngine(); eng != nil {
				eng.SimInterim(rest)
			}
		case "FINAL":
			confStr, text, _ := strings.Cut(rest, " ")
			conf, err := strconv.ParseFloat(confStr, 64)
			if err != nil {
				conf, text = 0, rest
			}
			if eng := currentEngine(); eng != nil {
				eng.SimFinal(text, conf)
			}
		case "END":
			if eng := currentEngine(); eng != nil {
				eng.SimEnd()
			}
		case "ERR":
			if eng := currentEngine(); eng != nil {
				eng.SimError(errors.New(rest))
			}
		case "DENY":
			mu.Lock()
			granted = false
			mu.Unlock()
		case "GRANT":
			mu.Lock()
			granted = true
			mu.Unlock()
		case "STATE":
			// Give in-flight engine callbacks a moment to land
			time.Sleep(20 * time.Millisecond)
			st := ctrl.Status()
			fmt.Printf("STATE listening=%v supported=%v denied=%v lang=%s final=%q interim=%q conf=%.2f scored=%v\n",
				st.Listening, st.Supported, st.PermissionDenied, st.Language,
				st.Final, st.Interim, st.Confidence, st.HasConfidence)
		case "SLEEP":
			if ms, err := strconv.Atoi(rest); err == nil {
				time.Sleep(time.Duration(ms) * time.Millisecond)
			}
		case "QUIT":
			ctrl.Teardown()
			<-updatesDone
			return
		default:
			fmt.Printf("ERR unknown command %q\n", cmd)
		}
	}
	ctrl.Teardown()
	<-updatesDone
}
