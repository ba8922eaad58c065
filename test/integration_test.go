//go:build integration

package test_test

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

var testBinary string

func TestMain(m *testing.M) {
	testBinary = os.Getenv("LIVEVOICE_TEST_BIN")
	if testBinary == "" {
		fmt.Fprintln(os.Stderr, "LIVEVOICE_TEST_BIN not set; run: make test-integration")
		os.Exit(1)
	}
	os.Exit(m.Run())
}

func cmds(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

// runApp drives the binary in headless test mode and returns its stdout
// plus the log directory it wrote to.
func runApp(t *testing.T, stdin string, args ...string) (output, logDir string) {
	t.Helper()
	logDir = t.TempDir()
	cmdArgs := append([]string{"-test", "-logpath", logDir}, args...)

	cmd := exec.Command(testBinary, cmdArgs...)
	cmd.Stdin = strings.NewReader(stdin)
	cmd.Env = os.Environ()

	out, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("binary exited with error: %v\noutput: %s", err, out)
	}
	return string(out), logDir
}

// lastState returns the final STATE line of the output.
func lastState(t *testing.T, output string) string {
	t.Helper()
	var state string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, "STATE ") {
			state = line
		}
	}
	if state == "" {
		t.Fatalf("no STATE line in output:\n%s", output)
	}
	return state
}

func requireField(t *testing.T, state, field string) {
	t.Helper()
	if !strings.Contains(state, field) {
		t.Errorf("state missing %q: %s", field, state)
	}
}

func TestStartListens(t *testing.T) {
	out, _ := runApp(t, cmds("START", "STATE", "QUIT"))
	st := lastState(t, out)
	requireField(t, st, "listening=true")
	requireField(t, st, "supported=true")
	requireField(t, st, "denied=false")
}

func TestInterimThenFinal(t *testing.T) {
	out, _ := runApp(t, cmds(
		"START",
		"RESULT hello wor",
		"FINAL 0.93 hello world",
		"STATE",
		"QUIT",
	))
	st := lastState(t, out)
	requireField(t, st, `final="hello world"`)
	requireField(t, st, `interim=""`)
	requireField(t, st, "conf=0.93")
}

func TestFinalsJoinAcrossBatches(t *testing.T) {
	out, _ := runApp(t, cmds(
		"START",
		"FINAL 0.9 hello",
		"FINAL 0.8 world",
		"STATE",
		"QUIT",
	))
	requireField(t, lastState(t, out), `final="hello world"`)
}

func TestUnexpectedEndRestarts(t *testing.T) {
	out, _ := runApp(t, cmds(
		"START",
		"FINAL 0.9 first leg",
		"END",
		"SLEEP 300",
		"FINAL 0.9 second leg",
		"STATE",
		"QUIT",
	))
	st := lastState(t, out)
	requireField(t, st, "listening=true")
	requireField(t, st, `final="first leg second leg"`)
}

func TestStopThenEndStaysStopped(t *testing.T) {
	out, _ := runApp(t, cmds(
		"START",
		"STOP",
		"SLEEP 300",
		"STATE",
		"QUIT",
	))
	requireField(t, lastState(t, out), "listening=false")
}

func TestPermissionDenied(t *testing.T) {
	out, _ := runApp(t, cmds("DENY", "START", "STATE", "QUIT"))
	st := lastState(t, out)
	requireField(t, st, "listening=false")
	requireField(t, st, "denied=true")
}

func TestPermissionRegrant(t *testing.T) {
	out, _ := runApp(t, cmds("DENY", "START", "GRANT", "START", "STATE", "QUIT"))
	st := lastState(t, out)
	requireField(t, st, "listening=true")
	requireField(t, st, "denied=false")
}

func TestLanguageAppliesNextStart(t *testing.T) {
	out, _ := runApp(t, cmds(
		"LANG tr-TR",
		"START",
		"STATE",
		"QUIT",
	), "-lang", "en-US")
	requireField(t, lastState(t, out), "lang=tr-TR")
}

func TestClearEmptiesTranscript(t *testing.T) {
	out, _ := runApp(t, cmds(
		"START",
		"FINAL 0.9 some words",
		"CLEAR",
		"STATE",
		"QUIT",
	))
	st := lastState(t, out)
	requireField(t, st, `final=""`)
	requireField(t, st, "listening=true")
}

func TestEngineErrorKeepsSession(t *testing.T) {
	out, _ := runApp(t, cmds(
		"START",
		"FINAL 0.9 kept",
		"ERR network hiccup",
		"STATE",
		"QUIT",
	))
	st := lastState(t, out)
	requireField(t, st, "listening=true")
	requireField(t, st, `final="kept"`)
}

func TestDiagnosticsLogWritten(t *testing.T) {
	_, logDir := runApp(t, cmds("START", "STOP", "QUIT"))
	if _, err := os.Stat(filepath.Join(logDir, "diagnostics_log.txt")); err != nil {
		t.Fatalf("diagnostics_log.txt not written: %v", err)
	}
}
