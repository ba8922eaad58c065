package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jagu382/LiveVoiceToText/speech"
)

// TUI message types
type StatusMsg struct{ Status speech.Status }
type AudioLevelMsg struct{ Level float64 }
type QuietWarningMsg struct{ On bool }
type DeviceLineMsg struct{ Text string }
type CopiedMsg struct{}
type LogMsg struct{ Text string }
type tickMsg time.Time

var (
	tuiProgram   *tea.Program
	tuiMu        sync.Mutex
	tuiReady     = make(chan struct{})
	tuiReadyOnce sync.Once
)

var (
	styleTitle     = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true)
	styleListening = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	styleIdle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleFinal     = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	styleInterim   = lipgloss.NewStyle().Foreground(lipgloss.Color("243")).Italic(true)
	styleWarn      = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	styleError     = lipgloss.NewStyle().Foreground(lipgloss.Color("160"))
	styleCopied    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleMeta      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	styleHelp      = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	styleHelpKey   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	styleLevelOn   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	styleLevelOff  = lipgloss.NewStyle().Foreground(lipgloss.Color("236"))
)

type tuiModel struct {
	intents chan<- Intent

	status        speech.Status
	audioLevel    float64
	frame         int
	copiedFrame   int
	quietWarn     bool
	deviceLine    string
	logLine       string
	width, height int
}

func NewTUIProgram(intents chan<- Intent) *tea.Program {
	m := tuiModel{intents: intents, copiedFrame: -1000}
	return tea.NewProgram(m, tea.WithAltScreen())
}

func tuiTick() tea.Cmd {
	return tea.Tick(60*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	tuiReadyOnce.Do(func() { close(tuiReady) })
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.send(IntentQuit)
			return m, tea.Quit
		case " ":
			m.send(IntentToggle)
		case "c":
			m.send(IntentClear)
		case "y":
			m.send(IntentCopy)
		case "l":
			m.send(IntentCycleLanguage)
		}

	case tickMsg:
		m.frame++
		return m, tuiTick()

	case StatusMsg:
		m.status = msg.Status
		if !m.status.Listening {
			m.audioLevel = 0
			m.quietWarn = false
		}

	case AudioLevelMsg:
		if m.status.Listening {
			m.audioLevel = m.audioLevel*0.6 + msg.Level*0.4
		}

	case QuietWarningMsg:
		m.quietWarn = msg.On

	case DeviceLineMsg:
		m.deviceLine = msg.Text

	case CopiedMsg:
		m.copiedFrame = m.frame

	case LogMsg:
		m.logLine = msg.Text
	}
	return m, nil
}

// send is non-blocking so a stalled app loop can never freeze key handling.
func (m tuiModel) send(in Intent) {
	select {
	case m.intents <- in:
	default:
	}
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder
	b.WriteString(styleTitle.Render("LiveVoiceToText") + styleHelp.Render("  "+version) + "\n\n")

	st := m.status
	switch {
	case !st.Supported:
		b.WriteString(styleError.Render("✗ speech recognition unavailable") + "\n")
		b.WriteString(styleMeta.Render("  set DEEPGRAM_API_KEY to enable transcription") + "\n")
	case st.PermissionDenied:
		b.WriteString(styleError.Render("✗ microphone access denied") + "\n")
		if st.LastError != "" {
			b.WriteString(styleMeta.Render("  "+st.LastError) + "\n")
		}
	case st.Listening:
		b.WriteString(styleListening.Render("● LISTENING") + styleMeta.Render("  ["+st.Language+"]") + "\n")
		b.WriteString(renderLevelMeter(m.audioLevel) + "\n")
		if m.quietWarn {
			b.WriteString(styleWarn.Render("⚠ no voice detected") + "\n")
		}
	default:
		b.WriteString(styleIdle.Render("○ IDLE") + styleMeta.Render("  ["+st.Language+"]") + "\n")
	}

	if m.deviceLine != "" {
		b.WriteString(styleMeta.Render(m.deviceLine) + "\n")
	}
	b.WriteString("\n")

	// Transcript: committed text first, the in-flight hypothesis dimmed
	// after it.
	wrapWidth := m.width - 2
	if wrapWidth < 10 {
		wrapWidth = 10
	}
	if st.Final == "" && st.Interim == "" {
		b.WriteString(styleMeta.Render("(transcript empty)") + "\n")
	} else {
		for _, line := range wrapText(st.Final, wrapWidth) {
			b.WriteString(styleFinal.Render(line) + "\n")
		}
		if st.Interim != "" {
			for _, line := range wrapText(st.Interim, wrapWidth) {
				b.WriteString(styleInterim.Render(line) + "\n")
			}
		}
	}
	if st.HasConfidence {
		b.WriteString(styleMeta.Render(fmt.Sprintf("confidence: %.0f%%", st.Confidence*100)) + "\n")
	}
	if m.frame-m.copiedFrame < 50 {
		b.WriteString(styleCopied.Render("[✓ copied]") + "\n")
	}
	if st.LastError != "" && !st.PermissionDenied {
		b.WriteString(styleError.Render("error: "+st.LastError) + "\n")
	}
	if m.logLine != "" {
		b.WriteString(styleMeta.Render(m.logLine) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styleHelpKey.Render("space") + styleHelp.Render(" start/stop  ") +
		styleHelpKey.Render("c") + styleHelp.Render(" clear  ") +
		styleHelpKey.Render("y") + styleHelp.Render(" copy  ") +
		styleHelpKey.Render("l") + styleHelp.Render(" language  ") +
		styleHelpKey.Render("ctrl+c") + styleHelp.Render(" quit") + "\n")
	b.WriteString(styleHelp.Render("Ctrl+Shift+Space toggles from anywhere") + "\n")

	return b.String()
}

func renderLevelMeter(level float64) string {
	const width = 30
	filled := int(level * 10 * width)
	if filled > width {
		filled = width
	}
	return styleLevelOn.Render(strings.Repeat("█", filled)) +
		styleLevelOff.Render(strings.Repeat("░", width-filled))
}

func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()

	if p != nil {
		p.Send(msg)
	}
}

func logToTUI(format string, args ...interface{}) {
	tuiSend(LogMsg{Text: fmt.Sprintf(format, args...)})
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return nil
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		// Find last space within width
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}
