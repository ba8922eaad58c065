package main

// Intents flow from the UI and the global hotkey to the app loop, which is
// the only place that talks to the session controller.
type Intent int

const (
	IntentToggle Intent = iota
	IntentStart
	IntentStop
	IntentClear
	IntentCopy
	IntentCycleLanguage
	IntentQuit
)
