// Package hotkey delivers global Ctrl+Shift+Space presses for toggling the
// transcription session while the app is in the background.
package hotkey

type Hotkey interface {
	Register() error
	Unregister()
	Presses() <-chan struct{}
}
