package audio

import "context"

// AccessProbe proves microphone access by briefly opening and starting the
// capture device, the closest a desktop host gets to a permission prompt.
// It satisfies the session controller's permission gate and runs on every
// start attempt — access can be revoked (device unplugged, sound server
// gone) between sessions, so the answer is never cached.
type AccessProbe struct {
	Context Context
	Device  *DeviceInfo
}

// Acquire reports whether the microphone can be captured right now. A
// failure to open or start the device is a denial with the cause attached,
// not a fatal condition.
func (p AccessProbe) Acquire(_ context.Context) (bool, error) {
	dev, err := p.Context.NewCapture(p.Device, CaptureConfig{
		SampleRate: SampleRate,
		Channels:   Channels,
	})
	if err != nil {
		return false, err
	}
	defer dev.Close()

	if err := dev.Start(); err != nil {
		return false, err
	}
	dev.Stop()
	return true, nil
}
