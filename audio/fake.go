package audio

import "sync"

// FakeContext is a capture stack driven by tests instead of real hardware.
type FakeContext struct {
	DeviceList []DeviceInfo
	OpenErr    error // returned by NewCapture when set
	StartErr   error // returned by FakeCapture.Start when set

	mu       sync.Mutex
	captures []*FakeCapture
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) {
	return f.DeviceList, nil
}

func (f *FakeContext) NewCapture(device *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	if f.OpenErr != nil {
		return nil, f.OpenErr
	}
	c := &FakeCapture{device: device, startErr: f.StartErr}
	f.mu.Lock()
	f.captures = append(f.captures, c)
	f.mu.Unlock()
	return c, nil
}

func (f *FakeContext) Close() {}

// Captures returns every capture handed out so far.
func (f *FakeContext) Captures() []*FakeCapture {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*FakeCapture(nil), f.captures...)
}

// FakeCapture delivers whatever PCM the test pushes through Feed.
type FakeCapture struct {
	device   *DeviceInfo
	startErr error

	mu      sync.Mutex
	cb      DataCallback
	started bool
	starts  int
	stops   int
}

func (c *FakeCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts++
	if c.startErr != nil {
		return c.startErr
	}
	c.started = true
	return nil
}

func (c *FakeCapture) Stop() {
	c.mu.Lock()
	c.stops++
	c.started = false
	c.mu.Unlock()
}

func (c *FakeCapture) Close() {
	c.Stop()
}

func (c *FakeCapture) SetCallback(cb DataCallback) {
	c.mu.Lock()
	c.cb = cb
	c.mu.Unlock()
}

func (c *FakeCapture) ClearCallback() {
	c.mu.Lock()
	c.cb = nil
	c.mu.Unlock()
}

func (c *FakeCapture) DeviceName() string {
	if c.device != nil {
		return c.device.Name
	}
	return "fake"
}

// Feed pushes PCM through the installed callback, as the platform capture
// thread would. No-op while stopped or with no callback installed.
func (c *FakeCapture) Feed(pcm []byte) {
	c.mu.Lock()
	cb := c.cb
	started := c.started
	c.mu.Unlock()
	if cb == nil || !started {
		return
	}
	cb(pcm, uint32(len(pcm)/2))
}

// Started reports whether the device is currently capturing.
func (c *FakeCapture) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}
