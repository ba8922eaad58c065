package audio

import (
	"context"
	"errors"
	"testing"
)

func TestSourceFeedsEngineAndTap(t *testing.T) {
	ctx := &FakeContext{}
	dev, err := ctx.NewCapture(nil, CaptureConfig{SampleRate: SampleRate, Channels: Channels})
	if err != nil {
		t.Fatalf("NewCapture: %v", err)
	}
	src := NewSource(dev)

	var engineGot, tapGot []byte
	src.SetTap(func(pcm []byte) { tapGot = append(tapGot, pcm...) })
	if err := src.Start(func(pcm []byte) { engineGot = append(engineGot, pcm...) }); err != nil {
		t.Fatalf("Start: %v", err)
	}

	fake := dev.(*FakeCapture)
	fake.Feed([]byte{1, 2, 3, 4})
	fake.Feed([]byte{5, 6})

	want := []byte{1, 2, 3, 4, 5, 6}
	if string(engineGot) != string(want) {
		t.Errorf("engine got %v, want %v", engineGot, want)
	}
	if string(tapGot) != string(want) {
		t.Errorf("tap got %v, want %v", tapGot, want)
	}

	src.Stop()
	fake.Feed([]byte{9, 9})
	if len(engineGot) != len(want) {
		t.Error("frames delivered after Stop")
	}
}

func TestSourceStartStopIdempotent(t *testing.T) {
	ctx := &FakeContext{}
	dev, _ := ctx.NewCapture(nil, CaptureConfig{})
	src := NewSource(dev)

	if err := src.Start(func([]byte) {}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := src.Start(func([]byte) {}); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	src.Stop()
	src.Stop()

	fake := dev.(*FakeCapture)
	if fake.starts != 1 {
		t.Errorf("device started %d times, want 1", fake.starts)
	}
}

func TestSourceStartFailureClearsCallback(t *testing.T) {
	ctx := &FakeContext{StartErr: errors.New("device busy")}
	dev, _ := ctx.NewCapture(nil, CaptureConfig{})
	src := NewSource(dev)

	if err := src.Start(func([]byte) {}); err == nil {
		t.Fatal("expected start error")
	}
	if dev.(*FakeCapture).cb != nil {
		t.Error("callback should be cleared after a failed start")
	}
}

func TestAccessProbeGranted(t *testing.T) {
	fake := &FakeContext{}
	probe := AccessProbe{Context: fake}

	granted, err := probe.Acquire(context.Background())
	if err != nil || !granted {
		t.Fatalf("Acquire = %v,%v, want true,nil", granted, err)
	}

	caps := fake.Captures()
	if len(caps) != 1 {
		t.Fatalf("probe opened %d captures, want 1", len(caps))
	}
	if caps[0].Started() {
		t.Error("probe must release the device")
	}
}

func TestAccessProbeDenied(t *testing.T) {
	for _, tt := range []struct {
		name string
		ctx  *FakeContext
	}{
		{"open fails", &FakeContext{OpenErr: errors.New("no such device")}},
		{"start fails", &FakeContext{StartErr: errors.New("in use")}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			granted, err := AccessProbe{Context: tt.ctx}.Acquire(context.Background())
			if granted {
				t.Error("Acquire should deny")
			}
			if err == nil {
				t.Error("denial should carry its cause")
			}
		})
	}
}

func TestAccessProbeNotCached(t *testing.T) {
	fake := &FakeContext{}
	probe := AccessProbe{Context: fake}

	probe.Acquire(context.Background())
	probe.Acquire(context.Background())

	if got := len(fake.Captures()); got != 2 {
		t.Errorf("probe opened %d captures across 2 attempts, want 2", got)
	}
}
