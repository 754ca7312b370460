package services

import (
	"context"
	"sync"
)

// ============================================================
// Remote capture device
// ============================================================

// RemoteCaptureProvider acquires logical capture devices backed by the
// operator's scanner client, which decodes frames camera-side and posts the
// decoded text to the session. Acquisition always succeeds; the device only
// tracks whether the session still accepts frames.
type RemoteCaptureProvider struct{}

// NewRemoteCaptureProvider creates the provider used by the HTTP deployment
func NewRemoteCaptureProvider() *RemoteCaptureProvider {
	return &RemoteCaptureProvider{}
}

// Acquire returns a fresh remote device
func (p *RemoteCaptureProvider) Acquire(ctx context.Context) (CaptureDevice, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &remoteDevice{}, nil
}

// remoteDevice relays decoded frames from a remote scanner into the session
type remoteDevice struct {
	mu       sync.Mutex
	onDecode func(string)
	stopped  bool
}

func (d *remoteDevice) Start(onDecode func(text string)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDecode = onDecode
	return nil
}

func (d *remoteDevice) Stop(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	d.onDecode = nil
	return nil
}

