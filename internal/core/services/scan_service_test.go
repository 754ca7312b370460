package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDevice is a scriptable capture device
type fakeDevice struct {
	mu        sync.Mutex
	onDecode  func(string)
	stops     int
	blockStop bool // Stop waits for ctx expiry
}

func (d *fakeDevice) Start(onDecode func(text string)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onDecode = onDecode
	return nil
}

func (d *fakeDevice) Stop(ctx context.Context) error {
	if d.blockStop {
		<-ctx.Done()
		return ctx.Err()
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stops++
	return nil
}

func (d *fakeDevice) stopCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stops
}

// fakeProvider hands out scripted devices, optionally failing first
type fakeProvider struct {
	mu       sync.Mutex
	devices  []*fakeDevice
	failures int
	acquired int
}

func (p *fakeProvider) Acquire(ctx context.Context) (CaptureDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failures > 0 {
		p.failures--
		return nil, errors.New("no camera")
	}
	device := &fakeDevice{}
	p.devices = append(p.devices, device)
	p.acquired++
	return device, nil
}

func (p *fakeProvider) acquireCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired
}

func newTestScanService(provider DeviceProvider, validate ValidateFunc) *ScanService {
	return &ScanService{
		sessions:    make(map[string]*ScanSession),
		provider:    provider,
		validate:    validate,
		stopTimeout: 20 * time.Millisecond,
	}
}

func okValidate(result ValidationResult) ValidateFunc {
	return func(ctx context.Context, rawText string) (ValidationResult, error) {
		return result, nil
	}
}

func TestScanSessionOpen(t *testing.T) {
	t.Run("opens into scanning", func(t *testing.T) {
		provider := &fakeProvider{}
		svc := newTestScanService(provider, okValidate(ValidationResult{Valid: true}))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)
		assert.Equal(t, ScanStateScanning, session.Status().State)
		assert.Equal(t, 1, provider.acquireCount())
	})

	t.Run("device failure still registers the session", func(t *testing.T) {
		provider := &fakeProvider{failures: 1}
		svc := newTestScanService(provider, okValidate(ValidationResult{}))

		session, err := svc.Open(context.Background())
		assert.ErrorIs(t, err, ErrDeviceFailed)

		status := session.Status()
		assert.Equal(t, ScanStateError, status.State)
		assert.Equal(t, MsgCameraFailed, status.Error)

		// Session is reachable and recoverable
		got, err := svc.Get(session.ID)
		require.NoError(t, err)
		require.NoError(t, got.ScanAgain(context.Background()))
		assert.Equal(t, ScanStateScanning, got.Status().State)
	})
}

func TestScanSessionDecode(t *testing.T) {
	t.Run("decode resolves with verdict", func(t *testing.T) {
		provider := &fakeProvider{}
		verdict := ValidationResult{Valid: false, Message: MsgAlreadyUsed}
		svc := newTestScanService(provider, okValidate(verdict))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		session.Decode("ticket-1")

		status := session.Status()
		assert.Equal(t, ScanStateResolved, status.State)
		require.NotNil(t, status.Verdict)
		assert.Equal(t, MsgAlreadyUsed, status.Verdict.Message)

		// Device was released before the verdict arrived
		assert.Equal(t, 1, provider.devices[0].stopCount())
	})

	t.Run("first decode wins while validate is in flight", func(t *testing.T) {
		provider := &fakeProvider{}
		release := make(chan struct{})
		var calls int
		var mu sync.Mutex
		validate := func(ctx context.Context, rawText string) (ValidationResult, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			<-release
			return ValidationResult{Valid: true, Message: MsgValidated}, nil
		}
		svc := newTestScanService(provider, validate)

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			session.Decode("first")
			close(done)
		}()

		// Wait until the first decode holds the lock
		require.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return calls == 1
		}, time.Second, time.Millisecond)

		// Near-simultaneous second decode is dropped
		session.Decode("second")

		close(release)
		<-done

		mu.Lock()
		assert.Equal(t, 1, calls)
		mu.Unlock()
		assert.Equal(t, ScanStateResolved, session.Status().State)
	})

	t.Run("decode after verdict is dropped", func(t *testing.T) {
		provider := &fakeProvider{}
		var calls int
		var mu sync.Mutex
		validate := func(ctx context.Context, rawText string) (ValidationResult, error) {
			mu.Lock()
			calls++
			mu.Unlock()
			return ValidationResult{Valid: true}, nil
		}
		svc := newTestScanService(provider, validate)

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		session.Decode("one")
		session.Decode("two")

		mu.Lock()
		assert.Equal(t, 1, calls)
		mu.Unlock()
	})
}

func TestScanSessionManual(t *testing.T) {
	t.Run("manual entry resolves", func(t *testing.T) {
		provider := &fakeProvider{}
		svc := newTestScanService(provider, okValidate(ValidationResult{Valid: true, Message: MsgValidated}))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		require.NoError(t, session.SubmitManual(context.Background(), "TICKET-42"))
		status := session.Status()
		assert.Equal(t, ScanStateResolved, status.State)
		assert.Equal(t, MsgValidated, status.Verdict.Message)
	})

	t.Run("double submit is rejected while in flight", func(t *testing.T) {
		provider := &fakeProvider{}
		release := make(chan struct{})
		started := make(chan struct{})
		var once sync.Once
		validate := func(ctx context.Context, rawText string) (ValidationResult, error) {
			once.Do(func() { close(started) })
			<-release
			return ValidationResult{Valid: true}, nil
		}
		svc := newTestScanService(provider, validate)

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		go session.SubmitManual(context.Background(), "first")
		<-started

		err = session.SubmitManual(context.Background(), "second")
		assert.ErrorIs(t, err, ErrValidationInFlight)

		close(release)
	})

	t.Run("closed session rejects entry", func(t *testing.T) {
		provider := &fakeProvider{}
		svc := newTestScanService(provider, okValidate(ValidationResult{}))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)
		require.NoError(t, svc.Close(session.ID))

		err = session.SubmitManual(context.Background(), "late")
		assert.ErrorIs(t, err, ErrSessionClosed)
	})
}

func TestScanSessionTransportError(t *testing.T) {
	provider := &fakeProvider{}
	fail := true
	var mu sync.Mutex
	validate := func(ctx context.Context, rawText string) (ValidationResult, error) {
		mu.Lock()
		defer mu.Unlock()
		if fail {
			return ValidationResult{}, errors.New("backend unreachable")
		}
		return ValidationResult{Valid: true, Message: MsgValidated}, nil
	}
	svc := newTestScanService(provider, validate)

	session, err := svc.Open(context.Background())
	require.NoError(t, err)

	// Transport failure is not a verdict: session errors and the lock releases
	require.NoError(t, session.SubmitManual(context.Background(), "TICKET-7"))
	status := session.Status()
	assert.Equal(t, ScanStateError, status.State)
	assert.Equal(t, MsgValidateFailed, status.Error)
	assert.Nil(t, status.Verdict)

	// The operator can retry the same entry once the backend recovers
	mu.Lock()
	fail = false
	mu.Unlock()

	require.NoError(t, session.SubmitManual(context.Background(), "TICKET-7"))
	assert.Equal(t, ScanStateResolved, session.Status().State)
}

func TestScanSessionScanAgain(t *testing.T) {
	t.Run("clears verdict and reacquires device", func(t *testing.T) {
		provider := &fakeProvider{}
		svc := newTestScanService(provider, okValidate(ValidationResult{Valid: true, Message: MsgValidated}))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)
		session.Decode("ticket")
		require.Equal(t, ScanStateResolved, session.Status().State)

		require.NoError(t, session.ScanAgain(context.Background()))

		status := session.Status()
		assert.Equal(t, ScanStateScanning, status.State)
		assert.Nil(t, status.Verdict)
		assert.Equal(t, 2, provider.acquireCount())

		// A fresh decode works after restart
		session.Decode("another")
		assert.Equal(t, ScanStateResolved, session.Status().State)
	})

	t.Run("rejected while scanning", func(t *testing.T) {
		provider := &fakeProvider{}
		svc := newTestScanService(provider, okValidate(ValidationResult{}))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		err = session.ScanAgain(context.Background())
		assert.ErrorIs(t, err, ErrNotResolved)
	})

	t.Run("reacquire failure lands in error state", func(t *testing.T) {
		provider := &fakeProvider{}
		svc := newTestScanService(provider, okValidate(ValidationResult{Valid: true}))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)
		session.Decode("ticket")

		provider.mu.Lock()
		provider.failures = 1
		provider.mu.Unlock()

		err = session.ScanAgain(context.Background())
		assert.ErrorIs(t, err, ErrDeviceFailed)

		status := session.Status()
		assert.Equal(t, ScanStateError, status.State)
		assert.Equal(t, MsgRestartFailed, status.Error)

		// Error state allows another restart attempt
		require.NoError(t, session.ScanAgain(context.Background()))
		assert.Equal(t, ScanStateScanning, session.Status().State)
	})
}

func TestStopBounded(t *testing.T) {
	// A device whose Stop never returns must not wedge the session
	device := &fakeDevice{blockStop: true}

	start := time.Now()
	stopBounded(device, 20*time.Millisecond)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, time.Second)
}

func TestScanServiceClose(t *testing.T) {
	t.Run("close removes the session", func(t *testing.T) {
		provider := &fakeProvider{}
		svc := newTestScanService(provider, okValidate(ValidationResult{}))

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		require.NoError(t, svc.Close(session.ID))
		_, err = svc.Get(session.ID)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		assert.ErrorIs(t, svc.Close(session.ID), ErrSessionNotFound)
	})

	t.Run("close discards in-flight verdict", func(t *testing.T) {
		provider := &fakeProvider{}
		release := make(chan struct{})
		started := make(chan struct{})
		var once sync.Once
		validate := func(ctx context.Context, rawText string) (ValidationResult, error) {
			once.Do(func() { close(started) })
			<-release
			return ValidationResult{Valid: true, Message: MsgValidated}, nil
		}
		svc := newTestScanService(provider, validate)

		session, err := svc.Open(context.Background())
		require.NoError(t, err)

		done := make(chan struct{})
		go func() {
			session.Decode("slow")
			close(done)
		}()
		<-started

		require.NoError(t, svc.Close(session.ID))
		close(release)
		<-done

		status := session.Status()
		assert.Equal(t, ScanStateClosed, status.State)
		assert.Nil(t, status.Verdict)
	})
}
