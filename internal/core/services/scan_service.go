package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Scan session errors
var (
	ErrSessionNotFound    = errors.New("scan session not found")
	ErrSessionClosed      = errors.New("scan session is closed")
	ErrValidationInFlight = errors.New("a validation is already in flight")
	ErrDeviceFailed       = errors.New("capture device unavailable")
	ErrNotResolved        = errors.New("session has no verdict to clear")
)

// User-facing scan error messages
const (
	MsgCameraFailed   = "Failed to start camera. Please ensure camera permissions are granted."
	MsgRestartFailed  = "Failed to restart camera"
	MsgValidateFailed = "Failed to validate ticket"
)

// DefaultStopTimeout bounds how long a device stop may block. Camera teardown
// is unreliable on some hosts; on expiry the device is treated as stopped.
const DefaultStopTimeout = 800 * time.Millisecond

// ScanState is a scan session lifecycle state
type ScanState string

const (
	ScanStateIdle       ScanState = "idle"
	ScanStateAcquiring  ScanState = "acquiring"
	ScanStateScanning   ScanState = "scanning"
	ScanStateProcessing ScanState = "processing"
	ScanStateResolved   ScanState = "resolved"
	ScanStateError      ScanState = "error"
	ScanStateClosed     ScanState = "closed"
)

// CaptureDevice is an acquired decode pipeline. Start begins the passive
// decode loop; frames with no code are never reported. Stop releases the
// device and should respect the context deadline.
type CaptureDevice interface {
	Start(onDecode func(text string)) error
	Stop(ctx context.Context) error
}

// DeviceProvider acquires capture devices. A session owns the device it
// acquired exclusively until it stops it.
type DeviceProvider interface {
	Acquire(ctx context.Context) (CaptureDevice, error)
}

// ValidateFunc submits decoded text for validation. A returned error is a
// transport failure; negative verdicts arrive inside the ValidationResult.
type ValidateFunc func(ctx context.Context, rawText string) (ValidationResult, error)

// ============================================================
// ScanSession
// ============================================================

// ScanSession manages a single logical scanning attempt: device ownership,
// the decode-once guarantee, manual-entry fallback, and restart-after-result.
type ScanSession struct {
	ID string

	mu          sync.Mutex
	state       ScanState
	device      CaptureDevice
	decodeLock  bool
	verdict     *ValidationResult
	lastError   string
	provider    DeviceProvider
	validate    ValidateFunc
	stopTimeout time.Duration
}

// SessionStatus is a point-in-time snapshot of a session
type SessionStatus struct {
	ID      string            `json:"id"`
	State   ScanState         `json:"state"`
	Verdict *ValidationResult `json:"verdict,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Status returns a snapshot of the session
func (s *ScanSession) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionStatus{
		ID:      s.ID,
		State:   s.state,
		Verdict: s.verdict,
		Error:   s.lastError,
	}
}

// open acquires a device and enters Scanning. Called once, on session creation.
func (s *ScanSession) open(ctx context.Context) error {
	s.mu.Lock()
	s.state = ScanStateAcquiring
	s.mu.Unlock()

	device, err := s.provider.Acquire(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = ScanStateError
		s.lastError = MsgCameraFailed
		s.mu.Unlock()
		return ErrDeviceFailed
	}

	if err := device.Start(s.Decode); err != nil {
		stopBounded(device, s.stopTimeout)
		s.mu.Lock()
		s.state = ScanStateError
		s.lastError = MsgCameraFailed
		s.mu.Unlock()
		return ErrDeviceFailed
	}

	s.mu.Lock()
	s.device = device
	s.state = ScanStateScanning
	s.mu.Unlock()
	return nil
}

// Decode delivers one decoded frame from the session's capture pipeline.
// The first decode per attempt wins: the decode-lock is taken before the
// validate call is issued, so a second near-simultaneous decode is dropped
// while the first one's request is still in flight.
func (s *ScanSession) Decode(text string) {
	s.mu.Lock()
	if s.state != ScanStateScanning || s.decodeLock {
		s.mu.Unlock()
		return
	}
	s.decodeLock = true
	s.state = ScanStateProcessing
	device := s.device
	s.mu.Unlock()

	if device != nil {
		stopBounded(device, s.stopTimeout)
	}

	s.finishValidation(s.validate(context.Background(), text))
}

// SubmitManual accepts operator-entered text directly into Processing, under
// the same decode-lock discipline as camera decodes.
func (s *ScanSession) SubmitManual(ctx context.Context, text string) error {
	s.mu.Lock()
	if s.state == ScanStateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.decodeLock || s.state == ScanStateProcessing {
		s.mu.Unlock()
		return ErrValidationInFlight
	}
	s.decodeLock = true
	s.state = ScanStateProcessing
	device := s.device
	s.mu.Unlock()

	if device != nil {
		stopBounded(device, s.stopTimeout)
	}

	s.finishValidation(s.validate(ctx, text))
	return nil
}

// finishValidation records the outcome of a validate call. A session closed
// while the call was in flight discards the result.
func (s *ScanSession) finishValidation(result ValidationResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == ScanStateClosed {
		return
	}

	if err != nil {
		// Transport failure, not a negative verdict: release the lock so the
		// operator can retry.
		s.decodeLock = false
		s.state = ScanStateError
		s.lastError = MsgValidateFailed
		return
	}

	s.verdict = &result
	s.state = ScanStateResolved
}

// ScanAgain clears the verdict and decode-lock, releases the device, and
// reacquires it for a fresh attempt. Only valid from Resolved or Error.
func (s *ScanSession) ScanAgain(ctx context.Context) error {
	s.mu.Lock()
	if s.state == ScanStateClosed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state != ScanStateResolved && s.state != ScanStateError {
		s.mu.Unlock()
		return ErrNotResolved
	}
	device := s.device
	s.device = nil
	s.verdict = nil
	s.decodeLock = false
	s.lastError = ""
	s.state = ScanStateAcquiring
	s.mu.Unlock()

	if device != nil {
		stopBounded(device, s.stopTimeout)
	}

	fresh, err := s.provider.Acquire(ctx)
	if err != nil {
		s.mu.Lock()
		s.state = ScanStateError
		s.lastError = MsgRestartFailed
		s.mu.Unlock()
		return ErrDeviceFailed
	}

	if err := fresh.Start(s.Decode); err != nil {
		stopBounded(fresh, s.stopTimeout)
		s.mu.Lock()
		s.state = ScanStateError
		s.lastError = MsgRestartFailed
		s.mu.Unlock()
		return ErrDeviceFailed
	}

	s.mu.Lock()
	s.device = fresh
	s.state = ScanStateScanning
	s.mu.Unlock()
	return nil
}

// close tears the session down. Device release is best-effort with a bounded
// wait; an in-flight validate may complete but its result is discarded.
func (s *ScanSession) close() {
	s.mu.Lock()
	if s.state == ScanStateClosed {
		s.mu.Unlock()
		return
	}
	device := s.device
	s.device = nil
	s.state = ScanStateClosed
	s.mu.Unlock()

	if device != nil {
		stopBounded(device, s.stopTimeout)
	}
}

// stopBounded stops a device racing against a short timeout. A stop that does
// not complete in time is treated as already stopped, never as fatal.
func stopBounded(device CaptureDevice, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- device.Stop(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("⚠️ Capture device stop timed out after %s, assuming stopped", timeout)
	}
}

// ============================================================
// ScanService — session registry
// ============================================================

// ScanService manages scan sessions for operators
type ScanService struct {
	mu          sync.RWMutex
	sessions    map[string]*ScanSession
	provider    DeviceProvider
	validate    ValidateFunc
	stopTimeout time.Duration
}

// NewScanService creates a new scan service backed by the ticket lifecycle
func NewScanService(ticketService *TicketService, provider DeviceProvider) *ScanService {
	validate := func(ctx context.Context, rawText string) (ValidationResult, error) {
		if err := ctx.Err(); err != nil {
			return ValidationResult{}, err
		}
		return ticketService.Validate(ctx, rawText), nil
	}
	return &ScanService{
		sessions:    make(map[string]*ScanSession),
		provider:    provider,
		validate:    validate,
		stopTimeout: DefaultStopTimeout,
	}
}

// Open creates a session and starts its first scanning attempt. The session
// is registered even when device acquisition fails, so the operator can see
// the error and retry via ScanAgain.
func (s *ScanService) Open(ctx context.Context) (*ScanSession, error) {
	session := &ScanSession{
		ID:          uuid.New().String(),
		state:       ScanStateIdle,
		provider:    s.provider,
		validate:    s.validate,
		stopTimeout: s.stopTimeout,
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	err := session.open(ctx)
	if err != nil {
		log.Printf("❌ Scan session %s failed to acquire device", session.ID)
		return session, err
	}

	log.Printf("✅ Scan session opened: %s", session.ID)
	return session, nil
}

// Get returns a registered session by ID
func (s *ScanService) Get(id string) (*ScanSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Close tears down a session and removes it from the registry
func (s *ScanService) Close(id string) error {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if ok {
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}

	session.close()
	log.Printf("✅ Scan session closed: %s", id)
	return nil
}
