package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"
	"smartrail-mumbai/internal/adapters/persistence/repositories"
	"smartrail-mumbai/internal/core/domain"
	"smartrail-mumbai/internal/pkg/qrpayload"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

// Ticket errors
var (
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrInvalidTicketType    = errors.New("invalid ticket type")
	ErrAuthenticationNeeded = errors.New("authentication required")
	ErrNotTicketOwner       = errors.New("ticket belongs to another user")
)

// Validation verdict messages (user-facing, returned inside ValidationResult)
const (
	MsgInvalidTicket = "Invalid ticket"
	MsgAlreadyUsed   = "Ticket already used"
	MsgExpired       = "Ticket expired"
	MsgValidated     = "Ticket validated successfully"
	MsgInvalidQR     = "Invalid QR code"
)

// QRImageSize is the pixel size of rendered ticket QR images
const QRImageSize = 256

// TicketService handles the ticket lifecycle: issuance with computed validity
// windows and validation/redemption of scanned codes
type TicketService struct {
	ticketRepo repositories.TicketRepository
	hub        *RealtimeHub
}

// NewTicketService creates a new ticket service
func NewTicketService(ticketRepo repositories.TicketRepository, hub *RealtimeHub) *TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		hub:        hub,
	}
}

// PurchaseInput represents a ticket purchase request
type PurchaseInput struct {
	Type        string `json:"type" validate:"required"`
	Line        string `json:"line" validate:"required"`
	FromStation string `json:"from_station" validate:"required"`
	ToStation   string `json:"to_station" validate:"required"`
}

// ValidationResult is the verdict of a validation attempt. Negative verdicts
// are first-class return values, never errors.
type ValidationResult struct {
	Valid   bool           `json:"valid"`
	Ticket  *models.Ticket `json:"ticket,omitempty"`
	Message string         `json:"message"`
}

// validityDeadline computes the validity deadline for a ticket issued at the
// given instant: single/return/daily expire at the end of the issuance
// calendar day; monthly expires one calendar month after issuance.
func validityDeadline(issuedAt time.Time, ticketType string) time.Time {
	switch ticketType {
	case models.TicketTypeMonthly:
		return issuedAt.AddDate(0, 1, 0)
	default:
		y, m, d := issuedAt.Date()
		return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), issuedAt.Location())
	}
}

func isValidTicketType(t string) bool {
	switch t {
	case models.TicketTypeSingle, models.TicketTypeReturn, models.TicketTypeDaily, models.TicketTypeMonthly:
		return true
	}
	return false
}

// Purchase issues a new ticket for an authenticated user
func (s *TicketService) Purchase(ctx context.Context, userID uint, input *PurchaseInput) (*models.Ticket, error) {
	// 1. Owner must be established
	if userID == 0 {
		return nil, ErrAuthenticationNeeded
	}

	// 2. Fare category must be one of the closed set
	if !isValidTicketType(input.Type) {
		return nil, ErrInvalidTicketType
	}

	// 3. Generate identity + self-describing scan code
	now := time.Now()
	ticketID := uuid.New().String()
	qrData, err := qrpayload.Encode(qrpayload.Payload{
		TicketID:  ticketID,
		UserID:    fmt.Sprintf("%d", userID),
		Timestamp: now.UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	// 4. Persist with computed validity window
	ticket := &models.Ticket{
		ID:          ticketID,
		UserID:      userID,
		Type:        input.Type,
		Line:        input.Line,
		FromStation: input.FromStation,
		ToStation:   input.ToStation,
		QRCode:      qrData,
		ValidUntil:  validityDeadline(now, input.Type),
		Status:      models.TicketStatusActive,
	}

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	log.Printf("✅ Ticket issued: %s (%s, %s → %s, user %d)",
		ticket.ID, ticket.Type, ticket.FromStation, ticket.ToStation, userID)

	return ticket, nil
}

// Validate resolves raw scanned text to a ticket and applies the transition
// rules. Resolution order: structured payload identity, then verbatim scan
// code. The active → used transition is a conditional store update so two
// concurrent validations of the same ticket cannot both succeed.
//
// Store errors collapse to a negative verdict ("Invalid QR code"); validation
// never escalates to a fatal error.
func (s *TicketService) Validate(ctx context.Context, rawText string) ValidationResult {
	rawText = strings.TrimSpace(rawText)

	// 1. Resolve the ticket
	ticket, err := s.resolve(ctx, rawText)
	if err != nil {
		return ValidationResult{Valid: false, Message: MsgInvalidQR}
	}
	if ticket == nil {
		return ValidationResult{Valid: false, Message: MsgInvalidTicket}
	}

	// 2. Terminal states first — no mutation
	if ticket.Status == models.TicketStatusUsed {
		return ValidationResult{Valid: false, Ticket: ticket, Message: MsgAlreadyUsed}
	}

	now := time.Now()
	if ticket.IsExpired(now) {
		// Expiry is evaluated lazily; status is not rewritten here
		return ValidationResult{Valid: false, Ticket: ticket, Message: MsgExpired}
	}

	// 3. Conditional transition active → used
	ok, err := s.ticketRepo.MarkUsedIf(ctx, ticket.ID, models.TicketStatusActive, now)
	if err != nil {
		return ValidationResult{Valid: false, Message: MsgInvalidQR}
	}
	if !ok {
		// Lost the race: another scan redeemed it between read and update
		log.Printf("⚠️ Concurrent redemption detected for ticket %s", ticket.ID)
		return ValidationResult{Valid: false, Ticket: ticket, Message: MsgAlreadyUsed}
	}

	ticket.Status = models.TicketStatusUsed
	ticket.UsedAt = &now

	log.Printf("✅ Ticket validated: %s (user %d)", ticket.ID, ticket.UserID)

	result := ValidationResult{Valid: true, Ticket: ticket, Message: MsgValidated}
	if s.hub != nil {
		s.hub.BroadcastTicketValidation(result)
	}
	return result
}

// resolve finds a ticket for raw scan text. Returns (nil, nil) when nothing
// matches; errors only on store failure.
func (s *TicketService) resolve(ctx context.Context, rawText string) (*models.Ticket, error) {
	// Step 1: structured payload, or the raw text as a bare identity
	candidateID := rawText
	if payload, ok := qrpayload.Decode(rawText); ok {
		candidateID = payload.TicketID
	}

	if candidateID != "" {
		ticket, err := s.ticketRepo.GetByID(ctx, candidateID)
		if err == nil {
			return ticket, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// Step 2: verbatim scan-code match
	ticket, err := s.ticketRepo.GetByQRCode(ctx, rawText)
	if err == nil {
		return ticket, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return nil, err
}

// GetMyTickets returns all tickets for a user, newest first
func (s *TicketService) GetMyTickets(ctx context.Context, userID uint) ([]models.Ticket, error) {
	return s.ticketRepo.ListByUser(ctx, userID)
}

// GetActiveTickets returns the user's active, unexpired tickets
func (s *TicketService) GetActiveTickets(ctx context.Context, userID uint) ([]models.Ticket, error) {
	return s.ticketRepo.ListActiveByUser(ctx, userID, time.Now())
}

// GetTicketByID returns a ticket visible to the requester (owner or admin)
func (s *TicketService) GetTicketByID(ctx context.Context, id string, requesterID uint, isAdmin bool) (*models.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTicketNotFound
		}
		return nil, err
	}
	if ticket.UserID != requesterID && !isAdmin {
		return nil, ErrNotTicketOwner
	}
	return ticket, nil
}

// QRImage renders the stored scan code of a ticket as a PNG image
func (s *TicketService) QRImage(ctx context.Context, id string, requesterID uint, isAdmin bool) ([]byte, error) {
	ticket, err := s.GetTicketByID(ctx, id, requesterID, isAdmin)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(ticket.QRCode, qrcode.Medium, QRImageSize)
}

// ListTickets returns tickets with optional status filter (admin)
func (s *TicketService) ListTickets(ctx context.Context, status string, offset, limit int) ([]models.Ticket, int64, error) {
	if status != "" && status != models.TicketStatusActive &&
		status != models.TicketStatusUsed && status != models.TicketStatusExpired {
		return nil, 0, domain.ErrInvalidInput
	}
	return s.ticketRepo.List(ctx, status, offset, limit)
}

// CountByStatus returns ticket counts per status (admin stats)
func (s *TicketService) CountByStatus(ctx context.Context) (map[string]int64, error) {
	return s.ticketRepo.CountByStatus(ctx)
}
