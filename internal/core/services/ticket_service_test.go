package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fakeTicketRepo is an in-memory TicketRepository for service tests. MarkUsedIf
// holds the mutex across check-and-set, mirroring the conditional UPDATE.
type fakeTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*models.Ticket
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*models.Ticket)}
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *models.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *ticket
	r.tickets[ticket.ID] = &clone
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *ticket
	return &clone, nil
}

func (r *fakeTicketRepo) GetByQRCode(ctx context.Context, code string) (*models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.QRCode == code {
			clone := *ticket
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeTicketRepo) MarkUsedIf(ctx context.Context, id, expectedStatus string, usedAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok || ticket.Status != expectedStatus {
		return false, nil
	}
	ticket.Status = models.TicketStatusUsed
	ticket.UsedAt = &usedAt
	return true, nil
}

func (r *fakeTicketRepo) ListByUser(ctx context.Context, userID uint) ([]models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ticket
	for _, ticket := range r.tickets {
		if ticket.UserID == userID {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) ListActiveByUser(ctx context.Context, userID uint, now time.Time) ([]models.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ticket
	for _, ticket := range r.tickets {
		if ticket.UserID == userID && ticket.Status == models.TicketStatusActive && now.Before(ticket.ValidUntil) {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (r *fakeTicketRepo) List(ctx context.Context, status string, offset, limit int) ([]models.Ticket, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Ticket
	for _, ticket := range r.tickets {
		if status == "" || ticket.Status == status {
			out = append(out, *ticket)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeTicketRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, ticket := range r.tickets {
		counts[ticket.Status]++
	}
	return counts, nil
}

// forceExpire backdates a ticket's validity window
func (r *fakeTicketRepo) forceExpire(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tickets[id].ValidUntil = time.Now().Add(-time.Hour)
}

func (r *fakeTicketRepo) status(id string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tickets[id].Status
}

func newTestTicketService() (*TicketService, *fakeTicketRepo) {
	repo := newFakeTicketRepo()
	return NewTicketService(repo, nil), repo
}

func TestValidityDeadline(t *testing.T) {
	issued := time.Date(2026, 8, 28, 10, 30, 0, 0, time.Local)

	t.Run("single expires end of issuance day", func(t *testing.T) {
		deadline := validityDeadline(issued, models.TicketTypeSingle)
		assert.Equal(t, 2026, deadline.Year())
		assert.Equal(t, time.August, deadline.Month())
		assert.Equal(t, 28, deadline.Day())
		assert.Equal(t, 23, deadline.Hour())
		assert.Equal(t, 59, deadline.Minute())
		assert.Equal(t, 59, deadline.Second())
	})

	t.Run("return and daily share the end-of-day rule", func(t *testing.T) {
		assert.Equal(t,
			validityDeadline(issued, models.TicketTypeReturn),
			validityDeadline(issued, models.TicketTypeDaily),
		)
	})

	t.Run("monthly expires one calendar month later", func(t *testing.T) {
		deadline := validityDeadline(issued, models.TicketTypeMonthly)
		assert.Equal(t, time.September, deadline.Month())
		assert.Equal(t, 28, deadline.Day())
		assert.Equal(t, issued.Hour(), deadline.Hour())
	})

	t.Run("near-midnight single still expires same day", func(t *testing.T) {
		lateNight := time.Date(2026, 8, 28, 23, 58, 0, 0, time.Local)
		deadline := validityDeadline(lateNight, models.TicketTypeSingle)
		assert.Equal(t, 28, deadline.Day())
		assert.True(t, deadline.After(lateNight))
	})
}

func TestPurchase(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	input := &PurchaseInput{
		Type:        models.TicketTypeSingle,
		Line:        "Western Line",
		FromStation: "Churchgate",
		ToStation:   "Andheri",
	}

	t.Run("issues active ticket with scan code", func(t *testing.T) {
		ticket, err := svc.Purchase(ctx, 7, input)
		require.NoError(t, err)
		assert.NotEmpty(t, ticket.ID)
		assert.Equal(t, uint(7), ticket.UserID)
		assert.Equal(t, models.TicketStatusActive, ticket.Status)
		assert.Contains(t, ticket.QRCode, ticket.ID)
		assert.True(t, ticket.ValidUntil.After(time.Now()))
	})

	t.Run("rejects anonymous purchase", func(t *testing.T) {
		_, err := svc.Purchase(ctx, 0, input)
		assert.ErrorIs(t, err, ErrAuthenticationNeeded)
	})

	t.Run("rejects unknown ticket type", func(t *testing.T) {
		bad := *input
		bad.Type = "weekly"
		_, err := svc.Purchase(ctx, 7, &bad)
		assert.ErrorIs(t, err, ErrInvalidTicketType)
	})
}

func TestValidate(t *testing.T) {
	ctx := context.Background()

	purchase := func(t *testing.T, svc *TicketService) *models.Ticket {
		t.Helper()
		ticket, err := svc.Purchase(ctx, 3, &PurchaseInput{
			Type:        models.TicketTypeSingle,
			Line:        "Central Line",
			FromStation: "CSMT",
			ToStation:   "Thane",
		})
		require.NoError(t, err)
		return ticket
	}

	t.Run("valid ticket redeems via payload", func(t *testing.T) {
		svc, _ := newTestTicketService()
		ticket := purchase(t, svc)

		result := svc.Validate(ctx, ticket.QRCode)
		assert.True(t, result.Valid)
		assert.Equal(t, MsgValidated, result.Message)
		require.NotNil(t, result.Ticket)
		assert.Equal(t, models.TicketStatusUsed, result.Ticket.Status)
		assert.NotNil(t, result.Ticket.UsedAt)
	})

	t.Run("valid ticket redeems via bare ID", func(t *testing.T) {
		svc, _ := newTestTicketService()
		ticket := purchase(t, svc)

		result := svc.Validate(ctx, ticket.ID)
		assert.True(t, result.Valid)
	})

	t.Run("legacy scan code resolves by verbatim match", func(t *testing.T) {
		svc, repo := newTestTicketService()

		// Tickets issued before the structured payload carry an opaque code
		legacy := &models.Ticket{
			ID:         "legacy-1",
			UserID:     3,
			Type:       models.TicketTypeSingle,
			QRCode:     "SRM|LEGACY|0042",
			ValidUntil: time.Now().Add(time.Hour),
			Status:     models.TicketStatusActive,
		}
		require.NoError(t, repo.Create(ctx, legacy))

		result := svc.Validate(ctx, "SRM|LEGACY|0042")
		assert.True(t, result.Valid)
		assert.Equal(t, models.TicketStatusUsed, repo.status("legacy-1"))
	})

	t.Run("second scan reports already used", func(t *testing.T) {
		svc, _ := newTestTicketService()
		ticket := purchase(t, svc)

		first := svc.Validate(ctx, ticket.QRCode)
		require.True(t, first.Valid)

		second := svc.Validate(ctx, ticket.QRCode)
		assert.False(t, second.Valid)
		assert.Equal(t, MsgAlreadyUsed, second.Message)

		// Repeating the negative is idempotent
		third := svc.Validate(ctx, ticket.QRCode)
		assert.Equal(t, MsgAlreadyUsed, third.Message)
	})

	t.Run("expired ticket is rejected without status rewrite", func(t *testing.T) {
		svc, repo := newTestTicketService()
		ticket := purchase(t, svc)
		repo.forceExpire(ticket.ID)

		result := svc.Validate(ctx, ticket.QRCode)
		assert.False(t, result.Valid)
		assert.Equal(t, MsgExpired, result.Message)
		assert.Equal(t, models.TicketStatusActive, repo.status(ticket.ID))

		// Still expired on retry, still not rewritten
		again := svc.Validate(ctx, ticket.QRCode)
		assert.Equal(t, MsgExpired, again.Message)
		assert.Equal(t, models.TicketStatusActive, repo.status(ticket.ID))
	})

	t.Run("unknown ticket yields invalid verdict", func(t *testing.T) {
		svc, _ := newTestTicketService()

		result := svc.Validate(ctx, "no-such-ticket")
		assert.False(t, result.Valid)
		assert.Equal(t, MsgInvalidTicket, result.Message)
		assert.Nil(t, result.Ticket)
	})

	t.Run("garbage input yields invalid verdict not panic", func(t *testing.T) {
		svc, _ := newTestTicketService()

		for _, raw := range []string{"", "   ", "{not json", `{"userId":"9"}`} {
			result := svc.Validate(ctx, raw)
			assert.False(t, result.Valid, "input %q", raw)
		}
	})

	t.Run("concurrent scans redeem exactly once", func(t *testing.T) {
		svc, _ := newTestTicketService()
		ticket := purchase(t, svc)

		const scanners = 16
		results := make(chan ValidationResult, scanners)
		var start sync.WaitGroup
		start.Add(1)

		for i := 0; i < scanners; i++ {
			go func() {
				start.Wait()
				results <- svc.Validate(ctx, ticket.QRCode)
			}()
		}
		start.Done()

		wins := 0
		for i := 0; i < scanners; i++ {
			if r := <-results; r.Valid {
				wins++
			} else {
				assert.Equal(t, MsgAlreadyUsed, r.Message)
			}
		}
		assert.Equal(t, 1, wins)
	})
}

func TestGetTicketByID(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Purchase(ctx, 5, &PurchaseInput{
		Type:        models.TicketTypeDaily,
		Line:        "Harbour Line",
		FromStation: "CSMT",
		ToStation:   "Vashi",
	})
	require.NoError(t, err)

	t.Run("owner can read", func(t *testing.T) {
		got, err := svc.GetTicketByID(ctx, ticket.ID, 5, false)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, got.ID)
	})

	t.Run("stranger is rejected", func(t *testing.T) {
		_, err := svc.GetTicketByID(ctx, ticket.ID, 6, false)
		assert.ErrorIs(t, err, ErrNotTicketOwner)
	})

	t.Run("admin can read any ticket", func(t *testing.T) {
		got, err := svc.GetTicketByID(ctx, ticket.ID, 6, true)
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, got.ID)
	})

	t.Run("missing ticket", func(t *testing.T) {
		_, err := svc.GetTicketByID(ctx, "missing", 5, true)
		assert.ErrorIs(t, err, ErrTicketNotFound)
	})
}

func TestQRImage(t *testing.T) {
	svc, _ := newTestTicketService()
	ctx := context.Background()

	ticket, err := svc.Purchase(ctx, 9, &PurchaseInput{
		Type:        models.TicketTypeSingle,
		Line:        "Western Line",
		FromStation: "Dadar",
		ToStation:   "Borivali",
	})
	require.NoError(t, err)

	png, err := svc.QRImage(ctx, ticket.ID, 9, false)
	require.NoError(t, err)
	require.NotEmpty(t, png)
	// PNG magic bytes
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])
}
