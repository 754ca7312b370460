package repositories

import (
	"context"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"
)

// UserRepository defines user repository interface
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, offset, limit int) ([]*models.User, int64, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// RefreshTokenRepository defines refresh token repository interface
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *models.RefreshToken) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, id uint) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uint) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// TicketRepository defines ticket repository interface.
//
// MarkUsedIf is the conditional status transition that serializes concurrent
// redemption attempts at the store: the UPDATE is guarded by the expected prior
// status, and a false return means another caller won the race.
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	GetByQRCode(ctx context.Context, code string) (*models.Ticket, error)
	MarkUsedIf(ctx context.Context, id, expectedStatus string, usedAt time.Time) (bool, error)
	ListByUser(ctx context.Context, userID uint) ([]models.Ticket, error)
	ListActiveByUser(ctx context.Context, userID uint, now time.Time) ([]models.Ticket, error)
	List(ctx context.Context, status string, offset, limit int) ([]models.Ticket, int64, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}
