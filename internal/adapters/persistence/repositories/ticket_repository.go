package repositories

import (
	"context"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ticketRepository implements TicketRepository interface
type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

// Create inserts a new ticket
func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

// GetByID returns a ticket by ID
func (r *ticketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// GetByQRCode returns a ticket whose stored scan code equals the raw text verbatim
func (r *ticketRepository) GetByQRCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).Where("qr_code = ?", code).First(&ticket).Error
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// MarkUsedIf conditionally transitions a ticket to used.
// The status guard in the WHERE clause makes the transition a compare-and-swap:
// of two concurrent redemptions, exactly one sees RowsAffected == 1.
func (r *ticketRepository) MarkUsedIf(ctx context.Context, id, expectedStatus string, usedAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Where("id = ? AND status = ?", id, expectedStatus).
		Updates(map[string]interface{}{
			"status":  models.TicketStatusUsed,
			"used_at": usedAt,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListByUser returns all tickets for a user, newest first
func (r *ticketRepository) ListByUser(ctx context.Context, userID uint) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}

// ListActiveByUser returns active, unexpired tickets for a user
func (r *ticketRepository) ListActiveByUser(ctx context.Context, userID uint, now time.Time) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND valid_until > ?", userID, models.TicketStatusActive, now).
		Order("created_at DESC").
		Find(&tickets).Error
	return tickets, err
}

// List returns tickets with optional status filter and pagination (admin)
func (r *ticketRepository) List(ctx context.Context, status string, offset, limit int) ([]models.Ticket, int64, error) {
	var tickets []models.Ticket
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Ticket{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.
		Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&tickets).Error
	return tickets, total, err
}

// CountByStatus returns ticket counts grouped by status
func (r *ticketRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type Result struct {
		Status string
		Count  int64
	}
	var results []Result

	err := r.db.WithContext(ctx).
		Model(&models.Ticket{}).
		Select("status, COUNT(*) as count").
		Group("status").
		Find(&results).Error

	statusMap := map[string]int64{
		models.TicketStatusActive:  0,
		models.TicketStatusUsed:    0,
		models.TicketStatusExpired: 0,
	}
	for _, res := range results {
		statusMap[res.Status] = res.Count
	}
	return statusMap, err
}
