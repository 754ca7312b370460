package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Ticketing Tables
// ============================================================

// Ticket statuses — transitions are one-directional:
// active → used (redemption) or active → expired (derived from valid_until)
const (
	TicketStatusActive  = "active"
	TicketStatusUsed    = "used"
	TicketStatusExpired = "expired"
)

// Ticket types (closed set, must match fare_types codes)
const (
	TicketTypeSingle  = "single"
	TicketTypeReturn  = "return"
	TicketTypeDaily   = "daily"
	TicketTypeMonthly = "monthly"
)

// Ticket represents tickets table
type Ticket struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	UserID      uint       `gorm:"not null;index" json:"user_id"`
	Type        string     `gorm:"size:10;not null" json:"type"`
	Line        string     `gorm:"size:50;not null" json:"line"`
	FromStation string     `gorm:"size:100;not null" json:"from_station"`
	ToStation   string     `gorm:"size:100;not null" json:"to_station"`
	QRCode      string     `gorm:"size:500;uniqueIndex;not null" json:"qr_code"`
	ValidUntil  time.Time  `gorm:"not null;index" json:"valid_until"`
	Status      string     `gorm:"size:10;default:'active';index" json:"status"`
	UsedAt      *time.Time `json:"used_at"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	User        User       `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Ticket) TableName() string {
	return "tickets"
}

// IsExpired reports whether the ticket is past its validity deadline.
// Expiry is a derived read-time fact — status is never rewritten here.
func (t *Ticket) IsExpired(now time.Time) bool {
	return t.Status == TicketStatusExpired || now.After(t.ValidUntil)
}

// ============================================================
// Master Tables
// ============================================================

// FareType represents fare_types table (display prices only)
type FareType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Code        string    `gorm:"size:10;uniqueIndex;not null" json:"code"`
	Name        string    `gorm:"size:50;not null" json:"name"`
	Price       int       `gorm:"not null" json:"price"`
	Description string    `gorm:"size:255" json:"description"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (FareType) TableName() string {
	return "fare_types"
}

// Line types
const (
	LineTypeSuburban = "suburban"
	LineTypeMetro    = "metro"
)

// Station represents stations table
type Station struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Name         string         `gorm:"size:100;not null;index" json:"name"`
	Line         string         `gorm:"size:50;not null;index" json:"line"`
	LineType     string         `gorm:"size:10;default:'suburban'" json:"line_type"`
	DisplayOrder int            `gorm:"default:0" json:"display_order"`
	IsActive     bool           `gorm:"default:true" json:"is_active"`
	CreatedAt    time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Station) TableName() string {
	return "stations"
}

// Route represents routes table (static fare/duration tables, not a planner)
type Route struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	FromStation     string    `gorm:"size:100;not null;index" json:"from_station"`
	ToStation       string    `gorm:"size:100;not null;index" json:"to_station"`
	Line            string    `gorm:"size:50;not null" json:"line"`
	DistanceKm      float64   `gorm:"type:decimal(6,2)" json:"distance_km"`
	BaseFare        int       `gorm:"not null" json:"base_fare"`
	DurationMinutes int       `gorm:"not null" json:"duration_minutes"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Route) TableName() string {
	return "routes"
}

// ============================================================
// Live Network Tables
// ============================================================

// Occupancy levels
const (
	OccupancyLow      = "low"
	OccupancyModerate = "moderate"
	OccupancyHigh     = "high"
)

// CrowdData represents crowd_data table (per line/train/coach occupancy)
type CrowdData struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Line           string    `gorm:"size:50;not null;index" json:"line"`
	TrainNumber    string    `gorm:"size:20;not null;index" json:"train_number"`
	Direction      string    `gorm:"size:20" json:"direction"`
	CoachNumber    int       `gorm:"not null" json:"coach_number"`
	OccupancyLevel string    `gorm:"size:10;not null" json:"occupancy_level"`
	PassengerCount int       `gorm:"not null" json:"passenger_count"`
	Capacity       int       `gorm:"not null" json:"capacity"`
	Platform       string    `gorm:"size:10" json:"platform"`
	NextArrival    string    `gorm:"size:20" json:"next_arrival"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime;index" json:"updated_at"`
}

func (CrowdData) TableName() string {
	return "crowd_data"
}

// Alert types
const (
	AlertTypeCrowd      = "crowd"
	AlertTypeDelay      = "delay"
	AlertTypeDisruption = "disruption"
	AlertTypeSafety     = "safety"
)

// Alert represents alerts table (service alerts with expiry)
type Alert struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Type      string    `gorm:"size:15;not null;index" json:"type"`
	Message   string    `gorm:"size:500;not null" json:"message"`
	Line      *string   `gorm:"size:50" json:"line"`
	Station   *string   `gorm:"size:100" json:"station"`
	Severity  string    `gorm:"size:10;not null" json:"severity"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
}

func (Alert) TableName() string {
	return "alerts"
}
