package services

import (
	"context"
	"errors"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"
	"smartrail-mumbai/internal/adapters/persistence/repositories"
)

// Alert errors
var (
	ErrInvalidAlertType = errors.New("invalid alert type")
)

// NetworkStats summarizes the live network for the admin dashboard
type NetworkStats struct {
	ActiveTrains int64   `json:"active_trains"`
	AvgOccupancy float64 `json:"avg_occupancy"`
	Incidents    int64   `json:"incidents"`
}

// CreateAlertInput represents a service alert creation request
type CreateAlertInput struct {
	Type     string  `json:"type" validate:"required"`
	Message  string  `json:"message" validate:"required"`
	Line     *string `json:"line"`
	Station  *string `json:"station"`
	Severity string  `json:"severity" validate:"required"`
	TTLHours int     `json:"ttl_hours"`
}

// CrowdService serves live occupancy readings and service alerts
type CrowdService struct {
	transitRepo *repositories.TransitRepository
	hub         *RealtimeHub
}

// NewCrowdService creates a new crowd service
func NewCrowdService(transitRepo *repositories.TransitRepository, hub *RealtimeHub) *CrowdService {
	return &CrowdService{
		transitRepo: transitRepo,
		hub:         hub,
	}
}

// GetCrowdData returns readings for all lines, or one line, newest first
func (s *CrowdService) GetCrowdData(ctx context.Context, line string) ([]models.CrowdData, error) {
	return s.transitRepo.GetCrowdData(line)
}

// GetTrainCrowd returns per-coach readings for one train
func (s *CrowdService) GetTrainCrowd(ctx context.Context, trainNumber string) ([]models.CrowdData, error) {
	return s.transitRepo.GetTrainCrowd(trainNumber)
}

// GetActiveAlerts returns unexpired service alerts, newest first
func (s *CrowdService) GetActiveAlerts(ctx context.Context) ([]models.Alert, error) {
	return s.transitRepo.GetActiveAlerts(time.Now())
}

func isValidAlertType(t string) bool {
	switch t {
	case models.AlertTypeCrowd, models.AlertTypeDelay, models.AlertTypeDisruption, models.AlertTypeSafety:
		return true
	}
	return false
}

// CreateAlert publishes a new service alert and pushes it to subscribers
func (s *CrowdService) CreateAlert(ctx context.Context, input *CreateAlertInput) (*models.Alert, error) {
	if !isValidAlertType(input.Type) {
		return nil, ErrInvalidAlertType
	}

	ttl := input.TTLHours
	if ttl <= 0 {
		ttl = 4
	}

	alert := &models.Alert{
		Type:      input.Type,
		Message:   input.Message,
		Line:      input.Line,
		Station:   input.Station,
		Severity:  input.Severity,
		ExpiresAt: time.Now().Add(time.Duration(ttl) * time.Hour),
	}

	if err := s.transitRepo.CreateAlert(alert); err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastAlert(alert)
	}

	return alert, nil
}

// GetNetworkStats aggregates the admin dashboard numbers: trains reporting in
// the freshness window, average occupancy, and disruptions over the last day
func (s *CrowdService) GetNetworkStats(ctx context.Context) (*NetworkStats, error) {
	now := time.Now()

	activeTrains, err := s.transitRepo.CountActiveTrains(now.Add(-CrowdFreshness))
	if err != nil {
		return nil, err
	}

	avgOccupancy, err := s.transitRepo.GetAverageOccupancy(now.Add(-CrowdFreshness))
	if err != nil {
		return nil, err
	}

	incidents, err := s.transitRepo.CountAlertsByTypeSince(models.AlertTypeDisruption, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	return &NetworkStats{
		ActiveTrains: activeTrains,
		AvgOccupancy: avgOccupancy,
		Incidents:    incidents,
	}, nil
}
