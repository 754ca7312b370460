package repositories

import (
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// TransitRepository handles master-data and live-network database operations
type TransitRepository struct {
	db *gorm.DB
}

// NewTransitRepository creates a new transit repository
func NewTransitRepository(db *gorm.DB) *TransitRepository {
	return &TransitRepository{db: db}
}

// ============================================================
// Master Queries
// ============================================================

// GetFareTypes returns all active fare types
func (r *TransitRepository) GetFareTypes() ([]models.FareType, error) {
	var fares []models.FareType
	err := r.db.Where("is_active = ?", true).Order("price ASC").Find(&fares).Error
	return fares, err
}

// GetFareTypeByCode returns a fare type by code
func (r *TransitRepository) GetFareTypeByCode(code string) (*models.FareType, error) {
	var fare models.FareType
	err := r.db.Where("code = ?", code).First(&fare).Error
	return &fare, err
}

// GetStations returns all active stations ordered by name
func (r *TransitRepository) GetStations() ([]models.Station, error) {
	var stations []models.Station
	err := r.db.Where("is_active = ?", true).Order("name ASC").Find(&stations).Error
	return stations, err
}

// GetStationsByLine returns stations on a line in display order
func (r *TransitRepository) GetStationsByLine(line string) ([]models.Station, error) {
	var stations []models.Station
	err := r.db.
		Where("line = ? AND is_active = ?", line, true).
		Order("display_order ASC").
		Find(&stations).Error
	return stations, err
}

// GetMetroStationsMatching returns metro stations whose name matches either endpoint
func (r *TransitRepository) GetMetroStationsMatching(from, to string) ([]models.Station, error) {
	var stations []models.Station
	err := r.db.
		Where("line_type = ? AND is_active = ? AND (name LIKE ? OR name LIKE ?)",
			models.LineTypeMetro, true, "%"+from+"%", "%"+to+"%").
		Find(&stations).Error
	return stations, err
}

// GetRoutes returns all routes ordered by origin station
func (r *TransitRepository) GetRoutes() ([]models.Route, error) {
	var routes []models.Route
	err := r.db.Order("from_station ASC").Find(&routes).Error
	return routes, err
}

// GetRoutesBetween returns routes touching either endpoint
func (r *TransitRepository) GetRoutesBetween(from, to string) ([]models.Route, error) {
	var routes []models.Route
	err := r.db.
		Where("from_station = ? OR to_station = ?", from, to).
		Find(&routes).Error
	return routes, err
}

// ============================================================
// CrowdData Queries
// ============================================================

// GetCrowdData returns crowd data, optionally filtered by line, newest first
func (r *TransitRepository) GetCrowdData(line string) ([]models.CrowdData, error) {
	query := r.db.Order("updated_at DESC")
	if line != "" {
		query = query.Where("line = ?", line)
	}
	var data []models.CrowdData
	err := query.Find(&data).Error
	return data, err
}

// GetTrainCrowd returns crowd data for a train ordered by coach
func (r *TransitRepository) GetTrainCrowd(trainNumber string) ([]models.CrowdData, error) {
	var data []models.CrowdData
	err := r.db.
		Where("train_number = ?", trainNumber).
		Order("coach_number ASC").
		Find(&data).Error
	return data, err
}

// GetRecentCrowdData returns crowd data updated since the given instant
func (r *TransitRepository) GetRecentCrowdData(since time.Time) ([]models.CrowdData, error) {
	var data []models.CrowdData
	err := r.db.Where("updated_at >= ?", since).Find(&data).Error
	return data, err
}

// CountActiveTrains counts distinct trains reporting since the given instant
func (r *TransitRepository) CountActiveTrains(since time.Time) (int64, error) {
	var count int64
	err := r.db.
		Model(&models.CrowdData{}).
		Where("updated_at >= ?", since).
		Distinct("train_number").
		Count(&count).Error
	return count, err
}

// GetAverageOccupancy returns the network-wide average occupancy ratio (0..1)
func (r *TransitRepository) GetAverageOccupancy(since time.Time) (float64, error) {
	var avg *float64
	err := r.db.
		Model(&models.CrowdData{}).
		Where("updated_at >= ? AND capacity > 0", since).
		Select("AVG(passenger_count / capacity)").
		Scan(&avg).Error
	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// UpdateCrowdReading updates a single coach reading
func (r *TransitRepository) UpdateCrowdReading(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.CrowdData{}).Where("id = ?", id).Updates(updates).Error
}

// ============================================================
// Alert Queries
// ============================================================

// CreateAlert inserts a new alert
func (r *TransitRepository) CreateAlert(alert *models.Alert) error {
	return r.db.Create(alert).Error
}

// GetActiveAlerts returns unexpired alerts, newest first
func (r *TransitRepository) GetActiveAlerts(now time.Time) ([]models.Alert, error) {
	var alerts []models.Alert
	err := r.db.
		Where("expires_at > ?", now).
		Order("created_at DESC").
		Find(&alerts).Error
	return alerts, err
}

// CountAlertsByTypeSince counts alerts of a type created since the given instant
func (r *TransitRepository) CountAlertsByTypeSince(alertType string, since time.Time) (int64, error) {
	var count int64
	err := r.db.
		Model(&models.Alert{}).
		Where("type = ? AND created_at >= ?", alertType, since).
		Count(&count).Error
	return count, err
}
