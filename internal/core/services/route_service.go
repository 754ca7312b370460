package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"
	"smartrail-mumbai/internal/adapters/persistence/repositories"
)

// CrowdFreshness is how far back a crowd reading still counts as current
const CrowdFreshness = 5 * time.Minute

// crowdWeight penalizes busier options when ranking suggestions
var crowdWeight = map[string]int{
	models.OccupancyLow:      0,
	models.OccupancyModerate: 10,
	models.OccupancyHigh:     20,
}

// RouteStep is one leg of a suggested journey
type RouteStep struct {
	Type       string `json:"type"` // train | metro | walk
	Line       string `json:"line,omitempty"`
	From       string `json:"from"`
	To         string `json:"to"`
	Platform   string `json:"platform,omitempty"`
	Duration   int    `json:"duration"`
	CrowdLevel string `json:"crowd_level,omitempty"`
}

// RouteOption is a ranked journey suggestion
type RouteOption struct {
	ID         string      `json:"id"`
	From       string      `json:"from"`
	To         string      `json:"to"`
	Steps      []RouteStep `json:"steps"`
	TotalTime  int         `json:"total_time"`
	CrowdLevel string      `json:"crowd_level"`
	Fare       int         `json:"fare"`
	TimeSaved  int         `json:"time_saved,omitempty"`
}

// LineInfo describes a supported line for pickers and maps
type LineInfo struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Color string `json:"color"`
}

// RouteService builds crowd-aware journey suggestions from the static route
// tables and recent occupancy readings
type RouteService struct {
	transitRepo *repositories.TransitRepository
}

// NewRouteService creates a new route service
func NewRouteService(transitRepo *repositories.TransitRepository) *RouteService {
	return &RouteService{transitRepo: transitRepo}
}

// GetRoutes returns the static route table
func (s *RouteService) GetRoutes(ctx context.Context) ([]models.Route, error) {
	return s.transitRepo.GetRoutes()
}

// GetStations returns all station names
func (s *RouteService) GetStations(ctx context.Context) ([]string, error) {
	stations, err := s.transitRepo.GetStations()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(stations))
	for _, station := range stations {
		names = append(names, station.Name)
	}
	return names, nil
}

// GetLines returns the supported lines with their display colors
func (s *RouteService) GetLines() []LineInfo {
	return []LineInfo{
		{Name: "Western Line", Type: models.LineTypeSuburban, Color: "#00F0FF"},
		{Name: "Central Line", Type: models.LineTypeSuburban, Color: "#F59E0B"},
		{Name: "Harbour Line", Type: models.LineTypeSuburban, Color: "#10B981"},
		{Name: "Metro Line 1", Type: models.LineTypeMetro, Color: "#8B5CF6"},
		{Name: "Metro Line 3", Type: models.LineTypeMetro, Color: "#EC4899"},
	}
}

// GetRouteSuggestions ranks journey options between two stations. The direct
// suburban route carries the line's current average occupancy; a metro
// alternative is offered when both endpoints have nearby metro stations.
func (s *RouteService) GetRouteSuggestions(ctx context.Context, from, to string) ([]RouteOption, error) {
	// 1. Recent crowd readings only
	readings, err := s.transitRepo.GetRecentCrowdData(time.Now().Add(-CrowdFreshness))
	if err != nil {
		return nil, err
	}

	// 2. Candidate routes touching either endpoint
	routes, err := s.transitRepo.GetRoutesBetween(from, to)
	if err != nil {
		return nil, err
	}

	options := []RouteOption{}

	// 3. Direct route with live crowd level
	for i := range routes {
		route := &routes[i]
		if route.FromStation != from || route.ToStation != to {
			continue
		}
		level := OccupancyLevelFor(AverageLineOccupancy(readings, route.Line))
		options = append(options, RouteOption{
			ID:   fmt.Sprintf("direct-%d", route.ID),
			From: route.FromStation,
			To:   route.ToStation,
			Steps: []RouteStep{{
				Type:       "train",
				Line:       route.Line,
				From:       route.FromStation,
				To:         route.ToStation,
				Duration:   route.DurationMinutes,
				CrowdLevel: level,
			}},
			TotalTime:  route.DurationMinutes,
			CrowdLevel: level,
			Fare:       route.BaseFare,
		})
		break
	}

	// 4. Metro alternative
	if metro, err := s.metroAlternative(ctx, from, to); err == nil && metro != nil {
		options = append(options, *metro)
	}

	// 5. Rank by travel time plus crowd penalty
	sort.SliceStable(options, func(i, j int) bool {
		return ScoreRouteOption(options[i]) < ScoreRouteOption(options[j])
	})

	return options, nil
}

// metroAlternative builds a walk-metro-walk option when metro stations exist
// near both endpoints
func (s *RouteService) metroAlternative(ctx context.Context, from, to string) (*RouteOption, error) {
	connections, err := s.transitRepo.GetMetroStationsMatching(from, to)
	if err != nil {
		return nil, err
	}
	if len(connections) < 2 {
		return nil, nil
	}

	return &RouteOption{
		ID:   fmt.Sprintf("metro-%s-%s", from, to),
		From: from,
		To:   to,
		Steps: []RouteStep{
			{Type: "walk", From: from + " Station", To: "Metro Station", Duration: 5},
			{Type: "metro", Line: "Metro Line 3", From: "Metro Station", To: to + " Metro", Duration: 25, CrowdLevel: models.OccupancyLow},
			{Type: "walk", From: to + " Metro", To: to + " Station", Duration: 5},
		},
		TotalTime:  35,
		CrowdLevel: models.OccupancyLow,
		Fare:       45,
		TimeSaved:  10,
	}, nil
}

// AverageLineOccupancy averages passenger/capacity across a line's readings.
// With no readings the line defaults to 0.5 — unknown is treated as half full.
func AverageLineOccupancy(readings []models.CrowdData, line string) float64 {
	var sum float64
	var count int
	for i := range readings {
		reading := &readings[i]
		if reading.Line != line || reading.Capacity <= 0 {
			continue
		}
		sum += float64(reading.PassengerCount) / float64(reading.Capacity)
		count++
	}
	if count == 0 {
		return 0.5
	}
	return sum / float64(count)
}

// OccupancyLevelFor buckets an occupancy ratio into a crowd level
func OccupancyLevelFor(ratio float64) string {
	switch {
	case ratio > 0.7:
		return models.OccupancyHigh
	case ratio > 0.4:
		return models.OccupancyModerate
	default:
		return models.OccupancyLow
	}
}

// ScoreRouteOption scores an option for ranking: lower is better
func ScoreRouteOption(option RouteOption) int {
	return option.TotalTime + crowdWeight[option.CrowdLevel]
}
