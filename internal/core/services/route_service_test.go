package services

import (
	"testing"

	"smartrail-mumbai/internal/adapters/persistence/models"

	"github.com/stretchr/testify/assert"
)

func TestAverageLineOccupancy(t *testing.T) {
	readings := []models.CrowdData{
		{Line: "Western Line", PassengerCount: 100, Capacity: 200},
		{Line: "Western Line", PassengerCount: 300, Capacity: 300},
		{Line: "Central Line", PassengerCount: 50, Capacity: 500},
		{Line: "Western Line", PassengerCount: 10, Capacity: 0}, // ignored
	}

	t.Run("averages only the requested line", func(t *testing.T) {
		avg := AverageLineOccupancy(readings, "Western Line")
		assert.InDelta(t, 0.75, avg, 0.001)
	})

	t.Run("unknown line defaults to half full", func(t *testing.T) {
		avg := AverageLineOccupancy(readings, "Harbour Line")
		assert.Equal(t, 0.5, avg)
	})

	t.Run("no readings defaults to half full", func(t *testing.T) {
		avg := AverageLineOccupancy(nil, "Western Line")
		assert.Equal(t, 0.5, avg)
	})
}

func TestOccupancyLevelFor(t *testing.T) {
	assert.Equal(t, models.OccupancyLow, OccupancyLevelFor(0.0))
	assert.Equal(t, models.OccupancyLow, OccupancyLevelFor(0.4))
	assert.Equal(t, models.OccupancyModerate, OccupancyLevelFor(0.41))
	assert.Equal(t, models.OccupancyModerate, OccupancyLevelFor(0.7))
	assert.Equal(t, models.OccupancyHigh, OccupancyLevelFor(0.71))
	assert.Equal(t, models.OccupancyHigh, OccupancyLevelFor(1.0))
}

func TestScoreRouteOption(t *testing.T) {
	t.Run("crowd level penalizes the score", func(t *testing.T) {
		low := RouteOption{TotalTime: 40, CrowdLevel: models.OccupancyLow}
		moderate := RouteOption{TotalTime: 40, CrowdLevel: models.OccupancyModerate}
		high := RouteOption{TotalTime: 40, CrowdLevel: models.OccupancyHigh}

		assert.Equal(t, 40, ScoreRouteOption(low))
		assert.Equal(t, 50, ScoreRouteOption(moderate))
		assert.Equal(t, 60, ScoreRouteOption(high))
	})

	t.Run("an empty metro alternative can beat a packed direct train", func(t *testing.T) {
		direct := RouteOption{TotalTime: 45, CrowdLevel: models.OccupancyHigh}
		metro := RouteOption{TotalTime: 35, CrowdLevel: models.OccupancyLow, TimeSaved: 10}

		assert.Less(t, ScoreRouteOption(metro), ScoreRouteOption(direct))
	})

	t.Run("a much faster crowded train still wins", func(t *testing.T) {
		packed := RouteOption{TotalTime: 20, CrowdLevel: models.OccupancyHigh}
		empty := RouteOption{TotalTime: 55, CrowdLevel: models.OccupancyLow}

		assert.Less(t, ScoreRouteOption(packed), ScoreRouteOption(empty))
	})
}
