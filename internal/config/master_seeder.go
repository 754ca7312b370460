package config

import (
	"log"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// SeedMasterData seeds initial master data
func SeedMasterData(db *gorm.DB) error {
	// Seed Fare Types
	if err := seedFareTypes(db); err != nil {
		return err
	}

	// Seed Stations
	if err := seedStations(db); err != nil {
		return err
	}

	// Seed Routes
	if err := seedRoutes(db); err != nil {
		return err
	}

	// Seed Crowd Data (simulation baseline)
	if err := seedCrowdData(db); err != nil {
		return err
	}

	// Seed a sample service alert
	if err := seedAlerts(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedFareTypes(db *gorm.DB) error {
	fareTypes := []models.FareType{
		{
			Code:        models.TicketTypeSingle,
			Name:        "Single Journey",
			Price:       15,
			Description: "One-way journey between two stations",
			IsActive:    true,
		},
		{
			Code:        models.TicketTypeReturn,
			Name:        "Return Journey",
			Price:       25,
			Description: "Round trip, valid until end of day",
			IsActive:    true,
		},
		{
			Code:        models.TicketTypeDaily,
			Name:        "Day Pass",
			Price:       50,
			Description: "Unlimited travel until end of day",
			IsActive:    true,
		},
		{
			Code:        models.TicketTypeMonthly,
			Name:        "Monthly Pass",
			Price:       500,
			Description: "Unlimited travel for one calendar month",
			IsActive:    true,
		},
	}

	for _, ft := range fareTypes {
		var existing models.FareType
		if err := db.Where("code = ?", ft.Code).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&ft).Error; err != nil {
					return err
				}
				log.Printf("   Created fare_type: %s", ft.Name)
			}
		}
	}
	return nil
}

func seedStations(db *gorm.DB) error {
	type lineStations struct {
		line     string
		lineType string
		names    []string
	}

	lines := []lineStations{
		{
			line:     "Western Line",
			lineType: models.LineTypeSuburban,
			names: []string{
				"Churchgate", "Marine Lines", "Charni Road", "Grant Road",
				"Mumbai Central", "Dadar", "Bandra", "Andheri", "Borivali", "Virar",
			},
		},
		{
			line:     "Central Line",
			lineType: models.LineTypeSuburban,
			names: []string{
				"CSMT", "Byculla", "Dadar", "Kurla", "Ghatkopar", "Thane", "Kalyan",
			},
		},
		{
			line:     "Harbour Line",
			lineType: models.LineTypeSuburban,
			names: []string{
				"CSMT", "Wadala Road", "Kurla", "Vashi", "Belapur", "Panvel",
			},
		},
		{
			line:     "Metro Line 1",
			lineType: models.LineTypeMetro,
			names: []string{
				"Versova", "Andheri Metro", "Ghatkopar Metro",
			},
		},
		{
			line:     "Metro Line 3",
			lineType: models.LineTypeMetro,
			names: []string{
				"Colaba Metro", "Churchgate Metro", "Worli Metro", "BKC Metro",
				"Bandra Metro", "Andheri Metro East", "SEEPZ Metro",
			},
		},
	}

	for _, ls := range lines {
		for order, name := range ls.names {
			var existing models.Station
			err := db.Where("name = ? AND line = ?", name, ls.line).First(&existing).Error
			if err != gorm.ErrRecordNotFound {
				continue
			}
			station := models.Station{
				Name:         name,
				Line:         ls.line,
				LineType:     ls.lineType,
				DisplayOrder: order + 1,
				IsActive:     true,
			}
			if err := db.Create(&station).Error; err != nil {
				return err
			}
		}
		log.Printf("   Seeded stations: %s", ls.line)
	}
	return nil
}

func seedRoutes(db *gorm.DB) error {
	routes := []models.Route{
		{FromStation: "Churchgate", ToStation: "Borivali", Line: "Western Line", DistanceKm: 34.0, BaseFare: 15, DurationMinutes: 55},
		{FromStation: "Churchgate", ToStation: "Andheri", Line: "Western Line", DistanceKm: 22.5, BaseFare: 10, DurationMinutes: 40},
		{FromStation: "Churchgate", ToStation: "Virar", Line: "Western Line", DistanceKm: 60.0, BaseFare: 20, DurationMinutes: 90},
		{FromStation: "Dadar", ToStation: "Borivali", Line: "Western Line", DistanceKm: 25.0, BaseFare: 10, DurationMinutes: 42},
		{FromStation: "CSMT", ToStation: "Thane", Line: "Central Line", DistanceKm: 34.0, BaseFare: 15, DurationMinutes: 58},
		{FromStation: "CSMT", ToStation: "Kalyan", Line: "Central Line", DistanceKm: 54.0, BaseFare: 20, DurationMinutes: 85},
		{FromStation: "Dadar", ToStation: "Thane", Line: "Central Line", DistanceKm: 25.0, BaseFare: 10, DurationMinutes: 40},
		{FromStation: "CSMT", ToStation: "Vashi", Line: "Harbour Line", DistanceKm: 27.0, BaseFare: 15, DurationMinutes: 50},
		{FromStation: "CSMT", ToStation: "Panvel", Line: "Harbour Line", DistanceKm: 49.0, BaseFare: 20, DurationMinutes: 80},
		{FromStation: "Versova", ToStation: "Ghatkopar Metro", Line: "Metro Line 1", DistanceKm: 11.4, BaseFare: 30, DurationMinutes: 21},
		{FromStation: "Colaba Metro", ToStation: "SEEPZ Metro", Line: "Metro Line 3", DistanceKm: 33.5, BaseFare: 50, DurationMinutes: 50},
	}

	for _, rt := range routes {
		var existing models.Route
		err := db.
			Where("from_station = ? AND to_station = ? AND line = ?", rt.FromStation, rt.ToStation, rt.Line).
			First(&existing).Error
		if err != gorm.ErrRecordNotFound {
			continue
		}
		if err := db.Create(&rt).Error; err != nil {
			return err
		}
		log.Printf("   Created route: %s → %s (%s)", rt.FromStation, rt.ToStation, rt.Line)
	}
	return nil
}

func seedCrowdData(db *gorm.DB) error {
	var count int64
	db.Model(&models.CrowdData{}).Count(&count)
	if count > 0 {
		return nil
	}

	type trainSpec struct {
		line      string
		number    string
		direction string
		platform  string
		arrival   string
	}

	trains := []trainSpec{
		{line: "Western Line", number: "W-90341", direction: "Churchgate", platform: "1", arrival: "2 min"},
		{line: "Western Line", number: "W-90514", direction: "Virar", platform: "4", arrival: "5 min"},
		{line: "Central Line", number: "C-96120", direction: "CSMT", platform: "2", arrival: "3 min"},
		{line: "Central Line", number: "C-96233", direction: "Kalyan", platform: "5", arrival: "7 min"},
		{line: "Harbour Line", number: "H-98045", direction: "Panvel", platform: "3", arrival: "4 min"},
		{line: "Metro Line 1", number: "M1-204", direction: "Versova", platform: "1", arrival: "3 min"},
		{line: "Metro Line 3", number: "M3-117", direction: "SEEPZ Metro", platform: "2", arrival: "6 min"},
	}

	// Vary the baseline so the levels are not uniform at startup
	baseline := []struct {
		passengers int
		capacity   int
		level      string
	}{
		{passengers: 80, capacity: 350, level: models.OccupancyLow},
		{passengers: 180, capacity: 350, level: models.OccupancyModerate},
		{passengers: 300, capacity: 350, level: models.OccupancyHigh},
	}

	for ti, train := range trains {
		for coach := 1; coach <= 3; coach++ {
			b := baseline[(ti+coach)%len(baseline)]
			reading := models.CrowdData{
				Line:           train.line,
				TrainNumber:    train.number,
				Direction:      train.direction,
				CoachNumber:    coach,
				OccupancyLevel: b.level,
				PassengerCount: b.passengers,
				Capacity:       b.capacity,
				Platform:       train.platform,
				NextArrival:    train.arrival,
			}
			if err := db.Create(&reading).Error; err != nil {
				return err
			}
		}
	}

	log.Printf("   Seeded crowd data for %d trains", len(trains))
	return nil
}

func seedAlerts(db *gorm.DB) error {
	var count int64
	db.Model(&models.Alert{}).Count(&count)
	if count > 0 {
		return nil
	}

	line := "Central Line"
	alert := models.Alert{
		Type:      models.AlertTypeDelay,
		Message:   "Trains running 10 minutes late between Kurla and Thane due to signal work",
		Line:      &line,
		Severity:  "moderate",
		ExpiresAt: time.Now().Add(4 * time.Hour),
	}

	if err := db.Create(&alert).Error; err != nil {
		return err
	}
	log.Println("   Seeded sample service alert")
	return nil
}
