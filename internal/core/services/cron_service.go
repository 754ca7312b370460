package services

import (
	"context"
	"log"
	"math/rand"
	"time"

	"smartrail-mumbai/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// ============================================================
// Cron Service — background jobs
// ============================================================

// CronService runs scheduled background jobs:
//   - every minute: drift the simulated crowd readings and push them out
//   - daily 03:00: purge expired refresh tokens
//
// Ticket expiry is deliberately NOT a job here: expiry is derived from
// valid_until at read time, never rewritten in the store.
type CronService struct {
	cron        *cron.Cron
	transitRepo *repositories.TransitRepository
	tokenRepo   repositories.RefreshTokenRepository
	hub         *RealtimeHub
}

// NewCronService creates a new cron service
func NewCronService(db *gorm.DB, hub *RealtimeHub) *CronService {
	return &CronService{
		cron:        cron.New(),
		transitRepo: repositories.NewTransitRepository(db),
		tokenRepo:   repositories.NewRefreshTokenRepository(db),
		hub:         hub,
	}
}

// Start registers and starts all scheduled jobs
func (s *CronService) Start() {
	// Crowd drift every minute keeps the live dashboards moving
	if _, err := s.cron.AddFunc("* * * * *", s.driftCrowdReadings); err != nil {
		log.Printf("❌ Failed to schedule crowd drift job: %v", err)
	}

	// Token purge at 03:00 daily
	if _, err := s.cron.AddFunc("0 3 * * *", s.purgeExpiredTokens); err != nil {
		log.Printf("❌ Failed to schedule token purge job: %v", err)
	}

	s.cron.Start()
	log.Println("✅ Cron service started (crowd drift every minute, token purge 03:00)")
}

// Stop stops the cron scheduler
func (s *CronService) Stop() {
	s.cron.Stop()
	log.Println("🛑 Cron service stopped")
}

// driftCrowdReadings nudges each coach reading up or down so the simulated
// network looks alive, then broadcasts the changed readings
func (s *CronService) driftCrowdReadings() {
	readings, err := s.transitRepo.GetCrowdData("")
	if err != nil {
		log.Printf("❌ Crowd drift: failed to load readings: %v", err)
		return
	}

	updated := 0
	for i := range readings {
		reading := &readings[i]
		if reading.Capacity <= 0 {
			continue
		}

		// Drift by up to ±15% of capacity, clamped to [0, capacity]
		delta := rand.Intn(reading.Capacity*3/10+1) - reading.Capacity*15/100
		count := reading.PassengerCount + delta
		if count < 0 {
			count = 0
		}
		if count > reading.Capacity {
			count = reading.Capacity
		}

		level := OccupancyLevelFor(float64(count) / float64(reading.Capacity))

		err := s.transitRepo.UpdateCrowdReading(reading.ID, map[string]interface{}{
			"passenger_count": count,
			"occupancy_level": level,
		})
		if err != nil {
			log.Printf("❌ Crowd drift: failed to update reading %d: %v", reading.ID, err)
			continue
		}

		reading.PassengerCount = count
		reading.OccupancyLevel = level
		reading.UpdatedAt = time.Now()
		if s.hub != nil {
			s.hub.BroadcastCrowdUpdate(reading)
		}
		updated++
	}

	if updated > 0 {
		log.Printf("🚆 Crowd drift: updated %d readings", updated)
	}
}

// purgeExpiredTokens deletes refresh tokens past their expiry
func (s *CronService) purgeExpiredTokens() {
	deleted, err := s.tokenRepo.DeleteExpired(context.Background())
	if err != nil {
		log.Printf("❌ Token purge failed: %v", err)
		return
	}
	log.Printf("🧹 Token purge: removed %d expired refresh tokens", deleted)
}
