package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/promptacademy/backend/internal/models"
	"gorm.io/gorm"
)

// StartExpirySweep schedules a nightly job that downgrades users whose paid
// subscription has lapsed. Reads always go through the subscription evaluator,
// so this is hygiene for the stored tier, not an enforcement mechanism.
func StartExpirySweep(db *gorm.DB) *gocron.Scheduler {
	scheduler := gocron.NewScheduler(time.UTC)

	_, err := scheduler.Every(1).Day().At("03:00").Do(func() {
		SweepExpiredSubscriptions(db, time.Now())
	})
	if err != nil {
		log.Printf("failed to schedule expiry sweep: %v", err)
	}

	scheduler.StartAsync()
	return scheduler
}

// SweepExpiredSubscriptions downgrades expired tiers to free and clears lapsed
// agency access. Lifetime tiers and nil expiries are never touched.
func SweepExpiredSubscriptions(db *gorm.DB, now time.Time) {
	res := db.Model(&models.User{}).
		Where("subscription_tier NOT IN ? AND subscription_expires_at IS NOT NULL AND subscription_expires_at <= ?",
			[]models.SubscriptionTier{models.TierFree, models.TierLifetime}, now).
		Updates(map[string]interface{}{
			"subscription_tier":       models.TierFree,
			"subscription_expires_at": nil,
		})
	if res.Error != nil {
		log.Printf("expiry sweep: failed to downgrade subscriptions: %v", res.Error)
	} else if res.RowsAffected > 0 {
		log.Printf("expiry sweep: downgraded %d expired subscriptions", res.RowsAffected)
	}

	agency := db.Model(&models.User{}).
		Where("has_agency_access = ? AND agency_access_expires_at IS NOT NULL AND agency_access_expires_at <= ?", true, now).
		Updates(map[string]interface{}{
			"has_agency_access":        false,
			"agency_access_expires_at": nil,
		})
	if agency.Error != nil {
		log.Printf("expiry sweep: failed to clear agency access: %v", agency.Error)
	} else if agency.RowsAffected > 0 {
		log.Printf("expiry sweep: cleared agency access for %d users", agency.RowsAffected)
	}
}
