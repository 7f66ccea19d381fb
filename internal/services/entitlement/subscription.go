package entitlement

import (
	"time"

	"github.com/promptacademy/backend/internal/models"
)

// IsSubscriptionActive decides whether a subscription tier unlocks premium
// content at the given instant. It is the single source of truth for expiry
// checks; nothing else in the codebase compares subscription timestamps.
//
// Rules:
//   - free (or an unrecognized tier) is never active
//   - lifetime is always active, whatever the stored expiry says
//   - any other tier is active while expiresAt is nil (non-expiring) or in
//     the future
func IsSubscriptionActive(tier models.SubscriptionTier, expiresAt *time.Time, now time.Time) bool {
	switch tier {
	case models.TierSingle, models.TierMonthly, models.TierYearly, models.TierVIP:
		return expiresAt == nil || expiresAt.After(now)
	case models.TierLifetime:
		return true
	default:
		return false
	}
}

// HasActiveSubscription is a convenience wrapper over a user record
func HasActiveSubscription(user *models.User, now time.Time) bool {
	if user == nil {
		return false
	}
	return IsSubscriptionActive(user.SubscriptionTier, user.SubscriptionExpiresAt, now)
}

// HasAgencyAccess reports whether the user's agency access is currently valid
func HasAgencyAccess(user *models.User, now time.Time) bool {
	if user == nil || !user.HasAgencyAccess {
		return false
	}
	return user.AgencyAccessExpiresAt == nil || user.AgencyAccessExpiresAt.After(now)
}
