package models

// PricingPlan represents a purchasable subscription plan
type PricingPlan struct {
	Base
	Name         string           `gorm:"type:varchar(100);not null" json:"name"`
	Tier         SubscriptionTier `gorm:"type:varchar(20);not null" json:"tier"`
	DurationDays int              `gorm:"not null;default:0" json:"duration_days"`
	Amount       float64          `gorm:"type:decimal(20,2);not null" json:"amount"`
	Description  string           `gorm:"type:text" json:"description"`
	Active       bool             `gorm:"default:true" json:"active"`
}
