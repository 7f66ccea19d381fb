package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// CreateUniqueConstraints enforces the uniqueness rules the grant and commission
// paths rely on: one purchase record per (user, item) and one referral
// transaction per payment. AutoMigrate declares the same indexes via struct
// tags; this migration makes them explicit and irreversible schema facts.
func CreateUniqueConstraints() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_unique_constraints",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.Exec(`
				CREATE UNIQUE INDEX IF NOT EXISTS idx_user_prompt
					ON user_prompts(user_id, prompt_id);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_user_course
					ON user_courses(user_id, course_id);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_referral_tx_payment
					ON referral_transactions(payment_id);
			`).Error; err != nil {
				return err
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`
				DROP INDEX IF EXISTS idx_user_prompt;
				DROP INDEX IF EXISTS idx_user_course;
				DROP INDEX IF EXISTS idx_referral_tx_payment;
			`).Error
		},
	}
}
