// SPDX-License-Identifier: GPL-3.0-only

package migrations

import (
	"fmt"
	"shortify-server/models"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func List() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			// Earlier schemas allowed several reset rows per user. Keep only
			// the newest per user so the unique index on user_id can be built.
			ID: "001_dedupe_password_resets",
			Migrate: func(tx *gorm.DB) error {
				var resets []models.PasswordReset
				if err := tx.Unscoped().Order("user_id asc, id desc").Find(&resets).Error; err != nil {
					return fmt.Errorf("failed to fetch password resets: %w", err)
				}

				seen := map[uint]bool{}
				for _, reset := range resets {
					if seen[reset.UserID] {
						if err := tx.Unscoped().Delete(&models.PasswordReset{}, reset.ID).Error; err != nil {
							return fmt.Errorf("failed to delete duplicate reset %d: %w", reset.ID, err)
						}
						continue
					}
					seen[reset.UserID] = true
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
		{
			ID: "002_backfill_user_roles",
			Migrate: func(tx *gorm.DB) error {
				if err := tx.Model(&models.User{}).
					Where("role = ? OR role IS NULL", "").
					Update("role", models.DefaultRole).Error; err != nil {
					return fmt.Errorf("failed to backfill user roles: %w", err)
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error { return nil },
		},
	}
}
