// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

// PasswordReset holds one in-flight OTP recovery attempt. The unique index on
// UserID is load-bearing: it rejects a second live record for the same user
// even when two initiations race past the lookup.
type PasswordReset struct {
	ID        uint `gorm:"primaryKey"`
	Code      int  `gorm:"not null"`
	ExpiresAt time.Time
	Verified  bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
	UserID    uint           `gorm:"not null;uniqueIndex"`
	User      User           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (pr *PasswordReset) Expired(now time.Time) bool {
	return pr.ExpiresAt.Before(now)
}

func init() {
	AllModels = append(AllModels, &PasswordReset{})
}
