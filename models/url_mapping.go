// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"gorm.io/gorm"
)

type URLMapping struct {
	ID          uint   `gorm:"primaryKey"`
	OriginalURL string `gorm:"type:text;not null"`
	ShortCode   string `gorm:"size:16;not null;uniqueIndex"`
	ClickCount  int64  `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
	UserID      uint
	User        User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func init() {
	AllModels = append(AllModels, &URLMapping{})
}
