// SPDX-License-Identifier: GPL-3.0-only

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ClickEvent struct {
	ID           uint      `gorm:"primaryKey"`
	EID          uuid.UUID `gorm:"type:uuid;not null"`
	ClickDate    time.Time `gorm:"index"`
	CreatedAt    time.Time
	URLMappingID uint       `gorm:"index"`
	URLMapping   URLMapping `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (clickEvent *ClickEvent) BeforeCreate(tx *gorm.DB) (err error) {
	clickEvent.EID = uuid.New()
	return
}

func init() {
	AllModels = append(AllModels, &ClickEvent{})
}
