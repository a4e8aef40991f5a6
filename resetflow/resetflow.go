// SPDX-License-Identifier: GPL-3.0-only

// Package resetflow drives the OTP password-recovery state machine: a six
// digit code is generated and emailed, verified by the user, then consumed
// by a one-time password change. Expiry is enforced lazily at every lookup.
package resetflow

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"shortify-server/commons"
	"shortify-server/crypto"
	"shortify-server/models"
	"shortify-server/notifications"

	"gorm.io/gorm"
)

const (
	// DefaultTTL is how long an issued code stays usable.
	DefaultTTL = 3 * time.Minute

	lockStripes = 64
)

// Notifier delivers the rendered OTP email.
type Notifier func(data notifications.NotificationData) error

// Service coordinates reset requests against the database. Clock, random
// source and notifier are swappable so tests run deterministic and offline.
type Service struct {
	DB     *gorm.DB
	TTL    time.Duration
	Now    func() time.Time
	Rand   io.Reader // nil means crypto/rand
	Notify Notifier

	locks [lockStripes]sync.Mutex
}

func NewService(conn *gorm.DB) *Service {
	return &Service{
		DB:  conn,
		TTL: DefaultTTL,
		Now: time.Now,
		Notify: func(data notifications.NotificationData) error {
			return notifications.DispatchNotificationWithRetry(notifications.Email, notifications.SMTP, data)
		},
	}
}

// lockUser serializes the check-then-act sequences for one user. Different
// users map to different stripes and proceed in parallel.
func (s *Service) lockUser(userID uint) func() {
	m := &s.locks[userID%lockStripes]
	m.Lock()
	return m.Unlock
}

// InitiateReset issues a fresh code for the user and emails it. A live
// pending request is rejected, an expired one is replaced.
func (s *Service) InitiateReset(user *models.User) error {
	unlock := s.lockUser(user.ID)
	defer unlock()

	now := s.Now()

	var existing models.PasswordReset
	err := s.DB.Where("user_id = ?", user.ID).First(&existing).Error
	switch {
	case err == nil:
		if !existing.Expired(now) {
			return ErrAlreadyPending
		}
		if err := s.DB.Unscoped().Delete(&models.PasswordReset{}, existing.ID).Error; err != nil {
			return fmt.Errorf("failed to delete expired reset request: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no pending request, proceed
	default:
		return fmt.Errorf("failed to look up reset request: %w", err)
	}

	code, err := crypto.GenerateOTP(s.Rand)
	if err != nil {
		return err
	}

	reset := models.PasswordReset{
		Code:      code,
		ExpiresAt: now.Add(s.TTL),
		UserID:    user.ID,
	}
	if err := s.DB.Create(&reset).Error; err != nil {
		return fmt.Errorf("failed to save reset request: %w", err)
	}

	minutes := int(s.TTL.Minutes())
	data := notifications.NotificationData{
		To:       user.Email,
		ToName:   &user.Username,
		Subject:  "OTP for Forgot Password request",
		Template: "password_reset_otp",
		Variables: map[string]any{
			"username":           user.Username,
			"product_name":       "Shortify",
			"otp":                code,
			"expiration_minutes": minutes,
		},
	}
	if err := s.Notify(data); err != nil {
		// The stored request is kept on purpose: the row expires on its own
		// and deleting it here could race a concurrent verify.
		commons.Logger.Errorf("OTP email dispatch failed for user %d: %v", user.ID, err)
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	return nil
}

// VerifyCode marks the user's pending request verified when the submitted
// code matches and the request is still live.
func (s *Service) VerifyCode(user *models.User, code int) error {
	unlock := s.lockUser(user.ID)
	defer unlock()

	var reset models.PasswordReset
	err := s.DB.Where("user_id = ? AND code = ?", user.ID, code).First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return fmt.Errorf("failed to look up reset request: %w", err)
	}

	if reset.Expired(s.Now()) {
		if err := s.DB.Unscoped().Delete(&models.PasswordReset{}, reset.ID).Error; err != nil {
			return fmt.Errorf("failed to delete expired reset request: %w", err)
		}
		return ErrExpired
	}

	reset.Verified = true
	if err := s.DB.Save(&reset).Error; err != nil {
		return fmt.Errorf("failed to mark reset request verified: %w", err)
	}
	return nil
}

// CompletePasswordChange replaces the user's credential and consumes the
// reset request. Requires a verified, unexpired request and matching
// password confirmation; expiry is re-checked here, not only at verify time.
func (s *Service) CompletePasswordChange(user *models.User, newPassword, repeatPassword string) error {
	unlock := s.lockUser(user.ID)
	defer unlock()

	var reset models.PasswordReset
	err := s.DB.Where("user_id = ?", user.ID).First(&reset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPendingRequest
		}
		return fmt.Errorf("failed to look up reset request: %w", err)
	}

	if !reset.Verified {
		return ErrNotVerified
	}

	if reset.Expired(s.Now()) {
		if err := s.DB.Unscoped().Delete(&models.PasswordReset{}, reset.ID).Error; err != nil {
			return fmt.Errorf("failed to delete expired reset request: %w", err)
		}
		return ErrExpired
	}

	if newPassword != repeatPassword {
		return ErrPasswordMismatch
	}

	hash, err := crypto.NewCrypto().HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	tx := s.DB.Begin()
	if tx.Error != nil {
		return fmt.Errorf("transaction begin failed: %w", tx.Error)
	}

	if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Update("password", hash).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := tx.Unscoped().Delete(&models.PasswordReset{}, reset.ID).Error; err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete reset request: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return fmt.Errorf("transaction commit failed: %w", err)
	}
	return nil
}
