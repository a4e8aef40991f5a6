// SPDX-License-Identifier: GPL-3.0-only

package notifications

import (
	"fmt"
	"shortify-server/commons"
	"strconv"
	"time"
)

func DispatchNotification(_type NotificationTypes, provider NotificationProviders, data NotificationData) error {
	commons.Logger.Debugf("Dispatching notification:\n- type=%s\n- provider=%s", _type, provider)

	var err error
	switch _type {
	case Email:
		mockEmail := commons.GetEnv("MOCK_EMAIL_NOTIFICATIONS")
		if mockEmail == "true" {
			commons.Logger.Debug("Mock email notifications enabled, using mock provider")
			provider = Mock
		}
		err = dispatchEmail(provider, data)
	default:
		err = fmt.Errorf("unsupported notification type: %s", _type)
	}

	if err != nil {
		commons.Logger.Errorf("Failed to dispatch notification:\n%v", err)
		return err
	}

	commons.Logger.Infof("Notification dispatched successfully:\n- type=%s\n- provider=%s", _type, provider)
	return nil
}

// DispatchNotificationWithRetry retries transient dispatch failures before
// giving up. Attempts come from NOTIFICATION_MAX_ATTEMPTS (default 3).
func DispatchNotificationWithRetry(_type NotificationTypes, provider NotificationProviders, data NotificationData) error {
	attempts := 3
	if v := commons.GetEnv("NOTIFICATION_MAX_ATTEMPTS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil && i > 0 {
			attempts = i
		}
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = DispatchNotification(_type, provider, data)
		if err == nil {
			return nil
		}
		if attempt < attempts {
			commons.Logger.Warnf("Notification dispatch attempt %d/%d failed, retrying: %v", attempt, attempts, err)
			time.Sleep(time.Duration(attempt) * 500 * time.Millisecond)
		}
	}
	return fmt.Errorf("notification dispatch failed after %d attempts: %w", attempts, err)
}

func dispatchEmail(provider NotificationProviders, data NotificationData) error {
	switch provider {
	case SMTP:
		return SMTPClient(data)
	case Mock:
		return MockEmailClient(data)
	default:
		return fmt.Errorf("unsupported email provider: %s", provider)
	}
}
