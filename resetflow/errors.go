// SPDX-License-Identifier: GPL-3.0-only

package resetflow

import "errors"

var (
	// ErrAlreadyPending is returned when a live (unexpired) reset request
	// already exists for the user. The existing code stays valid.
	ErrAlreadyPending = errors.New("a reset code was already sent and has not expired yet")

	// ErrInvalidCode covers both "no request exists" and "code does not
	// match", so a caller cannot probe which codes are live.
	ErrInvalidCode = errors.New("invalid reset code")

	// ErrExpired is returned when the request outlived its TTL. The record
	// is deleted as a side effect.
	ErrExpired = errors.New("reset code has expired")

	// ErrNotVerified is returned when a password change is attempted before
	// the code was verified. The request stays pending.
	ErrNotVerified = errors.New("reset code has not been verified")

	// ErrNoPendingRequest is returned when a password change is attempted
	// with no reset request on file.
	ErrNoPendingRequest = errors.New("no pending reset request")

	// ErrPasswordMismatch is returned when the password and its confirmation
	// differ. The verified request stays valid for a retry.
	ErrPasswordMismatch = errors.New("passwords do not match")

	// ErrNotificationFailed is returned when the OTP email could not be
	// dispatched. The stored request is kept; it expires naturally.
	ErrNotificationFailed = errors.New("failed to send reset code email")
)
