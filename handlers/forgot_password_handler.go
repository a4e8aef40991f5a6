// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"shortify-server/db"
	"shortify-server/middlewares"
	"shortify-server/models"
	"shortify-server/resetflow"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

var (
	resetOnce    sync.Once
	resetService *resetflow.Service
)

// resetFlow returns the shared reset workflow. Shared because its per-user
// locks must cover every handler touching the same reset record.
func resetFlow() *resetflow.Service {
	resetOnce.Do(func() {
		resetService = resetflow.NewService(db.Conn)
	})
	return resetService
}

func findUserByEmail(c echo.Context, email string) (*models.User, error) {
	logger := c.Logger()

	user := models.User{}
	if err := db.Conn.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Error("User not found for email.")
			return nil, &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Email is not found!",
			}
		}
		logger.Errorf("Failed to find user: %v", err)
		return nil, echo.ErrInternalServerError
	}
	return &user, nil
}

// resetFlowError translates reset workflow outcomes to HTTP responses.
func resetFlowError(c echo.Context, err error) error {
	logger := c.Logger()

	switch {
	case errors.Is(err, resetflow.ErrAlreadyPending):
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "OTP is already sent! Please wait for it to expire before requesting a new one.",
		}
	case errors.Is(err, resetflow.ErrInvalidCode):
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid OTP",
		}
	case errors.Is(err, resetflow.ErrExpired):
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "OTP has expired and has been deleted.",
		}
	case errors.Is(err, resetflow.ErrNotVerified):
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "Please verify the OTP before changing the password.",
		}
	case errors.Is(err, resetflow.ErrNoPendingRequest):
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "No OTP request found for this account.",
		}
	case errors.Is(err, resetflow.ErrPasswordMismatch):
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Passwords do not match!",
		}
	default:
		logger.Errorf("Reset workflow failed: %v", err)
		return echo.ErrInternalServerError
	}
}

// VerifyMailHandler godoc
// @Summary      Request a password reset OTP
// @Description  Emails a six-digit OTP to the given address when no live reset request exists.
// @Tags         forgot-password
// @Produce      json
// @Param        email  path  string  true  "Registered email address"
// @Success      200 {object} GenericResponse "Email sent for verification"
// @Failure      400 {object} echo.HTTPError  "OTP already sent and not yet expired"
// @Failure      404 {object} echo.HTTPError  "Email not registered"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/forgot-password/verify-mail/{email} [post]
func VerifyMailHandler(c echo.Context) error {
	user, err := findUserByEmail(c, c.Param("email"))
	if err != nil {
		return err
	}
	return initiateReset(c, user)
}

// VerifyOTPHandler godoc
// @Summary      Verify a password reset OTP
// @Description  Marks the pending reset request verified when the OTP matches and is unexpired.
// @Tags         forgot-password
// @Produce      json
// @Param        otp    path  int     true  "Six-digit OTP from the email"
// @Param        email  path  string  true  "Registered email address"
// @Success      200 {object} GenericResponse "OTP verified"
// @Failure      400 {object} echo.HTTPError  "Invalid or expired OTP"
// @Failure      404 {object} echo.HTTPError  "Email not registered"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/forgot-password/verify-otp/{otp}/{email} [post]
func VerifyOTPHandler(c echo.Context) error {
	user, err := findUserByEmail(c, c.Param("email"))
	if err != nil {
		return err
	}
	return verifyOTP(c, user)
}

// ChangePasswordHandler godoc
// @Summary      Change password after OTP verification
// @Description  Replaces the account password; requires a verified, unexpired reset request.
// @Tags         forgot-password
// @Accept       json
// @Produce      json
// @Param        email                  path  string                 true  "Registered email address"
// @Param        changePasswordRequest  body  ChangePasswordRequest  true  "New password and confirmation"
// @Success      200 {object} GenericResponse "Password changed"
// @Failure      400 {object} echo.HTTPError  "Expired OTP or mismatched passwords"
// @Failure      403 {object} echo.HTTPError  "OTP not verified yet"
// @Failure      404 {object} echo.HTTPError  "Email not registered"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/forgot-password/change-password/{email} [post]
func ChangePasswordHandler(c echo.Context) error {
	user, err := findUserByEmail(c, c.Param("email"))
	if err != nil {
		return err
	}
	return completePasswordChange(c, user)
}

// ResetVerifyMailHandler is the authenticated variant of VerifyMailHandler,
// keyed by the caller's session instead of a path parameter.
func ResetVerifyMailHandler(c echo.Context) error {
	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}
	return initiateReset(c, user)
}

// ResetVerifyOTPHandler is the authenticated variant of VerifyOTPHandler.
func ResetVerifyOTPHandler(c echo.Context) error {
	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}
	return verifyOTP(c, user)
}

// ResetChangePasswordHandler is the authenticated variant of ChangePasswordHandler.
func ResetChangePasswordHandler(c echo.Context) error {
	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}
	return completePasswordChange(c, user)
}

func authenticatedUser(c echo.Context) (*models.User, error) {
	logger := c.Logger()

	user, err := middlewares.GetAuthenticatedUser(c)
	if err != nil {
		logger.Error("Failed to get authenticated user:", err)
		return nil, &echo.HTTPError{
			Code:    http.StatusUnauthorized,
			Message: "Invalid or expired authentication token, please login again",
		}
	}
	return user, nil
}

func initiateReset(c echo.Context, user *models.User) error {
	if err := resetFlow().InitiateReset(user); err != nil {
		return resetFlowError(c, err)
	}
	return c.JSON(http.StatusOK, GenericResponse{Message: "Email sent for verification!"})
}

func verifyOTP(c echo.Context, user *models.User) error {
	logger := c.Logger()

	otp, err := strconv.Atoi(c.Param("otp"))
	if err != nil {
		logger.Error("OTP path parameter is not numeric.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "OTP must be a six-digit number",
		}
	}

	if err := resetFlow().VerifyCode(user, otp); err != nil {
		return resetFlowError(c, err)
	}
	return c.JSON(http.StatusOK, GenericResponse{Message: "OTP Verified!"})
}

func completePasswordChange(c echo.Context, user *models.User) error {
	logger := c.Logger()

	var req ChangePasswordRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid change password request payload:", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid request payload, please ensure it is well-formed and has content-type application/json header",
		}
	}

	if req.Password == "" {
		logger.Error("Password is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "password field is required",
		}
	}

	if err := resetFlow().CompletePasswordChange(user, req.Password, req.RepeatPassword); err != nil {
		return resetFlowError(c, err)
	}
	return c.JSON(http.StatusOK, GenericResponse{Message: "Password has been changed!"})
}
