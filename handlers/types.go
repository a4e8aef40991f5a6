// SPDX-License-Identifier: GPL-3.0-only

package handlers

// swagger:model SignupRequest
type SignupRequest struct {
	// Unique handle shown on the dashboard
	// required: true
	Username string `json:"username" example:"johndoe"`
	// User's email address
	// required: true
	Email string `json:"email" example:"user@example.com"`
	// User's password
	// required: true
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model SignupResponse
type SignupResponse struct {
	// Message indicating successful signup
	Message string `json:"message" example:"Signup successful"`
}

// swagger:model LoginRequest
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model LoginResponse
type LoginResponse struct {
	// Authentication session token.
	// Should be used in the Authorization header as a Bearer token.
	SessionToken string `json:"session_token" example:"sample_session_token"`
	// Message indicating successful login
	Message string `json:"message" example:"Login successful"`
}

// swagger:model GenericResponse
type GenericResponse struct {
	// Message describing the outcome
	Message string `json:"message" example:"Operation successful"`
}

// swagger:model GetUserResponse
type GetUserResponse struct {
	// Unique handle of the user
	Username string `json:"username" example:"johndoe"`
	// Email address associated with the account
	Email string `json:"email" example:"user@example.com"`
	// Role granted to the account
	Role string `json:"role" example:"ROLE_USER"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"User retrieved successfully"`
}

// swagger:model DeleteAccountRequest
type DeleteAccountRequest struct {
	// Current password, confirms the deletion
	// required: true
	Password string `json:"password" example:"MySecretPassword@123"`
}

// swagger:model ChangePasswordRequest
type ChangePasswordRequest struct {
	// New password
	// required: true
	Password string `json:"password" example:"MyNewPassword@123"`
	// Confirmation of the new password, must match exactly
	// required: true
	RepeatPassword string `json:"repeat_password" example:"MyNewPassword@123"`
}

// swagger:model ShortenURLRequest
type ShortenURLRequest struct {
	// URL to shorten
	// required: true
	OriginalURL string `json:"original_url" example:"https://example.com/some/long/path"`
}

// swagger:model URLMappingDetails
type URLMappingDetails struct {
	// Numeric ID of the mapping
	URLID uint `json:"url_id" example:"42"`
	// The shortened code
	ShortCode string `json:"short_code" example:"aZ3kP0qX"`
	// The original URL
	OriginalURL string `json:"original_url" example:"https://example.com/some/long/path"`
	// Total recorded clicks
	ClickCount int64 `json:"click_count" example:"17"`
	// Timestamp of when the mapping was created
	CreatedAt string `json:"created_at" example:"2023-10-01T12:00:00Z"`
}

// swagger:model ShortenURLResponse
type ShortenURLResponse struct {
	URLMappingDetails
	// Message indicating successful creation
	Message string `json:"message" example:"Short URL created successfully"`
}

// swagger:model URLListResponse
type URLListResponse struct {
	// The caller's URL mappings
	Data []URLMappingDetails `json:"data"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"URLs retrieved successfully"`
}

// swagger:model ClickEventDetails
type ClickEventDetails struct {
	// Public ID of the click event
	EventID string `json:"event_id" example:"7f9c24e5-2c6a-4b8e-a6f3-1d2b3c4d5e6f"`
	// Timestamp of the click
	ClickDate string `json:"click_date" example:"2023-10-01T12:00:00Z"`
}

// swagger:model URLAnalyticsResponse
type URLAnalyticsResponse struct {
	// Click events within the requested window
	Data []ClickEventDetails `json:"data"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"Analytics retrieved successfully"`
}

// swagger:model TotalClicksResponse
type TotalClicksResponse struct {
	// Click totals keyed by ISO date
	Data map[string]int64 `json:"data"`
	// Message indicating successful retrieval
	Message string `json:"message" example:"Click totals retrieved successfully"`
}
