// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"shortify-server/crypto"
	"shortify-server/db"
	"shortify-server/models"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

const shortCodeLength = 8

func urlMappingDetails(mapping models.URLMapping) URLMappingDetails {
	return URLMappingDetails{
		URLID:       mapping.ID,
		ShortCode:   mapping.ShortCode,
		OriginalURL: mapping.OriginalURL,
		ClickCount:  mapping.ClickCount,
		CreatedAt:   mapping.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ShortenURLHandler godoc
// @Summary      Shorten a URL
// @Description  Creates a short code for the given URL, owned by the authenticated user.
// @Tags         urls
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        shortenURLRequest  body  ShortenURLRequest  true  "URL to shorten"
// @Success      201 {object} ShortenURLResponse "Short URL created successfully"
// @Failure      400 {object} echo.HTTPError     "Bad request, missing or malformed URL"
// @Failure      401 {object} echo.HTTPError     "Unauthorized"
// @Failure      500 {object} echo.HTTPError     "Internal server error"
// @Router       /v1/urls/shorten [post]
func ShortenURLHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}

	var req ShortenURLRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid shorten request payload:", err)
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "Invalid request payload, please ensure it is well-formed and has content-type application/json header",
		}
	}

	if req.OriginalURL == "" {
		logger.Error("Original URL is required.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "original_url field is required",
		}
	}

	parsed, err := url.Parse(req.OriginalURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		logger.Error("Original URL is not an absolute http(s) URL.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "original_url must be an absolute http or https URL",
		}
	}

	mapping := models.URLMapping{
		OriginalURL: req.OriginalURL,
		UserID:      user.ID,
	}

	// Collision on the unique index is unlikely but possible; retry with a
	// fresh code a few times before giving up.
	for attempt := 0; attempt < 3; attempt++ {
		code, err := crypto.GenerateShortCode(nil, shortCodeLength)
		if err != nil {
			logger.Errorf("Failed to generate short code: %v", err)
			return echo.ErrInternalServerError
		}
		mapping.ShortCode = code

		if err := db.Conn.Create(&mapping).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) && attempt < 2 {
				continue
			}
			logger.Errorf("Failed to create URL mapping: %v", err)
			return echo.ErrInternalServerError
		}
		break
	}

	logger.Infof("Short URL created successfully.")
	return c.JSON(http.StatusCreated, ShortenURLResponse{
		URLMappingDetails: urlMappingDetails(mapping),
		Message:           "Short URL created successfully",
	})
}

// GetUserURLsHandler godoc
// @Summary      List the caller's short URLs
// @Description  Retrieves every URL mapping owned by the authenticated user.
// @Tags         urls
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Success      200 {object} URLListResponse "URLs retrieved successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/urls/my-urls [get]
func GetUserURLsHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}

	var mappings []models.URLMapping
	if err := db.Conn.Where("user_id = ?", user.ID).Order("created_at desc").Find(&mappings).Error; err != nil {
		logger.Errorf("Failed to list URL mappings: %v", err)
		return echo.ErrInternalServerError
	}

	data := make([]URLMappingDetails, 0, len(mappings))
	for _, mapping := range mappings {
		data = append(data, urlMappingDetails(mapping))
	}

	return c.JSON(http.StatusOK, URLListResponse{
		Data:    data,
		Message: "URLs retrieved successfully",
	})
}

// DeleteURLHandler godoc
// @Summary      Delete a short URL
// @Description  Deletes a URL mapping and its click events. Only the owner may delete it.
// @Tags         urls
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        url_id  path  int  true  "Numeric ID of the mapping"
// @Success      200 {object} GenericResponse "URL deleted successfully"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      403 {object} echo.HTTPError  "Not the owner"
// @Failure      404 {object} echo.HTTPError  "Unknown URL ID"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/urls/{url_id} [delete]
func DeleteURLHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}

	urlID, err := strconv.ParseUint(c.Param("url_id"), 10, 64)
	if err != nil {
		logger.Error("URL ID path parameter is not numeric.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "url_id must be a number",
		}
	}

	mapping := models.URLMapping{}
	if err := db.Conn.Where("id = ?", urlID).First(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "URL not found",
			}
		}
		logger.Errorf("Failed to find URL mapping: %v", err)
		return echo.ErrInternalServerError
	}

	if mapping.UserID != user.ID {
		logger.Error("URL deletion attempted by non-owner.")
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "You are not authorized to delete this URL",
		}
	}

	tx := db.Conn.Begin()
	if tx.Error != nil {
		logger.Errorf("Transaction begin failed: %v", tx.Error)
		return echo.ErrInternalServerError
	}

	if err := tx.Unscoped().Where("url_mapping_id = ?", mapping.ID).Delete(&models.ClickEvent{}).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete click events: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Unscoped().Delete(&mapping).Error; err != nil {
		tx.Rollback()
		logger.Errorf("Failed to delete URL mapping: %v", err)
		return echo.ErrInternalServerError
	}

	if err := tx.Commit().Error; err != nil {
		logger.Errorf("Transaction commit failed: %v", err)
		return echo.ErrInternalServerError
	}

	return c.JSON(http.StatusOK, GenericResponse{Message: "URL deleted successfully"})
}

// GetURLAnalyticsHandler godoc
// @Summary      Click events for a short URL
// @Description  Lists click events for one of the caller's short codes within a datetime window.
// @Tags         urls
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        short_code  path   string  true  "Short code"
// @Param        start_date  query  string  true  "Window start, e.g. 2025-01-11T00:00:00"
// @Param        end_date    query  string  true  "Window end, e.g. 2025-01-12T00:00:00"
// @Success      200 {object} URLAnalyticsResponse "Analytics retrieved successfully"
// @Failure      400 {object} echo.HTTPError  "Malformed dates"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      403 {object} echo.HTTPError  "Not the owner"
// @Failure      404 {object} echo.HTTPError  "Unknown short code"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/urls/analytics/{short_code} [get]
func GetURLAnalyticsHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02T15:04:05", c.QueryParam("start_date"))
	if err != nil {
		logger.Error("Malformed start_date query parameter.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "start_date must be formatted like 2025-01-11T00:00:00",
		}
	}
	end, err := time.Parse("2006-01-02T15:04:05", c.QueryParam("end_date"))
	if err != nil {
		logger.Error("Malformed end_date query parameter.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "end_date must be formatted like 2025-01-12T00:00:00",
		}
	}

	mapping := models.URLMapping{}
	if err := db.Conn.Where("short_code = ?", c.Param("short_code")).First(&mapping).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &echo.HTTPError{
				Code:    http.StatusNotFound,
				Message: "Short URL not found",
			}
		}
		logger.Errorf("Failed to find URL mapping: %v", err)
		return echo.ErrInternalServerError
	}

	if mapping.UserID != user.ID {
		logger.Error("Analytics requested by non-owner.")
		return &echo.HTTPError{
			Code:    http.StatusForbidden,
			Message: "You are not authorized to view analytics for this URL",
		}
	}

	var events []models.ClickEvent
	if err := db.Conn.Where("url_mapping_id = ? AND click_date BETWEEN ? AND ?", mapping.ID, start, end).
		Order("click_date asc").Find(&events).Error; err != nil {
		logger.Errorf("Failed to list click events: %v", err)
		return echo.ErrInternalServerError
	}

	data := make([]ClickEventDetails, 0, len(events))
	for _, event := range events {
		data = append(data, ClickEventDetails{
			EventID:   event.EID.String(),
			ClickDate: event.ClickDate.Format("2006-01-02T15:04:05Z"),
		})
	}

	return c.JSON(http.StatusOK, URLAnalyticsResponse{
		Data:    data,
		Message: "Analytics retrieved successfully",
	})
}

// GetTotalClicksHandler godoc
// @Summary      Per-day click totals
// @Description  Sums the caller's click events per day within a date window.
// @Tags         urls
// @Produce      json
// @Security     BearerAuth
// @Param        Authorization  header  string  true  "Bearer token for authentication. Replace <your_token_here> with a valid token."  default(Bearer <your_token_here>)
// @Param        start_date  query  string  true  "Window start date, e.g. 2025-01-01"
// @Param        end_date    query  string  true  "Window end date, e.g. 2025-01-31"
// @Success      200 {object} TotalClicksResponse "Click totals retrieved successfully"
// @Failure      400 {object} echo.HTTPError  "Malformed dates"
// @Failure      401 {object} echo.HTTPError  "Unauthorized"
// @Failure      500 {object} echo.HTTPError  "Internal server error"
// @Router       /v1/urls/total-clicks [get]
func GetTotalClicksHandler(c echo.Context) error {
	logger := c.Logger()

	user, err := authenticatedUser(c)
	if err != nil {
		return err
	}

	start, err := time.Parse("2006-01-02", c.QueryParam("start_date"))
	if err != nil {
		logger.Error("Malformed start_date query parameter.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "start_date must be formatted like 2025-01-01",
		}
	}
	end, err := time.Parse("2006-01-02", c.QueryParam("end_date"))
	if err != nil {
		logger.Error("Malformed end_date query parameter.")
		return &echo.HTTPError{
			Code:    http.StatusBadRequest,
			Message: "end_date must be formatted like 2025-01-31",
		}
	}

	var events []models.ClickEvent
	if err := db.Conn.
		Joins("JOIN url_mappings ON url_mappings.id = click_events.url_mapping_id").
		Where("url_mappings.user_id = ? AND click_events.click_date >= ? AND click_events.click_date < ?",
			user.ID, start, end.AddDate(0, 0, 1)).
		Find(&events).Error; err != nil {
		logger.Errorf("Failed to list click events: %v", err)
		return echo.ErrInternalServerError
	}

	// Bucketed in Go so the query stays portable across sqlite, mysql and
	// postgres date functions.
	totals := map[string]int64{}
	for _, event := range events {
		totals[event.ClickDate.Format("2006-01-02")]++
	}

	return c.JSON(http.StatusOK, TotalClicksResponse{
		Data:    totals,
		Message: "Click totals retrieved successfully",
	})
}
