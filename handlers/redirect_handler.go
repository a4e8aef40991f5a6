// SPDX-License-Identifier: GPL-3.0-only

package handlers

import (
	"errors"
	"net/http"
	"shortify-server/db"
	"shortify-server/models"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// RedirectHandler godoc
// @Summary      Redirect through a short code
// @Description  Resolves a short code, records a click event, and redirects to the original URL.
// @Tags         redirect
// @Param        short_code  path  string  true  "Short code"
// @Success      302 "Redirect to the original URL"
// @Failure      404 {object} echo.HTTPError "Unknown short code"
// @Failure      500 {object} echo.HTTPError "Internal server error"
// @Router       /{short_code} [get]
func RedirectHandler(c echo.Context) error {
	logger := c.Logger()

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

	event := models.ClickEvent{
		ClickDate:    time.Now(),
		URLMappingID: mapping.ID,
	}
	if err := db.Conn.Create(&event).Error; err != nil {
		// The redirect still happens; losing one analytics row is better
		// than a broken link.
		logger.Errorf("Failed to record click event: %v", err)
	}

	if err := db.Conn.Model(&mapping).
		Update("click_count", gorm.Expr("click_count + 1")).Error; err != nil {
		logger.Errorf("Failed to increment click count: %v", err)
	}

	return c.Redirect(http.StatusFound, mapping.OriginalURL)
}
