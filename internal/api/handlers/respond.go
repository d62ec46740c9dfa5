// internal/api/handlers/respond.go
package handlers

import (
	"net/http"
	"strconv"
	"time"

	"military-logistics-api-server/internal/api/middleware"
	"military-logistics-api-server/internal/apperror"

	"github.com/gin-gonic/gin"
)

// respondError writes the JSON error body for err. Server-side failures are
// logged with the request logger.
func respondError(c *gin.Context, err error) {
	status, body := middleware.ErrorBody(err)
	if status >= http.StatusInternalServerError {
		middleware.Logger(c).Error("Request failed", "error", err)
	}
	c.JSON(status, body)
}

// bindJSON decodes the request body into v, answering 400 on malformed input.
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		respondError(c, apperror.Validation("", "Invalid request body: "+err.Error()))
		return false
	}
	return true
}

type statusRequest struct {
	Status string `json:"status"`
}

// queryTime parses an optional RFC 3339 or YYYY-MM-DD query parameter.
func queryTime(c *gin.Context, key string) (*time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperror.Validation(key, "Invalid date: "+raw)
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperror.Validation(key, "Invalid number: "+raw)
	}
	return n, nil
}
