package api

import (
	"errors"
	"net/http"

	"orbid_backend/internal/client"
	"orbid_backend/internal/repository"
	"orbid_backend/internal/service"

	"github.com/gin-gonic/gin"
)

// respondError maps service and repository errors onto the HTTP contract:
// validation 400, missing rows 404, link conflicts 409, missing database 503,
// upstream API failures with the upstream's status, everything else 500.
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		return
	}

	var conflict *service.LinkConflict
	if errors.As(err, &conflict) {
		payload := gin.H{"error": conflict.Code, "message": conflict.Message}
		if conflict.LinkedEmail != "" {
			payload["linkedEmail"] = conflict.LinkedEmail
		}
		c.JSON(http.StatusConflict, payload)
		return
	}

	var upstream *client.UpstreamError
	if errors.As(err, &upstream) {
		c.JSON(upstream.Status, gin.H{"error": "Upstream request failed"})
		return
	}

	switch {
	case errors.Is(err, repository.ErrDatabaseUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database unavailable"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
