package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kazi-ai/kazi/pkg/services"
)

// mapServiceError maps service-layer errors to an HTTP status and JSON body.
func mapServiceError(err error) (int, gin.H) {
	var validErr *services.ValidationError
	if errors.As(err, &validErr) {
		return http.StatusBadRequest, gin.H{"error": validErr.Error()}
	}
	if errors.Is(err, services.ErrNotFound) {
		return http.StatusNotFound, gin.H{"error": "resource not found"}
	}

	slog.Error("Unexpected service error", "error", err)
	return http.StatusInternalServerError, gin.H{"error": "internal server error"}
}
