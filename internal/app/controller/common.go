package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/velastore/velastore-backend/internal/errors"
)

// respondStorageError maps an unexpected storage error to a safe response.
// Sentinel service errors are handled by the callers before reaching this.
func respondStorageError(c *gin.Context, err error, context string) {
	info := apperrors.ParseError(err, context)

	status := http.StatusInternalServerError
	switch info.Code {
	case apperrors.ResourceNotFound:
		status = http.StatusNotFound
	case apperrors.ResourceAlreadyExists:
		status = http.StatusConflict
	case apperrors.ValidationInvalidInput:
		status = http.StatusBadRequest
	}

	apperrors.RespondWithError(c, status, info.Code, info.Message)
}
