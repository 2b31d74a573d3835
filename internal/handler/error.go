package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/service"
	"github.com/snnyvrz/shelfshare/apps/catalog-api/internal/validation"
)

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, validation.ErrorResponse{
		Code:    code,
		Message: message,
		Errors:  nil,
	})
}

// writeServiceError maps BookService errors onto status codes. Store failures
// only expose the failed operation, never the driver message.
func writeServiceError(c *gin.Context, err error) {
	var (
		verr *validation.Error
		cerr *service.ConflictError
		serr *service.StoreError
	)

	switch {
	case errors.As(err, &verr):
		c.AbortWithStatusJSON(http.StatusBadRequest, verr.Response())
	case errors.As(err, &cerr):
		writeError(c, http.StatusBadRequest,
			"ISBN_ALREADY_EXISTS",
			cerr.Error(),
		)
	case errors.Is(err, service.ErrBookNotFound):
		writeError(c, http.StatusNotFound,
			"BOOK_NOT_FOUND",
			"book not found",
		)
	case errors.As(err, &serr):
		writeError(c, http.StatusInternalServerError,
			"BOOK_"+strings.ToUpper(serr.Op)+"_FAILED",
			storeFailureMessage(serr.Op),
		)
	default:
		writeError(c, http.StatusInternalServerError,
			"INTERNAL_ERROR",
			"internal server error",
		)
	}
}

func storeFailureMessage(op string) string {
	if op == service.OpList {
		return "failed to fetch books"
	}
	return "failed to " + op + " book"
}
