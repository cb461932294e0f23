// Package handlers holds the JSON HTTP layer. Handlers decode input, call the
// masters' stores or the quotation service and translate domain errors to
// status codes; they hold no business rules themselves.
package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/tooldesk/quoteflow/internal/httpx"
	"github.com/tooldesk/quoteflow/internal/logger"
	"github.com/tooldesk/quoteflow/internal/models"
)

var searchSanitizer = regexp.MustCompile(`[^a-zA-Z0-9 \-_.@]`)

// searchTerm strips a free-text filter down to a safe LIKE fragment.
func searchTerm(r *http.Request) string {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		return ""
	}
	return searchSanitizer.ReplaceAllString(q, "")
}

// pagination reads limit/page query params with the usual caps.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 1 {
			offset = (n - 1) * limit
		}
	}
	return limit, offset
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (uint, bool) {
	n, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// writeDomainError maps the domain sentinels onto the JSON error envelope.
// Anything unclassified is logged and answered with a bare 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", err.Error(), nil)
	case errors.Is(err, models.ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "not_found", err.Error(), nil)
	case errors.Is(err, models.ErrQuotationLocked):
		httpx.JSONError(w, http.StatusConflict, "quotation_locked", err.Error(), nil)
	case errors.Is(err, models.ErrInvalidTransition):
		httpx.JSONError(w, http.StatusUnprocessableEntity, "invalid_transition", err.Error(), nil)
	case errors.Is(err, models.ErrForbidden):
		httpx.JSONError(w, http.StatusForbidden, "forbidden", err.Error(), nil)
	case errors.Is(err, models.ErrConflict):
		httpx.JSONError(w, http.StatusConflict, "already_exists", err.Error(), nil)
	default:
		logger.Error("unhandled request error", logger.ErrorF(err))
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", "", nil)
	}
}
