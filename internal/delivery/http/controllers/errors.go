package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"clique/internal/delivery/http/helpers"
	"clique/internal/domain"
)

// writeServiceError maps domain sentinel errors to HTTP responses. Anything
// unmapped is logged and reported as a 500.
func writeServiceError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrUserNotFound):
		helpers.WriteJSONError(w, http.StatusNotFound, helpers.ErrCodeNotFound, "not found")
	case errors.Is(err, domain.ErrForbidden):
		helpers.WriteJSONError(w, http.StatusForbidden, helpers.ErrCodeForbidden, "forbidden")
	case errors.Is(err, domain.ErrInvalidInput):
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
	case errors.Is(err, domain.ErrPreconditionFailed):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodePreconditionFailed, "attendance state does not allow this response")
	case errors.Is(err, domain.ErrAlreadyFriends):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "already friends")
	case errors.Is(err, domain.ErrRequestPending):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "a friend request is already pending")
	case errors.Is(err, domain.ErrDuplicateUsername):
		helpers.WriteJSONError(w, http.StatusConflict, helpers.ErrCodeConflict, "username already taken")
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, err.Error())
	}
}
