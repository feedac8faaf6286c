package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"cryptodash/internal/apperr"
	"cryptodash/internal/logger"
)

var errBadBody = fmt.Errorf("%w: invalid request body", apperr.ErrInvalidArgument)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its status and writes {"detail": ...}. Unknown
// errors are logged and reported as a generic server error.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.Status(err)
	detail := "server error"
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			logger.String("request_id", middleware.GetReqID(r.Context())),
			logger.String("path", r.URL.Path),
			logger.ErrorField(err))
	} else {
		detail = detailOf(err)
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

// detailOf drops the sentinel prefix so "not found: dashboard item not
// found" reads as "dashboard item not found".
func detailOf(err error) string {
	msg := err.Error()
	for _, kind := range []error{
		apperr.ErrConflict, apperr.ErrUnauthorized, apperr.ErrNotFound,
		apperr.ErrForbidden, apperr.ErrInvalidArgument,
	} {
		if errors.Is(err, kind) {
			if rest, ok := strings.CutPrefix(msg, kind.Error()+": "); ok {
				return rest
			}
		}
	}
	return msg
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

func missingField(name string) error {
	return fmt.Errorf("%w: %s is required", apperr.ErrInvalidArgument, name)
}
