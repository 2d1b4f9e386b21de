package handler

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"myflix-api/internal/domain"
	"myflix-api/pkg/response"
)

// serverError logs an unexpected failure and answers 500, or 409 for a lost concurrent update.
func serverError(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	if errors.Is(err, domain.ErrConflict) {
		response.Conflict(w, "The record was modified concurrently, please retry.")
		return
	}

	log.Errorw("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"error", err,
	)
	response.InternalError(w)
}
