package routes

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/tripplanner/internal/providers"
	"github.com/briangreenhill/tripplanner/internal/upstream"
)

// defaultRetryAfter is advertised when a throttling vendor gave no hint.
const defaultRetryAfter = 60 * time.Second

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps err onto a status and a message safe to show callers.
// Vendor details and credential names only go to the log.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := hlog.FromRequest(r)

	// chi's Timeout middleware answers 504 once the deadline passes.
	if r.Context().Err() != nil {
		log.Warn().Err(err).Msg("request context ended")
		return
	}

	var verrs validation.Errors
	switch {
	case errors.As(err, &verrs), errors.Is(err, providers.ErrInvalidInput):
		writeJSON(w, r, http.StatusBadRequest, errorBody{err.Error()})
		return
	case errors.Is(err, providers.ErrNotFound):
		writeJSON(w, r, http.StatusNotFound, errorBody{"not found"})
		return
	}

	var vendor string
	var ue *upstream.Error
	if errors.As(err, &ue) {
		vendor = ue.Vendor
	}
	kind := upstream.KindOf(err)
	log.Error().Err(err).Str("kind", string(kind)).Str("vendor", vendor).Msg("request failed")

	switch kind {
	case upstream.KindRateLimited:
		wait, ok := upstream.RetryAfterOf(err)
		if !ok {
			wait = defaultRetryAfter
		}
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
		writeJSON(w, r, http.StatusServiceUnavailable, errorBody{"service temporarily unavailable, retry later"})
	case upstream.KindMissingConfig:
		writeJSON(w, r, http.StatusInternalServerError, errorBody{"service not configured"})
	case upstream.KindClient, upstream.KindInvalid:
		writeJSON(w, r, http.StatusInternalServerError, errorBody{"service error"})
	case upstream.KindServer, upstream.KindNetwork:
		writeJSON(w, r, http.StatusBadGateway, errorBody{"upstream service unavailable"})
	default:
		writeJSON(w, r, http.StatusInternalServerError, errorBody{"internal error"})
	}
}
