package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/oraclebets/oraclebets/internal/domain"
	"github.com/oraclebets/oraclebets/internal/server/middleware"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps a sentinel error to an HTTP status and writes it.
// Unrecognized errors are logged and reported as a generic 500.
func writeDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if status, ok := statusForError(err); ok {
		writeError(w, status, rootCause(err).Error())
		return
	}
	logger.ErrorContext(r.Context(), "handler: request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

// statusForError returns the HTTP status for a known domain error.
func statusForError(err error) (int, bool) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, true
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, true
	case errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict, true

	case errors.Is(err, domain.ErrTitleTooLong),
		errors.Is(err, domain.ErrDescriptionTooLong),
		errors.Is(err, domain.ErrDeadlineInPast),
		errors.Is(err, domain.ErrInvalidResolutionDeadline),
		errors.Is(err, domain.ErrInvalidMinBet),
		errors.Is(err, domain.ErrInvalidMaxBet),
		errors.Is(err, domain.ErrBetTooSmall),
		errors.Is(err, domain.ErrBetTooLarge):
		return http.StatusBadRequest, true

	case errors.Is(err, domain.ErrMarketNotOpen),
		errors.Is(err, domain.ErrMarketNotResolved),
		errors.Is(err, domain.ErrMarketNotReclaimable),
		errors.Is(err, domain.ErrMarketHasBets),
		errors.Is(err, domain.ErrBetDidNotWin),
		errors.Is(err, domain.ErrBettingClosed),
		errors.Is(err, domain.ErrMarketNotReady),
		errors.Is(err, domain.ErrResolutionExpired),
		errors.Is(err, domain.ErrAlreadyClaimed):
		return http.StatusConflict, true

	case errors.Is(err, domain.ErrOracleMismatch),
		errors.Is(err, domain.ErrStalePrice),
		errors.Is(err, domain.ErrInvalidOracleData):
		return http.StatusBadGateway, true
	}
	return 0, false
}

// rootCause unwraps to the innermost error so clients see the sentinel
// message rather than the wrapping chain.
func rootCause(err error) error {
	for {
		unwrapped := errors.Unwrap(err)
		if unwrapped == nil {
			return err
		}
		err = unwrapped
	}
}

// parseListOpts extracts standard pagination parameters from the query
// string. Defaults: limit=50 (max 500), offset=0.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()

	limit := 50
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > 500 {
		limit = 500
	}

	offset := 0
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return domain.ListOpts{
		Limit:  limit,
		Offset: offset,
	}
}

// marketIDParam parses the {id} path segment as a market id.
func marketIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(r.PathValue("id"), 10, 64)
}

// requireCaller returns the caller identity, or writes a 401 and reports
// false when the request carried none.
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := middleware.Caller(r.Context())
	if caller == "" {
		writeError(w, http.StatusUnauthorized, "missing "+middleware.CallerHeader+" header")
		return "", false
	}
	return caller, true
}

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
