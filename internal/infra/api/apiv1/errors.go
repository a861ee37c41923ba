package apiv1

import (
	"encoding/json"
	"errors"
	"net/http"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/infra/logging"
	"mockdata-subscription/internal/usecase"
)

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail"`
}

func statusFor(k domain.Kind) int {
	switch k {
	case domain.KindValidation, domain.KindConflict:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err with the status of its kind. overrides remaps
// individual kinds for endpoints whose contract differs.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, overrides map[domain.Kind]int) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if st, ok := overrides[kind]; ok {
		status = st
	}

	var fields usecase.FieldErrors
	if kind == domain.KindValidation && errors.As(err, &fields) {
		writeJSON(w, status, map[string]any{"errors": fields})
		return
	}

	detail := domain.MessageOf(err)
	log := logging.With(r.Context(), s.log)
	if kind == domain.KindInternal {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		detail = "an unexpected error occurred"
	} else {
		log.Debug().Err(err).Str("kind", kind.String()).Msg("request rejected")
	}
	writeJSON(w, status, errorBody{Error: kind.String(), Detail: detail})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.Validation("malformed JSON body", err)
	}
	return nil
}
