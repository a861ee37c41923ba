package apiv1

import (
	"errors"
	"io"
	"net/http"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/adapter"
	"mockdata-subscription/internal/infra/security"
)

const maxWebhookBody = 1 << 20

func (s *Server) initiatePayment(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	sess, err := s.payments.Initiate(r.Context(), user.ID)
	if err != nil {
		var pe *adapter.ProviderError
		if errors.As(err, &pe) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(pe.Status)
			_, _ = w.Write(pe.Body)
			return
		}
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// webhook acknowledges every authenticated, parseable delivery with 200 so
// the provider only retries on 5xx.
func (s *Server) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		s.writeError(w, r, domain.Validation("unreadable webhook body", err), nil)
		return
	}
	sig := r.Header.Get(security.SignatureHeader)
	if sig == "" {
		sig = r.Header.Get(security.SignatureHeaderAlias)
	}

	res, err := s.webhooks.Handle(r.Context(), body, sig)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Webhook received",
		"outcome": res.Outcome,
	})
}
