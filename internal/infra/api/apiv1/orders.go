package apiv1

import (
	"net/http"

	"mockdata-subscription/internal/domain"
)

func (s *Server) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	plans, err := s.plans.List(r.Context())
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	items := make([]subscriptionDTO, 0, len(plans))
	for _, p := range plans {
		items = append(items, toSubscriptionDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

type createOrderRequest struct {
	Subscription string `json:"subscription"`
}

// createOrder answers 201 for a new order and 200 when an unpaid one already exists.
// An unknown plan is a client error here, not a missing resource.
func (s *Server) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if req.Subscription == "" {
		s.writeError(w, r, domain.Validation("subscription is required"), nil)
		return
	}
	user := userFrom(r.Context())
	res, err := s.orders.Create(r.Context(), user.ID, req.Subscription)
	if err != nil {
		s.writeError(w, r, err, map[domain.Kind]int{domain.KindNotFound: http.StatusBadRequest})
		return
	}
	if res.Existing {
		writeJSON(w, http.StatusOK, map[string]any{
			"message": "order already exists",
			"order":   toOrderDTO(res.Order),
		})
		return
	}
	writeJSON(w, http.StatusCreated, toOrderDTO(res.Order))
}

func (s *Server) myOrder(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r.Context())
	o, err := s.orders.GetByOwner(r.Context(), user.ID)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toOrderDTO(o))
}
