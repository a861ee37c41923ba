package apiv1

import (
	"context"
	"net/http"
	"strings"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/model"
	"mockdata-subscription/internal/infra/logging"
	"mockdata-subscription/internal/infra/redis"
	"mockdata-subscription/internal/usecase"
)

type ctxKey struct{}

func withUser(ctx context.Context, u *model.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func userFrom(ctx context.Context) *model.User {
	u, _ := ctx.Value(ctxKey{}).(*model.User)
	return u
}

// requireUser resolves the bearer access token to an active user.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
			s.writeError(w, r, domain.Unauthorized("authentication credentials were not provided"), nil)
			return
		}
		user, err := s.users.Authenticate(r.Context(), strings.TrimSpace(token))
		if err != nil {
			s.writeError(w, r, err, nil)
			return
		}
		ctx := logging.WithUserID(withUser(r.Context(), user), user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userRateLimit caps calls per user and route. Limiter outages fail open.
func (s *Server) userRateLimit(route string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if s.opts.Limiter == nil || s.opts.UserRateLimit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u := userFrom(r.Context())
			if u == nil {
				next.ServeHTTP(w, r)
				return
			}
			ok, err := s.opts.Limiter.Allow(r.Context(), redis.UserRouteKey(u.ID, route), s.opts.UserRateLimit, s.opts.UserRateWindow)
			if err != nil {
				logging.With(r.Context(), s.log).Warn().Err(err).Str("route", route).Msg("rate limiter unavailable")
			} else if !ok {
				writeJSON(w, http.StatusTooManyRequests, errorBody{Error: "rate_limited", Detail: "too many requests"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var in usecase.SignupInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	user, err := s.users.Signup(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err, map[domain.Kind]int{domain.KindConflict: http.StatusConflict})
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	if req.Username == "" || req.Password == "" {
		s.writeError(w, r, domain.Validation("username and password are required"), nil)
		return
	}
	pair, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, pair)
}

func (s *Server) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token string `json:"token"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	claims, err := s.users.VerifyToken(r.Context(), req.Token)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"valid": true, "data": claims})
}

func (s *Server) refreshToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Refresh string `json:"refresh"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	access, err := s.users.Refresh(r.Context(), req.Refresh)
	if err != nil {
		s.writeError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access": access})
}
