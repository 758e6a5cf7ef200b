package shell

import (
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/MrEthical07/storefront/internal/rate"
	"github.com/MrEthical07/storefront/internal/remote"
	"github.com/MrEthical07/storefront/middleware"
	"github.com/MrEthical07/storefront/session"
)

type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Initialized   bool              `json:"initialized"`
	Loading       bool              `json:"loading"`
	User          *session.Identity `json:"user,omitempty"`
}

type resultResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	User    *session.Identity `json:"user,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *server) getSession(w http.ResponseWriter, _ *http.Request) {
	st := s.client.Session().State()
	respondJSON(s.log, w, http.StatusOK, sessionResponse{
		Authenticated: st.Authenticated(),
		Initialized:   st.Initialized,
		Loading:       st.Loading,
		User:          st.Identity,
	})
}

func (s *server) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(w, r, &req); err != nil {
		respondError(s.log, w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	ip := clientIP(r)

	if s.throttle != nil {
		switch err := s.throttle.Allow(r.Context(), req.Email, ip); {
		case errors.Is(err, rate.ErrRateLimited):
			if d := s.throttle.RetryAfter(r.Context(), req.Email); d > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(d.Seconds())+1))
			}
			respondJSON(s.log, w, http.StatusTooManyRequests, resultResponse{Message: err.Error()})
			return
		case err != nil:
			s.log.WithError(err).Warn("shell: login throttle unavailable")
		}
	}

	res := s.client.Login(r.Context(), req.Email, req.Password)
	if !res.Success {
		if s.throttle != nil && !errors.Is(res.Err, session.ErrInvalidInput) {
			if err := s.throttle.Fail(r.Context(), req.Email, ip); err != nil {
				s.log.WithError(err).Warn("shell: record failed login")
			}
		}
		respondJSON(s.log, w, statusForFailure(res.Err), resultResponse{Message: res.Message})
		return
	}
	if s.throttle != nil {
		if err := s.throttle.Reset(r.Context(), req.Email, ip); err != nil {
			s.log.WithError(err).Warn("shell: reset login throttle")
		}
	}
	respondJSON(s.log, w, http.StatusOK, resultResponse{Success: true, User: s.client.Session().Identity()})
}

func (s *server) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decode(w, r, &req); err != nil {
		respondError(s.log, w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	res := s.client.Register(r.Context(), req.Username, req.Email, req.Password)
	if !res.Success {
		respondJSON(s.log, w, statusForFailure(res.Err), resultResponse{Message: res.Message})
		return
	}
	respondJSON(s.log, w, http.StatusCreated, resultResponse{Success: true, Message: res.Message})
}

func (s *server) logout(w http.ResponseWriter, r *http.Request) {
	s.client.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) page(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFromContext(r.Context())
	respondJSON(s.log, w, http.StatusOK, map[string]any{"page": r.URL.Path, "user": id})
}

func (s *server) loginPage(w http.ResponseWriter, r *http.Request) {
	respondJSON(s.log, w, http.StatusOK, map[string]any{"page": "login", "next": r.URL.Query().Get("next")})
}

func statusForFailure(err error) int {
	status := remote.StatusCode(err)
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSuperseded):
		return http.StatusConflict
	case status >= 400 && status < 500:
		return status
	case errors.Is(err, session.ErrCredentialPersist):
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
