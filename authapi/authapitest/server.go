// Package authapitest provides an in-process fake of the remote Auth API.
//
// Credentials are HS256 JWTs minted by the jwt package; passwords are stored
// as argon2id hashes. Failures and latency can be injected per request.
package authapitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/MrEthical07/storefront/authapi"
	"github.com/MrEthical07/storefront/jwt"
	"github.com/MrEthical07/storefront/permission"
)

// Option configures a Server.
type Option func(*Server)

// WithTokenTTL sets the lifetime of issued credentials. Default 1h.
func WithTokenTTL(d time.Duration) Option {
	return func(s *Server) { s.ttl = d }
}

// WithSigningKey sets the HS256 key.
func WithSigningKey(key []byte) Option {
	return func(s *Server) { s.key = key }
}

type account struct {
	user authapi.User
	hash string
}

type failure struct {
	status  int
	message string
}

// Counts reports how many requests each endpoint served.
type Counts struct {
	Verify   int64
	Login    int64
	Register int64
}

// Server is the fake Auth API. Use Handler to mount it or Start for an httptest server.
type Server struct {
	ttl    time.Duration
	key    []byte
	tokens *jwt.Manager
	router chi.Router

	mu       sync.Mutex
	byEmail  map[string]*account
	byID     map[string]*account
	failures []failure
	latency  time.Duration
	gate     chan struct{}

	verify   atomic.Int64
	login    atomic.Int64
	register atomic.Int64

	httpSrv *httptest.Server
}

// New builds a Server without starting a listener.
func New(opts ...Option) (*Server, error) {
	s := &Server{
		ttl:     time.Hour,
		key:     []byte("authapitest-signing-key-0123456789"),
		byEmail: map[string]*account{},
		byID:    map[string]*account{},
	}
	for _, opt := range opts {
		opt(s)
	}
	m, err := jwt.NewManager(jwt.Config{TTL: s.ttl, SigningMethod: jwt.MethodHS256, PrivateKey: s.key, Issuer: "authapitest"})
	if err != nil {
		return nil, err
	}
	s.tokens = m

	r := chi.NewRouter()
	r.Use(s.inject)
	r.Get("/auth/verify", s.handleVerify)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	s.router = r
	return s, nil
}

// Start serves the fake on a loopback httptest server.
func Start(opts ...Option) (*Server, error) {
	s, err := New(opts...)
	if err != nil {
		return nil, err
	}
	s.httpSrv = httptest.NewServer(s.router)
	return s, nil
}

// URL is the base URL of a started server.
func (s *Server) URL() string {
	if s.httpSrv == nil {
		return ""
	}
	return s.httpSrv.URL
}

// Close stops a started server.
func (s *Server) Close() {
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}
}

// Handler exposes the routes for mounting on another server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// AddUser creates an account and returns its id.
func (s *Server) AddUser(username, email, password string, role permission.Role) (string, error) {
	hash, err := hashPassword(password)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(username, email, hash, strings.ToLower(role.String())), nil
}

// Issue mints a credential for an existing user id.
func (s *Server) Issue(userID string) (string, error) {
	s.mu.Lock()
	acc, ok := s.byID[userID]
	s.mu.Unlock()
	if !ok {
		return "", errUnknownUser
	}
	return s.tokens.Issue(acc.user.ID, jwt.Claims{Username: acc.user.Username, Email: acc.user.Email, Role: acc.user.Role})
}

// FailNext makes the next request answer status with message.
func (s *Server) FailNext(status int, message string) {
	s.mu.Lock()
	s.failures = append(s.failures, failure{status: status, message: message})
	s.mu.Unlock()
}

// SetLatency delays every response.
func (s *Server) SetLatency(d time.Duration) {
	s.mu.Lock()
	s.latency = d
	s.mu.Unlock()
}

// Hold blocks every request until Release is called.
func (s *Server) Hold() {
	s.mu.Lock()
	if s.gate == nil {
		s.gate = make(chan struct{})
	}
	s.mu.Unlock()
}

// Release unblocks requests held by Hold.
func (s *Server) Release() {
	s.mu.Lock()
	if s.gate != nil {
		close(s.gate)
		s.gate = nil
	}
	s.mu.Unlock()
}

// Counts returns per-endpoint request counts.
func (s *Server) Counts() Counts {
	return Counts{Verify: s.verify.Load(), Login: s.login.Load(), Register: s.register.Load()}
}

func (s *Server) addLocked(username, email, hash, role string) string {
	id := uuid.NewString()
	acc := &account{
		user: authapi.User{ID: id, Username: username, Email: email, Role: role},
		hash: hash,
	}
	s.byEmail[strings.ToLower(email)] = acc
	s.byID[id] = acc
	return id
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		latency, gate := s.latency, s.gate
		var f *failure
		if len(s.failures) > 0 {
			f = &s.failures[0]
			s.failures = s.failures[1:]
		}
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if latency > 0 {
			select {
			case <-time.After(latency):
			case <-r.Context().Done():
				return
			}
		}
		if f != nil {
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	s.verify.Add(1)
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided"})
		return
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		return
	}
	s.mu.Lock()
	acc, found := s.byID[claims.Subject]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": acc.user}})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.login.Add(1)
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	s.mu.Lock()
	acc, found := s.byEmail[strings.ToLower(in.Email)]
	s.mu.Unlock()
	if !found {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	if ok, err := verifyPassword(in.Password, acc.hash); err != nil || !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	token, err := s.tokens.Issue(acc.user.ID, jwt.Claims{Username: acc.user.Username, Email: acc.user.Email, Role: acc.user.Role})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Could not issue token"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"user": acc.user, "token": token}})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	s.register.Add(1)
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || in.Email == "" || in.Password == "" || in.Username == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username, email and password are required"})
		return
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "Could not register"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byEmail[strings.ToLower(in.Email)]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}
	s.addLocked(in.Username, in.Email, hash, strings.ToLower(permission.RoleCustomer.String()))
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
