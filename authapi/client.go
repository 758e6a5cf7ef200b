// Package authapi is the HTTP client for the remote Auth API. It implements
// session.Authenticator.
//
// Endpoints:
//
//	GET  /auth/verify    Authorization: Bearer <credential>  -> {"data":{"user":{...}}}
//	POST /auth/login     {"email","password"}                -> {"data":{"user":{...},"token":"..."}}
//	POST /auth/register  {"username","email","password"}     -> {"message":"..."}
//
// Non-2xx responses become *APIError carrying the payload's message.
package authapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/MrEthical07/storefront/internal/remote"
	"github.com/MrEthical07/storefront/session"
)

// APIError is a non-2xx Auth API response.
type APIError = remote.Error

// BreakerConfig tunes the circuit breaker guarding the API.
type BreakerConfig = remote.BreakerConfig

var (
	// ErrUnavailable is returned while the circuit breaker is open.
	ErrUnavailable = remote.ErrUnavailable
	// ErrMissingUser is returned when a 2xx response carries no user.
	ErrMissingUser = errors.New("authapi: response carries no user")
)

// Config configures a Client.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Breaker    BreakerConfig
}

// Client talks to the Auth API.
type Client struct {
	caller *remote.Caller
}

var _ session.Authenticator = (*Client)(nil)

// New returns a Client for cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	caller, err := remote.New(remote.Config{
		Name:       "auth-api",
		BaseURL:    cfg.BaseURL,
		HTTPClient: cfg.HTTPClient,
		Breaker:    cfg.Breaker,
	})
	if err != nil {
		return nil, err
	}
	return &Client{caller: caller}, nil
}

// User is the wire form of an identity.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// Identity converts the wire user. Unknown roles map to permission.RoleNone.
func (u User) Identity() session.Identity {
	id := session.Identity{ID: u.ID, Username: u.Username, Email: u.Email}
	_ = id.Role.UnmarshalText([]byte(u.Role))
	return id
}

type envelope struct {
	Data struct {
		User  *User  `json:"user"`
		Token string `json:"token"`
	} `json:"data"`
	User    *User  `json:"user"`
	Message string `json:"message"`
}

func (e envelope) user() *User {
	if e.Data.User != nil {
		return e.Data.User
	}
	return e.User
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VerifyToken resolves credential to an identity.
func (c *Client) VerifyToken(ctx context.Context, credential string) (session.Identity, error) {
	var out envelope
	if err := c.caller.Do(ctx, remote.Request{Method: http.MethodGet, Path: "/auth/verify", Bearer: credential}, &out); err != nil {
		return session.Identity{}, err
	}
	u := out.user()
	if u == nil {
		return session.Identity{}, ErrMissingUser
	}
	return u.Identity(), nil
}

// Login exchanges email and password for an identity and credential.
func (c *Client) Login(ctx context.Context, email, password string) (session.LoginResponse, error) {
	var out envelope
	req := remote.Request{Method: http.MethodPost, Path: "/auth/login", Body: loginRequest{Email: email, Password: password}}
	if err := c.caller.Do(ctx, req, &out); err != nil {
		return session.LoginResponse{}, err
	}
	u := out.user()
	if u == nil {
		return session.LoginResponse{}, ErrMissingUser
	}
	return session.LoginResponse{Identity: u.Identity(), Credential: out.Data.Token}, nil
}

// Register creates an account and returns the server's message.
func (c *Client) Register(ctx context.Context, reg session.Registration) (string, error) {
	var out envelope
	if err := c.caller.Do(ctx, remote.Request{Method: http.MethodPost, Path: "/auth/register", Body: reg}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
