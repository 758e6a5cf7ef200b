package session

import (
	"context"
	"time"

	"github.com/MrEthical07/storefront/permission"
)

// Identity is the signed-in user's profile as returned by the Auth API.
type Identity struct {
	ID       string          `json:"id"`
	Username string          `json:"username"`
	Email    string          `json:"email"`
	Role     permission.Role `json:"role"`
}

// LoginResponse is what a successful remote login yields.
type LoginResponse struct {
	Identity   Identity
	Credential string
}

// Registration carries the fields sent to the registration endpoint.
type Registration struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Result is the structured outcome of Login and Register. Err is kept for
// errors.Is checks; Message is always human readable when Success is false.
type Result struct {
	Success bool
	Message string
	Err     error
}

// State is a consistent snapshot of the store.
type State struct {
	Identity    *Identity
	Credential  string
	Loading     bool
	Initialized bool
}

// Authenticated reports whether the snapshot carries an identity.
func (s State) Authenticated() bool {
	return s.Identity != nil
}

// Authenticator is the remote Auth API as seen by the store.
type Authenticator interface {
	VerifyToken(ctx context.Context, credential string) (Identity, error)
	Login(ctx context.Context, email, password string) (LoginResponse, error)
	Register(ctx context.Context, reg Registration) (string, error)
}

// CredentialStorage is durable client storage. Get reports false when the key is absent.
type CredentialStorage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// EventKind enumerates the observable outcomes of store operations.
type EventKind uint8

const (
	EventVerified EventKind = iota + 1
	EventVerifyFailed
	EventVerifySkipped
	EventLogin
	EventLoginFailed
	EventRegister
	EventRegisterFailed
	EventLogout
	EventSuperseded
)

var eventNames = map[EventKind]string{
	EventVerified:       "verify_success",
	EventVerifyFailed:   "verify_failure",
	EventVerifySkipped:  "verify_skipped",
	EventLogin:          "login_success",
	EventLoginFailed:    "login_failure",
	EventRegister:       "register_success",
	EventRegisterFailed: "register_failure",
	EventLogout:         "logout",
	EventSuperseded:     "superseded",
}

func (k EventKind) String() string {
	if n, ok := eventNames[k]; ok {
		return n
	}
	return "unknown"
}

// Event is reported to the Observer after each operation settles.
type Event struct {
	Kind     EventKind
	UserID   string
	Err      error
	Duration time.Duration
}

// Observer receives store events. Implementations must not block.
type Observer interface {
	Observe(ctx context.Context, ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ctx context.Context, ev Event)

func (f ObserverFunc) Observe(ctx context.Context, ev Event) {
	f(ctx, ev)
}
