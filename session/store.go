package session

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/MrEthical07/storefront/jwt"
	"github.com/MrEthical07/storefront/permission"
)

const (
	// DefaultCredentialKey is the storage key the credential is kept under.
	DefaultCredentialKey = "token"

	defaultLoginFailure    = "login failed"
	defaultRegisterFailure = "registration failed"
)

// Config tunes a Store. The zero value is usable.
type Config struct {
	// CredentialKey overrides DefaultCredentialKey.
	CredentialKey string
	// LocalExpiryCheck discards a stored JWT credential whose exp has passed
	// without asking the Auth API. Non-JWT credentials always go to the network.
	LocalExpiryCheck bool
	// LoginFailureMessage and RegisterFailureMessage replace the fallbacks used
	// when the API error carries no message.
	LoginFailureMessage    string
	RegisterFailureMessage string
}

// Option configures optional Store collaborators.
type Option func(*Store)

// WithLogger sets the logger. The default discards output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithObserver registers an observer for operation outcomes.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		s.observer = o
	}
}

// WithClock overrides time.Now for expiry checks and latency measurement.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store owns the current Identity and credential.
type Store struct {
	auth     Authenticator
	storage  CredentialStorage
	cfg      Config
	log      logrus.FieldLogger
	observer Observer
	now      func() time.Time

	mu          sync.RWMutex
	identity    *Identity
	credential  string
	initialized bool

	// commitMu serialises persist-then-swap so storage and memory agree.
	commitMu sync.Mutex
	// generation advances on every committed login and on logout. A
	// verification started under an older generation is discarded.
	generation atomic.Uint64
	// loginSeq orders login attempts. committed is the newest attempt that
	// may no longer commit: the last committed login, or every attempt
	// issued before the last logout. Guarded by commitMu.
	loginSeq  atomic.Uint64
	committed uint64
	inflight  atomic.Int32

	initGroup singleflight.Group
	ready     chan struct{}
	readyOnce sync.Once
}

// NewStore constructs a Store in the loading state.
func NewStore(auth Authenticator, storage CredentialStorage, cfg Config, opts ...Option) (*Store, error) {
	if auth == nil {
		return nil, errors.New("session: authenticator is required")
	}
	if storage == nil {
		return nil, errors.New("session: credential storage is required")
	}
	if cfg.CredentialKey == "" {
		cfg.CredentialKey = DefaultCredentialKey
	}
	if cfg.LoginFailureMessage == "" {
		cfg.LoginFailureMessage = defaultLoginFailure
	}
	if cfg.RegisterFailureMessage == "" {
		cfg.RegisterFailureMessage = defaultRegisterFailure
	}

	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Store{
		auth:    auth,
		storage: storage,
		cfg:     cfg,
		log:     discard,
		now:     time.Now,
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Initialize reconciles a persisted credential with the Auth API. Concurrent
// callers share one verification; calls after completion return immediately.
// If ctx ends first Initialize returns early and verification keeps running.
func (s *Store) Initialize(ctx context.Context) {
	if s.Initialized() {
		return
	}
	detached := context.WithoutCancel(ctx)
	ch := s.initGroup.DoChan("initialize", func() (any, error) {
		if s.Initialized() {
			return nil, nil
		}
		s.initialize(detached)
		return nil, nil
	})
	select {
	case <-ch:
	case <-ctx.Done():
	}
}

func (s *Store) initialize(ctx context.Context) {
	gen := s.generation.Load()
	defer s.markInitialized()

	token, ok, err := s.storage.Get(ctx, s.cfg.CredentialKey)
	if err != nil {
		s.log.WithError(err).Warn("session: credential read failed")
		if s.discardCredential(ctx, gen) {
			s.emit(ctx, Event{Kind: EventVerifyFailed, Err: err})
		}
		return
	}
	if !ok || token == "" {
		return
	}

	if s.cfg.LocalExpiryCheck {
		if ins, err := jwt.Inspect(token); err == nil && ins.Expired(s.now()) {
			s.log.Info("session: stored credential expired")
			s.discardCredential(ctx, gen)
			s.emit(ctx, Event{Kind: EventVerifySkipped, Err: ErrCredentialExpired})
			return
		}
	}

	start := s.now()
	identity, err := s.auth.VerifyToken(ctx, token)
	took := s.now().Sub(start)

	s.emit(ctx, s.commitVerification(ctx, gen, token, identity, err, took))
}

// commitVerification applies a verification outcome unless a login or logout
// committed since gen was read.
func (s *Store) commitVerification(ctx context.Context, gen uint64, token string, identity Identity, err error, took time.Duration) Event {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.generation.Load() != gen {
		s.log.Debug("session: verification superseded")
		return Event{Kind: EventSuperseded, Err: ErrSuperseded, Duration: took}
	}
	if err != nil {
		s.log.WithError(err).Info("session: credential verification failed")
		s.deleteStored(ctx)
		s.swap(nil, "")
		return Event{Kind: EventVerifyFailed, Err: err, Duration: took}
	}
	s.swap(&identity, token)
	return Event{Kind: EventVerified, UserID: identity.ID, Duration: took}
}

// discardCredential clears the stored credential and reports whether it did.
func (s *Store) discardCredential(ctx context.Context, gen uint64) bool {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()
	if s.generation.Load() != gen {
		return false
	}
	s.deleteStored(ctx)
	s.swap(nil, "")
	return true
}

// Login authenticates with the Auth API and, on success, persists the
// credential before publishing the new Identity.
func (s *Store) Login(ctx context.Context, email, password string) Result {
	if err := checkInput(loginInput{Email: email, Password: password}); err != nil {
		s.emit(ctx, Event{Kind: EventLoginFailed, Err: err})
		return failure(err, s.cfg.LoginFailureMessage)
	}

	seq := s.loginSeq.Add(1)
	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	start := s.now()
	resp, err := s.auth.Login(ctx, email, password)
	took := s.now().Sub(start)
	if err == nil && resp.Credential == "" {
		err = ErrEmptyCredential
	}
	if err != nil {
		s.emit(ctx, Event{Kind: EventLoginFailed, Err: err, Duration: took})
		return failure(err, s.cfg.LoginFailureMessage)
	}

	ev := s.commitLogin(ctx, seq, resp, took)
	s.emit(ctx, ev)
	if ev.Kind != EventLogin {
		return failure(ev.Err, s.cfg.LoginFailureMessage)
	}
	return Result{Success: true}
}

// commitLogin persists and publishes resp unless a newer login committed or a
// logout happened after the attempt started. Failed attempts never reach it,
// so they supersede nothing.
func (s *Store) commitLogin(ctx context.Context, seq uint64, resp LoginResponse, took time.Duration) Event {
	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if s.committed >= seq {
		s.log.WithField("user_id", resp.Identity.ID).Debug("session: login response superseded")
		return Event{Kind: EventSuperseded, UserID: resp.Identity.ID, Err: ErrSuperseded, Duration: took}
	}
	if err := s.storage.Set(ctx, s.cfg.CredentialKey, resp.Credential); err != nil {
		s.log.WithError(err).Error("session: credential write failed")
		return Event{Kind: EventLoginFailed, UserID: resp.Identity.ID, Err: errors.Join(ErrCredentialPersist, err), Duration: took}
	}

	identity := resp.Identity
	s.committed = seq
	s.generation.Add(1)
	s.swap(&identity, resp.Credential)
	return Event{Kind: EventLogin, UserID: identity.ID, Duration: took}
}

// Register creates an account. It never signs the user in.
func (s *Store) Register(ctx context.Context, username, email, password string) Result {
	reg := Registration{Username: username, Email: email, Password: password}
	if err := checkInput(reg); err != nil {
		s.emit(ctx, Event{Kind: EventRegisterFailed, Err: err})
		return failure(err, s.cfg.RegisterFailureMessage)
	}

	s.inflight.Add(1)
	defer s.inflight.Add(-1)

	start := s.now()
	msg, err := s.auth.Register(ctx, reg)
	took := s.now().Sub(start)
	if err != nil {
		s.emit(ctx, Event{Kind: EventRegisterFailed, Err: err, Duration: took})
		return failure(err, s.cfg.RegisterFailureMessage)
	}
	s.emit(ctx, Event{Kind: EventRegister, Duration: took})
	return Result{Success: true, Message: msg}
}

// Logout clears the session and the persisted credential. Any login or
// verification still in flight is superseded.
func (s *Store) Logout(ctx context.Context) {
	s.commitMu.Lock()
	s.generation.Add(1)
	s.committed = s.loginSeq.Load()
	s.mu.RLock()
	var userID string
	if s.identity != nil {
		userID = s.identity.ID
	}
	s.mu.RUnlock()

	s.swap(nil, "")
	s.deleteStored(ctx)
	s.commitMu.Unlock()

	s.emit(ctx, Event{Kind: EventLogout, UserID: userID})
}

// HasRole reports whether the current identity's role is in required.
func (s *Store) HasRole(required permission.Set) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return false
	}
	return required.Has(s.identity.Role)
}

// IsAuthenticated reports whether an identity is present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity != nil
}

// Initialized reports whether Initialize has completed.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initialized
}

// Loading is true until initialization completes and while a login or
// registration request is outstanding.
func (s *Store) Loading() bool {
	return !s.Initialized() || s.inflight.Load() > 0
}

// Identity returns a copy of the current identity, or nil.
func (s *Store) Identity() *Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// Credential returns the current bearer credential, or "".
func (s *Store) Credential() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.credential
}

// State returns a consistent snapshot.
func (s *Store) State() State {
	s.mu.RLock()
	st := State{Credential: s.credential, Initialized: s.initialized}
	if s.identity != nil {
		id := *s.identity
		st.Identity = &id
	}
	s.mu.RUnlock()
	st.Loading = !st.Initialized || s.inflight.Load() > 0
	return st
}

// Ready is closed once initialization completes.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) swap(identity *Identity, credential string) {
	s.mu.Lock()
	s.identity = identity
	s.credential = credential
	s.mu.Unlock()
}

func (s *Store) markInitialized() {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) deleteStored(ctx context.Context) {
	if err := s.storage.Delete(ctx, s.cfg.CredentialKey); err != nil {
		s.log.WithError(err).Warn("session: credential delete failed")
	}
}

func (s *Store) emit(ctx context.Context, ev Event) {
	if s.observer != nil {
		s.observer.Observe(ctx, ev)
	}
}
