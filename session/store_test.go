package session

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/MrEthical07/storefront/permission"
)

type apiErr struct{ msg string }

func (e *apiErr) Error() string       { return "api: " + e.msg }
func (e *apiErr) UserMessage() string { return e.msg }

type fakeAuth struct {
	mu          sync.Mutex
	valid       map[string]Identity
	accounts    map[string]LoginResponse
	verifyCalls atomic.Int32
	loginCalls  atomic.Int32

	// gate, when set, blocks the named call until a value is received.
	verifyGate chan struct{}
	loginGates map[string]chan struct{}
	entered    chan string

	registerMsg string
	registerErr error
	loginErr    error
}

func newFakeAuth() *fakeAuth {
	return &fakeAuth{
		valid:      map[string]Identity{},
		accounts:   map[string]LoginResponse{},
		loginGates: map[string]chan struct{}{},
		entered:    make(chan string, 16),
	}
}

func (f *fakeAuth) VerifyToken(ctx context.Context, credential string) (Identity, error) {
	f.verifyCalls.Add(1)
	if f.verifyGate != nil {
		<-f.verifyGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.valid[credential]
	if !ok {
		return Identity{}, &apiErr{msg: "invalid token"}
	}
	return id, nil
}

func (f *fakeAuth) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	f.loginCalls.Add(1)
	f.mu.Lock()
	gate := f.loginGates[email]
	f.mu.Unlock()
	if gate != nil {
		f.entered <- email
		<-gate
	}
	if f.loginErr != nil {
		return LoginResponse{}, f.loginErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	resp, ok := f.accounts[email]
	if !ok {
		return LoginResponse{}, &apiErr{msg: "Invalid credentials"}
	}
	return resp, nil
}

func (f *fakeAuth) Register(ctx context.Context, reg Registration) (string, error) {
	return f.registerMsg, f.registerErr
}

type fakeStorage struct {
	mu      sync.Mutex
	data    map[string]string
	getErr  error
	setErr  error
	deletes int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{data: map[string]string{}}
}

func (s *fakeStorage) Get(ctx context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return "", false, s.getErr
	}
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *fakeStorage) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.data[key] = value
	return nil
}

func (s *fakeStorage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	delete(s.data, key)
	return nil
}

func (s *fakeStorage) value(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

var alice = Identity{ID: "u1", Username: "alice", Email: "a@x.io", Role: permission.RoleCustomer}

func newTestStore(t *testing.T, auth *fakeAuth, storage *fakeStorage, cfg Config) *Store {
	t.Helper()
	s, err := NewStore(auth, storage, cfg)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestNewStoreRequiresCollaborators(t *testing.T) {
	if _, err := NewStore(nil, newFakeStorage(), Config{}); err == nil {
		t.Fatal("expected error for nil authenticator")
	}
	if _, err := NewStore(newFakeAuth(), nil, Config{}); err == nil {
		t.Fatal("expected error for nil storage")
	}
}

func TestInitialStateIsLoading(t *testing.T) {
	s := newTestStore(t, newFakeAuth(), newFakeStorage(), Config{})
	st := s.State()
	if !st.Loading || st.Initialized || st.Authenticated() {
		t.Fatalf("unexpected initial state: %+v", st)
	}
	select {
	case <-s.Ready():
		t.Fatal("ready closed before initialization")
	default:
	}
}

func TestInitializeWithoutCredentialSkipsNetwork(t *testing.T) {
	auth := newFakeAuth()
	s := newTestStore(t, auth, newFakeStorage(), Config{})
	s.Initialize(context.Background())

	if got := auth.verifyCalls.Load(); got != 0 {
		t.Fatalf("expected no verify call, got %d", got)
	}
	if !s.Initialized() || s.Loading() || s.IsAuthenticated() {
		t.Fatalf("unexpected state: %+v", s.State())
	}
	select {
	case <-s.Ready():
	default:
		t.Fatal("ready not closed")
	}
}

func TestInitializeWithValidCredential(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["T1"] = alice
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "T1"

	s := newTestStore(t, auth, storage, Config{})
	s.Initialize(context.Background())

	id := s.Identity()
	if id == nil || *id != alice {
		t.Fatalf("expected alice, got %+v", id)
	}
	if s.Credential() != "T1" {
		t.Fatalf("expected credential T1, got %q", s.Credential())
	}
}

func TestInitializeWithInvalidCredentialDeletesIt(t *testing.T) {
	auth := newFakeAuth()
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "bogus"

	s := newTestStore(t, auth, storage, Config{})
	s.Initialize(context.Background())

	if s.IsAuthenticated() || s.Credential() != "" {
		t.Fatalf("expected logged out, got %+v", s.State())
	}
	if _, ok := storage.value(DefaultCredentialKey); ok {
		t.Fatal("expected stored credential to be deleted")
	}
	if !s.Initialized() {
		t.Fatal("expected initialized")
	}
}

func TestInitializeStorageReadFailure(t *testing.T) {
	storage := newFakeStorage()
	storage.getErr = errors.New("disk gone")
	auth := newFakeAuth()

	s := newTestStore(t, auth, storage, Config{})
	s.Initialize(context.Background())

	if !s.Initialized() || s.IsAuthenticated() {
		t.Fatalf("unexpected state: %+v", s.State())
	}
	if auth.verifyCalls.Load() != 0 {
		t.Fatal("verify must not be called when storage read fails")
	}
}

func TestConcurrentInitializeVerifiesOnce(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["T1"] = alice
	auth.verifyGate = make(chan struct{})
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "T1"
	s := newTestStore(t, auth, storage, Config{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Initialize(context.Background())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(auth.verifyGate)
	wg.Wait()

	if got := auth.verifyCalls.Load(); got != 1 {
		t.Fatalf("expected one verify call, got %d", got)
	}
	s.Initialize(context.Background())
	if got := auth.verifyCalls.Load(); got != 1 {
		t.Fatalf("initialize after completion must be a no-op, got %d calls", got)
	}
}

func TestInitializeReturnsWhenContextEnds(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["T1"] = alice
	auth.verifyGate = make(chan struct{})
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "T1"
	s := newTestStore(t, auth, storage, Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Initialize(ctx)

	close(auth.verifyGate)
	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("verification did not complete after caller left")
	}
	if !s.IsAuthenticated() {
		t.Fatal("expected verification to commit despite cancelled caller")
	}
}

func TestLocalExpiryCheckSkipsNetwork(t *testing.T) {
	expired, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(-time.Hour)),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	auth := newFakeAuth()
	auth.valid[expired] = alice
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = expired

	s := newTestStore(t, auth, storage, Config{LocalExpiryCheck: true})
	s.Initialize(context.Background())

	if auth.verifyCalls.Load() != 0 {
		t.Fatal("expired credential must not reach the network")
	}
	if s.IsAuthenticated() {
		t.Fatal("expected logged out")
	}
	if _, ok := storage.value(DefaultCredentialKey); ok {
		t.Fatal("expected expired credential to be deleted")
	}
}

func TestLocalExpiryCheckOpaqueTokenUsesNetwork(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["opaque"] = alice
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "opaque"

	s := newTestStore(t, auth, storage, Config{LocalExpiryCheck: true})
	s.Initialize(context.Background())

	if auth.verifyCalls.Load() != 1 || !s.IsAuthenticated() {
		t.Fatalf("expected network verification, calls=%d", auth.verifyCalls.Load())
	}
}

func TestLoginSuccessPersistsThenCommits(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	storage := newFakeStorage()
	s := newTestStore(t, auth, storage, Config{})
	s.Initialize(context.Background())

	res := s.Login(context.Background(), "a@x.io", "pw")
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if v, _ := storage.value(DefaultCredentialKey); v != "T2" {
		t.Fatalf("expected persisted T2, got %q", v)
	}
	st := s.State()
	if st.Identity == nil || st.Identity.ID != "u1" || st.Credential != "T2" || st.Loading {
		t.Fatalf("unexpected state: %+v", st)
	}
}

func TestLoginFailureUsesAPIMessage(t *testing.T) {
	s := newTestStore(t, newFakeAuth(), newFakeStorage(), Config{})
	s.Initialize(context.Background())

	res := s.Login(context.Background(), "a@x.io", "wrong")
	if res.Success || res.Message != "Invalid credentials" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if s.IsAuthenticated() {
		t.Fatal("failed login must not authenticate")
	}
}

func TestLoginFailureFallbackMessage(t *testing.T) {
	auth := newFakeAuth()
	auth.loginErr = errors.New("connection refused")
	s := newTestStore(t, auth, newFakeStorage(), Config{})

	res := s.Login(context.Background(), "a@x.io", "pw")
	if res.Message != "login failed" {
		t.Fatalf("expected fallback message, got %q", res.Message)
	}
	auth.loginErr = &apiErr{msg: "  "}
	if res := s.Login(context.Background(), "a@x.io", "pw"); res.Message != "login failed" {
		t.Fatalf("blank API message must fall back, got %q", res.Message)
	}
}

func TestLoginFailureKeepsPriorSession(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	storage := newFakeStorage()
	s := newTestStore(t, auth, storage, Config{})

	if res := s.Login(context.Background(), "a@x.io", "pw"); !res.Success {
		t.Fatalf("login: %+v", res)
	}
	if res := s.Login(context.Background(), "b@x.io", "pw"); res.Success {
		t.Fatal("expected failure")
	}
	if s.Credential() != "T2" || s.Identity().ID != "u1" {
		t.Fatalf("prior session changed: %+v", s.State())
	}
}

func TestLoginValidationSkipsNetwork(t *testing.T) {
	auth := newFakeAuth()
	s := newTestStore(t, auth, newFakeStorage(), Config{})

	res := s.Login(context.Background(), "not-an-email", "pw")
	if res.Success || !errors.Is(res.Err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %+v", res)
	}
	if res.Message != "email must be a valid email" {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if auth.loginCalls.Load() != 0 {
		t.Fatal("network must not be called on invalid input")
	}
}

func TestLoginEmptyCredentialFails(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice}
	s := newTestStore(t, auth, newFakeStorage(), Config{})

	res := s.Login(context.Background(), "a@x.io", "pw")
	if res.Success || !errors.Is(res.Err, ErrEmptyCredential) {
		t.Fatalf("expected empty credential failure, got %+v", res)
	}
}

func TestLoginPersistFailureLeavesStateUntouched(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	storage := newFakeStorage()
	storage.setErr = errors.New("quota exceeded")
	s := newTestStore(t, auth, storage, Config{})

	res := s.Login(context.Background(), "a@x.io", "pw")
	if res.Success || !errors.Is(res.Err, ErrCredentialPersist) {
		t.Fatalf("expected persist failure, got %+v", res)
	}
	if s.IsAuthenticated() || s.Credential() != "" {
		t.Fatalf("state must be untouched: %+v", s.State())
	}
}

func TestLoadingWhileLoginInFlight(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	gate := make(chan struct{})
	auth.loginGates["a@x.io"] = gate
	s := newTestStore(t, auth, newFakeStorage(), Config{})
	s.Initialize(context.Background())

	done := make(chan Result, 1)
	go func() { done <- s.Login(context.Background(), "a@x.io", "pw") }()
	<-auth.entered
	if !s.Loading() {
		t.Fatal("expected loading while login in flight")
	}
	close(gate)
	if res := <-done; !res.Success {
		t.Fatalf("login: %+v", res)
	}
	if s.Loading() {
		t.Fatal("expected loading false after login")
	}
}

func TestLogoutSupersedesInFlightLogin(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	gate := make(chan struct{})
	auth.loginGates["a@x.io"] = gate
	storage := newFakeStorage()
	s := newTestStore(t, auth, storage, Config{})
	s.Initialize(context.Background())

	done := make(chan Result, 1)
	go func() { done <- s.Login(context.Background(), "a@x.io", "pw") }()
	<-auth.entered
	s.Logout(context.Background())
	close(gate)

	res := <-done
	if res.Success || !errors.Is(res.Err, ErrSuperseded) || res.Message != "request superseded" {
		t.Fatalf("expected superseded, got %+v", res)
	}
	if s.IsAuthenticated() {
		t.Fatal("stale login must not authenticate after logout")
	}
	if _, ok := storage.value(DefaultCredentialKey); ok {
		t.Fatal("stale login must not persist a credential")
	}
}

func TestNewestLoginWins(t *testing.T) {
	bob := Identity{ID: "u2", Username: "bob", Email: "b@x.io", Role: permission.RoleSeller}
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "TA"}
	auth.accounts["b@x.io"] = LoginResponse{Identity: bob, Credential: "TB"}
	gate := make(chan struct{})
	auth.loginGates["a@x.io"] = gate
	storage := newFakeStorage()
	s := newTestStore(t, auth, storage, Config{})

	first := make(chan Result, 1)
	go func() { first <- s.Login(context.Background(), "a@x.io", "pw") }()
	<-auth.entered

	if res := s.Login(context.Background(), "b@x.io", "pw"); !res.Success {
		t.Fatalf("second login: %+v", res)
	}
	close(gate)
	if res := <-first; !errors.Is(res.Err, ErrSuperseded) {
		t.Fatalf("expected first login superseded, got %+v", res)
	}
	if s.Identity().ID != "u2" || s.Credential() != "TB" {
		t.Fatalf("expected bob's session, got %+v", s.State())
	}
	if v, _ := storage.value(DefaultCredentialKey); v != "TB" {
		t.Fatalf("expected TB persisted, got %q", v)
	}
}

func TestLogoutSupersedesVerification(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["T1"] = alice
	auth.verifyGate = make(chan struct{})
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "T1"
	s := newTestStore(t, auth, storage, Config{})

	done := make(chan struct{})
	go func() {
		s.Initialize(context.Background())
		close(done)
	}()
	for auth.verifyCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	s.Logout(context.Background())
	close(auth.verifyGate)
	<-done

	if s.IsAuthenticated() {
		t.Fatal("verification completing after logout must be discarded")
	}
	if !s.Initialized() {
		t.Fatal("expected initialized")
	}
}

func TestLogoutAlwaysClears(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	storage := newFakeStorage()
	s := newTestStore(t, auth, storage, Config{})
	s.Login(context.Background(), "a@x.io", "pw")

	s.Logout(context.Background())
	if s.IsAuthenticated() || s.Credential() != "" {
		t.Fatalf("expected cleared, got %+v", s.State())
	}
	if _, ok := storage.value(DefaultCredentialKey); ok {
		t.Fatal("expected stored credential removed")
	}
	s.Logout(context.Background())
}

func TestRegisterDoesNotSignIn(t *testing.T) {
	auth := newFakeAuth()
	auth.registerMsg = "Registration successful"
	s := newTestStore(t, auth, newFakeStorage(), Config{})
	s.Initialize(context.Background())

	res := s.Register(context.Background(), "carol", "c@x.io", "secret1")
	if !res.Success || res.Message != "Registration successful" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if s.IsAuthenticated() || s.Credential() != "" {
		t.Fatal("register must not sign in")
	}
}

func TestRegisterFailureMessages(t *testing.T) {
	auth := newFakeAuth()
	auth.registerErr = &apiErr{msg: "Email already in use"}
	s := newTestStore(t, auth, newFakeStorage(), Config{})

	if res := s.Register(context.Background(), "carol", "c@x.io", "secret1"); res.Message != "Email already in use" {
		t.Fatalf("expected API message, got %q", res.Message)
	}
	auth.registerErr = errors.New("timeout")
	if res := s.Register(context.Background(), "carol", "c@x.io", "secret1"); res.Message != "registration failed" {
		t.Fatalf("expected fallback, got %q", res.Message)
	}
	if res := s.Register(context.Background(), "carol", "c@x.io", ""); !errors.Is(res.Err, ErrInvalidInput) {
		t.Fatalf("expected empty password rejected, got %+v", res)
	}
}

func TestRegisterLeavesPasswordPolicyToAPI(t *testing.T) {
	auth := newFakeAuth()
	auth.registerErr = &apiErr{msg: "Password too short"}
	s := newTestStore(t, auth, newFakeStorage(), Config{})

	long := strings.Repeat("c", 100)
	if res := s.Register(context.Background(), long, "c@x.io", "123"); res.Message != "Password too short" {
		t.Fatalf("expected API verdict, got %+v", res)
	}
}

func TestHasRole(t *testing.T) {
	auth := newFakeAuth()
	admin := Identity{ID: "u9", Role: permission.RoleAdmin, Email: "z@x.io"}
	auth.accounts["z@x.io"] = LoginResponse{Identity: admin, Credential: "TZ"}
	s := newTestStore(t, auth, newFakeStorage(), Config{})

	if s.HasRole(permission.Of(permission.RoleAdmin)) {
		t.Fatal("no identity must not have roles")
	}
	s.Login(context.Background(), "z@x.io", "pw")

	if !s.HasRole(permission.Of(permission.RoleAdmin)) {
		t.Fatal("expected admin")
	}
	if !s.HasRole(permission.Of(permission.RoleSeller, permission.RoleAdmin)) {
		t.Fatal("expected membership in seller|admin")
	}
	if s.HasRole(permission.Of(permission.RoleCustomer)) {
		t.Fatal("admin is not customer")
	}
	if s.HasRole(0) {
		t.Fatal("empty set matches nothing")
	}
}

func TestObserverReceivesEvents(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	var mu sync.Mutex
	var kinds []EventKind
	obs := ObserverFunc(func(_ context.Context, ev Event) {
		mu.Lock()
		kinds = append(kinds, ev.Kind)
		mu.Unlock()
	})
	s, err := NewStore(auth, newFakeStorage(), Config{}, WithObserver(obs))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	s.Login(context.Background(), "a@x.io", "pw")
	s.Logout(context.Background())

	mu.Lock()
	defer mu.Unlock()
	if len(kinds) != 2 || kinds[0] != EventLogin || kinds[1] != EventLogout {
		t.Fatalf("unexpected events: %v", kinds)
	}
}

func TestConcurrentReadersSeeConsistentState(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "T2"}
	s := newTestStore(t, auth, newFakeStorage(), Config{})

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			st := s.State()
			if (st.Identity == nil) != (st.Credential == "") {
				t.Errorf("torn state: %+v", st)
				return
			}
		}
	}()
	for i := 0; i < 50; i++ {
		s.Login(context.Background(), "a@x.io", "pw")
		s.Logout(context.Background())
	}
	close(stop)
	wg.Wait()
}

func TestFailedLoginKeepsPendingVerification(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["T1"] = alice
	auth.verifyGate = make(chan struct{})
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "T1"
	s := newTestStore(t, auth, storage, Config{})

	done := make(chan struct{})
	go func() {
		s.Initialize(context.Background())
		close(done)
	}()
	for auth.verifyCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	if res := s.Login(context.Background(), "nobody@x.io", "wrong"); res.Success {
		t.Fatalf("expected failed login, got %+v", res)
	}
	close(auth.verifyGate)
	<-done

	st := s.State()
	if st.Identity == nil || st.Identity.ID != alice.ID || st.Credential != "T1" {
		t.Fatalf("expected stored session restored, got %+v", st)
	}
	if v, ok := storage.value(DefaultCredentialKey); !ok || v != "T1" {
		t.Fatalf("expected T1 still stored, got %q (%v)", v, ok)
	}
}

func TestFailedLoginDoesNotSupersedeEarlierLogin(t *testing.T) {
	auth := newFakeAuth()
	auth.accounts["a@x.io"] = LoginResponse{Identity: alice, Credential: "TA"}
	gate := make(chan struct{})
	auth.loginGates["a@x.io"] = gate
	storage := newFakeStorage()
	s := newTestStore(t, auth, storage, Config{})

	first := make(chan Result, 1)
	go func() { first <- s.Login(context.Background(), "a@x.io", "pw") }()
	<-auth.entered

	if res := s.Login(context.Background(), "nobody@x.io", "wrong"); res.Success {
		t.Fatalf("expected failed login, got %+v", res)
	}
	close(gate)
	if res := <-first; !res.Success {
		t.Fatalf("expected first login to commit, got %+v", res)
	}
	if s.Credential() != "TA" {
		t.Fatalf("expected TA, got %+v", s.State())
	}
	if v, _ := storage.value(DefaultCredentialKey); v != "TA" {
		t.Fatalf("expected TA persisted, got %q", v)
	}
}

func TestSlowObserverDoesNotBlockLogout(t *testing.T) {
	auth := newFakeAuth()
	auth.valid["T1"] = alice
	storage := newFakeStorage()
	storage.data[DefaultCredentialKey] = "T1"

	entered := make(chan struct{})
	release := make(chan struct{})
	obs := ObserverFunc(func(_ context.Context, ev Event) {
		if ev.Kind == EventVerified {
			close(entered)
			<-release
		}
	})
	s, err := NewStore(auth, storage, Config{}, WithObserver(obs))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	go s.Initialize(context.Background())
	<-entered

	loggedOut := make(chan struct{})
	go func() {
		s.Logout(context.Background())
		close(loggedOut)
	}()
	select {
	case <-loggedOut:
	case <-time.After(2 * time.Second):
		close(release)
		t.Fatal("logout blocked behind observer")
	}
	close(release)
	<-s.Ready()

	if s.IsAuthenticated() {
		t.Fatalf("expected logged out, got %+v", s.State())
	}
}
