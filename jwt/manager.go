package jwt

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SigningMethod selects the credential signature algorithm.
type SigningMethod string

const (
	MethodEd25519 SigningMethod = "ed25519"
	MethodHS256   SigningMethod = "hs256"
)

var (
	// ErrInvalidConfig is returned by NewManager for unusable settings.
	ErrInvalidConfig = errors.New("jwt: invalid configuration")
	// ErrInvalidCredential is returned by Parse for any rejected token.
	ErrInvalidCredential = errors.New("jwt: invalid credential")
)

// Config configures a Manager.
type Config struct {
	TTL           time.Duration
	SigningMethod SigningMethod
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

// Claims is the payload of a storefront credential.
type Claims struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies credentials. Safe for concurrent use.
type Manager struct {
	config Config
	now    func() time.Time
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("%w: TTL must be > 0", ErrInvalidConfig)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, fmt.Errorf("%w: leeway must be within [0, 2m]", ErrInvalidConfig)
	}
	switch cfg.SigningMethod {
	case MethodHS256:
		if len(cfg.PrivateKey) < 16 {
			return nil, fmt.Errorf("%w: hs256 requires a key of at least 16 bytes", ErrInvalidConfig)
		}
	case MethodEd25519:
		if len(cfg.PrivateKey) > 0 {
			if _, err := parseEdPrivateKey(cfg.PrivateKey); err != nil {
				return nil, err
			}
		}
		if len(cfg.PublicKey) == 0 {
			return nil, fmt.Errorf("%w: ed25519 requires a public key", ErrInvalidConfig)
		}
		if _, err := parseEdPublicKey(cfg.PublicKey); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: unsupported signing method %q", ErrInvalidConfig, cfg.SigningMethod)
	}
	return &Manager{config: cfg, now: time.Now}, nil
}

// Issue signs a credential for subject. Expiry and issued-at are set from the
// configured TTL; fields already present in c are kept.
func (m *Manager) Issue(subject string, c Claims) (string, error) {
	now := m.now()
	c.Subject = subject
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(m.config.TTL))
	if m.config.Issuer != "" {
		c.Issuer = m.config.Issuer
	}
	if m.config.Audience != "" {
		c.Audience = jwt.ClaimStrings{m.config.Audience}
	}
	key, err := m.signKey()
	if err != nil {
		return "", err
	}
	return jwt.NewWithClaims(m.method(), c).SignedString(key)
}

// Parse verifies signature, algorithm, expiry, issuer and audience.
func (m *Manager) Parse(token string) (*Claims, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{m.method().Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}
	if m.config.Audience != "" {
		options = append(options, jwt.WithAudience(m.config.Audience))
	}

	parsed, err := jwt.NewParser(options...).ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return m.verifyKey()
	})
	if err != nil {
		return nil, errors.Join(ErrInvalidCredential, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}

func (m *Manager) method() jwt.SigningMethod {
	if m.config.SigningMethod == MethodHS256 {
		return jwt.SigningMethodHS256
	}
	return jwt.SigningMethodEdDSA
}

func (m *Manager) signKey() (interface{}, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	if len(m.config.PrivateKey) == 0 {
		return nil, fmt.Errorf("%w: manager has no private key", ErrInvalidConfig)
	}
	return parseEdPrivateKey(m.config.PrivateKey)
}

func (m *Manager) verifyKey() (interface{}, error) {
	if m.config.SigningMethod == MethodHS256 {
		return m.config.PrivateKey, nil
	}
	return parseEdPublicKey(m.config.PublicKey)
}

func parseEdPrivateKey(key []byte) (ed25519.PrivateKey, error) {
	if len(key) == ed25519.PrivateKeySize {
		return ed25519.PrivateKey(key), nil
	}
	parsed, err := jwt.ParseEdPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ed25519 private key", ErrInvalidConfig)
	}
	edKey, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ed25519 private key type", ErrInvalidConfig)
	}
	return edKey, nil
}

func parseEdPublicKey(key []byte) (ed25519.PublicKey, error) {
	if len(key) == ed25519.PublicKeySize {
		return ed25519.PublicKey(key), nil
	}
	parsed, err := jwt.ParseEdPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid ed25519 public key", ErrInvalidConfig)
	}
	edKey, ok := parsed.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: invalid ed25519 public key type", ErrInvalidConfig)
	}
	return edKey, nil
}
