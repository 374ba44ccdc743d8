/*
Package auth provides the session authenticator for service mode.

PURPOSE:
  Validates service credentials (email + password) and issues short-lived
  bearer tokens for the privileged operations: turnover report, reset,
  and the sales audit. The anonymous purchase flow never touches this
  package.

TOKENS:
  Opaque to callers, JWT (HS256) underneath. Validation is stateless: a
  local signature and expiry check, no lookup. Each token carries a
  unique JTI so individual sessions are distinguishable in logs.

CREDENTIALS:
  Passwords are stored as bcrypt hashes. The credential store is
  configured at construction; there is no self-service registration.

USAGE:
  a := auth.New(secret, 24*time.Hour)
  if err := a.AddUser("service@vending.local", "password"); err != nil { ... }
  token, err := a.SignIn("service@vending.local", "password")
  subject, err := a.Authorize(token)

SEE ALSO:
  - machine/store.go: Authorizer interface this satisfies
  - api/handlers.go: Sign-in endpoint and token extraction
*/
package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned on a failed sign-in. Deliberately
// carries no detail about which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned for a missing, malformed, or expired token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims are the JWT claims carried by a session token.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Authenticator issues and validates service-mode bearer tokens.
type Authenticator struct {
	mu     sync.RWMutex
	secret []byte
	ttl    time.Duration
	users  map[string]string // email -> bcrypt hash
}

// New creates an authenticator signing tokens with secret, valid for ttl.
func New(secret []byte, ttl time.Duration) *Authenticator {
	return &Authenticator{
		secret: secret,
		ttl:    ttl,
		users:  make(map[string]string),
	}
}

// AddUser registers a service credential. The password is stored as a
// bcrypt hash.
func (a *Authenticator) AddUser(email, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[email] = string(hash)
	return nil
}

// SignIn validates credentials and returns a signed bearer token.
func (a *Authenticator) SignIn(email, password string) (string, error) {
	a.mu.RLock()
	hash, ok := a.users[email]
	a.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	claims := &Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Authorize validates a bearer token and returns the subject email.
// Implements machine.Authorizer.
func (a *Authenticator) Authorize(tokenString string) (string, error) {
	if tokenString == "" {
		return "", ErrInvalidToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}
