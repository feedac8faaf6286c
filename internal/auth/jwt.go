package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"cryptodash/internal/logger"
)

// devSecret signs tokens outside production when JWT_SECRET is unset.
const devSecret = "cryptodash-dev-secret-do-not-use-in-production"

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingSecret = errors.New("JWT_SECRET is not set")
)

type Tokens struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokens builds the token service. An empty secret is an error in
// production and falls back to devSecret everywhere else.
func NewTokens(secret string, ttl time.Duration, production bool) (*Tokens, error) {
	if secret == "" {
		if production {
			return nil, ErrMissingSecret
		}
		logger.Warn("JWT_SECRET not set, using development secret")
		secret = devSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Tokens{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock replaces the time source used for issuing and validating.
func (t *Tokens) WithClock(now func() time.Time) *Tokens {
	t.now = now
	return t
}

// Issue signs a token for userID. Claims carry whole seconds, so exp is
// rounded up: the token is valid for at least the full TTL.
func (t *Tokens) Issue(userID uint64) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(ceilSecond(now.Add(t.ttl))),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
}

func ceilSecond(ts time.Time) time.Time {
	if f := ts.Truncate(time.Second); !f.Equal(ts) {
		return f.Add(time.Second)
	}
	return ts
}

// Validate returns the user id carried by tokenStr. A token is accepted up
// to and including its exp instant and rejected strictly after it.
func (t *Tokens) Validate(tokenStr string) (uint64, error) {
	var claims jwt.RegisteredClaims
	tok, err := jwt.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !tok.Valid {
		return 0, ErrInvalidToken
	}

	// jwt/v5 treats now == exp as expired; checked here instead.
	if claims.ExpiresAt == nil || t.now().After(claims.ExpiresAt.Time) {
		return 0, ErrInvalidToken
	}

	if claims.Subject == "" {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}
