package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"

	"cryptodash/internal/apperr"
	"cryptodash/internal/logger"
)

const (
	minPasswordLen = 6
	maxPasswordLen = 128
	maxNameLen     = 100
	maxEmailLen    = 320
)

var errInvalidCredentials = fmt.Errorf("%w: invalid credentials", apperr.ErrUnauthorized)

// dummyHash is compared against when the email is unknown so both login
// failures cost the same.
var dummyHash, _ = HashPassword("cryptodash-timing-equalizer")

type Service struct {
	Store  Store
	Tokens *Tokens
}

func (s *Service) Signup(ctx context.Context, email, name, password string) (string, error) {
	email = normalizeEmail(email)
	name = strings.TrimSpace(name)

	if err := validateEmail(email); err != nil {
		return "", err
	}
	if name == "" || utf8.RuneCountInString(name) > maxNameLen {
		return "", fmt.Errorf("%w: name must be 1-%d characters", apperr.ErrInvalidArgument, maxNameLen)
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}

	if _, err := s.Store.UserByEmail(ctx, email); err == nil {
		return "", fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return "", err
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", err
	}

	u := User{Email: email, Name: name, PasswordHash: hash}
	if err := s.Store.CreateUser(ctx, &u); err != nil {
		return "", err
	}
	logger.Info("user signed up", logger.Uint64("user_id", u.ID))

	return s.Tokens.Issue(u.ID)
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return "", err
	}
	if err := validatePassword(password); err != nil {
		return "", err
	}

	u, err := s.Store.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			ComparePassword(dummyHash, password)
			return "", errInvalidCredentials
		}
		return "", err
	}
	if !ComparePassword(u.PasswordHash, password) {
		return "", errInvalidCredentials
	}

	return s.Tokens.Issue(u.ID)
}

// Authenticate resolves an Authorization header value to its user.
func (s *Service) Authenticate(ctx context.Context, header string) (*User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, fmt.Errorf("%w: missing bearer token", apperr.ErrUnauthorized)
	}

	uid, err := s.Tokens.Validate(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", apperr.ErrUnauthorized)
	}

	u, err := s.Store.UserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", apperr.ErrUnauthorized)
		}
		return nil, err
	}
	return u, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLen {
		return fmt.Errorf("%w: invalid email", apperr.ErrInvalidArgument)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email", apperr.ErrInvalidArgument)
	}
	return nil
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < minPasswordLen || n > maxPasswordLen {
		return fmt.Errorf("%w: password must be %d-%d characters", apperr.ErrInvalidArgument, minPasswordLen, maxPasswordLen)
	}
	return nil
}
