package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cryptodash/internal/apperr"
)

type memStore struct {
	mu     sync.Mutex
	nextID uint64
	users  map[uint64]*User
}

func newMemStore() *memStore {
	return &memStore{users: map[uint64]*User{}}
}

func (m *memStore) CreateUser(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperr.ErrConflict
		}
	}
	m.nextID++
	u.ID = m.nextID
	u.CreatedAt = time.Now()
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) UserByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (m *memStore) UserByID(_ context.Context, id uint64) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	tokens, err := NewTokens("test-secret", time.Hour, false)
	require.NoError(t, err)
	return &Service{Store: newMemStore(), Tokens: tokens}
}

func TestSignup(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Signup(ctx, "  Alice@Example.com ", "Alice", "secret1")
	require.NoError(t, err)

	u, err := svc.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, "Alice", u.Name)
	assert.NotEqual(t, "secret1", u.PasswordHash)
}

func TestSignup_DuplicateEmailConflicts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "bob@example.com", "Bob", "secret1")
	require.NoError(t, err)

	for _, tc := range []struct{ name, password string }{
		{"Bob", "secret1"},
		{"Other", "different-password"},
	} {
		_, err := svc.Signup(ctx, "BOB@example.com", tc.name, tc.password)
		assert.ErrorIs(t, err, apperr.ErrConflict)
	}
}

func TestSignup_Validation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	testCases := []struct {
		name                  string
		email, user, password string
	}{
		{"bad email", "not-an-email", "X", "secret1"},
		{"display name email", "X <x@example.com>", "X", "secret1"},
		{"empty name", "x@example.com", "  ", "secret1"},
		{"short password", "x@example.com", "X", "12345"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tc.email, tc.user, tc.password)
			assert.ErrorIs(t, err, apperr.ErrInvalidArgument)
		})
	}
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Signup(ctx, "carol@example.com", "Carol", "secret1")
	require.NoError(t, err)

	token, err := svc.Login(ctx, "carol@example.com", "secret1")
	require.NoError(t, err)
	u, err := svc.Authenticate(ctx, "Bearer "+token)
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", u.Email)

	_, wrongPassword := svc.Login(ctx, "carol@example.com", "secret2")
	_, unknownEmail := svc.Login(ctx, "nobody@example.com", "secret1")

	require.ErrorIs(t, wrongPassword, apperr.ErrUnauthorized)
	require.ErrorIs(t, unknownEmail, apperr.ErrUnauthorized)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	orphan, err := svc.Tokens.Issue(999)
	require.NoError(t, err)

	for _, header := range []string{
		"",
		"Bearer",
		"Bearer ",
		"Basic abc",
		"Bearer not-a-token",
		"Bearer " + orphan,
	} {
		_, err := svc.Authenticate(ctx, header)
		assert.ErrorIs(t, err, apperr.ErrUnauthorized, header)
	}
}

func TestRequireAuth(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.Signup(context.Background(), "dave@example.com", "Dave", "secret1")
	require.NoError(t, err)

	var seen *User
	h := RequireAuth(svc, func(w http.ResponseWriter, _ *http.Request, err error) {
		w.WriteHeader(apperr.Status(err))
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, seen)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "dave@example.com", seen.Email)
}
