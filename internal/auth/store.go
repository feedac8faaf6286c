package auth

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"cryptodash/internal/apperr"
)

// Store persists users. Lookups return apperr.ErrNotFound for unknown rows
// and CreateUser returns apperr.ErrConflict for a taken email.
type Store interface {
	CreateUser(ctx context.Context, u *User) error
	UserByEmail(ctx context.Context, email string) (*User, error)
	UserByID(ctx context.Context, id uint64) (*User, error)
}

type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) CreateUser(ctx context.Context, u *User) error {
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (s *GormStore) UserByEmail(ctx context.Context, email string) (*User, error) {
	return s.first(ctx, "email = ?", email)
}

func (s *GormStore) UserByID(ctx context.Context, id uint64) (*User, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormStore) first(ctx context.Context, query string, arg any) (*User, error) {
	var u User
	if err := s.DB.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
