package preferences

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cryptodash/internal/apperr"
)

type Store interface {
	Get(ctx context.Context, userID uint64) (*Preference, error)
	Upsert(ctx context.Context, p *Preference) error
}

type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) Get(ctx context.Context, userID uint64) (*Preference, error) {
	var p Preference
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Upsert inserts p or overwrites the user's existing row in one statement.
func (s *GormStore) Upsert(ctx context.Context, p *Preference) error {
	now := time.Now()
	p.UpdatedAt = now
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	return s.DB.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"assets", "investor_type", "content_types", "updated_at"}),
			},
			clause.Returning{},
		).
		Create(p).Error
}
