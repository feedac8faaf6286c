package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cryptodash/internal/apperr"
)

// Store persists dashboard items and votes.
type Store interface {
	ItemsForDate(ctx context.Context, userID uint64, day time.Time) ([]Item, error)
	// CreateItems inserts all items or none. A uniqueness violation is
	// reported as apperr.ErrConflict.
	CreateItems(ctx context.Context, items []Item) error
	UpdatePayload(ctx context.Context, itemID uint64, payload json.RawMessage) error
	ItemByID(ctx context.Context, itemID uint64) (*Item, error)
	VotesFor(ctx context.Context, userID uint64, itemIDs []uint64) (map[uint64]int, error)
	UpsertVote(ctx context.Context, v *Vote) error
}

type GormStore struct {
	DB *gorm.DB
}

func (s *GormStore) ItemsForDate(ctx context.Context, userID uint64, day time.Time) ([]Item, error) {
	var items []Item
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, day.Format(time.DateOnly)).
		Order("id asc").
		Find(&items).Error
	return items, err
}

func (s *GormStore) CreateItems(ctx context.Context, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&items).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("%w: dashboard item already exists", apperr.ErrConflict)
			}
			return err
		}
		return nil
	})
}

func (s *GormStore) UpdatePayload(ctx context.Context, itemID uint64, payload json.RawMessage) error {
	res := s.DB.WithContext(ctx).Model(&Item{}).Where("id = ?", itemID).Update("payload", payload)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *GormStore) ItemByID(ctx context.Context, itemID uint64) (*Item, error) {
	var it Item
	if err := s.DB.WithContext(ctx).Where("id = ?", itemID).First(&it).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	return &it, nil
}

func (s *GormStore) VotesFor(ctx context.Context, userID uint64, itemIDs []uint64) (map[uint64]int, error) {
	out := map[uint64]int{}
	if len(itemIDs) == 0 {
		return out, nil
	}
	var rows []Vote
	if err := s.DB.WithContext(ctx).
		Where("user_id = ? AND dashboard_item_id IN ?", userID, itemIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, v := range rows {
		out[v.DashboardItemID] = v.Value
	}
	return out, nil
}

// UpsertVote inserts v or overwrites the value of the existing
// (user, item) vote.
func (s *GormStore) UpsertVote(ctx context.Context, v *Vote) error {
	now := time.Now()
	v.UpdatedAt = now
	if v.CreatedAt.IsZero() {
		v.CreatedAt = now
	}
	return s.DB.WithContext(ctx).
		Clauses(
			clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "dashboard_item_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
			},
			clause.Returning{},
		).
		Create(v).Error
}
