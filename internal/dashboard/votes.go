package dashboard

import (
	"context"
	"errors"
	"fmt"

	"cryptodash/internal/apperr"
)

// Vote records value (+1 or -1) for the user on one of their own items,
// replacing any earlier vote on the same item.
func (s *Service) Vote(ctx context.Context, userID, itemID uint64, value int) (*Vote, error) {
	if value != 1 && value != -1 {
		return nil, fmt.Errorf("%w: vote value must be -1 or 1", apperr.ErrInvalidArgument)
	}

	it, err := s.Store.ItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: dashboard item not found", apperr.ErrNotFound)
		}
		return nil, err
	}
	if it.UserID != userID {
		return nil, fmt.Errorf("%w: not allowed to vote on this item", apperr.ErrForbidden)
	}

	v := Vote{UserID: userID, DashboardItemID: itemID, Value: value}
	if err := s.Store.UpsertVote(ctx, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
