package preferences

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"cryptodash/internal/apperr"
)

const (
	maxInvestorTypeLen = 50
	maxListLen         = 20
)

type Service struct {
	Store Store
}

func (s *Service) Get(ctx context.Context, userID uint64) (*Preference, error) {
	p, err := s.Store.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: preferences not set", apperr.ErrNotFound)
		}
		return nil, err
	}
	return p, nil
}

func (s *Service) Exists(ctx context.Context, userID uint64) (bool, error) {
	_, err := s.Store.Get(ctx, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, apperr.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (s *Service) Upsert(ctx context.Context, userID uint64, assets []string, investorType string, contentTypes []string) (*Preference, error) {
	assets = NormalizeAssets(assets)
	contentTypes = NormalizeContentTypes(contentTypes)
	investorType = strings.TrimSpace(investorType)

	if len(assets) == 0 {
		return nil, fmt.Errorf("%w: assets must not be empty", apperr.ErrInvalidArgument)
	}
	if len(contentTypes) == 0 {
		return nil, fmt.Errorf("%w: content_types must not be empty", apperr.ErrInvalidArgument)
	}
	if len(assets) > maxListLen {
		return nil, fmt.Errorf("%w: at most %d assets allowed", apperr.ErrInvalidArgument, maxListLen)
	}
	if len(contentTypes) > maxListLen {
		return nil, fmt.Errorf("%w: at most %d content_types allowed", apperr.ErrInvalidArgument, maxListLen)
	}
	if investorType == "" || utf8.RuneCountInString(investorType) > maxInvestorTypeLen {
		return nil, fmt.Errorf("%w: investor_type must be 1-%d characters", apperr.ErrInvalidArgument, maxInvestorTypeLen)
	}

	p := Preference{
		UserID:       userID,
		Assets:       assets,
		InvestorType: investorType,
		ContentTypes: contentTypes,
	}
	if err := s.Store.Upsert(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}
