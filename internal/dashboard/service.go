package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"cryptodash/internal/apperr"
	"cryptodash/internal/logger"
	"cryptodash/internal/preferences"
)

// DefaultAssets is used for users who have not saved preferences yet.
var DefaultAssets = []string{"BTC", "ETH"}

// Profile is what a provider knows about the user it fetches for.
type Profile struct {
	Assets       []string
	InvestorType string
	ContentTypes []string
}

// Provider fetches the content of one slot. Fetch never fails: on any
// upstream problem it returns a fallback payload describing the outage.
type Provider interface {
	Fetch(ctx context.Context, p Profile) Payload
}

// Rotator is implemented by providers that can avoid handing back the
// payload a slot already holds. The meme slot uses it on refresh.
type Rotator interface {
	Rotate(ctx context.Context, p Profile, current Payload) Payload
}

type Providers struct {
	News    Provider
	Prices  Provider
	Insight Provider
	Meme    Provider
}

func (p Providers) For(t ItemType) Provider {
	switch t {
	case News:
		return p.News
	case Prices:
		return p.Prices
	case Insight:
		return p.Insight
	case Meme:
		return p.Meme
	}
	return nil
}

type PreferenceSource interface {
	Get(ctx context.Context, userID uint64) (*preferences.Preference, error)
}

type Service struct {
	Store     Store
	Prefs     PreferenceSource
	Providers Providers
	// Now defaults to time.Now.
	Now func() time.Time
}

type Dashboard struct {
	Date  time.Time
	Items []Entry
}

type Entry struct {
	Item     Item
	UserVote *int
}

// Today materializes the user's dashboard for the current UTC date: missing
// slots are fetched and inserted, the meme slot is refreshed, and each item
// is annotated with the user's vote.
func (s *Service) Today(ctx context.Context, userID uint64) (*Dashboard, error) {
	day := Day(s.now())

	items, err := s.Store.ItemsForDate(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	missing := missingTypes(items)
	memeFresh := false

	if len(missing) > 0 {
		profile, err := s.profile(ctx, userID)
		if err != nil {
			return nil, err
		}

		fetched, err := s.fetch(ctx, profile, missing)
		if err != nil {
			return nil, err
		}
		if _, ok := fetched[Meme]; ok {
			memeFresh = true
		}

		items, err = s.insert(ctx, userID, day, fetched)
		if err != nil {
			return nil, err
		}
	}

	if !memeFresh {
		if err := s.refreshMeme(ctx, userID, items); err != nil {
			return nil, err
		}
	}

	ids := make([]uint64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	votes, err := s.Store.VotesFor(ctx, userID, ids)
	if err != nil {
		return nil, err
	}

	byType := make(map[ItemType]Item, len(items))
	for _, it := range items {
		byType[it.ItemType] = it
	}

	out := &Dashboard{Date: day, Items: make([]Entry, 0, len(ItemTypes))}
	for _, t := range ItemTypes {
		it, ok := byType[t]
		if !ok {
			continue
		}
		e := Entry{Item: it}
		if v, ok := votes[it.ID]; ok {
			e.UserVote = &v
		}
		out.Items = append(out.Items, e)
	}
	return out, nil
}

// insert stores the fetched payloads and returns the day's full item set.
// When a concurrent request already created some of the slots, the
// uniqueness conflict rolls back our batch; we re-read and only insert what
// is still missing.
func (s *Service) insert(ctx context.Context, userID uint64, day time.Time, fetched map[ItemType]Payload) ([]Item, error) {
	const attempts = 2

	var items []Item
	for attempt := 1; ; attempt++ {
		current, err := s.Store.ItemsForDate(ctx, userID, day)
		if err != nil {
			return nil, err
		}
		items = current

		var batch []Item
		for _, t := range missingTypes(current) {
			p, ok := fetched[t]
			if !ok {
				continue
			}
			raw, err := EncodePayload(p)
			if err != nil {
				return nil, err
			}
			batch = append(batch, Item{UserID: userID, Date: day, ItemType: t, Payload: raw})
		}
		if len(batch) == 0 {
			return items, nil
		}

		err = s.Store.CreateItems(ctx, batch)
		if err == nil {
			break
		}
		if !errors.Is(err, apperr.ErrConflict) || attempt >= attempts {
			return nil, err
		}
		logger.Warn("dashboard items created concurrently, re-reading",
			logger.Uint64("user_id", userID), logger.ErrorField(err))
	}

	return s.Store.ItemsForDate(ctx, userID, day)
}

// refreshMeme overwrites the stored meme payload in place so the item id,
// and any vote on it, survives.
func (s *Service) refreshMeme(ctx context.Context, userID uint64, items []Item) error {
	idx := -1
	for i := range items {
		if items[i].ItemType == Meme {
			idx = i
			break
		}
	}
	if idx < 0 || s.Providers.Meme == nil {
		return nil
	}

	profile, err := s.profile(ctx, userID)
	if err != nil {
		return err
	}

	var next Payload
	if r, ok := s.Providers.Meme.(Rotator); ok {
		current, err := items[idx].Decode()
		if err != nil {
			logger.Warn("stored meme payload unreadable", logger.Uint64("item_id", items[idx].ID), logger.ErrorField(err))
			current = nil
		}
		next = r.Rotate(ctx, profile, current)
	} else {
		next = s.Providers.Meme.Fetch(ctx, profile)
	}

	raw, err := EncodePayload(next)
	if err != nil {
		return err
	}
	if err := s.Store.UpdatePayload(ctx, items[idx].ID, raw); err != nil {
		return fmt.Errorf("refresh meme: %w", err)
	}
	items[idx].Payload = raw
	return nil
}

// fetch calls the providers for the given slots concurrently.
func (s *Service) fetch(ctx context.Context, profile Profile, types []ItemType) (map[ItemType]Payload, error) {
	results := make([]Payload, len(types))

	var wg sync.WaitGroup
	for i, t := range types {
		p := s.Providers.For(t)
		if p == nil {
			return nil, fmt.Errorf("no provider for %s", t)
		}
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i] = p.Fetch(ctx, profile)
		}(i, p)
	}
	wg.Wait()

	out := make(map[ItemType]Payload, len(types))
	for i, t := range types {
		if results[i] == nil || results[i].ItemType() != t {
			return nil, fmt.Errorf("provider for %s returned an invalid payload", t)
		}
		out[t] = results[i]
	}
	return out, nil
}

func (s *Service) profile(ctx context.Context, userID uint64) (Profile, error) {
	p := Profile{Assets: DefaultAssets}
	if s.Prefs == nil {
		return p, nil
	}
	prefs, err := s.Prefs.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return p, nil
		}
		return p, err
	}
	if len(prefs.Assets) > 0 {
		p.Assets = prefs.Assets
	}
	p.InvestorType = prefs.InvestorType
	p.ContentTypes = prefs.ContentTypes
	return p, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func missingTypes(items []Item) []ItemType {
	have := make(map[ItemType]bool, len(items))
	for _, it := range items {
		have[it.ItemType] = true
	}
	var out []ItemType
	for _, t := range ItemTypes {
		if !have[t] {
			out = append(out, t)
		}
	}
	return out
}
