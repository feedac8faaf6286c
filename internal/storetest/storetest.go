// Package storetest provides in-memory implementations of the service stores
// for tests. They enforce the same uniqueness rules as the database schema.
package storetest

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"cryptodash/internal/apperr"
	"cryptodash/internal/auth"
	"cryptodash/internal/dashboard"
	"cryptodash/internal/preferences"
)

type Users struct {
	mu     sync.Mutex
	nextID uint64
	rows   map[uint64]auth.User
}

func NewUsers() *Users { return &Users{rows: map[uint64]auth.User{}} }

func (s *Users) CreateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Email == u.Email {
			return apperr.ErrConflict
		}
	}
	s.nextID++
	u.ID = s.nextID
	u.CreatedAt = time.Now()
	s.rows[u.ID] = *u
	return nil
}

func (s *Users) UserByEmail(_ context.Context, email string) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rows {
		if r.Email == email {
			return &r, nil
		}
	}
	return nil, apperr.ErrNotFound
}

func (s *Users) UserByID(_ context.Context, id uint64) (*auth.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &r, nil
}

type Preferences struct {
	mu   sync.Mutex
	rows map[uint64]preferences.Preference
}

func NewPreferences() *Preferences {
	return &Preferences{rows: map[uint64]preferences.Preference{}}
}

func (s *Preferences) Get(_ context.Context, userID uint64) (*preferences.Preference, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[userID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &p, nil
}

func (s *Preferences) Upsert(_ context.Context, p *preferences.Preference) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	if old, ok := s.rows[p.UserID]; ok {
		p.CreatedAt = old.CreatedAt
	} else {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	s.rows[p.UserID] = *p
	return nil
}

type Dashboard struct {
	mu         sync.Mutex
	nextItemID uint64
	nextVoteID uint64
	items      map[uint64]dashboard.Item
	votes      map[uint64]dashboard.Vote

	// BeforeCreate runs before CreateItems takes the lock, letting tests
	// simulate a concurrent request winning the race.
	BeforeCreate func()
}

func NewDashboard() *Dashboard {
	return &Dashboard{
		items: map[uint64]dashboard.Item{},
		votes: map[uint64]dashboard.Vote{},
	}
}

func (s *Dashboard) ItemsForDate(_ context.Context, userID uint64, day time.Time) ([]dashboard.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dashboard.Item
	for id := uint64(1); id <= s.nextItemID; id++ {
		it, ok := s.items[id]
		if ok && it.UserID == userID && it.Date.Equal(day) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Dashboard) CreateItems(_ context.Context, items []dashboard.Item) error {
	if hook := s.BeforeCreate; hook != nil {
		s.BeforeCreate = nil
		hook()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range items {
		for _, it := range s.items {
			if it.UserID == n.UserID && it.Date.Equal(n.Date) && it.ItemType == n.ItemType {
				return apperr.ErrConflict
			}
		}
	}
	for i := range items {
		s.nextItemID++
		items[i].ID = s.nextItemID
		items[i].CreatedAt = time.Now()
		s.items[items[i].ID] = items[i]
	}
	return nil
}

func (s *Dashboard) UpdatePayload(_ context.Context, itemID uint64, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return apperr.ErrNotFound
	}
	it.Payload = payload
	s.items[itemID] = it
	return nil
}

func (s *Dashboard) ItemByID(_ context.Context, itemID uint64) (*dashboard.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, ok := s.items[itemID]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &it, nil
}

func (s *Dashboard) VotesFor(_ context.Context, userID uint64, itemIDs []uint64) (map[uint64]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wanted := map[uint64]bool{}
	for _, id := range itemIDs {
		wanted[id] = true
	}
	out := map[uint64]int{}
	for _, v := range s.votes {
		if v.UserID == userID && wanted[v.DashboardItemID] {
			out[v.DashboardItemID] = v.Value
		}
	}
	return out, nil
}

func (s *Dashboard) UpsertVote(_ context.Context, v *dashboard.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	v.ID = 0
	for id, old := range s.votes {
		if old.UserID == v.UserID && old.DashboardItemID == v.DashboardItemID {
			v.ID = id
			v.CreatedAt = old.CreatedAt
			break
		}
	}
	if v.ID == 0 {
		s.nextVoteID++
		v.ID = s.nextVoteID
		v.CreatedAt = now
	}
	v.UpdatedAt = now
	s.votes[v.ID] = *v
	return nil
}

// VoteCount reports how many vote rows exist for (user, item).
func (s *Dashboard) VoteCount(userID, itemID uint64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.votes {
		if v.UserID == userID && v.DashboardItemID == itemID {
			n++
		}
	}
	return n
}

// ItemCount reports the total number of stored items.
func (s *Dashboard) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}
