package users

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

var ErrNotFound = fmt.Errorf("not found")

// Store is the user repository surface. Handlers only see this interface,
// so the in-memory implementation can be swapped for a database-backed one
// without touching call sites.
type Store interface {
	List() []User
	Get(id int) (*User, error)
	Create(name string) *User
	Update(id int, name string) (*User, error)
	Delete(id int) error
	AddCard(id int, card CollectedCard) (*User, error)
	ListCards(id int) ([]CollectedCard, error)
}

type userRecord struct {
	mu   sync.Mutex
	user User
}

// MemoryStore keeps users in process memory. The map is guarded by an
// RWMutex; each record carries its own mutex so concurrent card additions
// for the same user serialize instead of racing.
type MemoryStore struct {
	mu     sync.RWMutex
	users  map[int]*userRecord
	nextID int

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{
		users: make(map[int]*userRecord),
		now:   time.Now,
	}
	// Seed data, matching the fixture users the storefront expects.
	s.Create("Alice")
	s.Create("Bob")
	return s
}

func (s *MemoryStore) List() []User {
	s.mu.RLock()
	records := make([]*userRecord, 0, len(s.users))
	for _, rec := range s.users {
		records = append(records, rec)
	}
	s.mu.RUnlock()

	out := make([]User, 0, len(records))
	for _, rec := range records {
		rec.mu.Lock()
		out = append(out, copyUser(&rec.user))
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStore) Get(id int) (*User, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	u := copyUser(&rec.user)
	return &u, nil
}

func (s *MemoryStore) Create(name string) *User {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := &userRecord{
		user: User{
			ID:    s.nextID,
			Name:  name,
			Cards: []CollectedCard{},
		},
	}
	s.users[rec.user.ID] = rec

	u := copyUser(&rec.user)
	return &u
}

func (s *MemoryStore) Update(id int, name string) (*User, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.user.Name = name
	u := copyUser(&rec.user)
	return &u, nil
}

func (s *MemoryStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// AddCard adds a card to the user's binder. When the binder already holds
// the cardId, quantities merge into the existing entry; the entry count
// never grows for a repeated card.
func (s *MemoryStore) AddCard(id int, card CollectedCard) (*User, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	merged := false
	for i := range rec.user.Cards {
		if rec.user.Cards[i].CardID == card.CardID {
			rec.user.Cards[i].Quantity += card.Quantity
			rec.user.Cards[i].Condition = card.Condition
			if card.Price != nil {
				rec.user.Cards[i].Price = card.Price
			}
			merged = true
			break
		}
	}
	if !merged {
		card.AddedAt = s.now()
		rec.user.Cards = append(rec.user.Cards, card)
	}

	u := copyUser(&rec.user)
	return &u, nil
}

func (s *MemoryStore) ListCards(id int) ([]CollectedCard, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	cards := make([]CollectedCard, len(rec.user.Cards))
	copy(cards, rec.user.Cards)
	return cards, nil
}

func (s *MemoryStore) record(id int) (*userRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func copyUser(u *User) User {
	out := *u
	out.Cards = make([]CollectedCard, len(u.Cards))
	copy(out.Cards, u.Cards)
	return out
}
