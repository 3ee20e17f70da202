package entity

import (
	"context"
	"errors"
	"strings"
	"sync"

	"propensity/pkg/contracts/domain"
)

var (
	// ErrNotFound indicates no identity matched the lookup.
	ErrNotFound = errors.New("entity: identity not found")
	// ErrDuplicateIdentity indicates an insert violated the
	// (normalized_name, zip_code) uniqueness constraint.
	ErrDuplicateIdentity = errors.New("entity: duplicate identity")
)

// Store is the persistence boundary for company identities. The backing
// implementation owns the (normalized_name, zip_code) uniqueness constraint
// and acts as the sole arbiter under concurrent creates: Insert must fail
// with ErrDuplicateIdentity rather than store a second identity for the
// same key.
type Store interface {
	// Get returns the identity with the given ID, or ErrNotFound.
	Get(ctx context.Context, id string) (domain.Company, error)

	// FindExact returns the identity with the exact (normalizedName, zip)
	// key, or ErrNotFound.
	FindExact(ctx context.Context, normalizedName, zip string) (domain.Company, error)

	// CandidatesByZip returns all identities registered in the given zip.
	CandidatesByZip(ctx context.Context, zip string) ([]domain.Company, error)

	// CandidatesByCity returns all identities registered in the given city
	// (case-insensitive).
	CandidatesByCity(ctx context.Context, city string) ([]domain.Company, error)

	// Insert stores a new identity, or fails with ErrDuplicateIdentity when
	// its match key is already taken.
	Insert(ctx context.Context, c domain.Company) error

	// Update replaces the descriptive attributes of an existing identity.
	// ID and NormalizedName are never changed by an update.
	Update(ctx context.Context, c domain.Company) error
}

// MemoryStore is an in-process Store used by the batch runner and in tests.
// The mutex serializes writes, which is what makes the uniqueness check on
// Insert authoritative.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]domain.Company
	byKey  map[string]string   // match key -> id
	byZip  map[string][]string // zip -> ids
	byCity map[string][]string // lowercased city -> ids
}

// NewMemoryStore creates an empty in-memory identity store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]domain.Company),
		byKey:  make(map[string]string),
		byZip:  make(map[string][]string),
		byCity: make(map[string][]string),
	}
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, id string) (domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.byID[id]
	if !ok {
		return domain.Company{}, ErrNotFound
	}
	return c, nil
}

// FindExact implements Store.
func (s *MemoryStore) FindExact(ctx context.Context, normalizedName, zip string) (domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byKey[normalizedName+"|"+zip]
	if !ok {
		return domain.Company{}, ErrNotFound
	}
	return s.byID[id], nil
}

// CandidatesByZip implements Store.
func (s *MemoryStore) CandidatesByZip(ctx context.Context, zip string) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byZip[zip]
	out := make([]domain.Company, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// CandidatesByCity implements Store.
func (s *MemoryStore) CandidatesByCity(ctx context.Context, city string) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byCity[strings.ToLower(city)]
	out := make([]domain.Company, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// Insert implements Store.
func (s *MemoryStore) Insert(ctx context.Context, c domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := c.MatchKey()
	if _, exists := s.byKey[key]; exists {
		return ErrDuplicateIdentity
	}

	s.byID[c.ID] = c
	s.byKey[key] = c.ID
	if c.ZipCode != "" {
		s.byZip[c.ZipCode] = append(s.byZip[c.ZipCode], c.ID)
	}
	if c.City != "" {
		city := strings.ToLower(c.City)
		s.byCity[city] = append(s.byCity[city], c.ID)
	}
	return nil
}

// Update implements Store.
func (s *MemoryStore) Update(ctx context.Context, c domain.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.byID[c.ID]
	if !ok {
		return ErrNotFound
	}

	// Identity fields are immutable once set.
	c.NormalizedName = stored.NormalizedName
	c.ZipCode = stored.ZipCode
	c.CreatedAt = stored.CreatedAt

	if c.City != stored.City {
		if stored.City != "" {
			s.removeCityIndex(strings.ToLower(stored.City), c.ID)
		}
		if c.City != "" {
			s.byCity[strings.ToLower(c.City)] = append(s.byCity[strings.ToLower(c.City)], c.ID)
		}
	}

	s.byID[c.ID] = c
	return nil
}

// Len returns the number of stored identities.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// All returns every stored identity.
func (s *MemoryStore) All(ctx context.Context) ([]domain.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Company, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	return out, nil
}

func (s *MemoryStore) removeCityIndex(city, id string) {
	ids := s.byCity[city]
	for i, v := range ids {
		if v == id {
			s.byCity[city] = append(ids[:i], ids[i+1:]...)
			return
		}
	}
}
