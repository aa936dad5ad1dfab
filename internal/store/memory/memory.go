package memory

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"wealth/internal/core"
)

// Store keeps records and users in process memory. Records are returned in
// insertion order.
type Store struct {
	mu      sync.RWMutex
	records []core.Record
	users   []core.User
	now     func() time.Time
}

func New() *Store {
	return &Store{now: time.Now}
}

// SeedRecord is one entry of a seed file.
type SeedRecord struct {
	Owner        string  `yaml:"owner"`
	Kind         string  `yaml:"kind"`
	Description  string  `yaml:"description"`
	Category     string  `yaml:"category"`
	Amount       float64 `yaml:"amount"`
	InterestRate float64 `yaml:"interest_rate"`
}

type seedFile struct {
	Records []SeedRecord `yaml:"records"`
}

// NewFromFile loads seed records from a YAML file of the form
//
//	records:
//	  - {owner: demo, kind: asset, description: Index fund, category: Stocks, amount: 1000}
//
// A missing path yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	for i, sr := range seed.Records {
		kind, err := core.ParseKind(sr.Kind)
		if err != nil {
			return nil, fmt.Errorf("seed record %d: %w", i+1, err)
		}
		rec := core.Record{
			OwnerID:      strings.TrimSpace(sr.Owner),
			Kind:         kind,
			Description:  sr.Description,
			Category:     sr.Category,
			Amount:       sr.Amount,
			InterestRate: sr.InterestRate,
		}
		if !core.ValidAmount(rec.Amount) {
			return nil, fmt.Errorf("seed record %d: %w", i+1, core.ErrInvalidAmount)
		}
		if !core.ValidInterestRate(rec.InterestRate) {
			return nil, fmt.Errorf("seed record %d: %w", i+1, core.ErrInvalidInterestRate)
		}
		if _, err := s.CreateRecord(context.Background(), rec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) FetchAll(_ context.Context, kind core.RecordKind) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, 0)
	for _, r := range s.records {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) ListByOwner(_ context.Context, kind core.RecordKind, ownerID string) ([]core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Record, 0)
	for _, r := range s.records {
		if r.Kind == kind && r.OwnerID == ownerID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) GetByOwner(_ context.Context, kind core.RecordKind, id, ownerID string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(kind, id, ownerID); i >= 0 {
		return s.records[i], nil
	}
	return core.Record{}, core.ErrNotFound
}

func (s *Store) CreateRecord(_ context.Context, r core.Record) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now().UTC()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.DateAdded.IsZero() {
		r.DateAdded = now
	}
	r.CreatedAt = now
	r.UpdatedAt = now
	s.records = append(s.records, r)
	return r, nil
}

func (s *Store) UpdateRecord(_ context.Context, r core.Record) (core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(r.Kind, r.ID, r.OwnerID)
	if i < 0 {
		return core.Record{}, core.ErrNotFound
	}
	stored := s.records[i]
	stored.Description = r.Description
	stored.Category = r.Category
	stored.Amount = r.Amount
	stored.InterestRate = r.InterestRate
	stored.UpdatedAt = s.now().UTC()
	s.records[i] = stored
	return stored, nil
}

func (s *Store) DeleteRecord(_ context.Context, kind core.RecordKind, id, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(kind, id, ownerID)
	if i < 0 {
		return core.ErrNotFound
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

func (s *Store) indexOf(kind core.RecordKind, id, ownerID string) int {
	for i, r := range s.records {
		if r.Kind == kind && r.ID == id && r.OwnerID == ownerID {
			return i
		}
	}
	return -1
}

func (s *Store) CreateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u.Email = core.NormalizeEmail(u.Email)
	if s.userIndexByEmail(u.Email) >= 0 {
		return core.User{}, core.ErrEmailTaken
	}
	now := s.now().UTC()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	s.users = append(s.users, u)
	return u, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.userIndex(id); i >= 0 {
		return s.users[i], nil
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.userIndexByEmail(core.NormalizeEmail(email)); i >= 0 {
		return s.users[i], nil
	}
	return core.User{}, core.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(u.ID)
	if i < 0 {
		return core.User{}, core.ErrNotFound
	}
	u.Email = core.NormalizeEmail(u.Email)
	if j := s.userIndexByEmail(u.Email); j >= 0 && j != i {
		return core.User{}, core.ErrEmailTaken
	}
	u.CreatedAt = s.users[i].CreatedAt
	u.UpdatedAt = s.now().UTC()
	s.users[i] = u
	return u, nil
}

// DeleteUser removes the user and all of their records.
func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.userIndex(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.users = append(s.users[:i], s.users[i+1:]...)

	kept := s.records[:0]
	for _, r := range s.records {
		if r.OwnerID != id {
			kept = append(kept, r)
		}
	}
	s.records = kept
	return nil
}

func (s *Store) userIndex(id string) int {
	for i, u := range s.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) userIndexByEmail(email string) int {
	for i, u := range s.users {
		if u.Email == email {
			return i
		}
	}
	return -1
}
