// Package memory is an in-process FranchiseStore. Aggregates are deep-copied
// on the way in and out, so callers never share a tree with the store or with
// each other, the same as with an external database.
package memory

import (
	"context"
	"iter"
	"sync"

	"franchise-service/internal/domain"
)

type Store struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Franchise
	order []string
}

func New() *Store {
	return &Store{byID: make(map[string]*domain.Franchise)}
}

func (s *Store) Save(ctx context.Context, franchise *domain.Franchise) (*domain.Franchise, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[franchise.ID]; !ok {
		s.order = append(s.order, franchise.ID)
	}
	s.byID[franchise.ID] = franchise.Clone()
	return franchise.Clone(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.Franchise, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrFranchiseNotFound
	}
	return f.Clone(), nil
}

// FindAll yields a snapshot taken when iteration starts, in insertion order.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[*domain.Franchise, error] {
	return func(yield func(*domain.Franchise, error) bool) {
		s.mu.RLock()
		snapshot := make([]*domain.Franchise, 0, len(s.order))
		for _, id := range s.order {
			snapshot = append(snapshot, s.byID[id].Clone())
		}
		s.mu.RUnlock()

		for _, f := range snapshot {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

// DeleteByID removes the aggregate. Deleting an absent id is not an error.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return nil
	}
	delete(s.byID, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) ExistsByID(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.byID[id]
	return ok, nil
}

// Ping satisfies the readiness check.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

var _ domain.FranchiseStore = (*Store)(nil)
