package domain

import (
	"context"
	"iter"
)

// FranchiseStore loads and persists whole franchise aggregates.
type FranchiseStore interface {
	// Save writes the complete tree, replacing any previous version stored under the same id.
	Save(ctx context.Context, franchise *Franchise) (*Franchise, error)
	// FindByID returns ErrFranchiseNotFound when no aggregate exists.
	FindByID(ctx context.Context, id string) (*Franchise, error)
	// FindAll yields every stored aggregate once. A failure is yielded as the
	// final element and ends the sequence.
	FindAll(ctx context.Context) iter.Seq2[*Franchise, error]
	DeleteByID(ctx context.Context, id string) error
	ExistsByID(ctx context.Context, id string) (bool, error)
}
