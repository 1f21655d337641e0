package domain

import "errors"

var (
	// ErrFranchiseNotFound is returned by a FranchiseStore when no aggregate is stored under the id.
	ErrFranchiseNotFound = errors.New("franchise not found")

	// ErrNilBranch is returned when a nil branch is added to a franchise.
	ErrNilBranch = errors.New("branch must not be nil")
	// ErrNilProduct is returned when a nil product is added to a branch.
	ErrNilProduct = errors.New("product must not be nil")
	// ErrNegativeStock is returned when a product stock would drop below zero.
	ErrNegativeStock = errors.New("stock must not be negative")
)
