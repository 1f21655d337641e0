package franchise

import "context"

// Event is a fact about a franchise aggregate, emitted after it was persisted.
type Event interface {
	Type() string
	AggregateID() string
}

// EventDispatcher delivers events. Dispatch failures are logged by the
// service and never affect the operation that produced the event.
type EventDispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}

type noopDispatcher struct{}

func (noopDispatcher) Dispatch(context.Context, Event) error { return nil }

type FranchiseCreated struct {
	FranchiseID string `json:"franchiseId"`
	Name        string `json:"name"`
}

func (e FranchiseCreated) Type() string        { return "FranchiseCreated" }
func (e FranchiseCreated) AggregateID() string { return e.FranchiseID }

type FranchiseRenamed struct {
	FranchiseID string `json:"franchiseId"`
	Name        string `json:"name"`
}

func (e FranchiseRenamed) Type() string        { return "FranchiseRenamed" }
func (e FranchiseRenamed) AggregateID() string { return e.FranchiseID }

type FranchiseDeleted struct {
	FranchiseID string `json:"franchiseId"`
}

func (e FranchiseDeleted) Type() string        { return "FranchiseDeleted" }
func (e FranchiseDeleted) AggregateID() string { return e.FranchiseID }

type BranchAdded struct {
	FranchiseID string `json:"franchiseId"`
	BranchID    string `json:"branchId"`
	Name        string `json:"name"`
}

func (e BranchAdded) Type() string        { return "BranchAdded" }
func (e BranchAdded) AggregateID() string { return e.FranchiseID }

type BranchRenamed struct {
	FranchiseID string `json:"franchiseId"`
	BranchID    string `json:"branchId"`
	Name        string `json:"name"`
}

func (e BranchRenamed) Type() string        { return "BranchRenamed" }
func (e BranchRenamed) AggregateID() string { return e.FranchiseID }

type BranchRemoved struct {
	FranchiseID string `json:"franchiseId"`
	BranchID    string `json:"branchId"`
}

func (e BranchRemoved) Type() string        { return "BranchRemoved" }
func (e BranchRemoved) AggregateID() string { return e.FranchiseID }

type ProductAdded struct {
	FranchiseID string `json:"franchiseId"`
	BranchID    string `json:"branchId"`
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
	Stock       int    `json:"stock"`
}

func (e ProductAdded) Type() string        { return "ProductAdded" }
func (e ProductAdded) AggregateID() string { return e.FranchiseID }

type ProductRemoved struct {
	FranchiseID string `json:"franchiseId"`
	BranchID    string `json:"branchId"`
	ProductID   string `json:"productId"`
}

func (e ProductRemoved) Type() string        { return "ProductRemoved" }
func (e ProductRemoved) AggregateID() string { return e.FranchiseID }

type ProductStockUpdated struct {
	FranchiseID string `json:"franchiseId"`
	BranchID    string `json:"branchId"`
	ProductID   string `json:"productId"`
	OldStock    int    `json:"oldStock"`
	NewStock    int    `json:"newStock"`
}

func (e ProductStockUpdated) Type() string        { return "ProductStockUpdated" }
func (e ProductStockUpdated) AggregateID() string { return e.FranchiseID }

type ProductRenamed struct {
	FranchiseID string `json:"franchiseId"`
	BranchID    string `json:"branchId"`
	ProductID   string `json:"productId"`
	Name        string `json:"name"`
}

func (e ProductRenamed) Type() string        { return "ProductRenamed" }
func (e ProductRenamed) AggregateID() string { return e.FranchiseID }
