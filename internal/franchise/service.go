// Package franchise implements the franchise use cases. Every mutating
// operation loads the whole aggregate, applies one change and saves the whole
// aggregate back. There is no version check between load and save, so two
// concurrent writers on the same franchise can overwrite each other.
package franchise

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperrors "franchise-service/internal/common/errors"
	"franchise-service/internal/common/logger"
	"franchise-service/internal/common/observability"
	"franchise-service/internal/domain"
)

// Service is the operation surface consumed by the REST and workflow layers.
// Failures are *errors.StandardError values (not found, invalid argument) or
// the unchanged error returned by the store.
type Service interface {
	CreateFranchise(ctx context.Context, franchise *domain.Franchise) (*domain.Franchise, error)
	GetFranchiseByID(ctx context.Context, id string) (*domain.Franchise, error)
	GetAllFranchises(ctx context.Context) iter.Seq2[*domain.Franchise, error]
	UpdateFranchiseName(ctx context.Context, id, name string) (*domain.Franchise, error)
	DeleteFranchise(ctx context.Context, id string) error
	FranchiseExists(ctx context.Context, id string) (bool, error)

	AddBranchToFranchise(ctx context.Context, franchiseID string, branch *domain.Branch) (*domain.Franchise, error)
	UpdateBranchName(ctx context.Context, franchiseID, branchID, name string) (*domain.Franchise, error)
	RemoveBranchFromFranchise(ctx context.Context, franchiseID, branchID string) (*domain.Franchise, error)

	AddProductToBranch(ctx context.Context, franchiseID, branchID string, product *domain.Product) (*domain.Franchise, error)
	RemoveProductFromBranch(ctx context.Context, franchiseID, branchID, productID string) (*domain.Franchise, error)
	UpdateProductStock(ctx context.Context, franchiseID, branchID, productID string, stock int) (*domain.Franchise, error)
	UpdateProductName(ctx context.Context, franchiseID, branchID, productID, name string) (*domain.Franchise, error)

	GetProductsWithMaxStockByFranchise(ctx context.Context, franchiseID string) ([]domain.ProductWithBranch, error)
}

// IDGenerator issues opaque identifiers for franchises, branches and products.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator issues random (v4) UUIDs rendered as text.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

type Dependencies struct {
	Store         domain.FranchiseStore
	IDs           IDGenerator
	Dispatcher    EventDispatcher
	Logger        logger.Logger
	Observability *observability.Observability
}

type service struct {
	store      domain.FranchiseStore
	ids        IDGenerator
	dispatcher EventDispatcher
	logger     logger.Logger
	obs        *observability.Observability
	tracer     trace.Tracer
}

func NewService(deps Dependencies) Service {
	s := &service{
		store:      deps.Store,
		ids:        deps.IDs,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		obs:        deps.Observability,
	}
	if s.ids == nil {
		s.ids = UUIDGenerator{}
	}
	if s.dispatcher == nil {
		s.dispatcher = noopDispatcher{}
	}
	if s.logger == nil {
		s.logger = logger.NewNoOpLogger()
	}
	s.tracer = s.obs.Tracer()
	return s
}

func (s *service) CreateFranchise(ctx context.Context, franchise *domain.Franchise) (created *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "createFranchise")
	defer func() { finish(err) }()

	if franchise == nil {
		return nil, apperrors.NewInvalidArgumentError("franchise", nil, nil)
	}

	created, err = s.store.Save(ctx, &domain.Franchise{
		ID:       s.ids.NewID(),
		Name:     franchise.Name,
		Branches: []*domain.Branch{},
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, FranchiseCreated{FranchiseID: created.ID, Name: created.Name})
	return created, nil
}

func (s *service) GetFranchiseByID(ctx context.Context, id string) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "getFranchiseById", attribute.String("franchise.id", id))
	defer func() { finish(err) }()

	return s.load(ctx, id)
}

// GetAllFranchises streams the store's scan. The span and metrics cover the
// iteration itself, which happens when the caller ranges over the sequence.
func (s *service) GetAllFranchises(ctx context.Context) iter.Seq2[*domain.Franchise, error] {
	return func(yield func(*domain.Franchise, error) bool) {
		ctx, finish := s.start(ctx, "getAllFranchises")
		var err error
		defer func() { finish(err) }()

		for f, ferr := range s.store.FindAll(ctx) {
			if ferr != nil {
				err = ferr
				yield(nil, ferr)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

func (s *service) UpdateFranchiseName(ctx context.Context, id, name string) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "updateFranchiseName", attribute.String("franchise.id", id))
	defer func() { finish(err) }()

	f, err = s.mutate(ctx, id, func(f *domain.Franchise) error {
		f.Rename(name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, FranchiseRenamed{FranchiseID: f.ID, Name: f.Name})
	return f, nil
}

// DeleteFranchise loads first so that deleting a missing franchise fails with
// not found instead of silently succeeding.
func (s *service) DeleteFranchise(ctx context.Context, id string) (err error) {
	ctx, finish := s.start(ctx, "deleteFranchise", attribute.String("franchise.id", id))
	defer func() { finish(err) }()

	f, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err = s.store.DeleteByID(ctx, f.ID); err != nil {
		return err
	}

	s.dispatch(ctx, FranchiseDeleted{FranchiseID: f.ID})
	return nil
}

func (s *service) FranchiseExists(ctx context.Context, id string) (exists bool, err error) {
	ctx, finish := s.start(ctx, "franchiseExists", attribute.String("franchise.id", id))
	defer func() { finish(err) }()

	return s.store.ExistsByID(ctx, id)
}

func (s *service) AddBranchToFranchise(ctx context.Context, franchiseID string, branch *domain.Branch) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "addBranchToFranchise", attribute.String("franchise.id", franchiseID))
	defer func() { finish(err) }()

	var added *domain.Branch
	f, err = s.mutate(ctx, franchiseID, func(f *domain.Franchise) error {
		if branch != nil {
			added = &domain.Branch{ID: s.ids.NewID(), Name: branch.Name, Products: []*domain.Product{}}
		}
		if err := f.AddBranch(added); err != nil {
			return apperrors.NewInvalidArgumentError("branch", nil, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, BranchAdded{FranchiseID: f.ID, BranchID: added.ID, Name: added.Name})
	return f, nil
}

func (s *service) UpdateBranchName(ctx context.Context, franchiseID, branchID, name string) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "updateBranchName",
		attribute.String("franchise.id", franchiseID), attribute.String("branch.id", branchID))
	defer func() { finish(err) }()

	f, err = s.mutate(ctx, franchiseID, func(f *domain.Franchise) error {
		b, err := requireBranch(f, branchID)
		if err != nil {
			return err
		}
		b.Rename(name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, BranchRenamed{FranchiseID: f.ID, BranchID: branchID, Name: name})
	return f, nil
}

// RemoveBranchFromFranchise persists the aggregate even when the branch is absent.
func (s *service) RemoveBranchFromFranchise(ctx context.Context, franchiseID, branchID string) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "removeBranchFromFranchise",
		attribute.String("franchise.id", franchiseID), attribute.String("branch.id", branchID))
	defer func() { finish(err) }()

	var existed bool
	f, err = s.mutate(ctx, franchiseID, func(f *domain.Franchise) error {
		_, existed = f.FindBranchByID(branchID)
		f.RemoveBranch(branchID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if existed {
		s.dispatch(ctx, BranchRemoved{FranchiseID: f.ID, BranchID: branchID})
	}
	return f, nil
}

// AddProductToBranch rejects a negative initial stock: the value comes from the caller, not from storage.
func (s *service) AddProductToBranch(ctx context.Context, franchiseID, branchID string, product *domain.Product) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "addProductToBranch",
		attribute.String("franchise.id", franchiseID), attribute.String("branch.id", branchID))
	defer func() { finish(err) }()

	var added *domain.Product
	f, err = s.mutate(ctx, franchiseID, func(f *domain.Franchise) error {
		b, err := requireBranch(f, branchID)
		if err != nil {
			return err
		}
		if product != nil {
			if product.Stock < 0 {
				return apperrors.NewInvalidArgumentError("stock", product.Stock, domain.ErrNegativeStock)
			}
			added = &domain.Product{ID: s.ids.NewID(), Name: product.Name, Stock: product.Stock}
		}
		if err := b.AddProduct(added); err != nil {
			return apperrors.NewInvalidArgumentError("product", nil, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, ProductAdded{
		FranchiseID: f.ID,
		BranchID:    branchID,
		ProductID:   added.ID,
		Name:        added.Name,
		Stock:       added.Stock,
	})
	return f, nil
}

// RemoveProductFromBranch fails only when the franchise or branch is missing.
// An absent product leaves the branch unchanged and the aggregate is still saved.
func (s *service) RemoveProductFromBranch(ctx context.Context, franchiseID, branchID, productID string) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "removeProductFromBranch",
		attribute.String("franchise.id", franchiseID),
		attribute.String("branch.id", branchID),
		attribute.String("product.id", productID))
	defer func() { finish(err) }()

	var existed bool
	f, err = s.mutate(ctx, franchiseID, func(f *domain.Franchise) error {
		b, err := requireBranch(f, branchID)
		if err != nil {
			return err
		}
		_, existed = b.FindProductByID(productID)
		b.RemoveProduct(productID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if existed {
		s.dispatch(ctx, ProductRemoved{FranchiseID: f.ID, BranchID: branchID, ProductID: productID})
	}
	return f, nil
}

func (s *service) UpdateProductStock(ctx context.Context, franchiseID, branchID, productID string, stock int) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "updateProductStock",
		attribute.String("franchise.id", franchiseID),
		attribute.String("branch.id", branchID),
		attribute.String("product.id", productID),
		attribute.Int("product.stock", stock))
	defer func() { finish(err) }()

	var oldStock int
	f, err = s.mutate(ctx, franchiseID, func(f *domain.Franchise) error {
		p, err := requireProduct(f, branchID, productID)
		if err != nil {
			return err
		}
		oldStock = p.Stock
		if err := p.UpdateStock(stock); err != nil {
			return apperrors.NewInvalidArgumentError("stock", stock, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, ProductStockUpdated{
		FranchiseID: f.ID,
		BranchID:    branchID,
		ProductID:   productID,
		OldStock:    oldStock,
		NewStock:    stock,
	})
	return f, nil
}

func (s *service) UpdateProductName(ctx context.Context, franchiseID, branchID, productID, name string) (f *domain.Franchise, err error) {
	ctx, finish := s.start(ctx, "updateProductName",
		attribute.String("franchise.id", franchiseID),
		attribute.String("branch.id", branchID),
		attribute.String("product.id", productID))
	defer func() { finish(err) }()

	f, err = s.mutate(ctx, franchiseID, func(f *domain.Franchise) error {
		p, err := requireProduct(f, branchID, productID)
		if err != nil {
			return err
		}
		p.Rename(name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, ProductRenamed{FranchiseID: f.ID, BranchID: branchID, ProductID: productID, Name: name})
	return f, nil
}

func (s *service) GetProductsWithMaxStockByFranchise(ctx context.Context, franchiseID string) (out []domain.ProductWithBranch, err error) {
	ctx, finish := s.start(ctx, "getProductsWithMaxStockByFranchise", attribute.String("franchise.id", franchiseID))
	defer func() { finish(err) }()

	f, err := s.load(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	return f.ProductsWithMaxStockByBranch(), nil
}

// load returns the stored aggregate or a FRANCHISE_NOT_FOUND error. Other store errors pass through.
func (s *service) load(ctx context.Context, id string) (*domain.Franchise, error) {
	f, err := s.store.FindByID(ctx, id)
	if errors.Is(err, domain.ErrFranchiseNotFound) {
		return nil, apperrors.NewFranchiseNotFoundError(id)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// mutate is the load, apply, save cycle shared by every write. Nothing is
// saved when apply fails.
func (s *service) mutate(ctx context.Context, franchiseID string, apply func(*domain.Franchise) error) (*domain.Franchise, error) {
	f, err := s.load(ctx, franchiseID)
	if err != nil {
		return nil, err
	}
	if err := apply(f); err != nil {
		return nil, err
	}
	return s.store.Save(ctx, f)
}

func requireBranch(f *domain.Franchise, branchID string) (*domain.Branch, error) {
	b, ok := f.FindBranchByID(branchID)
	if !ok {
		return nil, apperrors.NewBranchNotFoundError(f.ID, branchID)
	}
	return b, nil
}

func requireProduct(f *domain.Franchise, branchID, productID string) (*domain.Product, error) {
	b, err := requireBranch(f, branchID)
	if err != nil {
		return nil, err
	}
	p, ok := b.FindProductByID(productID)
	if !ok {
		return nil, apperrors.NewProductNotFoundError(f.ID, branchID, productID)
	}
	return p, nil
}

func (s *service) dispatch(ctx context.Context, event Event) {
	if err := s.dispatcher.Dispatch(ctx, event); err != nil {
		s.logger.Warn("failed to dispatch event", map[string]interface{}{
			"eventType":   event.Type(),
			"franchiseId": event.AggregateID(),
			"error":       err.Error(),
		})
	}
}

// start opens the span for an operation and returns the function that closes
// it, records the operation metrics and logs the outcome.
func (s *service) start(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, span := s.tracer.Start(ctx, "franchise."+operation, trace.WithAttributes(attrs...))
	started := time.Now()

	fields := make(map[string]interface{}, len(attrs)+1)
	fields["operation"] = operation
	for _, a := range attrs {
		fields[string(a.Key)] = a.Value.Emit()
	}
	s.logger.Debug("franchise operation started", fields)

	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			kind := apperrors.KindOf(err)
			status = kind.String()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())

			fields["error"] = err.Error()
			fields["kind"] = status
			if kind == apperrors.KindStoreFailure {
				s.logger.Error("franchise operation failed", fields)
			} else {
				s.logger.Warn("franchise operation rejected", fields)
			}
		}
		s.obs.RecordOperation(ctx, operation, status, time.Since(started))
		span.End()
	}
}
