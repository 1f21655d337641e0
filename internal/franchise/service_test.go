package franchise

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "franchise-service/internal/common/errors"
	"franchise-service/internal/common/logger"
	"franchise-service/internal/common/observability"
	"franchise-service/internal/domain"
	"franchise-service/internal/store/memory"
)

// ==========================
// Test Helper Functions
// ==========================

// countingStore wraps the in-memory store, counts calls and can fail on demand.
type countingStore struct {
	inner *memory.Store

	mu      sync.Mutex
	loads   int
	saves   int
	deletes int
	failOn  map[string]error
}

func newCountingStore() *countingStore {
	return &countingStore{inner: memory.New(), failOn: map[string]error{}}
}

func (c *countingStore) fail(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failOn[op]
}

func (c *countingStore) Save(ctx context.Context, f *domain.Franchise) (*domain.Franchise, error) {
	c.mu.Lock()
	c.saves++
	c.mu.Unlock()
	if err := c.fail("save"); err != nil {
		return nil, err
	}
	return c.inner.Save(ctx, f)
}

func (c *countingStore) FindByID(ctx context.Context, id string) (*domain.Franchise, error) {
	c.mu.Lock()
	c.loads++
	c.mu.Unlock()
	if err := c.fail("find"); err != nil {
		return nil, err
	}
	return c.inner.FindByID(ctx, id)
}

func (c *countingStore) FindAll(ctx context.Context) iter.Seq2[*domain.Franchise, error] {
	if err := c.fail("findAll"); err != nil {
		return func(yield func(*domain.Franchise, error) bool) { yield(nil, err) }
	}
	return c.inner.FindAll(ctx)
}

func (c *countingStore) DeleteByID(ctx context.Context, id string) error {
	c.mu.Lock()
	c.deletes++
	c.mu.Unlock()
	return c.inner.DeleteByID(ctx, id)
}

func (c *countingStore) ExistsByID(ctx context.Context, id string) (bool, error) {
	return c.inner.ExistsByID(ctx, id)
}

func (c *countingStore) resetCounts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads, c.saves, c.deletes = 0, 0, 0
}

type sequentialIDs struct {
	mu   sync.Mutex
	next int
}

func (g *sequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return fmt.Sprintf("id-%d", g.next)
}

type recordingDispatcher struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, e Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, e)
	return d.err
}

func (d *recordingDispatcher) types() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.events))
	for _, e := range d.events {
		out = append(out, e.Type())
	}
	return out
}

type fixture struct {
	svc        Service
	store      *countingStore
	dispatcher *recordingDispatcher
}

func newFixture(t *testing.T) *fixture {
	store := newCountingStore()
	dispatcher := &recordingDispatcher{}
	svc := NewService(Dependencies{
		Store:         store,
		IDs:           &sequentialIDs{},
		Dispatcher:    dispatcher,
		Logger:        logger.NewTestLogger(t),
		Observability: observability.NewNoop(),
	})
	return &fixture{svc: svc, store: store, dispatcher: dispatcher}
}

// seed creates "Acme" with a "North" branch holding Widget(10) and Gadget(20).
func (fx *fixture) seed(t *testing.T) (franchiseID, branchID, widgetID, gadgetID string) {
	t.Helper()
	ctx := context.Background()

	f, err := fx.svc.CreateFranchise(ctx, domain.NewFranchise("Acme"))
	require.NoError(t, err)
	f, err = fx.svc.AddBranchToFranchise(ctx, f.ID, domain.NewBranch("North"))
	require.NoError(t, err)
	branchID = f.Branches[0].ID
	f, err = fx.svc.AddProductToBranch(ctx, f.ID, branchID, domain.NewProduct("Widget", 10))
	require.NoError(t, err)
	f, err = fx.svc.AddProductToBranch(ctx, f.ID, branchID, domain.NewProduct("Gadget", 20))
	require.NoError(t, err)

	fx.store.resetCounts()
	return f.ID, branchID, f.Branches[0].Products[0].ID, f.Branches[0].Products[1].ID
}

func assertKind(t *testing.T, err error, want apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, want, apperrors.KindOf(err), "unexpected kind for %v", err)
}

// ==========================
// Franchise operations
// ==========================

func TestCreateFranchise(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	input := &domain.Franchise{ID: "caller-chosen", Name: "Acme"}
	f, err := fx.svc.CreateFranchise(ctx, input)

	require.NoError(t, err)
	assert.NotEmpty(t, f.ID)
	assert.NotEqual(t, "caller-chosen", f.ID)
	assert.Equal(t, "Acme", f.Name)
	assert.NotNil(t, f.Branches)
	assert.Empty(t, f.Branches)
	assert.Equal(t, 1, fx.store.saves)

	stored, err := fx.svc.GetFranchiseByID(ctx, f.ID)
	require.NoError(t, err)
	assert.Equal(t, f, stored)
	assert.Equal(t, []string{"FranchiseCreated"}, fx.dispatcher.types())
}

func TestCreateFranchise_WithUUIDs(t *testing.T) {
	svc := NewService(Dependencies{Store: memory.New(), Logger: logger.NewNoOpLogger()})
	ctx := context.Background()

	a, err := svc.CreateFranchise(ctx, domain.NewFranchise("A"))
	require.NoError(t, err)
	b, err := svc.CreateFranchise(ctx, domain.NewFranchise("B"))
	require.NoError(t, err)

	assert.Len(t, a.ID, 36)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestCreateFranchise_Nil(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.CreateFranchise(context.Background(), nil)
	assertKind(t, err, apperrors.KindInvalidArgument)
	assert.Equal(t, 0, fx.store.saves)
}

func TestGetFranchiseByID_NotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.svc.GetFranchiseByID(context.Background(), "missing")

	assertKind(t, err, apperrors.KindNotFound)
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeFranchiseNotFound, stdErr.Code)
	assert.Equal(t, "missing", stdErr.Metadata["franchiseId"])
	assert.Equal(t, 1, fx.store.loads)
}

func TestGetAllFranchises(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		_, err := fx.svc.CreateFranchise(ctx, domain.NewFranchise(name))
		require.NoError(t, err)
	}

	var names []string
	for f, err := range fx.svc.GetAllFranchises(ctx) {
		require.NoError(t, err)
		names = append(names, f.Name)
	}
	assert.ElementsMatch(t, []string{"A", "B", "C"}, names)
}

func TestGetAllFranchises_StoreFailure(t *testing.T) {
	fx := newFixture(t)
	storeErr := errors.New("cursor closed")
	fx.store.failOn["findAll"] = storeErr

	var got []error
	for _, err := range fx.svc.GetAllFranchises(context.Background()) {
		got = append(got, err)
	}

	require.Len(t, got, 1)
	assert.Same(t, storeErr, got[0])
}

func TestUpdateFranchiseName(t *testing.T) {
	fx := newFixture(t)
	id, _, _, _ := fx.seed(t)

	f, err := fx.svc.UpdateFranchiseName(context.Background(), id, "Acme Corp")

	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", f.Name)
	require.Len(t, f.Branches, 1)
	assert.Len(t, f.Branches[0].Products, 2)
	assert.Equal(t, 1, fx.store.loads)
	assert.Equal(t, 1, fx.store.saves)
}

func TestUpdateFranchiseName_NotFound(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.UpdateFranchiseName(context.Background(), "missing", "X")
	assertKind(t, err, apperrors.KindNotFound)
	assert.Equal(t, 0, fx.store.saves)
}

func TestDeleteFranchise(t *testing.T) {
	fx := newFixture(t)
	id, _, _, _ := fx.seed(t)
	ctx := context.Background()

	require.NoError(t, fx.svc.DeleteFranchise(ctx, id))

	assert.Equal(t, 1, fx.store.loads)
	assert.Equal(t, 1, fx.store.deletes)
	exists, err := fx.svc.FranchiseExists(ctx, id)
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Contains(t, fx.dispatcher.types(), "FranchiseDeleted")
}

func TestDeleteFranchise_MissingPerformsNoDeletion(t *testing.T) {
	fx := newFixture(t)

	err := fx.svc.DeleteFranchise(context.Background(), "missing")

	assertKind(t, err, apperrors.KindNotFound)
	assert.Equal(t, 0, fx.store.deletes)
}

// ==========================
// Branch operations
// ==========================

func TestAddBranchToFranchise(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	f, err := fx.svc.CreateFranchise(ctx, domain.NewFranchise("Acme"))
	require.NoError(t, err)
	fx.store.resetCounts()

	input := &domain.Branch{ID: "caller-chosen", Name: "North"}
	f, err = fx.svc.AddBranchToFranchise(ctx, f.ID, input)
	require.NoError(t, err)
	f, err = fx.svc.AddBranchToFranchise(ctx, f.ID, domain.NewBranch("South"))
	require.NoError(t, err)

	require.Len(t, f.Branches, 2)
	north, south := f.Branches[0], f.Branches[1]
	assert.Equal(t, "North", north.Name)
	assert.Equal(t, "South", south.Name)
	assert.NotEqual(t, "caller-chosen", north.ID)
	assert.NotEqual(t, north.ID, south.ID)
	assert.NotEqual(t, f.ID, north.ID)

	found, ok := f.FindBranchByID(north.ID)
	require.True(t, ok)
	assert.Equal(t, "North", found.Name)
	assert.Equal(t, 2, fx.store.loads)
	assert.Equal(t, 2, fx.store.saves)
}

func TestAddBranchToFranchise_Failures(t *testing.T) {
	fx := newFixture(t)
	id, _, _, _ := fx.seed(t)
	ctx := context.Background()

	_, err := fx.svc.AddBranchToFranchise(ctx, "missing", domain.NewBranch("X"))
	assertKind(t, err, apperrors.KindNotFound)

	_, err = fx.svc.AddBranchToFranchise(ctx, id, nil)
	assertKind(t, err, apperrors.KindInvalidArgument)
	assert.ErrorIs(t, err, domain.ErrNilBranch)

	assert.Equal(t, 0, fx.store.saves)
}

func TestUpdateBranchName(t *testing.T) {
	fx := newFixture(t)
	id, branchID, _, _ := fx.seed(t)
	ctx := context.Background()

	f, err := fx.svc.UpdateBranchName(ctx, id, branchID, "North Side")
	require.NoError(t, err)
	assert.Equal(t, "North Side", f.Branches[0].Name)

	_, err = fx.svc.UpdateBranchName(ctx, id, "missing", "X")
	assertKind(t, err, apperrors.KindNotFound)
	stdErr, _ := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeBranchNotFound, stdErr.Code)
	assert.Equal(t, "missing", stdErr.Metadata["branchId"])
	assert.Equal(t, 1, fx.store.saves)
}

func TestRemoveBranchFromFranchise(t *testing.T) {
	fx := newFixture(t)
	id, branchID, _, _ := fx.seed(t)
	ctx := context.Background()

	f, err := fx.svc.RemoveBranchFromFranchise(ctx, id, "missing")
	require.NoError(t, err)
	assert.Len(t, f.Branches, 1)
	assert.NotContains(t, fx.dispatcher.types(), "BranchRemoved")

	f, err = fx.svc.RemoveBranchFromFranchise(ctx, id, branchID)
	require.NoError(t, err)
	assert.Empty(t, f.Branches)
	assert.Contains(t, fx.dispatcher.types(), "BranchRemoved")
	assert.Equal(t, 2, fx.store.saves)
}

// ==========================
// Product operations
// ==========================

func TestAddProductToBranch(t *testing.T) {
	fx := newFixture(t)
	id, branchID, widgetID, gadgetID := fx.seed(t)

	f, err := fx.svc.AddProductToBranch(context.Background(), id, branchID, &domain.Product{ID: "caller-chosen", Name: "Gizmo", Stock: 0})

	require.NoError(t, err)
	products := f.Branches[0].Products
	require.Len(t, products, 3)
	assert.Equal(t, widgetID, products[0].ID)
	assert.Equal(t, gadgetID, products[1].ID)
	assert.Equal(t, "Gizmo", products[2].Name)
	assert.NotEqual(t, "caller-chosen", products[2].ID)
	assert.Equal(t, 1, fx.store.loads)
	assert.Equal(t, 1, fx.store.saves)
}

func TestAddProductToBranch_Failures(t *testing.T) {
	fx := newFixture(t)
	id, branchID, _, _ := fx.seed(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		franchise string
		branch    string
		product   *domain.Product
		want      apperrors.Kind
	}{
		{name: "missing franchise", franchise: "missing", branch: branchID, product: domain.NewProduct("X", 1), want: apperrors.KindNotFound},
		{name: "missing branch", franchise: id, branch: "missing", product: domain.NewProduct("X", 1), want: apperrors.KindNotFound},
		{name: "nil product", franchise: id, branch: branchID, product: nil, want: apperrors.KindInvalidArgument},
		{name: "negative initial stock", franchise: id, branch: branchID, product: domain.NewProduct("X", -3), want: apperrors.KindInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.AddProductToBranch(ctx, tt.franchise, tt.branch, tt.product)
			assertKind(t, err, tt.want)
		})
	}
	assert.Equal(t, 0, fx.store.saves)
}

func TestRemoveProductFromBranch(t *testing.T) {
	fx := newFixture(t)
	id, branchID, widgetID, gadgetID := fx.seed(t)

	f, err := fx.svc.RemoveProductFromBranch(context.Background(), id, branchID, widgetID)

	require.NoError(t, err)
	require.Len(t, f.Branches[0].Products, 1)
	assert.Equal(t, gadgetID, f.Branches[0].Products[0].ID)
	assert.Contains(t, fx.dispatcher.types(), "ProductRemoved")
}

func TestRemoveProductFromBranch_AbsentProductIsNoOp(t *testing.T) {
	fx := newFixture(t)
	id, branchID, _, _ := fx.seed(t)
	ctx := context.Background()
	before, err := fx.svc.GetFranchiseByID(ctx, id)
	require.NoError(t, err)
	fx.store.resetCounts()
	eventsBefore := len(fx.dispatcher.types())

	after, err := fx.svc.RemoveProductFromBranch(ctx, id, branchID, "missing")

	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, fx.store.loads)
	assert.Equal(t, 1, fx.store.saves, "the unchanged aggregate is still persisted")
	assert.Len(t, fx.dispatcher.types(), eventsBefore)
}

func TestRemoveProductFromBranch_MissingBranch(t *testing.T) {
	fx := newFixture(t)
	id, _, widgetID, _ := fx.seed(t)

	_, err := fx.svc.RemoveProductFromBranch(context.Background(), id, "missing", widgetID)

	assertKind(t, err, apperrors.KindNotFound)
	assert.Equal(t, 0, fx.store.saves)
}

func TestUpdateProductStock(t *testing.T) {
	fx := newFixture(t)
	id, branchID, widgetID, _ := fx.seed(t)

	f, err := fx.svc.UpdateProductStock(context.Background(), id, branchID, widgetID, 55)

	require.NoError(t, err)
	p, ok := f.Branches[0].FindProductByID(widgetID)
	require.True(t, ok)
	assert.Equal(t, 55, p.Stock)
	assert.Equal(t, 1, fx.store.loads)
	assert.Equal(t, 1, fx.store.saves)

	fx.dispatcher.mu.Lock()
	last := fx.dispatcher.events[len(fx.dispatcher.events)-1]
	fx.dispatcher.mu.Unlock()
	assert.Equal(t, ProductStockUpdated{FranchiseID: id, BranchID: branchID, ProductID: widgetID, OldStock: 10, NewStock: 55}, last)
}

func TestUpdateProductStock_NegativeLeavesStoreUnchanged(t *testing.T) {
	fx := newFixture(t)
	id, branchID, widgetID, _ := fx.seed(t)
	ctx := context.Background()
	before, err := fx.svc.GetFranchiseByID(ctx, id)
	require.NoError(t, err)
	fx.store.resetCounts()

	_, err = fx.svc.UpdateProductStock(ctx, id, branchID, widgetID, -1)

	assertKind(t, err, apperrors.KindInvalidArgument)
	assert.ErrorIs(t, err, domain.ErrNegativeStock)
	stdErr, _ := apperrors.AsStandardError(err)
	assert.Equal(t, -1, stdErr.Metadata["stock"])
	assert.Equal(t, 0, fx.store.saves)

	after, err := fx.svc.GetFranchiseByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestUpdateProductStock_MissingProduct(t *testing.T) {
	fx := newFixture(t)
	id, branchID, _, _ := fx.seed(t)

	_, err := fx.svc.UpdateProductStock(context.Background(), id, branchID, "missing", 5)

	assertKind(t, err, apperrors.KindNotFound)
	stdErr, _ := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeProductNotFound, stdErr.Code)
	assert.Equal(t, "missing", stdErr.Metadata["productId"])
	assert.Equal(t, 0, fx.store.saves)
}

func TestUpdateProductName(t *testing.T) {
	fx := newFixture(t)
	id, branchID, widgetID, _ := fx.seed(t)
	ctx := context.Background()

	f, err := fx.svc.UpdateProductName(ctx, id, branchID, widgetID, "Widget XL")
	require.NoError(t, err)
	p, _ := f.Branches[0].FindProductByID(widgetID)
	assert.Equal(t, "Widget XL", p.Name)
	assert.Equal(t, 10, p.Stock)

	_, err = fx.svc.UpdateProductName(ctx, id, branchID, "missing", "X")
	assertKind(t, err, apperrors.KindNotFound)
}

// ==========================
// Max-stock query
// ==========================

func TestGetProductsWithMaxStockByFranchise_SingleBranch(t *testing.T) {
	fx := newFixture(t)
	id, _, _, gadgetID := fx.seed(t)

	result, err := fx.svc.GetProductsWithMaxStockByFranchise(context.Background(), id)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, gadgetID, result[0].Product.ID)
	assert.Equal(t, "Gadget", result[0].Product.Name)
	assert.Equal(t, "North", result[0].BranchName)
	assert.Equal(t, 1, fx.store.loads)
	assert.Equal(t, 0, fx.store.saves)
}

func TestGetProductsWithMaxStockByFranchise_TieAndEmptyBranch(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	f, err := fx.svc.CreateFranchise(ctx, domain.NewFranchise("Acme"))
	require.NoError(t, err)
	f, err = fx.svc.AddBranchToFranchise(ctx, f.ID, domain.NewBranch("North"))
	require.NoError(t, err)
	north := f.Branches[0].ID
	f, err = fx.svc.AddBranchToFranchise(ctx, f.ID, domain.NewBranch("South"))
	require.NoError(t, err)
	f, err = fx.svc.AddProductToBranch(ctx, f.ID, north, domain.NewProduct("A", 10))
	require.NoError(t, err)
	aID := f.Branches[0].Products[0].ID
	_, err = fx.svc.AddProductToBranch(ctx, f.ID, north, domain.NewProduct("B", 10))
	require.NoError(t, err)

	result, err := fx.svc.GetProductsWithMaxStockByFranchise(ctx, f.ID)

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, aID, result[0].Product.ID)
	assert.Equal(t, "A", result[0].Product.Name)
	assert.Equal(t, "North", result[0].BranchName)
}

func TestGetProductsWithMaxStockByFranchise_NotFound(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.GetProductsWithMaxStockByFranchise(context.Background(), "missing")
	assertKind(t, err, apperrors.KindNotFound)
}

// ==========================
// Store failures and events
// ==========================

func TestStoreFailuresPassThroughUnchanged(t *testing.T) {
	fx := newFixture(t)
	id, branchID, widgetID, _ := fx.seed(t)
	ctx := context.Background()
	storeErr := errors.New("connection reset by peer")

	t.Run("load", func(t *testing.T) {
		fx.store.failOn = map[string]error{"find": storeErr}
		_, err := fx.svc.GetFranchiseByID(ctx, id)
		assert.Same(t, storeErr, err)
		assertKind(t, err, apperrors.KindStoreFailure)
	})

	t.Run("save", func(t *testing.T) {
		fx.store.failOn = map[string]error{"save": storeErr}
		_, err := fx.svc.UpdateProductStock(ctx, id, branchID, widgetID, 1)
		assert.Same(t, storeErr, err)
	})

	fx.store.failOn = map[string]error{}
}

func TestDispatchFailureDoesNotFailOperation(t *testing.T) {
	fx := newFixture(t)
	fx.dispatcher.err = errors.New("topic unavailable")

	f, err := fx.svc.CreateFranchise(context.Background(), domain.NewFranchise("Acme"))

	require.NoError(t, err)
	exists, err := fx.svc.FranchiseExists(context.Background(), f.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestEventsFollowPersistedChanges(t *testing.T) {
	fx := newFixture(t)
	id, branchID, widgetID, _ := fx.seed(t)
	ctx := context.Background()

	_, err := fx.svc.UpdateProductName(ctx, id, branchID, widgetID, "W")
	require.NoError(t, err)
	_, err = fx.svc.UpdateProductStock(ctx, id, branchID, widgetID, -5)
	require.Error(t, err)

	assert.Equal(t, []string{
		"FranchiseCreated", "BranchAdded", "ProductAdded", "ProductAdded", "ProductRenamed",
	}, fx.dispatcher.types())
}

// ==========================
// Concurrency
// ==========================

// blockingStore holds every Save until release is closed, so two requests can
// both load the same version before either writes.
type blockingStore struct {
	*memory.Store
	loaded  sync.WaitGroup
	release chan struct{}
}

func (b *blockingStore) FindByID(ctx context.Context, id string) (*domain.Franchise, error) {
	f, err := b.Store.FindByID(ctx, id)
	b.loaded.Done()
	return f, err
}

func (b *blockingStore) Save(ctx context.Context, f *domain.Franchise) (*domain.Franchise, error) {
	<-b.release
	return b.Store.Save(ctx, f)
}

func TestConcurrentWritesLastSaveWins(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	_, err := inner.Save(ctx, &domain.Franchise{
		ID:   "f1",
		Name: "Acme",
		Branches: []*domain.Branch{
			{ID: "b1", Name: "North", Products: []*domain.Product{{ID: "p1", Name: "Widget", Stock: 10}}},
		},
	})
	require.NoError(t, err)

	store := &blockingStore{Store: inner, release: make(chan struct{})}
	store.loaded.Add(2)
	svc := NewService(Dependencies{Store: store, IDs: &sequentialIDs{}, Logger: logger.NewTestLogger(t)})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, _ = svc.UpdateFranchiseName(ctx, "f1", "Renamed")
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.UpdateProductStock(ctx, "f1", "b1", "p1", 99)
	}()

	store.loaded.Wait()
	close(store.release)
	wg.Wait()

	final, err := inner.FindByID(ctx, "f1")
	require.NoError(t, err)
	renamed := final.Name == "Renamed"
	restocked := final.Branches[0].Products[0].Stock == 99
	assert.True(t, renamed != restocked, "exactly one of the concurrent writes survives, got %+v", final)
}
