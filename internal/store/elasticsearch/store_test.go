package elasticsearch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"franchise-service/internal/domain"
)

// ==========================
// Test Helper Functions
// ==========================

// fakeCluster answers the handful of document APIs the store uses.
type fakeCluster struct {
	mu       sync.Mutex
	docs     map[string]json.RawMessage
	indexed  bool
	searches int
	fail     bool
	refresh  []string
}

func (c *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = io.WriteString(w, `{"error":"cluster unavailable"}`)
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case len(parts) == 1 && r.Method == http.MethodHead:
		if !c.indexed {
			w.WriteHeader(http.StatusNotFound)
		}
	case len(parts) == 1 && r.Method == http.MethodPut:
		c.indexed = true
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	case len(parts) == 2 && parts[1] == "_search":
		c.search(w, r)
	case len(parts) == 3 && parts[1] == "_doc":
		c.document(w, r, parts[2])
	default:
		w.WriteHeader(http.StatusBadRequest)
	}
}

func (c *fakeCluster) document(w http.ResponseWriter, r *http.Request, id string) {
	doc, ok := c.docs[id]
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		c.docs[id] = body
		c.refresh = append(c.refresh, r.URL.Query().Get("refresh"))
		_, _ = io.WriteString(w, `{"result":"updated"}`)
	case http.MethodGet:
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"found":false}`)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"_id": id, "found": true, "_source": doc})
	case http.MethodHead:
		if !ok {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodDelete:
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"result":"not_found"}`)
			return
		}
		delete(c.docs, id)
		_, _ = io.WriteString(w, `{"result":"deleted"}`)
	}
}

func (c *fakeCluster) search(w http.ResponseWriter, r *http.Request) {
	c.searches++
	var req struct {
		Size        int      `json:"size"`
		SearchAfter []string `json:"search_after"`
	}
	_ = json.NewDecoder(r.Body).Decode(&req)

	ids := make([]string, 0, len(c.docs))
	for id := range c.docs {
		if len(req.SearchAfter) == 0 || id > req.SearchAfter[0] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) > req.Size {
		ids = ids[:req.Size]
	}

	hits := make([]map[string]interface{}, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, map[string]interface{}{"_id": id, "_source": c.docs[id], "sort": []string{id}})
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{"hits": map[string]interface{}{"hits": hits}})
}

func setupStore(t *testing.T) (*Store, *fakeCluster) {
	cluster := &fakeCluster{docs: map[string]json.RawMessage{}}
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return New(client, "franchises"), cluster
}

func acme() *domain.Franchise {
	return &domain.Franchise{
		ID:   "f1",
		Name: "Acme",
		Branches: []*domain.Branch{
			{ID: "b1", Name: "North", Products: []*domain.Product{{ID: "p1", Name: "Widget", Stock: 10}}},
		},
	}
}

// ==========================
// Tests
// ==========================

func TestStore_EnsureIndex(t *testing.T) {
	store, cluster := setupStore(t)
	ctx := context.Background()

	require.NoError(t, store.EnsureIndex(ctx))
	assert.True(t, cluster.indexed)
	require.NoError(t, store.EnsureIndex(ctx))
}

func TestStore_SaveAndFind(t *testing.T) {
	store, cluster := setupStore(t)
	ctx := context.Background()

	saved, err := store.Save(ctx, acme())
	require.NoError(t, err)
	assert.Equal(t, acme(), saved)
	assert.Equal(t, []string{"wait_for"}, cluster.refresh)

	found, err := store.FindByID(ctx, "f1")
	require.NoError(t, err)
	assert.Equal(t, acme(), found)

	exists, err := store.ExistsByID(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestStore_FindByID_NotFound(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.FindByID(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrFranchiseNotFound)
}

func TestStore_DeleteByID(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()
	_, err := store.Save(ctx, acme())
	require.NoError(t, err)

	require.NoError(t, store.DeleteByID(ctx, "f1"))
	require.NoError(t, store.DeleteByID(ctx, "f1"), "deleting a missing document is not an error")

	exists, err := store.ExistsByID(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStore_FindAll_Pages(t *testing.T) {
	store, cluster := setupStore(t)
	store.pageSize = 2
	ctx := context.Background()
	for _, id := range []string{"e", "c", "a", "d", "b"} {
		_, err := store.Save(ctx, &domain.Franchise{ID: id, Name: strings.ToUpper(id), Branches: []*domain.Branch{}})
		require.NoError(t, err)
	}

	var ids []string
	for f, err := range store.FindAll(ctx) {
		require.NoError(t, err)
		ids = append(ids, f.ID)
	}

	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
	assert.Equal(t, 3, cluster.searches)
}

func TestStore_FindAll_StopsWithoutFetchingMore(t *testing.T) {
	store, cluster := setupStore(t)
	store.pageSize = 2
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := store.Save(ctx, &domain.Franchise{ID: id, Name: id})
		require.NoError(t, err)
	}

	for range store.FindAll(ctx) {
		break
	}

	assert.Equal(t, 1, cluster.searches)
}

func TestStore_ClusterErrors(t *testing.T) {
	store, cluster := setupStore(t)
	cluster.fail = true
	ctx := context.Background()

	_, err := store.Save(ctx, acme())
	assert.ErrorContains(t, err, "503")

	_, err = store.FindByID(ctx, "f1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrFranchiseNotFound)

	_, err = store.ExistsByID(ctx, "f1")
	assert.Error(t, err)

	for _, err := range store.FindAll(ctx) {
		assert.Error(t, err)
	}

	assert.Error(t, store.DeleteByID(ctx, "f1"))
}
