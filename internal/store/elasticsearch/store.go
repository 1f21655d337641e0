// Package elasticsearch stores each franchise aggregate as one document in an
// index, keyed by the franchise id.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"franchise-service/internal/domain"
	"franchise-service/internal/models"
)

const defaultPageSize = 100

// branches are stored but never queried, so they are not indexed.
const indexMapping = `{
  "mappings": {
    "properties": {
      "id":       {"type": "keyword"},
      "name":     {"type": "keyword"},
      "branches": {"type": "object", "enabled": false}
    }
  }
}`

type Store struct {
	client   *elasticsearch.Client
	index    string
	pageSize int
}

func New(client *elasticsearch.Client, index string) *Store {
	return &Store{client: client, index: index, pageSize: defaultPageSize}
}

// EnsureIndex creates the index with its mapping if it does not exist yet.
func (s *Store) EnsureIndex(ctx context.Context) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index %s: %w", s.index, err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = s.client.Indices.Create(
		s.index,
		s.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		s.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index %s: %w", s.index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("create index", res)
	}
	return nil
}

// Save replaces the whole document and waits until it is visible to search.
func (s *Store) Save(ctx context.Context, franchise *domain.Franchise) (*domain.Franchise, error) {
	body, err := json.Marshal(models.FranchiseFromDomain(franchise))
	if err != nil {
		return nil, fmt.Errorf("encode franchise %s: %w", franchise.ID, err)
	}

	res, err := s.client.Index(
		s.index,
		bytes.NewReader(body),
		s.client.Index.WithDocumentID(franchise.ID),
		s.client.Index.WithRefresh("wait_for"),
		s.client.Index.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("index franchise %s: %w", franchise.ID, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("index franchise", res)
	}
	return franchise.Clone(), nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*domain.Franchise, error) {
	res, err := s.client.Get(s.index, id, s.client.Get.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("get franchise %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil, domain.ErrFranchiseNotFound
	}
	if res.IsError() {
		return nil, responseError("get franchise", res)
	}

	var doc struct {
		Source models.Franchise `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode franchise %s: %w", id, err)
	}
	return doc.Source.ToDomain(), nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Franchise `json:"_source"`
			Sort   []interface{}    `json:"sort"`
		} `json:"hits"`
	} `json:"hits"`
}

// FindAll pages through the index ordered by id with search_after, fetching
// the next page only when the caller has consumed the previous one.
func (s *Store) FindAll(ctx context.Context) iter.Seq2[*domain.Franchise, error] {
	return func(yield func(*domain.Franchise, error) bool) {
		var after []interface{}
		for {
			page, err := s.searchPage(ctx, after)
			if err != nil {
				yield(nil, err)
				return
			}
			hits := page.Hits.Hits
			for _, hit := range hits {
				if !yield(hit.Source.ToDomain(), nil) {
					return
				}
			}
			if len(hits) < s.pageSize {
				return
			}
			after = hits[len(hits)-1].Sort
		}
	}
}

func (s *Store) searchPage(ctx context.Context, after []interface{}) (*searchResponse, error) {
	query := map[string]interface{}{
		"size":  s.pageSize,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort":  []interface{}{map[string]interface{}{"id": "asc"}},
	}
	if after != nil {
		query["search_after"] = after
	}
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("encode search: %w", err)
	}

	res, err := s.client.Search(
		s.client.Search.WithIndex(s.index),
		s.client.Search.WithBody(bytes.NewReader(body)),
		s.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("search franchises: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search franchises", res)
	}

	var page searchResponse
	if err := json.NewDecoder(res.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &page, nil
}

// DeleteByID treats a missing document as already deleted.
func (s *Store) DeleteByID(ctx context.Context, id string) error {
	res, err := s.client.Delete(
		s.index,
		id,
		s.client.Delete.WithRefresh("wait_for"),
		s.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete franchise %s: %w", id, err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete franchise", res)
	}
	return nil
}

func (s *Store) ExistsByID(ctx context.Context, id string) (bool, error) {
	res, err := s.client.Exists(s.index, id, s.client.Exists.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("check franchise %s: %w", id, err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, responseError("check franchise", res)
	}
}

func (s *Store) Ping(ctx context.Context) error {
	res, err := s.client.Ping(s.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}
	return nil
}

func responseError(op string, res *esapi.Response) error {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
	return fmt.Errorf("%s: elasticsearch returned %s: %s", op, res.Status(), strings.TrimSpace(string(body)))
}

var _ domain.FranchiseStore = (*Store)(nil)
