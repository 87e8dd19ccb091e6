// Package search keeps an Elasticsearch copy of the catalog for area lookups.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"shop-concierge/internal/common/metrics"
	"shop-concierge/internal/models"
	"shop-concierge/internal/store"
)

const backend = "elasticsearch"

// maxAreaBuckets bounds the distinct area_detail values one lookup returns.
const maxAreaBuckets = 500

var ErrIndexNotFound = errors.New("INDEX_NOT_FOUND")

const indexMapping = `{
	"mappings": {
		"properties": {
			"shop_id":     {"type": "keyword"},
			"shop_name":   {"type": "text"},
			"area_group":  {"type": "keyword"},
			"area_detail": {"type": "keyword"},
			"status":      {"type": "keyword"},
			"best_with":   {"type": "keyword"},
			"best_vibe":   {"type": "keyword"},
			"genre":       {"type": "keyword"},
			"short_desc":  {"type": "text"},
			"tier":        {"type": "keyword"},
			"time_slot":   {"type": "keyword"}
		}
	}
}`

type AreaIndex struct {
	client *elasticsearch.Client
	index  string
}

func NewAreaIndex(client *elasticsearch.Client, index string) *AreaIndex {
	return &AreaIndex{client: client, index: index}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (a *AreaIndex) EnsureIndex(ctx context.Context) error {
	res, err := a.client.Indices.Exists([]string{a.index}, a.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = a.client.Indices.Create(a.index,
		a.client.Indices.Create.WithContext(ctx),
		a.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("create index: %s", res.String())
	}
	return nil
}

// ListAreaDetails aggregates area_detail over active shops whose
// area_group contains pref.
func (a *AreaIndex) ListAreaDetails(ctx context.Context, pref string) ([]string, error) {
	start := time.Now()
	defer func() {
		metrics.DatastoreQueryDuration.WithLabelValues(backend, "list_area_details").Observe(time.Since(start).Seconds())
	}()

	filters := []map[string]interface{}{
		{"term": map[string]interface{}{"status": store.StatusActive}},
	}
	if pref != "" {
		filters = append(filters, map[string]interface{}{
			"wildcard": map[string]interface{}{"area_group": map[string]interface{}{"value": "*" + escapeWildcard(pref) + "*"}},
		})
	}
	query := map[string]interface{}{
		"size":  0,
		"query": map[string]interface{}{"bool": map[string]interface{}{"filter": filters}},
		"aggs": map[string]interface{}{
			"details": map[string]interface{}{
				"terms": map[string]interface{}{"field": "area_detail", "size": maxAreaBuckets},
			},
		},
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, err
	}

	res, err := a.client.Search(
		a.client.Search.WithContext(ctx),
		a.client.Search.WithIndex(a.index),
		a.client.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("area search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == 404 {
		return nil, ErrIndexNotFound
	}
	if res.IsError() {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("area search: %s: %s", res.Status(), body)
	}

	var parsed struct {
		Aggregations struct {
			Details struct {
				Buckets []struct {
					Key string `json:"key"`
				} `json:"buckets"`
			} `json:"details"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode area search: %w", err)
	}

	out := []string{}
	for _, b := range parsed.Aggregations.Details.Buckets {
		if k := strings.TrimSpace(b.Key); k != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

// UpsertShops bulk-indexes shops keyed by shop_id.
func (a *AreaIndex) UpsertShops(ctx context.Context, shops []models.Shop) error {
	if len(shops) == 0 {
		return nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, s := range shops {
		if strings.TrimSpace(s.ShopID) == "" {
			continue
		}
		meta := map[string]interface{}{"index": map[string]interface{}{"_index": a.index, "_id": s.ShopID}}
		doc := s
		doc.RecordID = ""
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(doc); err != nil {
			return err
		}
	}
	if buf.Len() == 0 {
		return nil
	}

	res, err := a.client.Bulk(&buf,
		a.client.Bulk.WithContext(ctx),
		a.client.Bulk.WithRefresh("true"),
	)
	if err != nil {
		return fmt.Errorf("bulk index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk index: %s", res.String())
	}

	var parsed struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID    string          `json:"_id"`
			Error json.RawMessage `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if parsed.Errors {
		var failed []string
		for _, item := range parsed.Items {
			for _, r := range item {
				if len(r.Error) > 0 {
					failed = append(failed, r.ID)
				}
			}
		}
		return fmt.Errorf("bulk index: %d documents failed: %s", len(failed), strings.Join(failed, ","))
	}
	return nil
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

func escapeWildcard(s string) string {
	return wildcardEscaper.Replace(s)
}
