package airtable

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"shop-concierge/internal/common/airtable"
	commonhttp "shop-concierge/internal/common/http"
)

// fakeBase serves one table from memory. Filtering is done by a matcher the
// test supplies, since formulas are not evaluated here.
type fakeBase struct {
	mu      sync.Mutex
	rows    []map[string]interface{}
	ids     []string
	next    int
	formula []string
	deletes []string
	match   func(formula string, row map[string]interface{}) bool
	failDel bool
}

func (f *fakeBase) add(row map[string]interface{}) string {
	f.next++
	id := fmt.Sprintf("rec%d", f.next)
	f.rows = append(f.rows, row)
	f.ids = append(f.ids, id)
	return id
}

func (f *fakeBase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch r.Method {
	case http.MethodGet:
		formula := r.URL.Query().Get("filterByFormula")
		f.formula = append(f.formula, formula)
		var recs []map[string]interface{}
		for i, row := range f.rows {
			if f.match == nil || f.match(formula, row) {
				recs = append(recs, map[string]interface{}{"id": f.ids[i], "fields": row})
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"records": recs})
	case http.MethodPost:
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := f.add(body.Fields)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "fields": body.Fields})
	case http.MethodPatch:
		var body struct {
			Fields map[string]interface{} `json:"fields"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id := parts[len(parts)-1]
		for i := range f.ids {
			if f.ids[i] == id {
				for k, v := range body.Fields {
					f.rows[i][k] = v
				}
				_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": id, "fields": f.rows[i]})
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
	case http.MethodDelete:
		id := parts[len(parts)-1]
		f.deletes = append(f.deletes, id)
		if f.failDel {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		for i := range f.ids {
			if f.ids[i] == id {
				f.ids = append(f.ids[:i], f.ids[i+1:]...)
				f.rows = append(f.rows[:i], f.rows[i+1:]...)
				break
			}
		}
		_, _ = w.Write([]byte(`{"deleted":true}`))
	}
}

func newFakeClient(t *testing.T, base *fakeBase) *airtable.Client {
	t.Helper()
	srv := httptest.NewServer(base)
	t.Cleanup(srv.Close)
	return airtable.NewClient(commonhttp.NewClient(time.Second), srv.URL, "appTEST", "key")
}
