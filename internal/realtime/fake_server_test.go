package realtime

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

// fakeDatabase serves a JSON tree over the REST shape the client uses
type fakeDatabase struct {
	mu       sync.Mutex
	tree     map[string]interface{}
	pushSeq  int
	failWith int
	requests []*http.Request
}

func newFakeDatabase(t *testing.T, tree string) (*fakeDatabase, *Client) {
	t.Helper()

	fake := &fakeDatabase{tree: map[string]interface{}{}}
	if tree != "" {
		if err := json.Unmarshal([]byte(tree), &fake.tree); err != nil {
			t.Fatalf("bad fixture: %v", err)
		}
	}

	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	return fake, NewUnauthenticatedClient(srv.URL+"/", srv.Client(), zap.NewNop())
}

func (f *fakeDatabase) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r)

	if f.failWith != 0 {
		w.WriteHeader(f.failWith)
		fmt.Fprint(w, `{"error": "Permission denied"}`)
		return
	}
	if !strings.HasSuffix(r.URL.Path, ".json") {
		http.Error(w, `{"error": "missing .json"}`, http.StatusBadRequest)
		return
	}
	segments := strings.Split(strings.Trim(strings.TrimSuffix(r.URL.Path, ".json"), "/"), "/")

	switch r.Method {
	case http.MethodGet:
		json.NewEncoder(w).Encode(f.lookup(segments))
	case http.MethodPost:
		var value interface{}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &value); err != nil {
			http.Error(w, `{"error": "Invalid data"}`, http.StatusBadRequest)
			return
		}
		f.pushSeq++
		key := fmt.Sprintf("-Nkey%04d", f.pushSeq)
		f.ensure(segments)[key] = value
		json.NewEncoder(w).Encode(map[string]string{"name": key})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeDatabase) lookup(segments []string) interface{} {
	var node interface{} = f.tree
	for _, s := range segments {
		m, ok := node.(map[string]interface{})
		if !ok {
			return nil
		}
		node = m[s]
	}
	return node
}

func (f *fakeDatabase) ensure(segments []string) map[string]interface{} {
	node := f.tree
	for _, s := range segments {
		child, ok := node[s].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			node[s] = child
		}
		node = child
	}
	return node
}
