package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAsk(t *testing.T) {
	t.Parallel()
	var gotMethod, gotPath, gotCT, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotCT = r.Header.Get("Content-Type")
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{"answer":"the sky is blue","processing_time":1.25}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	resp, err := c.Ask(context.Background(), "why is the sky blue?")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/ask" {
		t.Fatalf("Ask() sent %s %s", gotMethod, gotPath)
	}
	if gotCT != "application/json" {
		t.Fatalf("Ask() content-type = %q", gotCT)
	}
	if gotBody != `{"question":"why is the sky blue?"}` {
		t.Fatalf("Ask() body = %s", gotBody)
	}
	if resp.Answer != "the sky is blue" || resp.ProcessingTime != 1.25 {
		t.Fatalf("Ask() = %+v", resp)
	}
}

func TestAskSendsEmptyQuestionVerbatim(t *testing.T) {
	t.Parallel()
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{"answer":"","processing_time":0}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Ask(context.Background(), ""); err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if gotBody != `{"question":""}` {
		t.Fatalf("Ask() body = %s", gotBody)
	}
}

func TestErrorMessagePriority(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "message field wins", body: `{"message":"db down","detail":"other"}`, want: "db down"},
		{name: "detail as fallback", body: `{"detail":"Internal server error"}`, want: "Internal server error"},
		{name: "status text when body is opaque", body: `boom`, want: "500 Internal Server Error"},
		{name: "status text when body is empty", body: ``, want: "500 Internal Server Error"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(Config{BaseURL: srv.URL})
			_, err := c.Ask(context.Background(), "q")
			var apiErr *Error
			if !errors.As(err, &apiErr) {
				t.Fatalf("Ask() error = %v, want *api.Error", err)
			}
			if apiErr.Status != http.StatusInternalServerError {
				t.Fatalf("Status = %d", apiErr.Status)
			}
			if apiErr.Message != tt.want {
				t.Fatalf("Message = %q, want %q", apiErr.Message, tt.want)
			}
		})
	}
}

func TestMetadataCountsKeepDocumentOrder(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/metadata/counts" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"metadata_counts":{"u1":3,"u2":7,"u3":7}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	entries, err := c.MetadataCounts(context.Background())
	if err != nil {
		t.Fatalf("MetadataCounts() error = %v", err)
	}
	want := []CountEntry{{URL: "u1", Count: 3}, {URL: "u2", Count: 7}, {URL: "u3", Count: 7}}
	if len(entries) != len(want) {
		t.Fatalf("MetadataCounts() = %v", entries)
	}
	for i := range want {
		if entries[i] != want[i] {
			t.Fatalf("entry %d = %v, want %v", i, entries[i], want[i])
		}
	}
}

func TestMetadataCountsEmpty(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"metadata_counts":{}}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	entries, err := c.MetadataCounts(context.Background())
	if err != nil {
		t.Fatalf("MetadataCounts() error = %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("MetadataCounts() = %v, want empty", entries)
	}
}

func TestDebugPointsLimitAndPassthrough(t *testing.T) {
	t.Parallel()
	const doc = `[{"id":"1","payload":{"url":"http://a.com"}}]`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("limit = %q, want 50", got)
		}
		if r.Body != nil {
			body, _ := io.ReadAll(r.Body)
			if len(body) != 0 {
				t.Errorf("GET carried a body: %s", body)
			}
		}
		_, _ = w.Write([]byte(doc))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	raw, err := c.DebugPoints(context.Background(), 50)
	if err != nil {
		t.Fatalf("DebugPoints() error = %v", err)
	}
	if string(raw) != doc {
		t.Fatalf("DebugPoints() = %s", raw)
	}
}

func TestDeleteByURL(t *testing.T) {
	t.Parallel()
	var gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		_, _ = w.Write([]byte(`{"message":"Successfully deleted 4 chunks with metadata 'http://a.com'","deleted_count":4,"status":"success"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	resp, err := c.DeleteByURL(context.Background(), "http://a.com")
	if err != nil {
		t.Fatalf("DeleteByURL() error = %v", err)
	}
	if gotBody != `{"url":"http://a.com"}` {
		t.Fatalf("DeleteByURL() body = %s", gotBody)
	}
	if resp.DeletedCount != 4 || resp.Status != "success" {
		t.Fatalf("DeleteByURL() = %+v", resp)
	}
}

func TestFetchConfig(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/config" {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"llm_model":"qwen2.5:1.5b","embeddings_model":"all-mpnet-base-v2"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	cfg, err := c.FetchConfig(context.Background())
	if err != nil {
		t.Fatalf("FetchConfig() error = %v", err)
	}
	if cfg.LLMModel != "qwen2.5:1.5b" || cfg.EmbeddingsModel != "all-mpnet-base-v2" {
		t.Fatalf("FetchConfig() = %+v", cfg)
	}
}

func TestNoRetryIsSingleShot(t *testing.T) {
	t.Parallel()
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if _, err := c.Ask(context.Background(), "q"); err == nil {
		t.Fatal("Ask() error = nil, want failure")
	}
	if attempts != 1 {
		t.Fatalf("attempts = %d, want 1", attempts)
	}
}

func TestBackoffRetriesUntilSuccess(t *testing.T) {
	t.Parallel()
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"answer":"ok","processing_time":0.1}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL, Retry: Backoff{MaxRetries: 3}})
	resp, err := c.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if resp.Answer != "ok" {
		t.Fatalf("Ask() = %+v", resp)
	}
	if attempts != 3 {
		t.Fatalf("attempts = %d, want 3", attempts)
	}
}

// TestInjectAgainstStatefulBackend drives inject, counts and delete against
// one stateful fake backend to check the request/response plumbing end to
// end: the backend keeps an ordered url -> count store the way the real
// service keeps chunks per url.
func TestInjectAgainstStatefulBackend(t *testing.T) {
	t.Parallel()
	store := []CountEntry{}
	mux := http.NewServeMux()
	mux.HandleFunc("/inject", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URLs []string `json:"urls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"detail":"bad request"}`))
			return
		}
		for _, u := range req.URLs {
			store = append(store, CountEntry{URL: u, Count: 2})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":     "Successfully added chunks",
			"status":      "success",
			"added_count": len(req.URLs) * 2,
		})
	})
	mux.HandleFunc("/metadata/counts", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"metadata_counts":{`))
		for i, e := range store {
			if i > 0 {
				_, _ = w.Write([]byte(`,`))
			}
			key, _ := json.Marshal(e.URL)
			_, _ = w.Write(key)
			_, _ = w.Write([]byte(`:`))
			_, _ = w.Write([]byte(itoa(e.Count)))
		}
		_, _ = w.Write([]byte(`}}`))
	})
	mux.HandleFunc("/delete_by_metadata", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			URL string `json:"url"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		kept := store[:0]
		deleted := 0
		for _, e := range store {
			if e.URL == req.URL {
				deleted += e.Count
				continue
			}
			kept = append(kept, e)
		}
		store = kept
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":       "deleted",
			"deleted_count": deleted,
			"status":        "success",
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	ctx := context.Background()

	if _, err := c.InjectURLs(ctx, []string{"http://a.com", "http://b.com"}); err != nil {
		t.Fatalf("InjectURLs() error = %v", err)
	}
	entries, err := c.MetadataCounts(ctx)
	if err != nil {
		t.Fatalf("MetadataCounts() error = %v", err)
	}
	if len(entries) != 2 || entries[0].URL != "http://a.com" || entries[1].URL != "http://b.com" {
		t.Fatalf("MetadataCounts() = %v", entries)
	}

	if _, err := c.DeleteByURL(ctx, "http://a.com"); err != nil {
		t.Fatalf("DeleteByURL() error = %v", err)
	}
	entries, err = c.MetadataCounts(ctx)
	if err != nil {
		t.Fatalf("MetadataCounts() error = %v", err)
	}
	if len(entries) != 1 || entries[0].URL != "http://b.com" {
		t.Fatalf("MetadataCounts() after delete = %v", entries)
	}
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}
