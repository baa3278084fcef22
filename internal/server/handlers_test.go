package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/wikimedia/research-mwaddlink/internal/classifier"
	"github.com/wikimedia/research-mwaddlink/internal/config"
	"github.com/wikimedia/research-mwaddlink/internal/dataset"
	"github.com/wikimedia/research-mwaddlink/internal/linker"
)

// newTestServer builds a server over a sqlite data dir for "simplewiki" with
// one anchor "anchor1" -> "Page1" and a mock model.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	dataDir := t.TempDir()
	wikiDir := filepath.Join(dataDir, "simplewiki")
	if err := os.MkdirAll(wikiDir, 0o755); err != nil {
		t.Fatal(err)
	}
	// ModelPath only checks for existence; the classifier itself is mocked.
	if err := os.WriteFile(filepath.Join(wikiDir, "simplewiki.linkmodel.bin"), []byte("model"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	put := func(name, key string, val interface{}) {
		store, err := dataset.CreateSQLiteStore(
			filepath.Join(wikiDir, "simplewiki."+name+".sqlite"), name)
		if err != nil {
			t.Fatal(err)
		}
		defer store.Close()
		if key != "" {
			if err := store.Put(ctx, key, val); err != nil {
				t.Fatal(err)
			}
		}
	}
	put(dataset.DatasetAnchors, "anchor1", dataset.CandidateMap{"Page1": 1})
	put(dataset.DatasetPageIDs, "Page1", int64(1))
	put(dataset.DatasetRedirects, "", nil)
	put(dataset.DatasetEmbeddings, "", nil)

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Datasets.Backend = dataset.BackendSQLite
	cfg.Datasets.DataDir = dataDir

	s := NewServer(cfg, nil, nil, "abc1234", zap.NewNop())
	s.loadModel = func(string) (classifier.Classifier, error) {
		return classifier.NewMockClassifier(0.9), nil
	}
	return s
}

func postQuery(t *testing.T, s *Server, url string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, url, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID header")
	}
}

func TestQueryPost(t *testing.T) {
	s := newTestServer(t)
	rec := postQuery(t, s, "/v1/linkrecommendations/wikipedia/simple/Cat",
		`{"wikitext":"Lorem ipsum anchor1 dolor sit amet","pageid":2815,"revid":8137430}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp linker.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PageTitle != "Cat" || resp.PageID != 2815 || resp.RevID != 8137430 {
		t.Errorf("unexpected identifiers: %+v", resp)
	}
	if resp.LinksCount != 1 || len(resp.Links) != 1 {
		t.Fatalf("links = %+v", resp.Links)
	}
	link := resp.Links[0]
	if link.LinkTarget != "Page1" || link.LinkText != "anchor1" {
		t.Errorf("unexpected link: %+v", link)
	}
	if resp.Meta.FormatVersion != 1 {
		t.Errorf("format_version = %d", resp.Meta.FormatVersion)
	}
	if resp.Meta.ApplicationVersion != "abc1234" {
		t.Errorf("application_version = %q", resp.Meta.ApplicationVersion)
	}
	if resp.Meta.QueryCounts[dataset.DatasetAnchors] == 0 {
		t.Errorf("query counts missing: %v", resp.Meta.QueryCounts)
	}
}

func TestQueryPostSectionsToExclude(t *testing.T) {
	s := newTestServer(t)
	rec := postQuery(t, s, "/v1/linkrecommendations/wikipedia/simple/Cat",
		`{"wikitext":"Intro.\n== Refs ==\n anchor1 here","pageid":1,"revid":1,"sections_to_exclude":["Refs"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp linker.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Links) != 0 {
		t.Errorf("expected no links, got %+v", resp.Links)
	}
}

func TestQueryPostThreshold(t *testing.T) {
	s := newTestServer(t)
	rec := postQuery(t, s, "/v1/linkrecommendations/wikipedia/simple/Cat",
		`{"wikitext":"Lorem anchor1 ipsum","pageid":1,"revid":1,"threshold":0.95}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp linker.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Links) != 0 {
		t.Errorf("expected rejection above mock score, got %+v", resp.Links)
	}
}

func TestQueryPostZeroMaxRecommendations(t *testing.T) {
	s := newTestServer(t)
	rec := postQuery(t, s, "/v1/linkrecommendations/wikipedia/simple/Cat",
		`{"wikitext":"Lorem anchor1 ipsum","pageid":1,"revid":1,"max_recommendations":0}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp linker.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Links) != 0 || resp.LinksCount != 0 {
		t.Errorf("expected no links for a zero cap, got %+v", resp.Links)
	}
}

func TestQueryMethodNotAllowed(t *testing.T) {
	s := newTestServer(t)
	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/v1/linkrecommendations/wikipedia/simple/Cat",
			strings.NewReader(`{"wikitext":"x"}`))
		rec := httptest.NewRecorder()
		s.Router().ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("%s status = %d, want 405", method, rec.Code)
		}
	}
}

func TestQueryUnknownWiki(t *testing.T) {
	s := newTestServer(t)
	rec := postQuery(t, s, "/v1/linkrecommendations/wikipedia/foo/Bar",
		`{"wikitext":"x","pageid":1,"revid":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Message string   `json:"message"`
		Valid   []string `json:"valid_project_domain_pairs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.Message, "wikipedia/foo") {
		t.Errorf("message = %q", body.Message)
	}
	if len(body.Valid) != 1 || body.Valid[0] != "simplewiki" {
		t.Errorf("valid pairs = %v", body.Valid)
	}
}

func TestQueryPostInvalidBody(t *testing.T) {
	s := newTestServer(t)
	rec := postQuery(t, s, "/v1/linkrecommendations/wikipedia/simple/Cat", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestQueryGetFetchesArticle(t *testing.T) {
	mw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("titles"); got != "Cat" {
			t.Errorf("titles = %q", got)
		}
		w.Write([]byte(`{"query":{"pages":[{"pageid":7,"revisions":[{"revid":9,"slots":{"main":{"content":"Lorem ipsum anchor1 dolor"}}}]}]}}`))
	}))
	defer mw.Close()

	s := newTestServer(t)
	s.cfg.MediaWiki.APIBaseURL = mw.URL + "/"

	req := httptest.NewRequest(http.MethodGet, "/v1/linkrecommendations/wikipedia/simple/Cat", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp linker.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PageID != 7 || resp.RevID != 9 {
		t.Errorf("identifiers = %+v", resp)
	}
	if len(resp.Links) != 1 {
		t.Errorf("links = %+v", resp.Links)
	}
}

func TestQueryGetPageNotFound(t *testing.T) {
	mw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[{"missing":true}]}}`))
	}))
	defer mw.Close()

	s := newTestServer(t)
	s.cfg.MediaWiki.APIBaseURL = mw.URL + "/"

	req := httptest.NewRequest(http.MethodGet, "/v1/linkrecommendations/wikipedia/simple/Missingpage", nil)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestQueryTitleWithSlash(t *testing.T) {
	s := newTestServer(t)
	rec := postQuery(t, s, "/v1/linkrecommendations/wikipedia/simple/AC%2FDC",
		`{"wikitext":"Lorem ipsum anchor1 dolor","pageid":1,"revid":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp linker.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PageTitle != "AC/DC" {
		t.Errorf("page_title = %q", resp.PageTitle)
	}
}
