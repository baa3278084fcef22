package mwapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetArticle(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"query":{"pages":[{"pageid":2815,"revisions":[{"revid":8137430,"slots":{"main":{"content":"Cats are animals."}}}]}]}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Domain: "simple", Project: "wikipedia", BaseURL: srv.URL + "/w/"})
	// The test server serves /w/api.php regardless of path.
	c.baseURL = srv.URL + "/"

	art, err := c.GetArticle(context.Background(), "Cat", 0)
	if err != nil {
		t.Fatal(err)
	}
	if art.PageID != 2815 || art.RevID != 8137430 || art.Wikitext != "Cats are animals." {
		t.Errorf("unexpected article: %+v", art)
	}
	if gotQuery["titles"] != "Cat" || gotQuery["rvlimit"] != "1" {
		t.Errorf("unexpected query params: %v", gotQuery)
	}
	if gotQuery["formatversion"] != "2" {
		t.Errorf("formatversion = %q", gotQuery["formatversion"])
	}
}

func TestGetArticleByRevision(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("revids") != "42" {
			t.Errorf("revids = %q", r.URL.Query().Get("revids"))
		}
		if r.URL.Query().Get("titles") != "" {
			t.Error("titles must not be set for revision fetches")
		}
		w.Write([]byte(`{"query":{"pages":[{"pageid":1,"revisions":[{"revid":42,"slots":{"main":{"content":"x"}}}]}]}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Domain: "en", Project: "wikipedia"})
	c.baseURL = srv.URL + "/"
	if _, err := c.GetArticle(context.Background(), "Ignored", 42); err != nil {
		t.Fatal(err)
	}
}

func TestGetArticleNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"query":{"pages":[{"pageid":0,"missing":true}]}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Domain: "en", Project: "wikipedia"})
	c.baseURL = srv.URL + "/"
	_, err := c.GetArticle(context.Background(), "Missing", 0)
	if !errors.Is(err, ErrPageNotFound) {
		t.Fatalf("got %v, want ErrPageNotFound", err)
	}
}

func TestProxyHostHeader(t *testing.T) {
	var gotHost string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		w.Write([]byte(`{"query":{"pages":[{"pageid":1,"revisions":[{"revid":1,"slots":{"main":{"content":"x"}}}]}]}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{Domain: "cs", Project: "wikipedia", ProxyBaseURL: srv.URL + "/"})
	if _, err := c.GetArticle(context.Background(), "Kočka", 0); err != nil {
		t.Fatal(err)
	}
	if gotHost != "cs.wikipedia.org" {
		t.Errorf("host header = %q", gotHost)
	}
}

func TestWikiID(t *testing.T) {
	cases := []struct{ project, domain, want string }{
		{"wikipedia", "cs", "cswiki"},
		{"wikipedia", "bat_smg", "bat-smgwiki"},
		{"wiktionary", "en", "enwiktionary"},
	}
	for _, tc := range cases {
		if got := WikiID(tc.project, tc.domain); got != tc.want {
			t.Errorf("WikiID(%q, %q) = %q, want %q", tc.project, tc.domain, got, tc.want)
		}
	}
}

func TestWikiURL(t *testing.T) {
	if got := WikiURL("bat_smg", "wikipedia"); got != "https://bat-smg.wikipedia.org/w/" {
		t.Errorf("got %q", got)
	}
}

func TestLanguageCode(t *testing.T) {
	cases := []struct{ domain, want string }{
		{"bat-smg", "sgs"},
		{"bat_smg", "sgs"},
		{"cs", "cs"},
		{"simple", "en"},
	}
	for _, tc := range cases {
		if got := LanguageCode(tc.domain); got != tc.want {
			t.Errorf("LanguageCode(%q) = %q, want %q", tc.domain, got, tc.want)
		}
	}
}
