// Package mwapi is a minimal MediaWiki Action API client: it fetches the
// wikitext, page ID and revision ID of an article.
package mwapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const userAgent = "linkrecommendation"

// ErrPageNotFound is returned when the wiki has no article for the title or
// revision.
var ErrPageNotFound = errors.New("page not found")

// Article is the raw material for a recommendation run.
type Article struct {
	Wikitext string
	PageID   int64
	RevID    int64
}

// Client queries one wiki's api.php. When ProxyBaseURL is set, requests go
// to the proxy with the wiki's canonical hostname in the Host header, which
// is how the service reaches MediaWiki inside production clusters.
type Client struct {
	httpClient *http.Client
	baseURL    string
	proxied    bool
	host       string
	logger     *zap.Logger
}

// Options configures a Client. BaseURL and ProxyBaseURL both point at a "/w/"
// script path; when neither is set the public wiki URL is derived from the
// domain and project.
type Options struct {
	Domain       string
	Project      string
	BaseURL      string
	ProxyBaseURL string
	HTTPClient   *http.Client
	Logger       *zap.Logger
}

func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		httpClient: httpClient,
		host:       fmt.Sprintf("%s.%s.org", opts.Domain, opts.Project),
		logger:     logger,
	}
	switch {
	case opts.ProxyBaseURL != "":
		c.baseURL = opts.ProxyBaseURL
		c.proxied = true
	case opts.BaseURL != "":
		c.baseURL = opts.BaseURL
	default:
		c.baseURL = WikiURL(opts.Domain, opts.Project)
	}
	return c
}

// GetArticle fetches the wikitext and identifiers of a page. Revision 0
// means the latest revision.
func (c *Client) GetArticle(ctx context.Context, title string, revision int64) (*Article, error) {
	params := url.Values{
		"action":        {"query"},
		"prop":          {"revisions"},
		"rvprop":        {"content|ids"},
		"rvslots":       {"main"},
		"format":        {"json"},
		"formatversion": {"2"},
	}
	if revision > 0 {
		params.Set("revids", strconv.FormatInt(revision, 10))
	} else {
		params.Set("titles", title)
		params.Set("rvlimit", "1")
	}

	reqURL := c.baseURL + "api.php?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	if c.proxied {
		req.Host = c.host
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("mediawiki api: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mediawiki api: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Query struct {
			Pages []struct {
				PageID    int64 `json:"pageid"`
				Missing   bool  `json:"missing"`
				Revisions []struct {
					RevID int64 `json:"revid"`
					Slots struct {
						Main struct {
							Content string `json:"content"`
						} `json:"main"`
					} `json:"slots"`
				} `json:"revisions"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("mediawiki api: decode: %w", err)
	}
	if len(payload.Query.Pages) == 0 {
		return nil, ErrPageNotFound
	}
	page := payload.Query.Pages[0]
	if page.Missing || len(page.Revisions) == 0 {
		return nil, ErrPageNotFound
	}
	rev := page.Revisions[0]
	c.logger.Debug("article fetched",
		zap.String("title", title),
		zap.Int64("pageid", page.PageID),
		zap.Int64("revid", rev.RevID))
	return &Article{
		Wikitext: rev.Slots.Main.Content,
		PageID:   page.PageID,
		RevID:    rev.RevID,
	}, nil
}
