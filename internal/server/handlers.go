package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/wikimedia/research-mwaddlink/internal/dataset"
	"github.com/wikimedia/research-mwaddlink/internal/linker"
	"github.com/wikimedia/research-mwaddlink/internal/mwapi"
)

// queryInput is the POST body: callers supply the article themselves instead
// of having the service fetch it from the wiki.
type queryInput struct {
	Wikitext           string   `json:"wikitext"`
	PageID             int64    `json:"pageid"`
	RevID              int64    `json:"revid"`
	Threshold          *float64 `json:"threshold,omitempty"`
	MaxRecommendations *int     `json:"max_recommendations,omitempty"`
	SectionsToExclude  []string `json:"sections_to_exclude,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")
	domain := chi.URLParam(r, "domain")
	pageTitle := chi.URLParam(r, "*")
	if unescaped, err := url.PathUnescape(pageTitle); err == nil {
		pageTitle = unescaped
	}

	wikiID := mwapi.WikiID(project, domain)
	loader := dataset.NewLoader(s.cfg.Datasets.Backend, s.cfg.Datasets.DataDir, wikiID, s.db, s.logger)
	defer loader.Close()

	modelPath, err := loader.ModelPath()
	if err != nil {
		var unavailable *dataset.ErrModelUnavailable
		if errors.As(err, &unavailable) {
			s.logger.Warn("no model for wiki", zap.String("wiki_id", wikiID))
			s.respondJSON(w, http.StatusBadRequest, map[string]interface{}{
				"message":                    "Unable to process request for " + project + "/" + domain,
				"valid_project_domain_pairs": unavailable.Valid,
			})
			return
		}
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	input, status, err := s.articleInput(r, pageTitle, project, domain)
	if err != nil {
		s.logger.Warn("could not resolve article",
			zap.String("page_title", pageTitle), zap.Error(err))
		s.respondError(w, status, err.Error())
		return
	}

	req := s.linkerRequest(r, input, pageTitle, domain)

	stores := make(map[string]dataset.Store, 4)
	for _, name := range []string{
		dataset.DatasetAnchors, dataset.DatasetPageIDs,
		dataset.DatasetRedirects, dataset.DatasetEmbeddings,
	} {
		store, err := loader.Open(name)
		if err != nil {
			s.logger.Error("opening dataset failed",
				zap.String("wiki_id", wikiID), zap.String("dataset", name), zap.Error(err))
			s.respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
		stores[name] = store
	}

	model, err := s.loadModel(modelPath)
	if err != nil {
		s.logger.Error("loading model failed", zap.String("path", modelPath), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	lk := linker.New(
		stores[dataset.DatasetAnchors],
		stores[dataset.DatasetPageIDs],
		stores[dataset.DatasetRedirects],
		stores[dataset.DatasetEmbeddings],
		model, s.logger)
	resp, err := lk.Run(r.Context(), req)
	if err != nil {
		var offsetErr *linker.MentionOffsetError
		if errors.As(err, &offsetErr) {
			s.logger.Warn("mention could not be located",
				zap.String("wiki_id", wikiID), zap.String("page_title", pageTitle), zap.Error(err))
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("recommendation run failed",
			zap.String("wiki_id", wikiID), zap.String("page_title", pageTitle), zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp.Meta.ApplicationVersion = s.version
	resp.Meta.DatasetChecksums = loader.Checksums(r.Context())
	resp.Meta.QueryCounts = loader.QueryCounts()
	s.respondJSON(w, http.StatusOK, resp)
}

// articleInput resolves the article to process: the POST body when one was
// sent, otherwise a fetch from the wiki. The int return is the HTTP status
// for the error.
func (s *Server) articleInput(r *http.Request, pageTitle, project, domain string) (*queryInput, int, error) {
	if r.Method == http.MethodPost {
		var input queryInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			return nil, http.StatusBadRequest, errors.New("invalid request body")
		}
		if input.Wikitext == "" {
			return nil, http.StatusBadRequest, errors.New("wikitext is required")
		}
		return &input, 0, nil
	}

	revision, _ := strconv.ParseInt(r.URL.Query().Get("revision"), 10, 64)
	client := mwapi.NewClient(mwapi.Options{
		Domain:       domain,
		Project:      project,
		BaseURL:      s.cfg.MediaWiki.APIBaseURL,
		ProxyBaseURL: s.cfg.MediaWiki.ProxyAPIBaseURL,
		Logger:       s.logger,
	})
	article, err := client.GetArticle(r.Context(), pageTitle, revision)
	if errors.Is(err, mwapi.ErrPageNotFound) {
		return nil, http.StatusNotFound, errors.New("Page not found: " + pageTitle)
	}
	if err != nil {
		return nil, http.StatusInternalServerError, err
	}
	return &queryInput{
		Wikitext: article.Wikitext,
		PageID:   article.PageID,
		RevID:    article.RevID,
	}, 0, nil
}

// linkerRequest merges body values with query string fallbacks and the
// configured defaults.
func (s *Server) linkerRequest(r *http.Request, input *queryInput, pageTitle, domain string) *linker.Request {
	q := r.URL.Query()

	threshold := s.cfg.Linker.Threshold
	if input.Threshold != nil {
		threshold = *input.Threshold
	} else if v, err := strconv.ParseFloat(q.Get("threshold"), 64); err == nil {
		threshold = v
	}

	maxRec := s.cfg.Linker.MaxRecommendations
	if input.MaxRecommendations != nil {
		maxRec = *input.MaxRecommendations
	} else if v, err := strconv.Atoi(q.Get("max_recommendations")); err == nil {
		maxRec = v
	}

	sections := input.SectionsToExclude
	if sections == nil {
		sections = q["sections_to_exclude"]
	}
	if len(sections) > s.cfg.Linker.MaxSectionsToExclude {
		sections = sections[:s.cfg.Linker.MaxSectionsToExclude]
	}

	return &linker.Request{
		Wikitext:           input.Wikitext,
		PageTitle:          pageTitle,
		PageID:             input.PageID,
		RevID:              input.RevID,
		LanguageCode:       mwapi.LanguageCode(domain),
		Threshold:          threshold,
		MaxRecommendations: &maxRec,
		SectionsToExclude:  sections,
		ContextChars:       s.cfg.Linker.ContextChars,
		TimeBudget:         time.Duration(s.cfg.Linker.TimeBudgetSeconds) * time.Second,
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"message": message})
}
