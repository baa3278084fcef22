// Package linker implements the link recommendation engine: it scans an
// article's plain text for mention candidates, scores candidate targets with
// the per-wiki model, and splices accepted links back into the wikitext.
package linker

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wikimedia/research-mwaddlink/internal/classifier"
	"github.com/wikimedia/research-mwaddlink/internal/dataset"
	"github.com/wikimedia/research-mwaddlink/internal/tokenizer"
	"github.com/wikimedia/research-mwaddlink/internal/wikitext"
)

const (
	// Mentions are n-grams of up to this many tokens.
	maxGramLength = 5
	minGramLength = 1

	// DefaultThreshold is the minimum model probability for a link to be
	// recommended.
	DefaultThreshold = 0.5
	// DefaultMaxRecommendations caps how many links one run may produce.
	DefaultMaxRecommendations = 15
	// DefaultContextChars is the width of the context windows returned with
	// each link, in runes.
	DefaultContextChars = 10

	// DefaultTimeBudget bounds one run's wall time. A buffer is subtracted
	// so the caller can still serialize and ship a partial result.
	DefaultTimeBudget = 30 * time.Second
	timeBudgetBuffer  = time.Second
)

// Request describes one page to process. Zero values for the tunables mean
// the defaults above. MaxRecommendations is a pointer so that an explicit 0
// (no recommendations at all) stays distinct from unset: nil means the
// default, a negative value means unlimited.
type Request struct {
	Wikitext  string
	PageTitle string
	PageID    int64
	RevID     int64

	LanguageCode       string
	Threshold          float64
	MaxRecommendations *int
	SectionsToExclude  []string
	ContextChars       int
	TimeBudget         time.Duration

	// TagProbabilities annotates each inserted link with its model score.
	TagProbabilities bool
	// ReturnWikitext includes the modified article text in the response.
	ReturnWikitext bool
}

func (req *Request) applyDefaults() {
	if req.Threshold == 0 {
		req.Threshold = DefaultThreshold
	}
	if req.MaxRecommendations == nil {
		def := DefaultMaxRecommendations
		req.MaxRecommendations = &def
	}
	if req.ContextChars == 0 {
		req.ContextChars = DefaultContextChars
	}
	if req.TimeBudget == 0 {
		req.TimeBudget = DefaultTimeBudget
	}
}

// Linker binds the per-wiki datasets and model into a reusable engine. It is
// safe for concurrent use; all per-request state lives in the run.
type Linker struct {
	anchors    dataset.Store
	pageids    dataset.Store
	redirects  dataset.Store
	embeddings dataset.Store
	model      classifier.Classifier
	logger     *zap.Logger
}

func New(anchors, pageids, redirects, embeddings dataset.Store, model classifier.Classifier, logger *zap.Logger) *Linker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Linker{
		anchors:    anchors,
		pageids:    pageids,
		redirects:  redirects,
		embeddings: embeddings,
		model:      model,
		logger:     logger,
	}
}

// stop reports why the traversal ended early.
type stop int

const (
	stopNone stop = iota
	stopCap
	stopTime
)

// run is the per-request state of one traversal.
type run struct {
	l   *Linker
	ctx context.Context
	req *Request

	// folder produces mention keys: the locale-independent fold that the
	// dataset pipeline applies when building the anchor dictionaries.
	folder cases.Caser
	// caser is the wiki-locale fold used to re-locate mentions in the
	// article text.
	caser cases.Caser

	doc       *wikitext.Document
	origRunes []rune
	// rune offset of each text node's start within the original document
	nodeRuneStart map[*wikitext.TextNode]int
	textNodes     []*wikitext.TextNode

	linkedMentions map[string]bool
	linkedTargets  map[string]bool
	tested         map[string]bool

	pageEmb  []float32
	deadline time.Time

	links []Link
	info  string
}

// Run scans one page and returns its recommendations. The request is
// mutated to carry resolved defaults and the normalized title.
func (l *Linker) Run(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	req.applyDefaults()
	req.PageTitle = wikitext.NormalizeTitle(req.PageTitle)

	r := &run{
		l:              l,
		ctx:            ctx,
		req:            req,
		folder:         cases.Lower(language.Und),
		caser:          cases.Lower(language.Make(req.LanguageCode)),
		doc:            wikitext.Parse(req.Wikitext),
		linkedMentions: map[string]bool{wikitext.NormalizeAnchor(req.PageTitle): true},
		linkedTargets:  map[string]bool{req.PageTitle: true},
		tested:         map[string]bool{},
		deadline:       start.Add(req.TimeBudget - timeBudgetBuffer),
	}
	r.origRunes = []rune(r.doc.Source())
	r.textNodes = r.doc.TextNodes()
	r.nodeRuneStart = make(map[*wikitext.TextNode]int, len(r.textNodes))
	for _, n := range r.textNodes {
		r.nodeRuneStart[n] = utf8.RuneCountInString(r.doc.Source()[:n.Span().Start])
	}

	if err := r.seedExistingLinks(); err != nil {
		return nil, err
	}
	emb, _, err := dataset.Embedding(ctx, l.embeddings, req.PageTitle)
	if err != nil {
		return nil, err
	}
	r.pageEmb = emb

	if err := r.traverse(); err != nil {
		return nil, err
	}

	resp := &Response{
		PageTitle:  req.PageTitle,
		PageID:     req.PageID,
		RevID:      req.RevID,
		LinksCount: len(r.links),
		Links:      r.links,
		Meta: Meta{
			FormatVersion: 1,
			TimeMillis:    time.Since(start).Milliseconds(),
			Info:          r.info,
		},
	}
	if resp.Links == nil {
		resp.Links = []Link{}
	}
	if req.ReturnWikitext {
		resp.Wikitext = r.doc.String()
	}
	l.logger.Debug("page processed",
		zap.String("page", req.PageTitle),
		zap.Int("links", len(r.links)),
		zap.Duration("elapsed", time.Since(start)))
	return resp, nil
}

// seedExistingLinks registers the anchors and targets of links already in
// the article so they are never recommended again. Targets are resolved
// through redirects and must be known pages to count.
func (r *run) seedExistingLinks() error {
	for _, wl := range wikitext.ExtractWikilinks(r.doc.Source()) {
		target, err := dataset.Redirect(r.ctx, r.l.redirects, wl.Target)
		if err != nil {
			return err
		}
		_, known, err := dataset.PageID(r.ctx, r.l.pageids, target)
		if err != nil {
			return err
		}
		if !known {
			continue
		}
		r.linkedMentions[wl.Anchor] = true
		r.linkedTargets[target] = true
	}
	return nil
}

func (r *run) traverse() error {
	for _, section := range r.doc.Sections() {
		if r.sectionExcluded(section.Name) {
			continue
		}
		for _, node := range section.Nodes {
			text, ok := node.(*wikitext.TextNode)
			if !ok {
				continue
			}
			st, err := r.processNode(text)
			if err != nil {
				return err
			}
			if st != stopNone {
				return nil
			}
		}
	}
	return nil
}

func (r *run) sectionExcluded(name string) bool {
	if name == wikitext.LeadSectionName {
		for _, s := range r.req.SectionsToExclude {
			if s == wikitext.LeadSectionName {
				return true
			}
		}
		return false
	}
	for _, s := range r.req.SectionsToExclude {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// processNode generates the node's mention candidates, prefetches their
// anchor entries, and attempts one insertion per accepted mention.
func (r *run) processNode(node *wikitext.TextNode) (stop, error) {
	if r.capReached() {
		r.noteStop(stopCap)
		return stopCap, nil
	}
	mentions, surfaces, st := r.collectMentions(node.Value)
	if st != stopNone {
		r.noteStop(st)
		return st, nil
	}
	if len(mentions) == 0 {
		return stopNone, nil
	}

	candidates, err := r.fetchCandidates(mentions)
	if err != nil {
		return stopNone, err
	}

	for _, mention := range mentions {
		if time.Now().After(r.deadline) {
			r.noteStop(stopTime)
			return stopTime, nil
		}
		cm, ok := candidates[mention]
		if !ok || len(cm) == 0 {
			r.tested[mention] = true
			continue
		}
		if r.tested[mention] || r.overlapsLinkedMention(mention) {
			r.tested[mention] = true
			continue
		}
		if r.hasLinkedTarget(cm) {
			r.tested[mention] = true
			continue
		}

		target, prob, accepted, err := r.classify(mention, cm)
		if err != nil {
			return stopNone, err
		}
		r.tested[mention] = true
		if !accepted {
			continue
		}

		surface := surfaces[mention]
		newValue, found := substituteMention(node.Value, surface, target, prob, r.req.TagProbabilities)
		r.linkedMentions[mention] = true
		r.linkedTargets[target] = true
		if !found {
			continue
		}
		node.Value = newValue

		link, err := r.buildLink(node, mention, surface, target, prob)
		if err != nil {
			return stopNone, err
		}
		r.links = append(r.links, link)
		if r.capReached() {
			r.noteStop(stopCap)
			return stopCap, nil
		}
	}
	return stopNone, nil
}

// collectMentions walks the node's n-grams in scan order and returns the
// distinct lowercased mentions plus the surface form each was last seen as.
// The deadline is polled per mention.
func (r *run) collectMentions(text string) (order []string, surfaces map[string]string, st stop) {
	surfaces = make(map[string]string)
	it := tokenizer.NewMentionIterator(text, maxGramLength, minGramLength)
	for {
		gram, ok := it.Next()
		if !ok {
			return order, surfaces, stopNone
		}
		if time.Now().After(r.deadline) {
			return order, surfaces, stopTime
		}
		mention := r.folder.String(gram)
		if _, seen := surfaces[mention]; !seen {
			order = append(order, mention)
		}
		surfaces[mention] = gram
	}
}

// fetchCandidates resolves anchor entries for the mentions, batched when the
// store supports it.
func (r *run) fetchCandidates(mentions []string) (map[string]dataset.CandidateMap, error) {
	if f, ok := r.l.anchors.(dataset.CandidateFilterer); ok {
		return f.FilterCandidates(r.ctx, mentions)
	}
	out := make(map[string]dataset.CandidateMap)
	for _, m := range mentions {
		cm, ok, err := dataset.Candidates(r.ctx, r.l.anchors, m)
		if err != nil {
			return nil, err
		}
		if ok {
			out[m] = cm
		}
	}
	return out, nil
}

// overlapsLinkedMention reports whether mention is a substring of, or
// contains, the surface of any link already present or inserted.
func (r *run) overlapsLinkedMention(mention string) bool {
	for linked := range r.linkedMentions {
		if strings.Contains(linked, mention) || strings.Contains(mention, linked) {
			return true
		}
	}
	return false
}

// capReached reports whether the recommendation cap forbids producing any
// further links. A negative cap means unlimited.
func (r *run) capReached() bool {
	max := *r.req.MaxRecommendations
	return max >= 0 && len(r.links) >= max
}

func (r *run) hasLinkedTarget(cm dataset.CandidateMap) bool {
	for target := range cm {
		if r.linkedTargets[target] {
			return true
		}
	}
	return false
}

func (r *run) noteStop(st stop) {
	switch st {
	case stopCap:
		r.info = "stopped early: maximum number of recommendations reached"
		r.l.logger.Debug("recommendation cap reached",
			zap.String("page", r.req.PageTitle),
			zap.Int("max", *r.req.MaxRecommendations))
	case stopTime:
		r.info = "stopped early: processing time budget exhausted"
		r.l.logger.Warn("time budget exhausted",
			zap.String("page", r.req.PageTitle),
			zap.Duration("budget", r.req.TimeBudget))
	}
}
