// Package e2e exercises the full recommendation engine over a generated
// article corpus with its own anchor dictionaries.
package e2e

import (
	"fmt"
	"strings"

	"github.com/wikimedia/research-mwaddlink/internal/dataset"
)

// CorpusArticle is one article in the generated corpus along with the link
// targets a run over it must recommend.
type CorpusArticle struct {
	Title           string
	Wikitext        string
	ExpectedTargets []string
}

// Corpus bundles generated articles with the dictionaries they draw on. The
// dictionaries are corpus-wide: every article is served by the same stores,
// the way one wiki's datasets serve every page of that wiki.
type Corpus struct {
	Articles  []CorpusArticle
	Anchors   map[string]dataset.CandidateMap
	PageIDs   map[string]int64
	Redirects map[string]string
}

type corpusTopic struct {
	anchor string
	target string
	freq   int
}

var corpusTopics = []corpusTopic{
	{"solar energy", "Solar energy", 120},
	{"wind turbine", "Wind turbine", 95},
	{"hydroelectric dam", "Hydroelectric dam", 60},
	{"nuclear reactor", "Nuclear reactor", 80},
	{"carbon dioxide", "Carbon dioxide", 150},
	{"climate model", "Climate model", 40},
	{"ocean current", "Ocean current", 35},
	{"polar vortex", "Polar vortex", 22},
	{"permafrost", "Permafrost", 55},
	{"biodiversity", "Biodiversity", 110},
	{"reforestation", "Reforestation", 30},
	{"electric vehicle", "Electric vehicle", 75},
	{"smart grid", "Smart grid", 28},
	{"battery storage", "Battery storage", 33},
	{"heat pump", "Heat pump", 47},
	{"methane", "Methane", 90},
}

// BuildCorpus returns one article per topic. Each article mentions its own
// topic in the lead and the following topic in a Background section, so every
// run is expected to produce exactly those two links.
func BuildCorpus() *Corpus {
	c := &Corpus{
		Anchors:   make(map[string]dataset.CandidateMap),
		PageIDs:   make(map[string]int64),
		Redirects: make(map[string]string),
	}
	for i, tp := range corpusTopics {
		c.Anchors[tp.anchor] = dataset.CandidateMap{tp.target: tp.freq}
		c.PageIDs[tp.target] = int64(1000 + i)
	}
	// A legacy title that redirects onto a corpus target, for tests that
	// seed the run with an existing link.
	c.Redirects["Renewables glossary"] = "Solar energy"
	c.PageIDs["Renewables glossary"] = 2000

	for i, tp := range corpusTopics {
		second := corpusTopics[(i+1)%len(corpusTopics)]
		var b strings.Builder
		fmt.Fprintf(&b, "The opening paragraph discusses %s in broad terms.\n\n", tp.anchor)
		fmt.Fprintf(&b, "== Background ==\nLater research connected it to %s as well.\n\n", second.anchor)
		b.WriteString("== References ==\nPrimary sources only.\n")
		c.Articles = append(c.Articles, CorpusArticle{
			Title:           fmt.Sprintf("Draft essay %d", i+1),
			Wikitext:        b.String(),
			ExpectedTargets: []string{tp.target, second.target},
		})
	}
	return c
}

// BuildStores loads the corpus dictionaries into in-memory dataset stores in
// the order the engine expects them: anchors, pageids, redirects, embeddings.
func (c *Corpus) BuildStores() (anchors, pageids, redirects, embeddings *dataset.MemoryStore, err error) {
	anchors = dataset.NewMemoryStore(dataset.DatasetAnchors)
	pageids = dataset.NewMemoryStore(dataset.DatasetPageIDs)
	redirects = dataset.NewMemoryStore(dataset.DatasetRedirects)
	embeddings = dataset.NewMemoryStore(dataset.DatasetEmbeddings)
	for k, v := range c.Anchors {
		if err = anchors.Put(k, v); err != nil {
			return
		}
	}
	for k, v := range c.PageIDs {
		if err = pageids.Put(k, v); err != nil {
			return
		}
	}
	for k, v := range c.Redirects {
		if err = redirects.Put(k, v); err != nil {
			return
		}
	}
	return
}
