package linker

// Link is a single recommendation. Offsets are rune offsets into the
// original wikitext; contexts are windows of the original wikitext around
// the mention.
type Link struct {
	LinkText       string  `json:"link_text"`
	WikitextOffset int     `json:"wikitext_offset"`
	ContextBefore  string  `json:"context_before"`
	ContextAfter   string  `json:"context_after"`
	LinkTarget     string  `json:"link_target"`
	MatchIndex     int     `json:"match_index"`
	Score          float64 `json:"score"`
	LinkIndex      int     `json:"link_index"`
}

// Meta describes how a response was produced. FormatVersion and timing are
// set by the linker; checksums, query counts and the application version are
// filled in by the caller, which owns the dataset handles.
type Meta struct {
	FormatVersion      int               `json:"format_version"`
	ApplicationVersion string            `json:"application_version,omitempty"`
	DatasetChecksums   map[string]string `json:"dataset_checksums,omitempty"`
	QueryCounts        map[string]int64  `json:"query_counts,omitempty"`
	TimeMillis         int64             `json:"time_ms"`
	Info               string            `json:"info,omitempty"`
}

// Response is the result of a single page run.
type Response struct {
	PageTitle  string `json:"page_title"`
	PageID     int64  `json:"pageid"`
	RevID      int64  `json:"revid"`
	LinksCount int    `json:"links_count"`
	Meta       Meta   `json:"meta"`
	Links      []Link `json:"links"`

	// Wikitext holds the article text with the recommended links spliced
	// in. Only populated when the request asks for it.
	Wikitext string `json:"wikitext,omitempty"`
}
