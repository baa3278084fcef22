package wikitext

import "strings"

// LeadSectionName is the sentinel used to address the untitled leading
// section in section exclusion lists.
const LeadSectionName = "%LEAD%"

// Section is a heading (absent for the lead) followed by its body nodes.
// The split is flat: every heading of any level starts a new section, so
// excluding a section never swallows its subsections.
type Section struct {
	Name  string
	Nodes []Node
}

// Sections groups the document's top-level nodes into flat sections.
// A lead section is present only when nodes precede the first heading.
func (d *Document) Sections() []Section {
	var sections []Section
	current := Section{Name: LeadSectionName}
	for _, n := range d.nodes {
		if h, ok := n.(*HeadingNode); ok {
			if len(current.Nodes) > 0 {
				sections = append(sections, current)
			}
			current = Section{Name: strings.TrimSpace(h.Title)}
		}
		current.Nodes = append(current.Nodes, n)
	}
	if len(current.Nodes) > 0 {
		sections = append(sections, current)
	}
	return sections
}
