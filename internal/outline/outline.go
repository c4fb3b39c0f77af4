package outline

import (
	"bytes"
	"encoding/json"
	"strings"

	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

// Node is one entry in the nested outline shape. Children keep display
// order; the tree is acyclic and of unbounded depth.
type Node struct {
	Title    string  `json:"title"`
	Children []*Node `json:"children,omitempty"`
}

// Section is one top-level entry in the flat outline shape.
type Section struct {
	Title       string   `json:"title"`
	Subsections []string `json:"subsections"`
}

// Outline is a documentation structure in whichever shape its producer
// returned. Exactly one of Nodes and Sections is populated; downstream
// stages branch on Flat.
type Outline struct {
	Nodes    []*Node
	Sections []Section
}

// Flat reports whether the outline is in the sections/subsections shape.
func (o *Outline) Flat() bool { return len(o.Sections) > 0 }

// MarshalJSON preserves the producer's shape: the flat form serializes as
// {"sections": [...]}, the nested form as the node list.
func (o *Outline) MarshalJSON() ([]byte, error) {
	if o.Flat() {
		return json.Marshal(struct {
			Sections []Section `json:"sections"`
		}{o.Sections})
	}
	return json.Marshal(o.Nodes)
}

// Entry is one outline position flattened for generation and matching:
// the node title plus the labels pages and navigation key on. Paths are
// assigned during the walk so every consumer sees the same ones.
type Entry struct {
	Title      string
	Section    string // top-level ancestor title; the flat shape's section
	Subsection string // flat shape: subsection title; tree shape: set below the root
	Breadcrumb string // full title chain, " > " separated
	Path       string // slug chain, "/" separated, deduplicated among siblings
	Depth      int
}

// Visit walks the outline depth-first, each entry before its children,
// covering every node in either shape.
func (o *Outline) Visit(fn func(Entry)) {
	if o.Flat() {
		used := map[string]int{}
		for _, s := range o.Sections {
			secPath := uniqueSlug(used, s.Title)
			fn(Entry{Title: s.Title, Section: s.Title, Breadcrumb: s.Title, Path: secPath})
			subUsed := map[string]int{}
			for _, sub := range s.Subsections {
				fn(Entry{
					Title:      sub,
					Section:    s.Title,
					Subsection: sub,
					Breadcrumb: s.Title + " > " + sub,
					Path:       secPath + "/" + uniqueSlug(subUsed, sub),
					Depth:      1,
				})
			}
		}
		return
	}
	used := map[string]int{}
	for _, n := range o.Nodes {
		visitNode(n, n.Title, "", "", used, 0, fn)
	}
}

func visitNode(n *Node, section, parentCrumb, parentPath string, used map[string]int, depth int, fn func(Entry)) {
	crumb := n.Title
	if parentCrumb != "" {
		crumb = parentCrumb + " > " + n.Title
	}
	path := uniqueSlug(used, n.Title)
	if parentPath != "" {
		path = parentPath + "/" + path
	}
	e := Entry{Title: n.Title, Section: section, Breadcrumb: crumb, Path: path, Depth: depth}
	if depth > 0 {
		e.Subsection = n.Title
	}
	fn(e)
	childUsed := map[string]int{}
	for _, c := range n.Children {
		visitNode(c, section, crumb, path, childUsed, depth+1, fn)
	}
}

// CountNodes returns the number of entries Visit will yield.
func (o *Outline) CountNodes() int {
	n := 0
	o.Visit(func(Entry) { n++ })
	return n
}

// Parse reads an outline from producer JSON. Accepted shapes: a node list
// (typically one element carrying children), a single node object, and the
// flat {"sections": [...]} object. Empty titles are dropped; an outline
// with nothing left is an error so callers can fall back.
func Parse(data []byte) (*Outline, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, derrors.NewError(derrors.CategoryOutline, "empty outline payload").Build()
	}

	if trimmed[0] == '[' {
		var nodes []*Node
		if err := json.Unmarshal(trimmed, &nodes); err != nil {
			return nil, derrors.WrapError(err, derrors.CategoryOutline, "malformed outline list").Build()
		}
		return fromNodes(nodes)
	}

	var probe struct {
		Title    string    `json:"title"`
		Children []*Node   `json:"children"`
		Sections []Section `json:"sections"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryOutline, "malformed outline object").Build()
	}
	if len(probe.Sections) > 0 {
		return fromSections(probe.Sections)
	}
	if len(probe.Children) > 0 {
		if title := strings.TrimSpace(probe.Title); title != "" {
			return fromNodes([]*Node{{Title: title, Children: probe.Children}})
		}
		return fromNodes(probe.Children)
	}
	return nil, derrors.NewError(derrors.CategoryOutline, "outline has no sections or children").Build()
}

func fromNodes(nodes []*Node) (*Outline, error) {
	clean := sanitizeNodes(nodes)
	if len(clean) == 0 {
		return nil, derrors.NewError(derrors.CategoryOutline, "outline contains no titled nodes").Build()
	}
	return &Outline{Nodes: clean}, nil
}

func fromSections(sections []Section) (*Outline, error) {
	clean := make([]Section, 0, len(sections))
	for _, s := range sections {
		title := strings.TrimSpace(s.Title)
		if title == "" {
			continue
		}
		subs := make([]string, 0, len(s.Subsections))
		for _, sub := range s.Subsections {
			if sub = strings.TrimSpace(sub); sub != "" {
				subs = append(subs, sub)
			}
		}
		clean = append(clean, Section{Title: title, Subsections: subs})
	}
	if len(clean) == 0 {
		return nil, derrors.NewError(derrors.CategoryOutline, "outline contains no titled sections").Build()
	}
	return &Outline{Sections: clean}, nil
}

func sanitizeNodes(nodes []*Node) []*Node {
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		title := strings.TrimSpace(n.Title)
		if title == "" {
			continue
		}
		out = append(out, &Node{Title: title, Children: sanitizeNodes(n.Children)})
	}
	return out
}

// Default returns the fixed fallback outline: five sections, three
// subsections each. It cannot fail and marshals byte-identically on every
// call.
func Default() *Outline {
	return &Outline{Sections: []Section{
		{Title: "Getting Started", Subsections: []string{"Overview", "Installation", "Quick Start"}},
		{Title: "Architecture", Subsections: []string{"System Design", "Components", "Data Flow"}},
		{Title: "Development", Subsections: []string{"Environment Setup", "Workflow", "Testing"}},
		{Title: "API Reference", Subsections: []string{"Overview", "Endpoints", "Data Models"}},
		{Title: "Contributing", Subsections: []string{"Guidelines", "Pull Requests", "Code Style"}},
	}}
}
