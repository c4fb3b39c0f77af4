// Package nav assembles the navigation tree returned alongside generated
// pages. Items mirror the outline shape and inline matched page content.
// The tree is built without parent back-pointers; StripBackrefs exists for
// structures that arrive from outside this process.
package nav

import (
	"git.home.luguber.info/inful/repowiki/internal/generate"
	"git.home.luguber.info/inful/repowiki/internal/outline"
)

// Item is one navigation node. Content is the matched page's markdown and
// serializes as null when no page matched.
type Item struct {
	Title      string  `json:"title"`
	Path       string  `json:"path"`
	HasContent bool    `json:"hasContent"`
	Content    *string `json:"content"`
	Children   []*Item `json:"children,omitempty"`
}

// Build assembles the navigation tree for an outline, matching pages by
// breadcrumb equality first and (section, subsection) equality second, so
// both outline shapes resolve. Nodes without a matching page keep
// HasContent false and a null content.
func Build(o *outline.Outline, pages []generate.Page) []*Item {
	idx := indexPages(pages)

	var roots []*Item
	// Visit yields parents before children, so the ancestor chain of the
	// current entry is exactly stack[:depth].
	var stack []*Item
	o.Visit(func(e outline.Entry) {
		item := &Item{Title: e.Title, Path: e.Path}
		if p, ok := idx.match(e); ok {
			item.HasContent = true
			content := p.Content
			item.Content = &content
		}
		stack = stack[:e.Depth]
		if e.Depth == 0 {
			roots = append(roots, item)
		} else {
			parent := stack[e.Depth-1]
			parent.Children = append(parent.Children, item)
		}
		stack = append(stack, item)
	})
	return roots
}

type pageIndex struct {
	byBreadcrumb map[string]generate.Page
	byPair       map[[2]string]generate.Page
}

func indexPages(pages []generate.Page) *pageIndex {
	idx := &pageIndex{
		byBreadcrumb: make(map[string]generate.Page, len(pages)),
		byPair:       make(map[[2]string]generate.Page, len(pages)),
	}
	for _, p := range pages {
		if p.Breadcrumb != "" {
			idx.byBreadcrumb[p.Breadcrumb] = p
		}
		idx.byPair[[2]string{p.Section, p.Subsection}] = p
	}
	return idx
}

func (idx *pageIndex) match(e outline.Entry) (generate.Page, bool) {
	if p, ok := idx.byBreadcrumb[e.Breadcrumb]; ok {
		return p, true
	}
	if p, ok := idx.byPair[[2]string{e.Section, e.Subsection}]; ok {
		return p, true
	}
	return generate.Page{}, false
}

// StripBackrefs removes "parent" and "root" keys recursively from a decoded
// JSON value, in place for maps and slices, and returns the value. Back-ref
// keys are deleted before descending, so a cycle through them cannot recurse.
func StripBackrefs(v any) any {
	switch t := v.(type) {
	case map[string]any:
		delete(t, "parent")
		delete(t, "root")
		for k, child := range t {
			t[k] = StripBackrefs(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = StripBackrefs(child)
		}
		return t
	default:
		return v
	}
}
