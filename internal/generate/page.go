package generate

import (
	"time"

	"git.home.luguber.info/inful/repowiki/internal/outline"
)

// Page is the generated content for one outline node.
type Page struct {
	Title       string    `json:"title"`
	Section     string    `json:"section"`
	Subsection  string    `json:"subsection,omitempty"`
	Breadcrumb  string    `json:"breadcrumb"`
	Path        string    `json:"path"`
	Content     string    `json:"content"`
	Placeholder bool      `json:"placeholder,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// PlaceholderContent is the substitute body for a node whose generation
// failed. The exact layout is part of the response contract and is stored
// as-is, bypassing markdown normalization.
func PlaceholderContent(title, section string) string {
	return "# " + title + "\n\nContent for " + title + " in " + section + " section."
}

func placeholderPage(e outline.Entry) Page {
	return Page{
		Title:       e.Title,
		Section:     e.Section,
		Subsection:  e.Subsection,
		Breadcrumb:  e.Breadcrumb,
		Path:        e.Path,
		Content:     PlaceholderContent(e.Title, e.Section),
		Placeholder: true,
		GeneratedAt: time.Now().UTC(),
	}
}

// CountPlaceholders reports how many pages carry substitute content.
func CountPlaceholders(pages []Page) int {
	n := 0
	for _, p := range pages {
		if p.Placeholder {
			n++
		}
	}
	return n
}
