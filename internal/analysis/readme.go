package analysis

import (
	"strings"

	"golang.org/x/net/html"

	"git.home.luguber.info/inful/repowiki/internal/markdown"
)

// excerptLimit bounds the readme text carried into prompts.
const excerptLimit = 1200

// maxDocLinks bounds the relative-link hints carried into prompts.
const maxDocLinks = 10

// readmeText flattens a README to plain text. Goldmark drops raw HTML
// wholesale, which erases hero-block READMEs almost entirely; when that
// happens the text is recovered from the markup instead.
func readmeText(readme string) string {
	if readme == "" {
		return ""
	}
	text := markdown.PlainText([]byte(readme))
	if len(text) < len(readme)/4 && looksLikeHTML(readme) {
		if recovered := htmlText(readme); len(recovered) > len(text) {
			text = recovered
		}
	}
	return text
}

func looksLikeHTML(s string) bool {
	return strings.Contains(s, "</") || strings.Contains(s, "/>")
}

// htmlText extracts the visible text of an HTML fragment, skipping script
// and style elements.
func htmlText(fragment string) string {
	doc, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// excerpt trims text to the prompt budget, cutting at a word boundary.
func excerpt(text string) string {
	if len(text) <= excerptLimit {
		return text
	}
	cut := text[:excerptLimit]
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return cut + "..."
}

// docLinks lists relative documentation links from the README, hinting at
// where the interesting pages live.
func docLinks(readme string) []string {
	if readme == "" {
		return nil
	}
	links := markdown.RelativeDocLinks([]byte(readme))
	if len(links) > maxDocLinks {
		links = links[:maxDocLinks]
	}
	return links
}
