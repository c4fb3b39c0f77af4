package markdown

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
)

// Edit represents a targeted byte-range replacement.
//
// Start and End are byte offsets into the original source, with End exclusive.
// Replacement replaces source[Start:End]. Edits keep title rewrites
// minimal-diff: only the heading line changes, never the rest of the page.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies a set of byte-range edits to source and returns the updated content.
//
// Edits must be non-overlapping and refer to offsets in the original source.
// ApplyEdits sorts edits and applies them from the end of the content toward the
// beginning so earlier edits do not invalidate offsets for later edits.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start > sorted[j].Start
	})

	for i, e := range sorted {
		if e.Start < 0 || e.End < 0 {
			return nil, fmt.Errorf("invalid edit[%d]: negative range", i)
		}
		if e.End < e.Start {
			return nil, fmt.Errorf("invalid edit[%d]: end before start", i)
		}
		if e.End > len(source) {
			return nil, fmt.Errorf("invalid edit[%d]: range out of bounds", i)
		}
		if i > 0 {
			prev := sorted[i-1]
			// Sorted by Start descending, so the current edit must end at or
			// before the previous edit's start to avoid overlap.
			if e.End > prev.Start {
				return nil, errors.New("invalid edits: overlapping ranges")
			}
		}
	}

	out := append([]byte(nil), source...)
	for _, e := range sorted {
		prefix := out[:e.Start]
		suffix := out[e.End:]
		next := make([]byte, 0, len(prefix)+len(e.Replacement)+len(suffix))
		next = append(next, prefix...)
		next = append(next, e.Replacement...)
		next = append(next, suffix...)
		out = next
	}

	return out, nil
}

// UnwrapCodeFence removes a code fence wrapping the entire document. Models
// asked for markdown sometimes return it inside a ```markdown fence.
func UnwrapCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return content
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return content
	}
	if strings.TrimSpace(lines[len(lines)-1]) != "```" {
		return content
	}
	info := strings.TrimSpace(strings.TrimPrefix(lines[0], "```"))
	switch strings.ToLower(info) {
	case "", "markdown", "md":
	default:
		return content
	}
	inner := strings.Join(lines[1:len(lines)-1], "\n")
	// A fence inside the body means the opening fence closed early and was
	// not a wrapper at all.
	if strings.Contains(inner, "```") {
		return content
	}
	return strings.TrimSpace(inner) + "\n"
}

// EnsureTitleHeading forces the document's first block to be an H1 with the
// given title, prepending one when the body does not open with a heading.
func EnsureTitleHeading(content, title string) string {
	body := []byte(content)
	root := ParseBody(body)
	h, ok := root.FirstChild().(*gmast.Heading)
	if !ok {
		trimmed := strings.TrimLeft(content, "\n")
		if trimmed == "" {
			return "# " + title + "\n"
		}
		return "# " + title + "\n\n" + trimmed
	}
	if h.Level == 1 && strings.TrimSpace(nodeText(h, body)) == title {
		return content
	}
	lines := h.Lines()
	if lines.Len() == 0 {
		return content
	}
	start := lineStart(body, lines.At(0).Start)
	end := lineEnd(body, lines.At(lines.Len()-1).Stop)
	// A setext heading keeps its underline on the following line; consume it too.
	headLine := string(body[start:lineEnd(body, lines.At(0).Start)])
	if !strings.HasPrefix(strings.TrimLeft(headLine, " "), "#") && end < len(body) {
		next := lineEnd(body, end+1)
		under := strings.TrimSpace(string(body[end+1 : next]))
		if under != "" && (strings.Trim(under, "=") == "" || strings.Trim(under, "-") == "") {
			end = next
		}
	}
	out, err := ApplyEdits(body, []Edit{{Start: start, End: end, Replacement: []byte("# " + title)}})
	if err != nil {
		return content
	}
	return string(out)
}

// Normalize cleans model output for storage: unwraps a stray fence, pins the
// H1 to the node title, and guarantees a trailing newline.
func Normalize(content, title string) string {
	out := UnwrapCodeFence(content)
	out = EnsureTitleHeading(out, title)
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	return out
}

func lineStart(b []byte, off int) int {
	return bytes.LastIndexByte(b[:off], '\n') + 1
}

func lineEnd(b []byte, off int) int {
	i := bytes.IndexByte(b[off:], '\n')
	if i == -1 {
		return len(b)
	}
	return off + i
}
