package markdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFirstHeading_ATX(t *testing.T) {
	title, level, ok := FirstHeading([]byte("# Hello World\n\nBody.\n"))
	require.True(t, ok)
	require.Equal(t, "Hello World", title)
	require.Equal(t, 1, level)
}

func TestFirstHeading_SkipsLeadingProse(t *testing.T) {
	title, level, ok := FirstHeading([]byte("badge line\n\n## Usage\n"))
	require.True(t, ok)
	require.Equal(t, "Usage", title)
	require.Equal(t, 2, level)
}

func TestFirstHeading_None(t *testing.T) {
	_, _, ok := FirstHeading([]byte("no headings here\n"))
	require.False(t, ok)
}

func TestPlainText_DropsCodeAndFormatting(t *testing.T) {
	src := []byte("# Title\n\nSome **bold** text with a [link](x.md).\n\n```go\nfunc main() {}\n```\n\nAfter code.\n")
	out := PlainText(src)
	require.Contains(t, out, "Title")
	require.Contains(t, out, "Some bold text with a link.")
	require.Contains(t, out, "After code.")
	require.NotContains(t, out, "func main")
	require.NotContains(t, out, "**")
}

func TestPlainText_JoinsSoftBreaks(t *testing.T) {
	out := PlainText([]byte("line one\nline two\n"))
	require.Equal(t, "line one line two", out)
}

func TestExtractLinksKinds(t *testing.T) {
	src := []byte("Read the [guide](docs/guide.md), auto <https://example.com>,\n" +
		"an image ![arch](arch.png), and [the API][api].\n\n[api]: docs/api.md\n")
	links := ExtractLinks(src)
	require.Equal(t, []Link{
		{Kind: LinkKindInline, Destination: "docs/guide.md"},
		{Kind: LinkKindAuto, Destination: "https://example.com"},
		{Kind: LinkKindImage, Destination: "arch.png"},
		{Kind: LinkKindInline, Destination: "docs/api.md"},
		{Kind: LinkKindReferenceDefinition, Destination: "docs/api.md"},
	}, links)
}

func TestExtractLinksIgnoresCode(t *testing.T) {
	src := []byte("Use `[not](a-link.md)` inline.\n\n```\n[also not](fenced.md)\n```\n\n[real](real.md)\n")
	links := ExtractLinks(src)
	require.Len(t, links, 1)
	require.Equal(t, "real.md", links[0].Destination)
}

func TestRelativeDocLinks(t *testing.T) {
	src := []byte("See [guide](docs/guide.md) and [api](./docs/api.md#setup).\n" +
		"External: [site](https://example.com/page.md)\n" +
		"Image: ![d](diagram.png)\n" +
		"Again: [guide](docs/guide.md)\n")
	out := RelativeDocLinks(src)
	require.Equal(t, []string{"docs/guide.md", "docs/api.md"}, out)
}

func TestRelativeDocLinks_EmptyForNonDocBodies(t *testing.T) {
	require.Empty(t, RelativeDocLinks([]byte("plain text, no links")))
}
