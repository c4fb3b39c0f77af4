package outline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

func TestParseNodeList(t *testing.T) {
	o, err := Parse([]byte(`[{"title":"Guide","children":[{"title":"Intro"},{"title":"Usage","children":[{"title":"CLI"}]}]}]`))
	require.NoError(t, err)
	require.False(t, o.Flat())
	require.Len(t, o.Nodes, 1)
	require.Equal(t, "Guide", o.Nodes[0].Title)
	require.Len(t, o.Nodes[0].Children, 2)
	require.Equal(t, "CLI", o.Nodes[0].Children[1].Children[0].Title)
}

func TestParseFlatSections(t *testing.T) {
	o, err := Parse([]byte(`{"sections":[{"title":"Guide","subsections":["Intro","Usage"]},{"title":"Reference","subsections":[]}]}`))
	require.NoError(t, err)
	require.True(t, o.Flat())
	require.Equal(t, []Section{
		{Title: "Guide", Subsections: []string{"Intro", "Usage"}},
		{Title: "Reference", Subsections: []string{}},
	}, o.Sections)
}

func TestParseWrappedRoot(t *testing.T) {
	o, err := Parse([]byte(`{"title":"Documentation","children":[{"title":"Setup"},{"title":"Usage"}]}`))
	require.NoError(t, err)
	require.False(t, o.Flat())
	require.Len(t, o.Nodes, 1)
	require.Equal(t, "Documentation", o.Nodes[0].Title)
	require.Len(t, o.Nodes[0].Children, 2)
}

func TestParseChildrenWithoutTitle(t *testing.T) {
	o, err := Parse([]byte(`{"children":[{"title":"Setup"},{"title":"Usage"}]}`))
	require.NoError(t, err)
	require.Len(t, o.Nodes, 2)
	require.Equal(t, "Setup", o.Nodes[0].Title)
	require.Equal(t, "Usage", o.Nodes[1].Title)
}

func TestParseDropsBlankSections(t *testing.T) {
	o, err := Parse([]byte(`{"sections":[{"title":" Guide ","subsections":[" Intro ",""," "]},{"title":"  "}]}`))
	require.NoError(t, err)
	require.Equal(t, []Section{{Title: "Guide", Subsections: []string{"Intro"}}}, o.Sections)
}

func TestParseDropsBlankNodes(t *testing.T) {
	o, err := Parse([]byte(`[{"title":"Guide","children":[{"title":"  "},null,{"title":"Intro"}]}]`))
	require.NoError(t, err)
	require.Len(t, o.Nodes, 1)
	require.Len(t, o.Nodes[0].Children, 1)
	require.Equal(t, "Intro", o.Nodes[0].Children[0].Title)
}

func TestParseRejectsUnusablePayloads(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n\t"},
		{"prose", "sure, here is your outline"},
		{"empty object", "{}"},
		{"empty list", "[]"},
		{"empty sections", `{"sections":[]}`},
		{"blank sections", `{"sections":[{"title":"  "}]}`},
		{"blank nodes", `[{"title":""},{"title":"   "}]`},
		{"truncated list", `[{"title":`},
		{"wrong types", `{"sections":"Guide"}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.input))
			require.Error(t, err)
			require.True(t, derrors.HasCategory(err, derrors.CategoryOutline))
		})
	}
}

func TestMarshalPreservesShape(t *testing.T) {
	flat, err := Parse([]byte(`{"sections":[{"title":"Guide","subsections":["Intro"]}]}`))
	require.NoError(t, err)
	out, err := json.Marshal(flat)
	require.NoError(t, err)
	require.JSONEq(t, `{"sections":[{"title":"Guide","subsections":["Intro"]}]}`, string(out))

	tree, err := Parse([]byte(`[{"title":"Guide","children":[{"title":"Intro"}]}]`))
	require.NoError(t, err)
	out, err = json.Marshal(tree)
	require.NoError(t, err)
	require.JSONEq(t, `[{"title":"Guide","children":[{"title":"Intro"}]}]`, string(out))
}

func TestDefaultOutline(t *testing.T) {
	o := Default()
	require.True(t, o.Flat())
	require.Len(t, o.Sections, 5)

	titles := make([]string, 0, len(o.Sections))
	for _, s := range o.Sections {
		titles = append(titles, s.Title)
		require.Len(t, s.Subsections, 3)
	}
	require.Equal(t, []string{"Getting Started", "Architecture", "Development", "API Reference", "Contributing"}, titles)
	require.Equal(t, 20, o.CountNodes())
}

func TestDefaultOutlineIsStable(t *testing.T) {
	first, err := json.Marshal(Default())
	require.NoError(t, err)
	second, err := json.Marshal(Default())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestVisitTree(t *testing.T) {
	o, err := Parse([]byte(`[{"title":"Guide","children":[{"title":"Intro"},{"title":"Usage","children":[{"title":"CLI"}]}]},{"title":"Reference"}]`))
	require.NoError(t, err)

	var got []Entry
	o.Visit(func(e Entry) { got = append(got, e) })
	require.Equal(t, []Entry{
		{Title: "Guide", Section: "Guide", Breadcrumb: "Guide", Path: "guide", Depth: 0},
		{Title: "Intro", Section: "Guide", Subsection: "Intro", Breadcrumb: "Guide > Intro", Path: "guide/intro", Depth: 1},
		{Title: "Usage", Section: "Guide", Subsection: "Usage", Breadcrumb: "Guide > Usage", Path: "guide/usage", Depth: 1},
		{Title: "CLI", Section: "Guide", Subsection: "CLI", Breadcrumb: "Guide > Usage > CLI", Path: "guide/usage/cli", Depth: 2},
		{Title: "Reference", Section: "Reference", Breadcrumb: "Reference", Path: "reference", Depth: 0},
	}, got)
}

func TestVisitFlat(t *testing.T) {
	o, err := Parse([]byte(`{"sections":[{"title":"Guide","subsections":["Intro","Usage"]}]}`))
	require.NoError(t, err)

	var got []Entry
	o.Visit(func(e Entry) { got = append(got, e) })
	require.Equal(t, []Entry{
		{Title: "Guide", Section: "Guide", Breadcrumb: "Guide", Path: "guide", Depth: 0},
		{Title: "Intro", Section: "Guide", Subsection: "Intro", Breadcrumb: "Guide > Intro", Path: "guide/intro", Depth: 1},
		{Title: "Usage", Section: "Guide", Subsection: "Usage", Breadcrumb: "Guide > Usage", Path: "guide/usage", Depth: 1},
	}, got)
}

func TestVisitAssignsStablePaths(t *testing.T) {
	var paths []string
	Default().Visit(func(e Entry) {
		if e.Depth == 0 {
			paths = append(paths, e.Path)
		}
	})
	require.Equal(t, []string{"getting-started", "architecture", "development", "api-reference", "contributing"}, paths)
}

func TestVisitDeduplicatesSiblingSlugs(t *testing.T) {
	o, err := Parse([]byte(`{"sections":[{"title":"Guide","subsections":["Overview","Overview","Overview"]},{"title":"Reference","subsections":["Overview"]}]}`))
	require.NoError(t, err)

	var paths []string
	o.Visit(func(e Entry) { paths = append(paths, e.Path) })
	require.Equal(t, []string{
		"guide",
		"guide/overview",
		"guide/overview-2",
		"guide/overview-3",
		"reference",
		"reference/overview",
	}, paths)
}

func TestSlug(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Getting Started", "getting-started"},
		{"API Reference", "api-reference"},
		{"Café & Croissants", "cafe-croissants"},
		{"  CI/CD   Pipeline  ", "ci-cd-pipeline"},
		{"v2.0 Migration", "v2-0-migration"},
		{"---", "untitled"},
		{"", "untitled"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, Slug(tc.in), "slug of %q", tc.in)
	}
}
