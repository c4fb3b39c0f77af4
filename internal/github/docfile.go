package github

import (
	pathpkg "path"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DocType buckets discovered files for filtering and display.
type DocType string

const (
	DocTypeReadme DocType = "readme"
	DocTypeDocs   DocType = "docs"
	DocTypeCode   DocType = "code"
	DocTypeOther  DocType = "other"
)

// DocFile is one discovered documentation file.
type DocFile struct {
	Path    string  `json:"path"`
	Name    string  `json:"name"`
	Title   string  `json:"title"`
	Type    DocType `json:"type"`
	Content string  `json:"content"`
	Size    int     `json:"size"`
}

// docPathPrefixes are the directory roots treated as documentation wholesale,
// regardless of file extension.
var docPathPrefixes = []string{"docs/", "documentation/", "guide/", "examples/", "example/", "tutorial/"}

// IsDocFile reports whether a repo-relative path looks like documentation:
// the root readme.md, anything under a documentation directory, or any
// markdown file. Case-insensitive.
func IsDocFile(path string) bool {
	p := strings.ToLower(path)
	if p == "readme.md" {
		return true
	}
	for _, prefix := range docPathPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return strings.HasSuffix(p, ".md")
}

// TitleFromPath derives a display title from a file path: filename without
// extension, separators to spaces, each word capitalized. Existing capitals
// are preserved, so README stays README rather than becoming Readme.
func TitleFromPath(path string) string {
	base := pathpkg.Base(path)
	base = strings.TrimSuffix(base, pathpkg.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English, cases.NoLower).String(base)
}

// manifestNames are root-level build and dependency files worth fetching
// whole: their text feeds tech-stack detection and LLM prompt context.
var manifestNames = map[string]struct{}{
	"package.json":        {},
	"go.mod":              {},
	"Cargo.toml":          {},
	"pyproject.toml":      {},
	"requirements.txt":    {},
	"setup.py":            {},
	"pom.xml":             {},
	"build.gradle":        {},
	"build.gradle.kts":    {},
	"Gemfile":             {},
	"composer.json":       {},
	"Dockerfile":          {},
	"docker-compose.yml":  {},
	"docker-compose.yaml": {},
	"Makefile":            {},
	"CMakeLists.txt":      {},
	"mix.exs":             {},
}

// IsManifestFile reports whether a root entry name is a known project
// manifest. Exact match; manifests live at the repository root only.
func IsManifestFile(name string) bool {
	_, ok := manifestNames[name]
	return ok
}

// maxManifestBytes bounds kept manifest text; lockfile-sized blobs would
// bloat prompts without adding signal.
const maxManifestBytes = 8 << 10

// TruncateManifest caps manifest text at the size worth carrying around.
func TruncateManifest(content string) string {
	if len(content) <= maxManifestBytes {
		return content
	}
	return content[:maxManifestBytes]
}

// ClassifyDocType buckets a path by substring, highest priority first.
func ClassifyDocType(path string) DocType {
	p := strings.ToLower(path)
	switch {
	case strings.Contains(p, "readme"):
		return DocTypeReadme
	case strings.Contains(p, "docs"), strings.Contains(p, "documentation"):
		return DocTypeDocs
	case strings.Contains(p, "example"), strings.Contains(p, "demo"):
		return DocTypeCode
	default:
		return DocTypeOther
	}
}
