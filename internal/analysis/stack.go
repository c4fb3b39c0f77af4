package analysis

import (
	"slices"
	"strings"

	"git.home.luguber.info/inful/repowiki/internal/github"
)

// stackRule maps a display label to the lowercase tokens that imply it.
type stackRule struct {
	label string
	keys  []string
}

var frontendRules = []stackRule{
	{"React", []string{"react", "next.js", "nextjs"}},
	{"Vue", []string{"vue", "vuejs", "nuxt"}},
	{"Angular", []string{"angular"}},
	{"Svelte", []string{"svelte", "sveltekit"}},
	{"Tailwind CSS", []string{"tailwind", "tailwindcss"}},
}

var backendRules = []stackRule{
	{"Express", []string{"express", "expressjs"}},
	{"Fastify", []string{"fastify"}},
	{"NestJS", []string{"nestjs"}},
	{"Django", []string{"django"}},
	{"Flask", []string{"flask"}},
	{"FastAPI", []string{"fastapi"}},
	{"Rails", []string{"rails", "ruby on rails"}},
	{"Spring", []string{"spring boot", "spring-boot", "springframework"}},
	{"Gin", []string{"gin-gonic"}},
	{"Echo", []string{"labstack/echo"}},
	{"Laravel", []string{"laravel"}},
}

var databaseRules = []stackRule{
	{"PostgreSQL", []string{"postgres", "postgresql", "pgx"}},
	{"MySQL", []string{"mysql", "mariadb"}},
	{"MongoDB", []string{"mongodb", "mongoose", "mongo"}},
	{"Redis", []string{"redis"}},
	{"SQLite", []string{"sqlite", "sqlite3"}},
	{"Elasticsearch", []string{"elasticsearch"}},
}

var devopsRules = []stackRule{
	{"Kubernetes", []string{"kubernetes", "k8s", "helm"}},
	{"Terraform", []string{"terraform"}},
	{"Docker", []string{"docker"}},
	{"GitHub Actions", []string{"github actions", "github-actions"}},
}

// manifestLanguages maps root manifest names to the language they imply.
var manifestLanguages = map[string]string{
	"package.json":     "JavaScript",
	"go.mod":           "Go",
	"Cargo.toml":       "Rust",
	"pyproject.toml":   "Python",
	"requirements.txt": "Python",
	"setup.py":         "Python",
	"pom.xml":          "Java",
	"build.gradle":     "Java",
	"build.gradle.kts": "Kotlin",
	"Gemfile":          "Ruby",
	"composer.json":    "PHP",
	"mix.exs":          "Elixir",
	"CMakeLists.txt":   "C++",
}

// topicLanguages maps repository topics to language labels.
var topicLanguages = map[string]string{
	"golang":     "Go",
	"go":         "Go",
	"python":     "Python",
	"typescript": "TypeScript",
	"javascript": "JavaScript",
	"rust":       "Rust",
	"java":       "Java",
	"kotlin":     "Kotlin",
	"ruby":       "Ruby",
	"php":        "PHP",
	"elixir":     "Elixir",
	"cpp":        "C++",
	"c":          "C",
}

// topLevelDevOps maps root entry names to tooling they reveal directly.
var topLevelDevOps = map[string]string{
	"Dockerfile":          "Docker",
	"docker-compose.yml":  "Docker Compose",
	"docker-compose.yaml": "Docker Compose",
	"Makefile":            "Make",
	"Jenkinsfile":         "Jenkins",
	".gitlab-ci.yml":      "GitLab CI",
	".travis.yml":         "Travis CI",
	".github":             "GitHub Actions",
	"helm":                "Helm",
	"terraform":           "Terraform",
	"k8s":                 "Kubernetes",
	"kubernetes":          "Kubernetes",
}

func detectStack(bundle *github.Bundle, surface string) TechStack {
	return TechStack{
		Languages: detectLanguages(bundle),
		Frontend:  matchRules(frontendRules, surface),
		Backend:   matchRules(backendRules, surface),
		Database:  matchRules(databaseRules, surface),
		DevOps:    detectDevOps(bundle.TopLevel, surface),
	}
}

// detectLanguages starts from the hosting API's primary language and adds
// what the root manifests and topics reveal, deduplicated in that order.
func detectLanguages(bundle *github.Bundle) []string {
	var langs []string
	if l := bundle.Repository.Language; l != "" {
		langs = append(langs, l)
	}
	for _, name := range bundle.TopLevel {
		if l, ok := manifestLanguages[name]; ok {
			langs = appendUnique(langs, l)
		}
	}
	if slices.Contains(bundle.TopLevel, "tsconfig.json") {
		langs = appendUnique(langs, "TypeScript")
	}
	for _, topic := range bundle.Repository.Topics {
		if l, ok := topicLanguages[strings.ToLower(topic)]; ok {
			langs = appendUnique(langs, l)
		}
	}
	return langs
}

func detectDevOps(topLevel []string, surface string) []string {
	var found []string
	for _, name := range topLevel {
		if label, ok := topLevelDevOps[name]; ok {
			found = appendUnique(found, label)
		}
	}
	for _, label := range matchRules(devopsRules, surface) {
		found = appendUnique(found, label)
	}
	return found
}

// matchRules returns the labels whose tokens appear in surface, in rule
// order.
func matchRules(rules []stackRule, surface string) []string {
	var found []string
	for _, rule := range rules {
		for _, key := range rule.keys {
			if containsToken(surface, key) {
				found = append(found, rule.label)
				break
			}
		}
	}
	return found
}

// domainRules are ordered; the first rule with a token in the description
// or topics names the business domain.
var domainRules = []stackRule{
	{"machine learning", []string{"machine-learning", "machine learning", "deep-learning", "deep learning", "llm", "neural", "artificial-intelligence", "ai"}},
	{"developer tooling", []string{"cli", "command-line", "command line", "devtools", "developer-tools", "linter", "formatter", "build-tool"}},
	{"documentation", []string{"documentation", "docs", "wiki", "knowledge-base"}},
	{"games", []string{"game", "game-engine", "gaming"}},
	{"data engineering", []string{"etl", "data-pipeline", "data-engineering", "analytics"}},
	{"web application", []string{"webapp", "web-app", "frontend", "website", "dashboard"}},
	{"web services", []string{"api", "rest", "graphql", "microservice", "server", "backend"}},
}

const defaultDomain = "software development"

func guessDomain(description string, topics []string) string {
	surface := strings.ToLower(description + " " + strings.Join(topics, " "))
	for _, rule := range domainRules {
		for _, key := range rule.keys {
			if containsToken(surface, key) {
				return rule.label
			}
		}
	}
	return defaultDomain
}

// containsToken reports whether key occurs in haystack bounded by
// non-alphanumeric characters, so "react" never matches "reactive".
// haystack must already be lowercase.
func containsToken(haystack, key string) bool {
	for start := 0; ; {
		i := strings.Index(haystack[start:], key)
		if i < 0 {
			return false
		}
		i += start
		before := i == 0 || !isWordByte(haystack[i-1])
		after := i+len(key) == len(haystack) || !isWordByte(haystack[i+len(key)])
		if before && after {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9'
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
