package analysis

import "slices"

// setupRule pairs a root manifest with the commands it implies. Rules are
// ordered; the first manifest present in the repository wins outright.
type setupRule struct {
	manifest string
	setup    SetupCommands
}

var setupRules = []setupRule{
	{"package.json", SetupCommands{Install: "npm install", Run: "npm start", Test: "npm test"}},
	{"go.mod", SetupCommands{Install: "go mod download", Run: "go run .", Test: "go test ./..."}},
	{"Cargo.toml", SetupCommands{Install: "cargo build", Run: "cargo run", Test: "cargo test"}},
	{"pyproject.toml", SetupCommands{Install: "pip install -e .", Run: "python main.py", Test: "pytest"}},
	{"requirements.txt", SetupCommands{Install: "pip install -r requirements.txt", Run: "python main.py", Test: "pytest"}},
	{"pom.xml", SetupCommands{Install: "mvn install", Run: "mvn exec:java", Test: "mvn test"}},
	{"build.gradle", SetupCommands{Install: "gradle build", Run: "gradle run", Test: "gradle test"}},
	{"build.gradle.kts", SetupCommands{Install: "gradle build", Run: "gradle run", Test: "gradle test"}},
	{"Gemfile", SetupCommands{Install: "bundle install", Test: "bundle exec rake test"}},
	{"composer.json", SetupCommands{Install: "composer install", Test: "composer test"}},
	{"mix.exs", SetupCommands{Install: "mix deps.get", Run: "mix run", Test: "mix test"}},
	{"CMakeLists.txt", SetupCommands{Install: "cmake -S . -B build", Run: "cmake --build build", Test: "ctest --test-dir build"}},
	{"Makefile", SetupCommands{Install: "make", Run: "make run", Test: "make test"}},
}

// guessSetup picks commands from the highest-priority manifest present.
// Node repositories get the package manager refined by lockfile.
func guessSetup(topLevel []string) SetupCommands {
	for _, rule := range setupRules {
		if !slices.Contains(topLevel, rule.manifest) {
			continue
		}
		if rule.manifest == "package.json" {
			switch {
			case slices.Contains(topLevel, "pnpm-lock.yaml"):
				return SetupCommands{Install: "pnpm install", Run: "pnpm start", Test: "pnpm test"}
			case slices.Contains(topLevel, "yarn.lock"):
				return SetupCommands{Install: "yarn install", Run: "yarn start", Test: "yarn test"}
			}
		}
		return rule.setup
	}
	return SetupCommands{}
}
