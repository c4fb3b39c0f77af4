package github

import (
	"fmt"
	"regexp"
	"strings"

	derrors "git.home.luguber.info/inful/repowiki/internal/foundation/errors"
)

// repoURLPattern accepts https, plain, and ssh forms of a github.com
// owner/repo reference, with an optional .git suffix or trailing slash.
var repoURLPattern = regexp.MustCompile(`github\.com[/:]([A-Za-z0-9_.-]+)/([A-Za-z0-9_.-]+?)(?:\.git)?/?$`)

// ParseRepoURL extracts owner and repo from a github.com URL.
func ParseRepoURL(raw string) (owner, repo string, err error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", derrors.ValidationError("repoUrl is required").Build()
	}
	m := repoURLPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", "", derrors.ValidationError(fmt.Sprintf("repoUrl must match github.com/{owner}/{repo}, got %q", raw)).Build()
	}
	return m[1], m[2], nil
}
