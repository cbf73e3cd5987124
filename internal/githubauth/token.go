package githubauth

import (
	"strings"
)

// Environment variable names checked, in order, for a GitHub token.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// ResolveTokenFromLookup returns the first non-empty GitHub token reported by lookup.
func ResolveTokenFromLookup(lookup EnvironmentLookup) (string, bool) {
	if lookup == nil {
		return "", false
	}
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		if !exists {
			continue
		}
		value = strings.TrimSpace(value)
		if len(value) > 0 {
			return value, true
		}
	}
	return "", false
}
