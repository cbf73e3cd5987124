package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghprune/internal/githubauth"
)

func TestResolveTokenFromLookupHonorsPreference(testInstance *testing.T) {
	testCases := []struct {
		name          string
		environment   map[string]string
		expectedToken string
		expectedFound bool
	}{
		{
			name:          "cli_token_wins",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "cli", githubauth.EnvGitHubToken: "github"},
			expectedToken: "cli",
			expectedFound: true,
		},
		{
			name:          "blank_values_skipped",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "  ", githubauth.EnvGitHubAPIToken: " api "},
			expectedToken: "api",
			expectedFound: true,
		},
		{
			name:          "nothing_set",
			environment:   map[string]string{},
			expectedFound: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			lookup := func(key string) (string, bool) {
				value, exists := testCase.environment[key]
				return value, exists
			}
			token, found := githubauth.ResolveTokenFromLookup(lookup)
			require.Equal(subTest, testCase.expectedFound, found)
			require.Equal(subTest, testCase.expectedToken, token)
		})
	}
}
