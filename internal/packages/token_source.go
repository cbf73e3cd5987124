package packages

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/temirov/ghprune/internal/githubauth"
	pathutils "github.com/temirov/ghprune/internal/utils/path"
)

const (
	tokenSourceSeparatorConstant               = ":"
	environmentTokenSourceTypeValueConstant    = "env"
	fileTokenSourceTypeValueConstant           = "file"
	githubCLITokenSourceTypeValueConstant      = "gh"
	tokenSourceMissingErrorMessageConstant     = "token source must be provided"
	environmentNameMissingErrorMessageConstant = "environment variable name must be provided"
	filePathMissingErrorMessageConstant        = "token file path must be provided"
	environmentTokenMissingTemplateConstant    = "environment variable %s is not set"
	fileReadErrorTemplateConstant              = "unable to read token file %s: %w"
	fileTokenEmptyErrorTemplateConstant        = "token file %s is empty"
	unsupportedTokenSourceTemplateConstant     = "unsupported token source type %q"
	githubCLITokenErrorTemplateConstant        = "unable to read token from gh: %w"
)

// TokenSourceType enumerates the supported token retrieval mechanisms.
type TokenSourceType string

// Token source type enumerations.
const (
	TokenSourceTypeEnvironment TokenSourceType = TokenSourceType(environmentTokenSourceTypeValueConstant)
	TokenSourceTypeFile        TokenSourceType = TokenSourceType(fileTokenSourceTypeValueConstant)
	TokenSourceTypeGitHubCLI   TokenSourceType = TokenSourceType(githubCLITokenSourceTypeValueConstant)
)

// TokenSourceConfiguration specifies how to locate the personal access token.
type TokenSourceConfiguration struct {
	Type      TokenSourceType
	Reference string
}

// TokenResolver retrieves authentication tokens from configured sources.
type TokenResolver interface {
	ResolveToken(resolutionContext context.Context, source TokenSourceConfiguration) (string, error)
}

// EnvironmentLookup obtains an environment variable value.
type EnvironmentLookup func(key string) (string, bool)

// FileReader reads the contents of a file path.
type FileReader func(path string) ([]byte, error)

// GitHubCLITokenProvider returns the token stored by gh for a host.
type GitHubCLITokenProvider interface {
	AuthToken(executionContext context.Context, hostname string) (string, error)
}

// NewTokenResolver creates a token resolver. Nil environment and file collaborators
// fall back to the process environment and filesystem. File references may start
// with ~/. A nil githubCLI disables gh sources.
func NewTokenResolver(environmentLookup EnvironmentLookup, fileReader FileReader, githubCLI GitHubCLITokenProvider) TokenResolver {
	resolvedEnvironmentLookup := environmentLookup
	if resolvedEnvironmentLookup == nil {
		resolvedEnvironmentLookup = os.LookupEnv
	}

	resolvedFileReader := fileReader
	if resolvedFileReader == nil {
		resolvedFileReader = os.ReadFile
	}

	return &tokenResolver{
		environmentLookup: resolvedEnvironmentLookup,
		fileReader:        resolvedFileReader,
		homeExpander:      pathutils.NewHomeExpander(nil),
		githubCLI:         githubCLI,
	}
}

// ParseTokenSource interprets textual token source declarations such as
// env:NAME, file:/path, gh, or gh:HOSTNAME. A bare value names an environment variable.
func ParseTokenSource(sourceValue string) (TokenSourceConfiguration, error) {
	trimmedValue := strings.TrimSpace(sourceValue)
	if len(trimmedValue) == 0 {
		return TokenSourceConfiguration{}, errors.New(tokenSourceMissingErrorMessageConstant)
	}
	if strings.EqualFold(trimmedValue, githubCLITokenSourceTypeValueConstant) {
		return TokenSourceConfiguration{Type: TokenSourceTypeGitHubCLI}, nil
	}

	components := strings.SplitN(trimmedValue, tokenSourceSeparatorConstant, 2)
	if len(components) == 1 {
		return TokenSourceConfiguration{
			Type:      TokenSourceTypeEnvironment,
			Reference: trimmedValue,
		}, nil
	}

	sourceType := strings.ToLower(strings.TrimSpace(components[0]))
	reference := strings.TrimSpace(components[1])

	switch sourceType {
	case environmentTokenSourceTypeValueConstant:
		if len(reference) == 0 {
			return TokenSourceConfiguration{}, errors.New(environmentNameMissingErrorMessageConstant)
		}
		return TokenSourceConfiguration{Type: TokenSourceTypeEnvironment, Reference: reference}, nil
	case fileTokenSourceTypeValueConstant:
		if len(reference) == 0 {
			return TokenSourceConfiguration{}, errors.New(filePathMissingErrorMessageConstant)
		}
		return TokenSourceConfiguration{Type: TokenSourceTypeFile, Reference: reference}, nil
	case githubCLITokenSourceTypeValueConstant:
		return TokenSourceConfiguration{Type: TokenSourceTypeGitHubCLI, Reference: reference}, nil
	default:
		return TokenSourceConfiguration{}, fmt.Errorf(unsupportedTokenSourceTemplateConstant, sourceType)
	}
}

type tokenResolver struct {
	environmentLookup EnvironmentLookup
	fileReader        FileReader
	homeExpander      *pathutils.HomeExpander
	githubCLI         GitHubCLITokenProvider
}

// ResolveToken reads the configured source. When that source yields nothing,
// the conventional GitHub token variables are consulted before giving up.
func (resolver *tokenResolver) ResolveToken(resolutionContext context.Context, source TokenSourceConfiguration) (string, error) {
	token, sourceError := resolver.resolveConfiguredSource(resolutionContext, source)
	if sourceError == nil {
		return token, nil
	}

	if fallbackToken, found := githubauth.ResolveTokenFromLookup(githubauth.EnvironmentLookup(resolver.environmentLookup)); found {
		return fallbackToken, nil
	}
	return "", sourceError
}

func (resolver *tokenResolver) resolveConfiguredSource(resolutionContext context.Context, source TokenSourceConfiguration) (string, error) {
	switch source.Type {
	case TokenSourceTypeEnvironment:
		value, found := resolver.environmentLookup(source.Reference)
		trimmedValue := strings.TrimSpace(value)
		if !found || len(trimmedValue) == 0 {
			return "", fmt.Errorf(environmentTokenMissingTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	case TokenSourceTypeFile:
		contents, readError := resolver.fileReader(resolver.homeExpander.Expand(source.Reference))
		if readError != nil {
			return "", fmt.Errorf(fileReadErrorTemplateConstant, source.Reference, readError)
		}
		trimmedValue := strings.TrimSpace(string(contents))
		if len(trimmedValue) == 0 {
			return "", fmt.Errorf(fileTokenEmptyErrorTemplateConstant, source.Reference)
		}
		return trimmedValue, nil
	case TokenSourceTypeGitHubCLI:
		if resolver.githubCLI == nil {
			return "", fmt.Errorf(unsupportedTokenSourceTemplateConstant, source.Type)
		}
		token, cliError := resolver.githubCLI.AuthToken(resolutionContext, source.Reference)
		if cliError != nil {
			return "", fmt.Errorf(githubCLITokenErrorTemplateConstant, cliError)
		}
		return token, nil
	default:
		return "", fmt.Errorf(unsupportedTokenSourceTemplateConstant, source.Type)
	}
}
