package packages

import (
	"go.uber.org/zap"

	"github.com/temirov/ghprune/internal/execshell"
	"github.com/temirov/ghprune/internal/ghcr"
	"github.com/temirov/ghprune/internal/githubcli"
)

// DefaultPurgeServiceResolver builds purge services backed by the GitHub REST API.
type DefaultPurgeServiceResolver struct {
	HTTPClient        ghcr.HTTPClient
	EnvironmentLookup EnvironmentLookup
	FileReader        FileReader
	TokenResolver     TokenResolver
	CommandRunner     execshell.CommandRunner
	Sleeper           ghcr.Sleeper
}

// Resolve creates a purge executor for configuration using configured collaborators or defaults.
func (resolver *DefaultPurgeServiceResolver) Resolve(logger *zap.Logger, purgeConfiguration PurgeConfiguration) (PurgeExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	configuration := purgeConfiguration.Sanitize()

	resolvedTokenResolver := resolver.TokenResolver
	if resolvedTokenResolver == nil {
		githubCLIClient, githubCLIError := resolver.newGitHubCLIClient(logger)
		if githubCLIError != nil {
			return nil, githubCLIError
		}
		resolvedTokenResolver = NewTokenResolver(resolver.EnvironmentLookup, resolver.FileReader, githubCLIClient)
	}

	clientFactory := func(run ghcr.RunConfiguration) (PackageClient, error) {
		httpTransport, transportError := ghcr.NewHTTPTransport(ghcr.HTTPTransportOptions{
			HTTPClient:     resolver.HTTPClient,
			Token:          run.Token,
			RequestTimeout: configuration.RequestTimeout,
		})
		if transportError != nil {
			return nil, transportError
		}

		var transport ghcr.Transport = httpTransport
		retryPolicy := ghcr.RetryPolicy{MaxAttempts: configuration.MaxAttempts}
		if retryPolicy.Enabled() {
			transport = ghcr.NewRetryingTransport(logger, httpTransport, retryPolicy, resolver.Sleeper)
		}

		serviceConfiguration := ghcr.ServiceConfiguration{
			BaseURL:  configuration.ServiceBaseURL,
			PageSize: configuration.PageSize,
		}
		organizationClient, clientError := ghcr.NewOrganizationClient(logger, transport, serviceConfiguration, run)
		if clientError != nil {
			return nil, clientError
		}
		return organizationClient, nil
	}

	purgeService, serviceError := NewPurgeService(logger, clientFactory, resolvedTokenResolver)
	if serviceError != nil {
		return nil, serviceError
	}
	return purgeService, nil
}

func (resolver *DefaultPurgeServiceResolver) newGitHubCLIClient(logger *zap.Logger) (*githubcli.Client, error) {
	commandRunner := resolver.CommandRunner
	if commandRunner == nil {
		commandRunner = execshell.NewOSCommandRunner()
	}

	shellExecutor, executorError := execshell.NewShellExecutor(logger, commandRunner)
	if executorError != nil {
		return nil, executorError
	}
	return githubcli.NewClient(shellExecutor)
}
