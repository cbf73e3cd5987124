package packages

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghprune/internal/ghcr"
	"github.com/temirov/ghprune/internal/utils/flags"
)

const (
	purgeCommandUseConstant                 = "purge"
	purgeCommandShortDescriptionConstant    = "Delete untagged container package versions"
	purgeCommandLongDescriptionConstant     = "purge lists every container package owned by an organization, finds versions without image tags, and deletes them through the GitHub REST API."
	unexpectedArgumentsErrorMessageConstant = "purge does not accept positional arguments"
	organizationRequiredErrorMessage        = "organization must be provided (--organization or purge.organization)"
	commandExecutionErrorTemplateConstant   = "purge failed: %w"
	organizationFlagNameConstant            = "organization"
	organizationFlagShorthandConstant       = "o"
	organizationFlagDescriptionConstant     = "GitHub organization (or user) that owns the container packages"
	personalAccessTokenFlagNameConstant     = "pat"
	personalAccessTokenFlagShorthand        = "p"
	personalAccessTokenFlagDescription      = "GitHub personal access token with read:packages and delete:packages scopes"
	ownerTypeFlagNameConstant               = "owner-type"
	ownerTypeFlagDescriptionConstant        = "Owner type of the packages"
	tokenSourceFlagNameConstant             = "token-source"
	tokenSourceFlagDescriptionConstant      = "Token source used when --pat is absent (env:NAME, file:/path, gh, or gh:HOST)"
	dryRunFlagNameConstant                  = "dry-run"
	dryRunFlagDescriptionConstant           = "Report untagged versions without deleting them"
	pageSizeFlagNameConstant                = "page-size"
	pageSizeFlagDescriptionConstant         = "Walk listing pages of this size (0 requests a single page)"
	maxAttemptsFlagNameConstant             = "max-attempts"
	maxAttemptsFlagDescriptionConstant      = "Attempts per request for transient failures (1 disables retries)"
	requestTimeoutFlagNameConstant          = "request-timeout"
	requestTimeoutFlagDescriptionConstant   = "Timeout applied to each HTTP request"
	ownerTypeParseErrorTemplateConstant     = "invalid owner type: %w"
	tokenSourceParseErrorTemplateConstant   = "invalid token source: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current purge configuration.
type ConfigurationProvider func() PurgeConfiguration

// PurgeServiceResolver creates purge executors for the command.
type PurgeServiceResolver interface {
	Resolve(logger *zap.Logger, configuration PurgeConfiguration) (PurgeExecutor, error)
}

// CommandBuilder assembles the purge command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	ServiceResolver       PurgeServiceResolver
	HTTPClient            ghcr.HTTPClient
	EnvironmentLookup     EnvironmentLookup
	FileReader            FileReader
	TokenResolver         TokenResolver
}

// Build constructs the purge command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	purgeCommand := &cobra.Command{
		Use:   purgeCommandUseConstant,
		Short: purgeCommandShortDescriptionConstant,
		Long:  purgeCommandLongDescriptionConstant,
		RunE:  builder.runPurge,
	}

	defaults := DefaultConfiguration()
	purgeCommand.Flags().StringP(organizationFlagNameConstant, organizationFlagShorthandConstant, "", organizationFlagDescriptionConstant)
	purgeCommand.Flags().StringP(personalAccessTokenFlagNameConstant, personalAccessTokenFlagShorthand, "", personalAccessTokenFlagDescription)
	purgeCommand.Flags().String(ownerTypeFlagNameConstant, "", flags.FormatChoiceUsage(string(ghcr.OrganizationOwnerType), []string{string(ghcr.OrganizationOwnerType), string(ghcr.UserOwnerType)}, ownerTypeFlagDescriptionConstant))
	purgeCommand.Flags().String(tokenSourceFlagNameConstant, "", tokenSourceFlagDescriptionConstant)
	purgeCommand.Flags().Bool(dryRunFlagNameConstant, false, dryRunFlagDescriptionConstant)
	purgeCommand.Flags().Int(pageSizeFlagNameConstant, defaults.PageSize, pageSizeFlagDescriptionConstant)
	purgeCommand.Flags().Int(maxAttemptsFlagNameConstant, defaults.MaxAttempts, maxAttemptsFlagDescriptionConstant)
	purgeCommand.Flags().Duration(requestTimeoutFlagNameConstant, defaults.RequestTimeout, requestTimeoutFlagDescriptionConstant)

	return purgeCommand, nil
}

func (builder *CommandBuilder) runPurge(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return errors.New(unexpectedArgumentsErrorMessageConstant)
	}

	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	purgeOptions, optionsError := builder.parsePurgeOptions(command, configuration)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	purgeService, serviceError := builder.resolvePurgeService(logger, configuration)
	if serviceError != nil {
		return serviceError
	}

	_, executionError := purgeService.Execute(command.Context(), purgeOptions)
	if executionError != nil {
		return fmt.Errorf(commandExecutionErrorTemplateConstant, executionError)
	}

	return nil
}

// resolveConfiguration overlays changed flags on the loaded configuration.
func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (PurgeConfiguration, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	commandFlags := command.Flags()

	organizationFlagValue, organizationFlagError := commandFlags.GetString(organizationFlagNameConstant)
	if organizationFlagError != nil {
		return PurgeConfiguration{}, organizationFlagError
	}
	configuration.Organization = selectStringValue(organizationFlagValue, configuration.Organization)

	ownerTypeFlagValue, ownerTypeFlagError := commandFlags.GetString(ownerTypeFlagNameConstant)
	if ownerTypeFlagError != nil {
		return PurgeConfiguration{}, ownerTypeFlagError
	}
	configuration.OwnerType = selectStringValue(ownerTypeFlagValue, configuration.OwnerType)

	tokenSourceFlagValue, tokenSourceFlagError := commandFlags.GetString(tokenSourceFlagNameConstant)
	if tokenSourceFlagError != nil {
		return PurgeConfiguration{}, tokenSourceFlagError
	}
	configuration.TokenSource = selectStringValue(tokenSourceFlagValue, configuration.TokenSource)

	if commandFlags.Changed(dryRunFlagNameConstant) {
		dryRunValue, dryRunFlagError := commandFlags.GetBool(dryRunFlagNameConstant)
		if dryRunFlagError != nil {
			return PurgeConfiguration{}, dryRunFlagError
		}
		configuration.DryRun = dryRunValue
	}

	if commandFlags.Changed(pageSizeFlagNameConstant) {
		pageSizeValue, pageSizeFlagError := commandFlags.GetInt(pageSizeFlagNameConstant)
		if pageSizeFlagError != nil {
			return PurgeConfiguration{}, pageSizeFlagError
		}
		configuration.PageSize = pageSizeValue
	}

	if commandFlags.Changed(maxAttemptsFlagNameConstant) {
		maxAttemptsValue, maxAttemptsFlagError := commandFlags.GetInt(maxAttemptsFlagNameConstant)
		if maxAttemptsFlagError != nil {
			return PurgeConfiguration{}, maxAttemptsFlagError
		}
		configuration.MaxAttempts = maxAttemptsValue
	}

	if commandFlags.Changed(requestTimeoutFlagNameConstant) {
		requestTimeoutValue, requestTimeoutFlagError := commandFlags.GetDuration(requestTimeoutFlagNameConstant)
		if requestTimeoutFlagError != nil {
			return PurgeConfiguration{}, requestTimeoutFlagError
		}
		configuration.RequestTimeout = requestTimeoutValue
	}

	return configuration.Sanitize(), nil
}

func (builder *CommandBuilder) parsePurgeOptions(command *cobra.Command, configuration PurgeConfiguration) (PurgeOptions, error) {
	if len(configuration.Organization) == 0 {
		return PurgeOptions{}, errors.New(organizationRequiredErrorMessage)
	}

	parsedOwnerType, ownerTypeParseError := ghcr.ParseOwnerType(configuration.OwnerType)
	if ownerTypeParseError != nil {
		return PurgeOptions{}, fmt.Errorf(ownerTypeParseErrorTemplateConstant, ownerTypeParseError)
	}

	parsedTokenSource, tokenParseError := ParseTokenSource(configuration.TokenSource)
	if tokenParseError != nil {
		return PurgeOptions{}, fmt.Errorf(tokenSourceParseErrorTemplateConstant, tokenParseError)
	}

	personalAccessToken, tokenFlagError := command.Flags().GetString(personalAccessTokenFlagNameConstant)
	if tokenFlagError != nil {
		return PurgeOptions{}, tokenFlagError
	}

	return PurgeOptions{
		Organization: configuration.Organization,
		OwnerType:    parsedOwnerType,
		Token:        strings.TrimSpace(personalAccessToken),
		TokenSource:  parsedTokenSource,
		DryRun:       configuration.DryRun,
	}, nil
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolvePurgeService(logger *zap.Logger, configuration PurgeConfiguration) (PurgeExecutor, error) {
	if builder.ServiceResolver != nil {
		return builder.ServiceResolver.Resolve(logger, configuration)
	}

	defaultResolver := &DefaultPurgeServiceResolver{
		HTTPClient:        builder.HTTPClient,
		EnvironmentLookup: builder.EnvironmentLookup,
		FileReader:        builder.FileReader,
		TokenResolver:     builder.TokenResolver,
	}

	return defaultResolver.Resolve(logger, configuration)
}

func selectStringValue(flagValue string, configurationValue string) string {
	trimmedFlagValue := strings.TrimSpace(flagValue)
	if len(trimmedFlagValue) > 0 {
		return trimmedFlagValue
	}

	return strings.TrimSpace(configurationValue)
}
