package cli

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ghprune/internal/packages"
	"github.com/temirov/ghprune/internal/utils"
	"github.com/temirov/ghprune/internal/utils/flags"
)

const (
	applicationNameConstant                 = "ghprune"
	applicationShortDescriptionConstant     = "Remove untagged container images from GitHub Packages"
	applicationLongDescriptionConstant      = "ghprune lists the container packages owned by a GitHub organization and deletes every version that no longer carries an image tag."
	versionTemplateConstant                 = "ghprune version: {{.Version}}\n"
	developmentVersionConstant              = "dev"
	buildInfoDevelopmentVersionConstant     = "(devel)"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	environmentPrefixConstant               = "GHPRUNE"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	purgeCommandBuildErrorTemplateConstant  = "unable to build purge command: %w"
)

// applicationVersion is overridden at build time with -ldflags "-X".
var applicationVersion = developmentVersionConstant

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Purge  packages.PurgeConfiguration    `mapstructure:"purge"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// ApplicationOptions overrides collaborators used by NewApplicationWithOptions.
type ApplicationOptions struct {
	LoggerFactory *utils.LoggerFactory
	PurgeResolver packages.PurgeServiceResolver
	SearchPaths   []string
	EmbedDefaults bool
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application, _ := NewApplicationWithOptions(ApplicationOptions{EmbedDefaults: true})
	return application
}

// NewApplicationWithOptions assembles a CLI application using the supplied collaborators.
func NewApplicationWithOptions(options ApplicationOptions) (*Application, error) {
	searchPaths := options.SearchPaths
	if len(searchPaths) == 0 {
		searchPaths = []string{defaultConfigurationSearchPathConstant}
	}

	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		searchPaths,
	)
	if options.EmbedDefaults {
		configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	}

	loggerFactory := options.LoggerFactory
	if loggerFactory == nil {
		loggerFactory = utils.NewLoggerFactory()
	}

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       loggerFactory,
		logger:              zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       resolveApplicationVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogLevelInfo), logLevelChoices(), logLevelFlagUsageConstant))
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flags.FormatChoiceUsage(string(utils.LogFormatStructured), []string{string(utils.LogFormatStructured), string(utils.LogFormatConsole)}, logFormatFlagUsageConstant))

	purgeBuilder := packages.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() packages.PurgeConfiguration {
			return application.configuration.Purge
		},
		ServiceResolver: options.PurgeResolver,
	}
	purgeCommand, purgeBuildError := purgeBuilder.Build()
	if purgeBuildError != nil {
		return nil, fmt.Errorf(purgeCommandBuildErrorTemplateConstant, purgeBuildError)
	}
	cobraCommand.AddCommand(purgeCommand)

	application.rootCommand = cobraCommand

	return application, nil
}

// SetArguments replaces the arguments parsed by Execute.
func (application *Application) SetArguments(arguments []string) {
	application.rootCommand.SetArgs(arguments)
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := utils.SyncLogger(application.logger); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
	}
	for configurationKey, configurationValue := range packages.DefaultConfigurationValues("") {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	if persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logLevel, levelError := utils.ParseLogLevel(application.configuration.Common.LogLevel)
	if levelError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, levelError)
	}
	logFormat, formatError := utils.ParseLogFormat(application.configuration.Common.LogFormat)
	if formatError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, formatError)
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(logLevel, logFormat)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, string(logLevel)),
		zap.String(configurationLogFormatFieldConstant, string(logFormat)),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func logLevelChoices() []string {
	return []string{
		string(utils.LogLevelDebug),
		string(utils.LogLevelInfo),
		string(utils.LogLevelWarn),
		string(utils.LogLevelError),
	}
}

func persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}
	if rootCommand := command.Root(); rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet != nil && flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}

func resolveApplicationVersion() string {
	if trimmedVersion := strings.TrimSpace(applicationVersion); len(trimmedVersion) > 0 && trimmedVersion != developmentVersionConstant {
		return trimmedVersion
	}
	buildInfo, available := debug.ReadBuildInfo()
	if !available || len(buildInfo.Main.Version) == 0 || buildInfo.Main.Version == buildInfoDevelopmentVersionConstant {
		return developmentVersionConstant
	}
	return buildInfo.Main.Version
}
