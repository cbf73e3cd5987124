// Package utils exposes the configuration and logging plumbing shared by the CLI.
//
// ConfigurationLoader layers embedded defaults, configuration files, and
// environment variables through Viper. LoggerFactory builds zap loggers.
package utils
