package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

const (
	loggerNotConfiguredMessageConstant        = "shell executor logger not configured"
	commandRunnerNotConfiguredMessageConstant = "shell executor command runner not configured"
	commandFailedTemplateConstant             = "%s exited with code %d"
	commandFailedWithStderrTemplateConstant   = "%s exited with code %d: %s"
	commandExecutionFailedTemplateConstant    = "%s could not be started: %v"
	commandStartedMessageConstant             = "running external command"
	commandCompletedMessageConstant           = "external command finished"
	logFieldCommandConstant                   = "command"
	logFieldArgumentsConstant                 = "arguments"
	logFieldExitCodeConstant                  = "exit_code"
)

// CommandName identifies an executable.
type CommandName string

// GitHubCommandName is the GitHub CLI executable.
const GitHubCommandName CommandName = "gh"

// CommandDetails describes the arguments of one invocation.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
}

// ShellCommand pairs an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the output of a completed command.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes shell commands.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

var (
	// ErrLoggerNotConfigured indicates a missing logger.
	ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)
	// ErrCommandRunnerNotConfigured indicates a missing runner.
	ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)
)

// CommandFailedError reports a command that exited with a non-zero code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (failedError CommandFailedError) Error() string {
	trimmedStandardError := strings.TrimSpace(failedError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedWithStderrTemplateConstant, failedError.Command.Name, failedError.Result.ExitCode, trimmedStandardError)
}

// CommandExecutionError reports a command that could not be run at all.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionFailedTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the runner failure.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutor runs commands through a CommandRunner with logging.
type ShellExecutor struct {
	logger *zap.Logger
	runner CommandRunner
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, runner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if runner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{logger: logger, runner: runner}, nil
}

// ExecuteGitHubCLI runs gh with details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: GitHubCommandName, Details: details})
}

// Execute runs command. Output is returned to the caller and never logged.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
	)

	executionResult, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldCommandConstant, string(command.Name)),
		zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
	)

	if executionResult.ExitCode != 0 {
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}
	return executionResult, nil
}
