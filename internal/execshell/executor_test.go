package execshell_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ghprune/internal/execshell"
)

const (
	testSecretOutputConstant = "gho_secret_value"
)

type recordingCommandRunner struct {
	executionResult  execshell.ExecutionResult
	executionError   error
	recordedCommands []execshell.ShellCommand
}

func (runner *recordingCommandRunner) Run(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	runner.recordedCommands = append(runner.recordedCommands, command)
	return runner.executionResult, runner.executionError
}

func TestShellExecutorInitializationValidation(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name        string
		logger      *zap.Logger
		runner      execshell.CommandRunner
		expectError error
	}{
		{name: "logger_validation", runner: &recordingCommandRunner{}, expectError: execshell.ErrLoggerNotConfigured},
		{name: "runner_validation", logger: zap.NewNop(), expectError: execshell.ErrCommandRunnerNotConfigured},
		{name: "successful_initialization", logger: zap.NewNop(), runner: &recordingCommandRunner{}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			executor, creationError := execshell.NewShellExecutor(testCase.logger, testCase.runner)
			if testCase.expectError != nil {
				require.ErrorIs(subTest, creationError, testCase.expectError)
				require.Nil(subTest, executor)
				return
			}
			require.NoError(subTest, creationError)
			require.NotNil(subTest, executor)
		})
	}
}

func TestShellExecutorExecuteGitHubCLI(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name            string
		runnerResult    execshell.ExecutionResult
		runnerError     error
		expectErrorType any
		expectedMessage string
	}{
		{
			name:         "success",
			runnerResult: execshell.ExecutionResult{StandardOutput: testSecretOutputConstant + "\n"},
		},
		{
			name:            "failure_exit_code",
			runnerResult:    execshell.ExecutionResult{StandardError: "not logged in\n", ExitCode: 1},
			expectErrorType: execshell.CommandFailedError{},
			expectedMessage: "gh exited with code 1: not logged in",
		},
		{
			name:            "runner_error",
			runnerError:     errors.New("executable file not found"),
			expectErrorType: execshell.CommandExecutionError{},
			expectedMessage: "gh could not be started: executable file not found",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			observerCore, observedLogs := observer.New(zap.DebugLevel)
			runner := &recordingCommandRunner{executionResult: testCase.runnerResult, executionError: testCase.runnerError}

			executor, creationError := execshell.NewShellExecutor(zap.New(observerCore), runner)
			require.NoError(subTest, creationError)

			details := execshell.CommandDetails{Arguments: []string{"auth", "token"}}
			result, executionError := executor.ExecuteGitHubCLI(context.Background(), details)

			require.Len(subTest, runner.recordedCommands, 1)
			require.Equal(subTest, execshell.GitHubCommandName, runner.recordedCommands[0].Name)
			require.Equal(subTest, details, runner.recordedCommands[0].Details)

			if testCase.expectErrorType != nil {
				require.Error(subTest, executionError)
				require.IsType(subTest, testCase.expectErrorType, executionError)
				require.EqualError(subTest, executionError, testCase.expectedMessage)
				require.Empty(subTest, result.StandardOutput)
			} else {
				require.NoError(subTest, executionError)
				require.Equal(subTest, testCase.runnerResult.StandardOutput, result.StandardOutput)
			}

			for _, entry := range observedLogs.All() {
				for _, fieldValue := range entry.ContextMap() {
					require.NotContains(subTest, fmt.Sprint(fieldValue), testSecretOutputConstant)
				}
			}
		})
	}
}

func TestOSCommandRunnerReportsMissingExecutable(testInstance *testing.T) {
	testInstance.Parallel()

	runner := execshell.NewOSCommandRunner()
	_, runError := runner.Run(context.Background(), execshell.ShellCommand{Name: "ghprune-missing-executable"})
	require.Error(testInstance, runError)
}
