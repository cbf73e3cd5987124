package execshell

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// OSCommandRunner executes commands using os/exec.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{}
}

// Run executes command. A non-zero exit is reported through ExitCode, not the error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executable := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	executable.Dir = command.Details.WorkingDirectory

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	executable.Stdout = &standardOutput
	executable.Stderr = &standardError

	result := ExecutionResult{}
	runError := executable.Run()
	var exitError *exec.ExitError
	switch {
	case runError == nil:
	case errors.As(runError, &exitError):
		result.ExitCode = exitError.ExitCode()
	default:
		return ExecutionResult{}, runError
	}

	result.StandardOutput = standardOutput.String()
	result.StandardError = standardError.String()
	return result, nil
}
