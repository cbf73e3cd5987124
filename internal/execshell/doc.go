// Package execshell runs external tools such as the GitHub CLI.
//
// ShellExecutor logs each invocation without its output and converts non-zero
// exit codes into CommandFailedError. OSCommandRunner is the os/exec backend.
package execshell
