// Package githubcli wraps GitHub CLI invocations used by ghprune.
//
// Client reads the credential that gh stores for a host so a purge run can
// reuse an existing gh login.
package githubcli
