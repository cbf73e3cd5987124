// Package packages removes untagged container versions from GitHub Packages.
//
// CommandBuilder wires the Cobra purge command and PurgeService drives the
// list, filter, and delete run. Tokens come from env:NAME, file:/path, or gh
// sources.
package packages
