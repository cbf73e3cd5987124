// Package ghcr provides a typed client for the GitHub Packages container APIs.
//
// It defines the package and package version models with the dangling
// predicate, the bearer-authenticated HTTP transport, an optional retry
// decorator, and OrganizationClient which lists container packages, lists
// their untagged versions, and deletes them. Organization and user owners are
// both supported.
package ghcr
