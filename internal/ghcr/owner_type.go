package ghcr

import (
	"fmt"
	"strings"
)

const (
	organizationOwnerTypeValueConstant        = "org"
	organizationOwnerTypeAliasValueConstant   = "organization"
	userOwnerTypeValueConstant                = "user"
	organizationsPathSegmentConstant          = "orgs"
	usersPathSegmentConstant                  = "users"
	unsupportedOwnerTypeErrorTemplateConstant = "owner type %q is not supported (expected org or user)"
)

// OwnerType selects the account scope whose container packages are cleaned.
type OwnerType string

// Supported owner scopes.
const (
	OrganizationOwnerType OwnerType = organizationOwnerTypeValueConstant
	UserOwnerType         OwnerType = userOwnerTypeValueConstant
)

// ParseOwnerType normalizes textual owner type values. An empty value selects
// the organization scope.
func ParseOwnerType(ownerTypeValue string) (OwnerType, error) {
	normalizedValue := strings.ToLower(strings.TrimSpace(ownerTypeValue))
	switch normalizedValue {
	case "", organizationOwnerTypeValueConstant, organizationOwnerTypeAliasValueConstant:
		return OrganizationOwnerType, nil
	case userOwnerTypeValueConstant:
		return UserOwnerType, nil
	default:
		return "", fmt.Errorf(unsupportedOwnerTypeErrorTemplateConstant, ownerTypeValue)
	}
}

// PathSegment resolves the REST API path segment for the owner scope.
func (ownerType OwnerType) PathSegment() string {
	if ownerType == UserOwnerType {
		return usersPathSegmentConstant
	}
	return organizationsPathSegmentConstant
}
