package packages

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ghprune/internal/ghcr"
)

const (
	packageListingFailedMessageConstant  = "package listing failed"
	clientFactoryMissingMessageConstant  = "package client factory must be provided"
	tokenResolverMissingMessageConstant  = "token resolver must be provided"
	tokenResolutionErrorTemplateConstant = "unable to resolve personal access token: %w"
	clientCreationErrorTemplateConstant  = "unable to create package client: %w"
	packageListingErrorTemplateConstant  = "%w: %w"
	listPackagesFailureMessageConstant   = "unable to list container packages"
	packageNamesMessageConstant          = "container packages for owner"
	danglingVersionsMessageConstant      = "untagged versions found"
	deletingVersionMessageConstant       = "deleting untagged version"
	dryRunVersionMessageConstant         = "dry run: would delete untagged version"
	purgeCompletedMessageConstant        = "purge completed"
	logFieldOwnerConstant                = "owner"
	logFieldOwnerTypeConstant            = "owner_type"
	logFieldPackageNamesConstant         = "package_names"
	logFieldPackageConstant              = "package"
	logFieldVersionIDConstant            = "version_id"
	logFieldDanglingCountConstant        = "untagged_count"
	logFieldPackageCountConstant         = "package_count"
	logFieldDeletedCountConstant         = "deleted_count"
	logFieldDryRunConstant               = "dry_run"
)

// ErrPackageListing marks a run that ended because the initial package
// listing failed. Nothing was deleted and the failure has already been logged.
var ErrPackageListing = errors.New(packageListingFailedMessageConstant)

// PackageClient is the organization client surface consumed by the purge run.
type PackageClient interface {
	ListPackageNames(requestContext context.Context) ([]string, error)
	ListDanglingVersionIDs(requestContext context.Context, packageName string) ([]int64, error)
	DeleteVersion(requestContext context.Context, packageName string, versionID int64) error
}

// ClientFactory builds a PackageClient bound to the resolved run configuration.
type ClientFactory func(run ghcr.RunConfiguration) (PackageClient, error)

// PurgeOptions describes one purge invocation.
type PurgeOptions struct {
	Organization string
	OwnerType    ghcr.OwnerType
	Token        string
	TokenSource  TokenSourceConfiguration
	DryRun       bool
}

// PurgeResult summarizes a purge run.
type PurgeResult struct {
	PackageCount     int
	DanglingVersions int
	DeletedVersions  int
}

// PurgeExecutor runs purge workflows.
type PurgeExecutor interface {
	Execute(executionContext context.Context, options PurgeOptions) (PurgeResult, error)
}

// PurgeService lists container packages, finds their untagged versions, and deletes them.
type PurgeService struct {
	logger        *zap.Logger
	clientFactory ClientFactory
	tokenResolver TokenResolver
}

// NewPurgeService validates collaborators and constructs a PurgeService.
func NewPurgeService(logger *zap.Logger, clientFactory ClientFactory, tokenResolver TokenResolver) (*PurgeService, error) {
	if clientFactory == nil {
		return nil, errors.New(clientFactoryMissingMessageConstant)
	}
	if tokenResolver == nil {
		return nil, errors.New(tokenResolverMissingMessageConstant)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurgeService{logger: logger, clientFactory: clientFactory, tokenResolver: tokenResolver}, nil
}

// Execute performs the purge. A failed package listing is logged and reported
// as ErrPackageListing; any later failure stops the run and is returned as is.
func (service *PurgeService) Execute(executionContext context.Context, options PurgeOptions) (PurgeResult, error) {
	result := PurgeResult{}

	token, tokenError := service.resolveToken(executionContext, options)
	if tokenError != nil {
		return result, tokenError
	}

	runConfiguration := ghcr.RunConfiguration{
		Organization: strings.TrimSpace(options.Organization),
		OwnerType:    options.OwnerType,
		Token:        token,
	}
	if validationError := runConfiguration.Validate(); validationError != nil {
		return result, validationError
	}

	client, clientError := service.clientFactory(runConfiguration)
	if clientError != nil {
		return result, fmt.Errorf(clientCreationErrorTemplateConstant, clientError)
	}

	packageNames, listError := client.ListPackageNames(executionContext)
	if listError != nil {
		service.logger.Error(
			listPackagesFailureMessageConstant,
			zap.String(logFieldOwnerConstant, runConfiguration.Organization),
			zap.Error(listError),
		)
		return result, fmt.Errorf(packageListingErrorTemplateConstant, ErrPackageListing, listError)
	}

	service.logger.Info(
		packageNamesMessageConstant,
		zap.String(logFieldOwnerConstant, runConfiguration.Organization),
		zap.String(logFieldOwnerTypeConstant, string(runConfiguration.OwnerType)),
		zap.Strings(logFieldPackageNamesConstant, packageNames),
	)

	for _, packageName := range packageNames {
		danglingIdentifiers, versionsError := client.ListDanglingVersionIDs(executionContext, packageName)
		if versionsError != nil {
			return result, versionsError
		}
		result.PackageCount++
		result.DanglingVersions += len(danglingIdentifiers)

		service.logger.Info(
			danglingVersionsMessageConstant,
			zap.String(logFieldPackageConstant, packageName),
			zap.Int(logFieldDanglingCountConstant, len(danglingIdentifiers)),
		)

		for _, versionID := range danglingIdentifiers {
			if options.DryRun {
				service.logger.Info(
					dryRunVersionMessageConstant,
					zap.String(logFieldPackageConstant, packageName),
					zap.Int64(logFieldVersionIDConstant, versionID),
				)
				continue
			}

			service.logger.Info(
				deletingVersionMessageConstant,
				zap.String(logFieldPackageConstant, packageName),
				zap.Int64(logFieldVersionIDConstant, versionID),
			)
			if deleteError := client.DeleteVersion(executionContext, packageName, versionID); deleteError != nil {
				return result, deleteError
			}
			result.DeletedVersions++
		}
	}

	service.logger.Info(
		purgeCompletedMessageConstant,
		zap.Int(logFieldPackageCountConstant, result.PackageCount),
		zap.Int(logFieldDanglingCountConstant, result.DanglingVersions),
		zap.Int(logFieldDeletedCountConstant, result.DeletedVersions),
		zap.Bool(logFieldDryRunConstant, options.DryRun),
	)

	return result, nil
}

func (service *PurgeService) resolveToken(executionContext context.Context, options PurgeOptions) (string, error) {
	if trimmedToken := strings.TrimSpace(options.Token); len(trimmedToken) > 0 {
		return trimmedToken, nil
	}
	token, resolutionError := service.tokenResolver.ResolveToken(executionContext, options.TokenSource)
	if resolutionError != nil {
		return "", fmt.Errorf(tokenResolutionErrorTemplateConstant, resolutionError)
	}
	return token, nil
}
