package ghcr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	mapset "github.com/deckarep/golang-set"
	"go.uber.org/zap"
)

const (
	listPackagesPathTemplateConstant     = "%s/%s/%s/packages"
	listVersionsPathTemplateConstant     = "%s/%s/%s/packages/%s/%s/versions"
	deleteVersionPathTemplateConstant    = "%s/%s/%s/packages/%s/%s/versions/%d"
	packageTypeQueryParameterConstant    = "package_type"
	pageQueryParameterConstant           = "page"
	perPageQueryParameterConstant        = "per_page"
	firstPageNumberConstant              = 1
	transportMissingErrorMessageConstant = "organization client requires a transport"
	requestIssuedMessageConstant         = "github request issued"
	pageFetchedMessageConstant           = "github page fetched"
	logFieldOperationConstant            = "operation"
	logFieldURLConstant                  = "url"
	logFieldPageConstant                 = "page"
	logFieldItemCountConstant            = "item_count"
	listPackagesFailureTemplateConstant  = "unable to list %s packages for %s: %w"
	listVersionsFailureTemplateConstant  = "unable to list versions of package %s: %w"
	deleteVersionFailureTemplateConstant = "unable to delete version %d of package %s: %w"
)

var (
	// ErrTransportMissing indicates the client was constructed without a transport.
	ErrTransportMissing = errors.New(transportMissingErrorMessageConstant)
)

// OrganizationClient issues the package listing, version listing, and version
// deletion calls for one owner.
type OrganizationClient struct {
	logger        *zap.Logger
	transport     Transport
	configuration ServiceConfiguration
	run           RunConfiguration
}

// NewOrganizationClient validates collaborators and returns a client bound to run.
func NewOrganizationClient(logger *zap.Logger, transport Transport, configuration ServiceConfiguration, run RunConfiguration) (*OrganizationClient, error) {
	if transport == nil {
		return nil, ErrTransportMissing
	}
	if validationError := run.Validate(); validationError != nil {
		return nil, validationError
	}
	normalizedConfiguration, configurationError := configuration.normalized()
	if configurationError != nil {
		return nil, configurationError
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(run.OwnerType) == 0 {
		run.OwnerType = OrganizationOwnerType
	}

	return &OrganizationClient{
		logger:        logger,
		transport:     transport,
		configuration: normalizedConfiguration,
		run:           run,
	}, nil
}

// ListPackageNames returns the distinct container package names owned by the
// configured owner, sorted lexicographically.
func (client *OrganizationClient) ListPackageNames(requestContext context.Context) ([]string, error) {
	query := url.Values{}
	query.Set(packageTypeQueryParameterConstant, containerPackageTypeConstant)
	listingURL := fmt.Sprintf(listPackagesPathTemplateConstant, client.configuration.BaseURL, client.run.OwnerType.PathSegment(), url.PathEscape(client.run.Organization))

	packageSummaries, listError := fetchAll[PackageSummary](requestContext, client, ListPackagesOperationName, listingURL, query)
	if listError != nil {
		return nil, fmt.Errorf(listPackagesFailureTemplateConstant, containerPackageTypeConstant, client.run.Organization, listError)
	}

	distinctNames := mapset.NewThreadUnsafeSet()
	for _, packageSummary := range packageSummaries {
		distinctNames.Add(packageSummary.Name)
	}

	packageNames := make([]string, 0, distinctNames.Cardinality())
	for _, member := range distinctNames.ToSlice() {
		packageNames = append(packageNames, member.(string))
	}
	sort.Strings(packageNames)

	return packageNames, nil
}

// ListDanglingVersionIDs returns the identifiers of untagged versions of packageName.
func (client *OrganizationClient) ListDanglingVersionIDs(requestContext context.Context, packageName string) ([]int64, error) {
	versionsURL := fmt.Sprintf(
		listVersionsPathTemplateConstant,
		client.configuration.BaseURL,
		client.run.OwnerType.PathSegment(),
		url.PathEscape(client.run.Organization),
		containerPackageTypeConstant,
		url.PathEscape(packageName),
	)

	packageVersions, listError := fetchAll[PackageVersion](requestContext, client, ListVersionsOperationName, versionsURL, url.Values{})
	if listError != nil {
		return nil, fmt.Errorf(listVersionsFailureTemplateConstant, packageName, listError)
	}

	return ComputeDanglingIDs(packageVersions), nil
}

// DeleteVersion removes one version of packageName.
func (client *OrganizationClient) DeleteVersion(requestContext context.Context, packageName string, versionID int64) error {
	deletionURL := fmt.Sprintf(
		deleteVersionPathTemplateConstant,
		client.configuration.BaseURL,
		client.run.OwnerType.PathSegment(),
		url.PathEscape(client.run.Organization),
		containerPackageTypeConstant,
		url.PathEscape(packageName),
		versionID,
	)

	client.logger.Debug(
		requestIssuedMessageConstant,
		zap.String(logFieldOperationConstant, string(DeleteVersionOperationName)),
		zap.String(logFieldURLConstant, deletionURL),
	)

	if deleteError := client.transport.DeleteResource(requestContext, deletionURL); deleteError != nil {
		return fmt.Errorf(deleteVersionFailureTemplateConstant, versionID, packageName, deleteError)
	}
	return nil
}

// fetchAll reads one page when paging is disabled, otherwise walks pages until
// a short page is returned.
func fetchAll[Item any](requestContext context.Context, client *OrganizationClient, operation OperationName, resourceURL string, query url.Values) ([]Item, error) {
	pageSize := client.configuration.PageSize
	if pageSize == 0 {
		return fetchPage[Item](requestContext, client, operation, encodeURL(resourceURL, query))
	}

	collectedItems := make([]Item, 0)
	for pageNumber := firstPageNumberConstant; ; pageNumber++ {
		pageQuery := cloneQuery(query)
		pageQuery.Set(perPageQueryParameterConstant, strconv.Itoa(pageSize))
		pageQuery.Set(pageQueryParameterConstant, strconv.Itoa(pageNumber))

		pageItems, pageError := fetchPage[Item](requestContext, client, operation, encodeURL(resourceURL, pageQuery))
		if pageError != nil {
			return nil, pageError
		}
		client.logger.Debug(
			pageFetchedMessageConstant,
			zap.String(logFieldOperationConstant, string(operation)),
			zap.Int(logFieldPageConstant, pageNumber),
			zap.Int(logFieldItemCountConstant, len(pageItems)),
		)

		collectedItems = append(collectedItems, pageItems...)
		if len(pageItems) < pageSize {
			return collectedItems, nil
		}
	}
}

func fetchPage[Item any](requestContext context.Context, client *OrganizationClient, operation OperationName, pageURL string) ([]Item, error) {
	client.logger.Debug(
		requestIssuedMessageConstant,
		zap.String(logFieldOperationConstant, string(operation)),
		zap.String(logFieldURLConstant, pageURL),
	)

	responseBody, fetchError := client.transport.FetchJSON(requestContext, pageURL)
	if fetchError != nil {
		return nil, fetchError
	}

	var pageItems []Item
	if decodeError := json.Unmarshal(responseBody, &pageItems); decodeError != nil {
		return nil, &DecodeError{Operation: operation, URL: pageURL, Cause: decodeError}
	}
	return pageItems, nil
}

func encodeURL(resourceURL string, query url.Values) string {
	if len(query) == 0 {
		return resourceURL
	}
	return resourceURL + "?" + query.Encode()
}

func cloneQuery(query url.Values) url.Values {
	clonedQuery := make(url.Values, len(query)+2)
	for key, values := range query {
		clonedQuery[key] = append([]string(nil), values...)
	}
	return clonedQuery
}
