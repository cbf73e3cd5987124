package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/ghprune/internal/packages"
	"github.com/temirov/ghprune/internal/utils"
)

const (
	integrationOrganizationConstant             = "integration-org"
	integrationPackageConstant                  = "tooling"
	integrationTokenEnvironmentNameConstant     = "PACKAGES_TOKEN"
	integrationTokenValueConstant               = "packages-token-value"
	integrationPageSizeConstant                 = 3
	integrationTaggedVersionIDConstant          = 101
	integrationFirstUntaggedVersionIDConstant   = 202
	integrationSecondUntaggedVersionIDConstant  = 303
	integrationConfigTemplateConstant           = "common:\n  log_level: %s\npurge:\n  organization: %s\n  token_source: env:%s\n  dry_run: %t\n  service_base_url: %s\n  page_size: %d\n"
	integrationPackagesPathTemplateConstant     = "/orgs/%s/packages"
	integrationVersionsPathTemplateConstant     = "/orgs/%s/packages/container/%s/versions"
	integrationDeletePathTemplateConstant       = "/orgs/%s/packages/container/%s/versions/%d"
	integrationPackagesResponseConstant         = `[{"id":7,"name":"tooling","package_type":"container"}]`
	integrationVersionsResponseTemplateConstant = `[{"id":%d,"metadata":{"package_type":"container","container":{"tags":["stable"]}}},{"id":%d,"metadata":{"package_type":"container","container":{"tags":[]}}},{"id":%d,"metadata":{"package_type":"container","container":{"tags":[]}}}]`
)

type integrationListRequest struct {
	path        string
	packageType string
	page        int
	perPage     int
}

type integrationServer struct {
	mutex                sync.Mutex
	listRequests         []integrationListRequest
	deletedPaths         []string
	authorizationHeaders []string
}

func (server *integrationServer) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	server.mutex.Lock()
	defer server.mutex.Unlock()
	server.authorizationHeaders = append(server.authorizationHeaders, request.Header.Get("Authorization"))

	switch request.Method {
	case http.MethodGet:
		pageNumber, pageParseError := strconv.Atoi(request.URL.Query().Get("page"))
		perPageNumber, perPageParseError := strconv.Atoi(request.URL.Query().Get("per_page"))
		if pageParseError != nil || perPageParseError != nil {
			responseWriter.WriteHeader(http.StatusBadRequest)
			return
		}
		server.listRequests = append(server.listRequests, integrationListRequest{
			path:        request.URL.Path,
			packageType: request.URL.Query().Get("package_type"),
			page:        pageNumber,
			perPage:     perPageNumber,
		})

		responseWriter.Header().Set("Content-Type", "application/json")
		if pageNumber != 1 {
			_, _ = fmt.Fprint(responseWriter, "[]")
			return
		}
		switch request.URL.Path {
		case fmt.Sprintf(integrationPackagesPathTemplateConstant, integrationOrganizationConstant):
			_, _ = fmt.Fprint(responseWriter, integrationPackagesResponseConstant)
		case fmt.Sprintf(integrationVersionsPathTemplateConstant, integrationOrganizationConstant, integrationPackageConstant):
			_, _ = fmt.Fprintf(responseWriter, integrationVersionsResponseTemplateConstant, integrationTaggedVersionIDConstant, integrationFirstUntaggedVersionIDConstant, integrationSecondUntaggedVersionIDConstant)
		default:
			responseWriter.WriteHeader(http.StatusNotFound)
		}
	case http.MethodDelete:
		server.deletedPaths = append(server.deletedPaths, request.URL.Path)
		responseWriter.WriteHeader(http.StatusNoContent)
	default:
		responseWriter.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func TestApplicationPurgesAgainstGitHubAPI(testInstance *testing.T) {
	expectedDeletions := []string{
		fmt.Sprintf(integrationDeletePathTemplateConstant, integrationOrganizationConstant, integrationPackageConstant, integrationFirstUntaggedVersionIDConstant),
		fmt.Sprintf(integrationDeletePathTemplateConstant, integrationOrganizationConstant, integrationPackageConstant, integrationSecondUntaggedVersionIDConstant),
	}

	testCases := []struct {
		name                 string
		dryRun               bool
		logLevel             string
		expectedDeletedPaths []string
		expectedLogFragments []string
	}{
		{
			name:                 "deletes_untagged_versions",
			logLevel:             "info",
			expectedDeletedPaths: expectedDeletions,
			expectedLogFragments: []string{"deleting untagged version", "purge completed"},
		},
		{
			name:                 "dry_run_reports_only",
			dryRun:               true,
			logLevel:             "info",
			expectedLogFragments: []string{"dry run: would delete untagged version", "purge completed"},
		},
		{
			name:                 "quiet_log_level",
			logLevel:             "error",
			expectedDeletedPaths: expectedDeletions,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			handler := &integrationServer{}
			server := httptest.NewTLSServer(handler)
			subTest.Cleanup(server.Close)

			configurationPath := filepath.Join(subTest.TempDir(), testConfigFileNameConstant)
			configurationContent := fmt.Sprintf(integrationConfigTemplateConstant, testCase.logLevel, integrationOrganizationConstant, integrationTokenEnvironmentNameConstant, testCase.dryRun, server.URL, integrationPageSizeConstant)
			require.NoError(subTest, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))

			logOutput := &bytes.Buffer{}
			application, buildError := NewApplicationWithOptions(ApplicationOptions{
				LoggerFactory: utils.NewLoggerFactoryWithSink(zapcore.AddSync(logOutput)),
				PurgeResolver: &packages.DefaultPurgeServiceResolver{
					HTTPClient:        server.Client(),
					EnvironmentLookup: func(name string) (string, bool) {
						if name == integrationTokenEnvironmentNameConstant {
							return integrationTokenValueConstant, true
						}
						return "", false
					},
				},
				SearchPaths:   []string{subTest.TempDir()},
				EmbedDefaults: true,
			})
			require.NoError(subTest, buildError)

			application.SetArguments([]string{"--config", configurationPath, "purge"})
			require.NoError(subTest, application.Execute())

			handler.mutex.Lock()
			defer handler.mutex.Unlock()

			require.Equal(subTest, testCase.expectedDeletedPaths, handler.deletedPaths)
			require.Equal(subTest, []integrationListRequest{
				{path: fmt.Sprintf(integrationPackagesPathTemplateConstant, integrationOrganizationConstant), packageType: "container", page: 1, perPage: integrationPageSizeConstant},
				{path: fmt.Sprintf(integrationVersionsPathTemplateConstant, integrationOrganizationConstant, integrationPackageConstant), page: 1, perPage: integrationPageSizeConstant},
				{path: fmt.Sprintf(integrationVersionsPathTemplateConstant, integrationOrganizationConstant, integrationPackageConstant), page: 2, perPage: integrationPageSizeConstant},
			}, handler.listRequests)
			for _, authorizationHeader := range handler.authorizationHeaders {
				require.Equal(subTest, "Bearer "+integrationTokenValueConstant, authorizationHeader)
			}

			logText := logOutput.String()
			require.NotContains(subTest, logText, integrationTokenValueConstant)
			for _, expectedFragment := range testCase.expectedLogFragments {
				require.Contains(subTest, logText, expectedFragment)
			}
			if len(testCase.expectedLogFragments) == 0 {
				require.Empty(subTest, logText)
			}
		})
	}
}
