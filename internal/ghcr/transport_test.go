package ghcr_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghprune/internal/ghcr"
)

const (
	transportTestTokenConstant     = "transport-token"
	transportTestUserAgentConstant = "ghprune-test"
)

func TestHTTPTransportSendsGitHubHeaders(testInstance *testing.T) {
	testInstance.Parallel()

	recordedHeaders := make(chan http.Header, 1)
	server := httptest.NewTLSServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		recordedHeaders <- request.Header.Clone()
		responseWriter.Header().Set("Content-Type", "application/json")
		_, _ = responseWriter.Write([]byte(`[]`))
	}))
	testInstance.Cleanup(server.Close)

	transport, creationError := ghcr.NewHTTPTransport(ghcr.HTTPTransportOptions{
		HTTPClient: server.Client(),
		Token:      transportTestTokenConstant,
		UserAgent:  transportTestUserAgentConstant,
	})
	require.NoError(testInstance, creationError)

	responseBody, fetchError := transport.FetchJSON(context.Background(), server.URL+"/orgs/example/packages")
	require.NoError(testInstance, fetchError)
	require.JSONEq(testInstance, `[]`, string(responseBody))

	headers := <-recordedHeaders
	require.Equal(testInstance, "Bearer "+transportTestTokenConstant, headers.Get("Authorization"))
	require.Equal(testInstance, "application/vnd.github+json", headers.Get("Accept"))
	require.Equal(testInstance, "2022-11-28", headers.Get("X-GitHub-Api-Version"))
	require.Equal(testInstance, transportTestUserAgentConstant, headers.Get("User-Agent"))
}

func TestHTTPTransportDeleteStatusHandling(testInstance *testing.T) {
	testInstance.Parallel()

	testCases := []struct {
		name           string
		statusCode     int
		body           string
		expectAPIError bool
	}{
		{name: "no_content_is_success", statusCode: http.StatusNoContent},
		{name: "ok_is_success", statusCode: http.StatusOK},
		{name: "not_found_is_api_error", statusCode: http.StatusNotFound, body: `{"message":"Not Found"}`, expectAPIError: true},
		{name: "forbidden_is_api_error", statusCode: http.StatusForbidden, body: `{"message":"forbidden"}`, expectAPIError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			subTest.Parallel()

			recordedMethods := make(chan string, 1)
			server := httptest.NewTLSServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
				recordedMethods <- request.Method
				responseWriter.WriteHeader(testCase.statusCode)
				_, _ = responseWriter.Write([]byte(testCase.body))
			}))
			subTest.Cleanup(server.Close)

			transport, creationError := ghcr.NewHTTPTransport(ghcr.HTTPTransportOptions{HTTPClient: server.Client(), Token: transportTestTokenConstant})
			require.NoError(subTest, creationError)

			deleteError := transport.DeleteResource(context.Background(), server.URL+"/orgs/example/packages/container/app/versions/42")
			require.Equal(subTest, http.MethodDelete, <-recordedMethods)
			if !testCase.expectAPIError {
				require.NoError(subTest, deleteError)
				return
			}

			var apiError *ghcr.APIError
			require.ErrorAs(subTest, deleteError, &apiError)
			require.Equal(subTest, testCase.statusCode, apiError.StatusCode)
			require.Equal(subTest, testCase.body, apiError.Body)
			require.ErrorContains(subTest, deleteError, testCase.body)
		})
	}
}

func TestHTTPTransportRejectsInsecureURL(testInstance *testing.T) {
	testInstance.Parallel()

	stubClient := &recordingHTTPClient{}
	transport, creationError := ghcr.NewHTTPTransport(ghcr.HTTPTransportOptions{HTTPClient: stubClient, Token: transportTestTokenConstant})
	require.NoError(testInstance, creationError)

	_, fetchError := transport.FetchJSON(context.Background(), "http://api.github.com/orgs/example/packages")
	require.ErrorIs(testInstance, fetchError, ghcr.ErrInsecureURL)
	require.Zero(testInstance, stubClient.calls)
}

func TestHTTPTransportTimeoutIsTransportError(testInstance *testing.T) {
	testInstance.Parallel()

	releaseHandler := make(chan struct{})
	server := httptest.NewTLSServer(http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		select {
		case <-releaseHandler:
		case <-request.Context().Done():
		}
	}))
	testInstance.Cleanup(func() {
		close(releaseHandler)
		server.Close()
	})

	transport, creationError := ghcr.NewHTTPTransport(ghcr.HTTPTransportOptions{
		HTTPClient:     server.Client(),
		Token:          transportTestTokenConstant,
		RequestTimeout: 50 * time.Millisecond,
	})
	require.NoError(testInstance, creationError)

	_, fetchError := transport.FetchJSON(context.Background(), server.URL+"/slow")
	var transportError *ghcr.TransportError
	require.ErrorAs(testInstance, fetchError, &transportError)
	require.True(testInstance, errors.Is(fetchError, context.DeadlineExceeded))
}

func TestNewHTTPTransportRequiresToken(testInstance *testing.T) {
	testInstance.Parallel()

	transport, creationError := ghcr.NewHTTPTransport(ghcr.HTTPTransportOptions{Token: "  "})
	require.Error(testInstance, creationError)
	require.Nil(testInstance, transport)
}

type recordingHTTPClient struct {
	calls int
}

func (client *recordingHTTPClient) Do(request *http.Request) (*http.Response, error) {
	client.calls++
	return nil, errors.New("unexpected request")
}
