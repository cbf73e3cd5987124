package ghcr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	authorizationHeaderNameConstant     = "Authorization"
	authorizationHeaderTemplateConstant = "Bearer %s"
	acceptHeaderNameConstant            = "Accept"
	acceptHeaderValueConstant           = "application/vnd.github+json"
	apiVersionHeaderNameConstant        = "X-GitHub-Api-Version"
	apiVersionHeaderValueConstant       = "2022-11-28"
	userAgentHeaderNameConstant         = "User-Agent"
	defaultUserAgentConstant            = "ghprune"
	httpsSchemeConstant                 = "https"
	maximumResponseBytesConstant        = 32 << 20
	insecureURLErrorTemplateConstant    = "refusing non-https url %q"
	invalidURLErrorTemplateConstant     = "invalid url %q: %w"
	requestBuildErrorTemplateConstant   = "unable to build %s request for %s: %w"
	bodyReadErrorTemplateConstant       = "unable to read response body: %w"
	tokenRequiredErrorMessageConstant   = "transport requires a bearer token"
)

// ErrInsecureURL indicates a request URL that does not use https.
var ErrInsecureURL = errors.New("insecure url")

// HTTPClient issues HTTP requests. *http.Client satisfies it.
type HTTPClient interface {
	Do(request *http.Request) (*http.Response, error)
}

// Transport is the capability the organization client needs from the network.
type Transport interface {
	FetchJSON(requestContext context.Context, resourceURL string) ([]byte, error)
	DeleteResource(requestContext context.Context, resourceURL string) error
}

// HTTPTransportOptions configures HTTPTransport.
type HTTPTransportOptions struct {
	HTTPClient     HTTPClient
	Token          string
	RequestTimeout time.Duration
	UserAgent      string
}

// HTTPTransport speaks to the GitHub REST API with a bearer credential.
type HTTPTransport struct {
	httpClient     HTTPClient
	token          string
	requestTimeout time.Duration
	userAgent      string
}

// NewHTTPTransport validates options and applies defaults.
func NewHTTPTransport(options HTTPTransportOptions) (*HTTPTransport, error) {
	if len(strings.TrimSpace(options.Token)) == 0 {
		return nil, errors.New(tokenRequiredErrorMessageConstant)
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	requestTimeout := options.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	userAgent := strings.TrimSpace(options.UserAgent)
	if len(userAgent) == 0 {
		userAgent = defaultUserAgentConstant
	}

	return &HTTPTransport{
		httpClient:     httpClient,
		token:          strings.TrimSpace(options.Token),
		requestTimeout: requestTimeout,
		userAgent:      userAgent,
	}, nil
}

// FetchJSON performs a GET and returns the raw body of a 2xx response.
func (transport *HTTPTransport) FetchJSON(requestContext context.Context, resourceURL string) ([]byte, error) {
	return transport.execute(requestContext, http.MethodGet, resourceURL)
}

// DeleteResource performs a DELETE and discards the body of a 2xx response.
func (transport *HTTPTransport) DeleteResource(requestContext context.Context, resourceURL string) error {
	_, deleteError := transport.execute(requestContext, http.MethodDelete, resourceURL)
	return deleteError
}

func (transport *HTTPTransport) execute(parentContext context.Context, method string, resourceURL string) ([]byte, error) {
	if validationError := validateSecureURL(resourceURL); validationError != nil {
		return nil, validationError
	}

	if parentContext == nil {
		parentContext = context.Background()
	}
	requestContext, cancel := context.WithTimeout(parentContext, transport.requestTimeout)
	defer cancel()

	request, requestError := http.NewRequestWithContext(requestContext, method, resourceURL, nil)
	if requestError != nil {
		return nil, fmt.Errorf(requestBuildErrorTemplateConstant, method, resourceURL, requestError)
	}
	transport.applyHeaders(request)

	response, responseError := transport.httpClient.Do(request)
	if responseError != nil {
		return nil, &TransportError{Method: method, URL: resourceURL, Cause: responseError}
	}
	defer response.Body.Close()

	responseBody, readError := io.ReadAll(io.LimitReader(response.Body, maximumResponseBytesConstant))
	if readError != nil {
		return nil, &TransportError{Method: method, URL: resourceURL, Cause: fmt.Errorf(bodyReadErrorTemplateConstant, readError)}
	}

	if !isSuccessStatus(response.StatusCode) {
		return nil, &APIError{
			Method:     method,
			URL:        resourceURL,
			StatusCode: response.StatusCode,
			Body:       string(responseBody),
		}
	}

	return responseBody, nil
}

func (transport *HTTPTransport) applyHeaders(request *http.Request) {
	request.Header.Set(authorizationHeaderNameConstant, fmt.Sprintf(authorizationHeaderTemplateConstant, transport.token))
	request.Header.Set(acceptHeaderNameConstant, acceptHeaderValueConstant)
	request.Header.Set(apiVersionHeaderNameConstant, apiVersionHeaderValueConstant)
	request.Header.Set(userAgentHeaderNameConstant, transport.userAgent)
}

func validateSecureURL(resourceURL string) error {
	parsedURL, parseError := url.Parse(resourceURL)
	if parseError != nil {
		return fmt.Errorf(invalidURLErrorTemplateConstant, resourceURL, parseError)
	}
	if !strings.EqualFold(parsedURL.Scheme, httpsSchemeConstant) {
		return fmt.Errorf("%w: "+insecureURLErrorTemplateConstant, ErrInsecureURL, resourceURL)
	}
	return nil
}
