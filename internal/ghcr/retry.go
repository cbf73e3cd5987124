package ghcr

import (
	"context"
	"errors"
	"time"

	"github.com/jpillora/backoff"
	"go.uber.org/zap"
)

const (
	defaultRetryMinimumDelayConstant = 500 * time.Millisecond
	defaultRetryMaximumDelayConstant = 10 * time.Second
	defaultRetryFactorConstant       = 2
	retryScheduledMessageConstant    = "retrying github request"
	retryAttemptFieldConstant        = "attempt"
	retryDelayFieldConstant          = "delay"
	retryURLFieldConstant            = "url"
)

// RetryPolicy bounds how often a failed request is attempted again.
type RetryPolicy struct {
	MaxAttempts  int
	MinimumDelay time.Duration
	MaximumDelay time.Duration
}

// Enabled reports whether the policy allows more than one attempt.
func (policy RetryPolicy) Enabled() bool {
	return policy.MaxAttempts > 1
}

// Sleeper waits for the delay or until the context is done.
type Sleeper func(sleepContext context.Context, delay time.Duration) error

// RetryingTransport re-issues requests that failed with a transient error.
type RetryingTransport struct {
	delegate Transport
	policy   RetryPolicy
	logger   *zap.Logger
	sleeper  Sleeper
}

// NewRetryingTransport wraps delegate with policy. A nil sleeper uses a timer.
func NewRetryingTransport(logger *zap.Logger, delegate Transport, policy RetryPolicy, sleeper Sleeper) *RetryingTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sleeper == nil {
		sleeper = sleepWithContext
	}
	if policy.MinimumDelay <= 0 {
		policy.MinimumDelay = defaultRetryMinimumDelayConstant
	}
	if policy.MaximumDelay <= 0 {
		policy.MaximumDelay = defaultRetryMaximumDelayConstant
	}
	return &RetryingTransport{delegate: delegate, policy: policy, logger: logger, sleeper: sleeper}
}

// FetchJSON delegates and retries transient failures.
func (transport *RetryingTransport) FetchJSON(requestContext context.Context, resourceURL string) ([]byte, error) {
	var responseBody []byte
	retryError := transport.run(requestContext, resourceURL, func() error {
		var fetchError error
		responseBody, fetchError = transport.delegate.FetchJSON(requestContext, resourceURL)
		return fetchError
	})
	return responseBody, retryError
}

// DeleteResource delegates and retries transient failures.
func (transport *RetryingTransport) DeleteResource(requestContext context.Context, resourceURL string) error {
	return transport.run(requestContext, resourceURL, func() error {
		return transport.delegate.DeleteResource(requestContext, resourceURL)
	})
}

func (transport *RetryingTransport) run(requestContext context.Context, resourceURL string, attempt func() error) error {
	schedule := &backoff.Backoff{
		Min:    transport.policy.MinimumDelay,
		Max:    transport.policy.MaximumDelay,
		Factor: defaultRetryFactorConstant,
		Jitter: true,
	}

	maximumAttempts := transport.policy.MaxAttempts
	if maximumAttempts < 1 {
		maximumAttempts = 1
	}

	var attemptError error
	for attemptNumber := 1; attemptNumber <= maximumAttempts; attemptNumber++ {
		attemptError = attempt()
		if attemptError == nil {
			return nil
		}
		if attemptNumber == maximumAttempts || !IsRetryable(attemptError) {
			return attemptError
		}

		delay := schedule.Duration()
		transport.logger.Warn(
			retryScheduledMessageConstant,
			zap.String(retryURLFieldConstant, resourceURL),
			zap.Int(retryAttemptFieldConstant, attemptNumber),
			zap.Duration(retryDelayFieldConstant, delay),
			zap.Error(attemptError),
		)
		if sleepError := transport.sleeper(requestContext, delay); sleepError != nil {
			return attemptError
		}
	}
	return attemptError
}

// IsRetryable reports whether err is a transport failure or a transient API status.
func IsRetryable(err error) bool {
	var transportError *TransportError
	if errors.As(err, &transportError) {
		return !errors.Is(err, context.Canceled)
	}
	var apiError *APIError
	if errors.As(err, &apiError) {
		return apiError.Retryable()
	}
	return false
}

func sleepWithContext(sleepContext context.Context, delay time.Duration) error {
	if sleepContext == nil {
		sleepContext = context.Background()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-sleepContext.Done():
		return sleepContext.Err()
	case <-timer.C:
		return nil
	}
}
