package config

import (
	"math"
	"net/http"
	"time"
)

// Retry configuration constants
const (
	// Torn API request retry configuration
	APIRequestMaxAttempts       = 3
	APIRequestInitialWait       = 1 * time.Second
	APIRequestMaxWait           = 10 * time.Second
	APIRequestBackoffMultiplier = 2.0
	APIRequestTimeout           = 30 * time.Second

	// Torn allows 100 requests per minute per key; one request every 200ms keeps faction
	// lookups for a full sample well under that.
	APIRequestsPerSecond = 5.0
	APIRequestBurst      = 1

	// Webhook delivery retry configuration
	WebhookMaxAttempts       = 3
	WebhookInitialWait       = 500 * time.Millisecond
	WebhookMaxWait           = 5 * time.Second
	WebhookBackoffMultiplier = 2.0
	WebhookTimeout           = 10 * time.Second
)

// RetryConfig defines retry behavior for operations
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
	Timeout     time.Duration
}

// Retries returns the number of retries after the first attempt
func (r RetryConfig) Retries() int {
	if r.MaxAttempts <= 1 {
		return 0
	}
	return r.MaxAttempts - 1
}

// Backoff grows the wait by Multiplier per attempt, starting at min and capped at max.
// A Retry-After header on a 429 or 503 response takes precedence.
func (r RetryConfig) Backoff(min, max time.Duration, attemptNum int, resp *http.Response) time.Duration {
	if resp != nil && (resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if after, err := time.ParseDuration(resp.Header.Get("Retry-After") + "s"); err == nil && after > 0 {
			if after > max {
				return max
			}
			return after
		}
	}

	multiplier := r.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	wait := time.Duration(float64(min) * math.Pow(multiplier, float64(attemptNum)))
	if wait > max || wait <= 0 {
		return max
	}
	return wait
}

// ResilienceConfig contains all retry configurations
type ResilienceConfig struct {
	APIRequest RetryConfig
	Webhook    RetryConfig
}

// DefaultResilienceConfig provides sensible defaults
var DefaultResilienceConfig = ResilienceConfig{
	APIRequest: RetryConfig{
		MaxAttempts: APIRequestMaxAttempts,
		InitialWait: APIRequestInitialWait,
		MaxWait:     APIRequestMaxWait,
		Multiplier:  APIRequestBackoffMultiplier,
		Timeout:     APIRequestTimeout,
	},
	Webhook: RetryConfig{
		MaxAttempts: WebhookMaxAttempts,
		InitialWait: WebhookInitialWait,
		MaxWait:     WebhookMaxWait,
		Multiplier:  WebhookBackoffMultiplier,
		Timeout:     WebhookTimeout,
	},
}
