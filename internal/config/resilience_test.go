package config

import (
	"net/http"
	"testing"
	"time"
)

func TestRetryConfigRetries(t *testing.T) {
	testCases := []struct {
		maxAttempts int
		expected    int
	}{
		{0, 0},
		{1, 0},
		{3, 2},
		{5, 4},
	}

	for _, tc := range testCases {
		config := RetryConfig{MaxAttempts: tc.maxAttempts}
		if got := config.Retries(); got != tc.expected {
			t.Errorf("MaxAttempts %d: expected %d retries, got %d", tc.maxAttempts, tc.expected, got)
		}
	}
}

func TestDefaultResilienceConfig(t *testing.T) {
	api := DefaultResilienceConfig.APIRequest
	if api.MaxAttempts != 3 {
		t.Errorf("Expected default APIRequest MaxAttempts 3, got %d", api.MaxAttempts)
	}
	if api.InitialWait != 1*time.Second {
		t.Errorf("Expected default APIRequest InitialWait 1s, got %v", api.InitialWait)
	}
	if api.MaxWait != 10*time.Second {
		t.Errorf("Expected default APIRequest MaxWait 10s, got %v", api.MaxWait)
	}
	if api.Multiplier != 2.0 {
		t.Errorf("Expected default APIRequest Multiplier 2.0, got %f", api.Multiplier)
	}
	if api.Timeout != 30*time.Second {
		t.Errorf("Expected default APIRequest Timeout 30s, got %v", api.Timeout)
	}

	webhook := DefaultResilienceConfig.Webhook
	if webhook.MaxAttempts != 3 {
		t.Errorf("Expected default Webhook MaxAttempts 3, got %d", webhook.MaxAttempts)
	}
	if webhook.Timeout != 10*time.Second {
		t.Errorf("Expected default Webhook Timeout 10s, got %v", webhook.Timeout)
	}
	if webhook.InitialWait >= webhook.MaxWait {
		t.Errorf("Expected Webhook InitialWait below MaxWait, got %v >= %v", webhook.InitialWait, webhook.MaxWait)
	}
}

func TestRequestRate(t *testing.T) {
	spacing := time.Duration(float64(time.Second) / APIRequestsPerSecond)
	if spacing != 200*time.Millisecond {
		t.Errorf("Expected 200ms between Torn requests, got %v", spacing)
	}
}

func TestRetryConfigBackoff(t *testing.T) {
	config := RetryConfig{Multiplier: 2.0}
	min, max := 1*time.Second, 10*time.Second

	testCases := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 10 * time.Second},
		{20, 10 * time.Second},
	}

	for _, tc := range testCases {
		if got := config.Backoff(min, max, tc.attempt, nil); got != tc.expected {
			t.Errorf("Attempt %d: expected %v, got %v", tc.attempt, tc.expected, got)
		}
	}

	t.Run("RetryAfterHeader", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusTooManyRequests, Header: http.Header{}}
		resp.Header.Set("Retry-After", "3")
		if got := config.Backoff(min, max, 0, resp); got != 3*time.Second {
			t.Errorf("Expected Retry-After of 3s, got %v", got)
		}

		resp.Header.Set("Retry-After", "60")
		if got := config.Backoff(min, max, 0, resp); got != max {
			t.Errorf("Expected Retry-After capped at %v, got %v", max, got)
		}
	})

	t.Run("FlatMultiplier", func(t *testing.T) {
		flat := RetryConfig{Multiplier: 0}
		if got := flat.Backoff(min, max, 5, nil); got != min {
			t.Errorf("Expected constant wait of %v, got %v", min, got)
		}
	})
}
