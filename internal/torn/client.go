package torn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/config"
	"torn_war_odds/internal/metrics"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the root of the Torn v1 API
const DefaultBaseURL = "https://api.torn.com"

// APIError is an error reported in the body of a Torn API response
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("torn api error %d: %s", e.Code, e.Message)
}

// Temporary reports whether the request may succeed if tried again later
func (e *APIError) Temporary() bool {
	switch e.Code {
	case 5, 8, 9, 17:
		// too many requests, IP block, API disabled, backend error
		return true
	}
	return false
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

type Client struct {
	apiKey       string
	baseURL      string
	client       *retryablehttp.Client
	limiter      *rate.Limiter
	apiRetry     config.RetryConfig
	apiCallCount int64
	apiCallMutex sync.Mutex
}

func NewClient(apiKey string) *Client {
	return NewClientWithBaseURL(apiKey, DefaultBaseURL)
}

// NewClientWithBaseURL creates a client against a custom API root
func NewClientWithBaseURL(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:   apiKey,
		baseURL:  baseURL,
		client:   app.NewRetryClient(config.DefaultResilienceConfig.APIRequest),
		limiter:  rate.NewLimiter(rate.Limit(config.APIRequestsPerSecond), config.APIRequestBurst),
		apiRetry: config.DefaultResilienceConfig.APIRequest,
	}
}

// IncrementAPICall safely increments the API call counter
func (c *Client) IncrementAPICall() {
	c.apiCallMutex.Lock()
	c.apiCallCount++
	c.apiCallMutex.Unlock()
}

// GetAPICallCount returns the current API call count
func (c *Client) GetAPICallCount() int64 {
	c.apiCallMutex.Lock()
	defer c.apiCallMutex.Unlock()
	return c.apiCallCount
}

// ResetAPICallCount resets the API call counter to zero
func (c *Client) ResetAPICallCount() {
	c.apiCallMutex.Lock()
	c.apiCallCount = 0
	c.apiCallMutex.Unlock()
}

type callCounterKey struct{}

// WithCallCounter returns a context whose requests are also counted in the returned
// counter, so a job can report its own calls while other jobs share the client.
func WithCallCounter(ctx context.Context) (context.Context, *atomic.Int64) {
	counter := new(atomic.Int64)
	return context.WithValue(ctx, callCounterKey{}, counter), counter
}

func (c *Client) countCall(ctx context.Context) {
	c.IncrementAPICall()
	if counter, ok := ctx.Value(callCounterKey{}).(*atomic.Int64); ok {
		counter.Add(1)
	}
}

func (c *Client) endpointURL(path, selections string) string {
	query := url.Values{}
	query.Set("selections", selections)
	query.Set("key", c.apiKey)
	return c.baseURL + path + "?" + query.Encode()
}

// fetch performs a rate limited GET and decodes the body into out. Transport errors
// and 5xx are retried by the HTTP client; temporary Torn errors arrive with a 200
// status and are retried here with the same backoff policy.
func (c *Client) fetch(ctx context.Context, endpoint, rawURL string, out interface{}) error {
	for attempt := 0; ; attempt++ {
		err := c.fetchOnce(ctx, endpoint, rawURL, out)

		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.Temporary() || attempt >= c.apiRetry.Retries() {
			return err
		}

		wait := c.apiRetry.Backoff(c.apiRetry.InitialWait, c.apiRetry.MaxWait, attempt, nil)
		log.Warn().
			Int("code", apiErr.Code).
			Str("endpoint", endpoint).
			Int("attempt", attempt+1).
			Dur("wait", wait).
			Msg("Temporary Torn API error, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%w (retry abandoned: %v)", err, ctx.Err())
		case <-timer.C:
		}
	}
}

// fetchOnce performs a single request.
// Torn reports most failures with a 200 status and an error object in the body.
func (c *Client) fetchOnce(ctx context.Context, endpoint, rawURL string, out interface{}) (err error) {
	defer func() { metrics.RecordTornRequest(endpoint, err) }()

	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		log.Debug().
			Err(err).
			Str("endpoint", endpoint).
			Msg("API request failed")
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	c.countCall(ctx)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		return envelope.Error
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	return nil
}

// GetRankedWars fetches every ranked war Torn currently lists
func (c *Client) GetRankedWars(ctx context.Context) (*app.RankedWarsResponse, error) {
	log.Debug().Msg("Fetching ranked wars")

	var response app.RankedWarsResponse
	if err := c.fetch(ctx, "rankedwars", c.endpointURL("/torn/", "rankedwars"), &response); err != nil {
		return nil, err
	}

	log.Debug().
		Int("wars", len(response.RankedWars)).
		Msg("Successfully fetched ranked wars")

	return &response, nil
}

// GetFactionBasic fetches the public profile of a faction
func (c *Client) GetFactionBasic(ctx context.Context, factionID int) (*app.FactionBasicResponse, error) {
	if factionID <= 0 {
		return nil, fmt.Errorf("invalid faction ID %d", factionID)
	}

	log.Debug().Int("faction_id", factionID).Msg("Fetching faction basic info")

	var response app.FactionBasicResponse
	path := "/faction/" + strconv.Itoa(factionID)
	if err := c.fetch(ctx, "faction_basic", c.endpointURL(path, "basic"), &response); err != nil {
		return nil, fmt.Errorf("faction %d: %w", factionID, err)
	}

	log.Debug().
		Int("faction_id", factionID).
		Str("name", response.Name).
		Float64("respect", response.Respect).
		Int("members", len(response.Members)).
		Msg("Successfully fetched faction basic info")

	return &response, nil
}
