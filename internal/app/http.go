package app

import (
	"torn_war_odds/internal/config"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// NewRetryClient builds a retrying HTTP client from a retry policy, logging through zerolog
func NewRetryClient(rc config.RetryConfig) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.HTTPClient.Timeout = rc.Timeout
	client.RetryMax = rc.Retries()
	client.RetryWaitMin = rc.InitialWait
	client.RetryWaitMax = rc.MaxWait
	client.Backoff = rc.Backoff
	client.Logger = RetryLogger{}
	return client
}

// RetryLogger adapts the global zerolog logger to retryablehttp.LeveledLogger.
// Retry chatter is demoted one level so routine retries stay out of info output.
type RetryLogger struct{}

func (RetryLogger) Error(msg string, keysAndValues ...interface{}) {
	log.Warn().Fields(keysAndValues).Msg(msg)
}

func (RetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	log.Info().Fields(keysAndValues).Msg(msg)
}

func (RetryLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Fields(keysAndValues).Msg(msg)
}

func (RetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	log.Trace().Fields(keysAndValues).Msg(msg)
}
