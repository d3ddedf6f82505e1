package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/config"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// maxEmbedFields is the Discord limit on fields per embed
const maxEmbedFields = 25

const embedColour = 0xE67E22

// WebhookNotifier posts a summary of each sample to a Discord-compatible webhook
type WebhookNotifier struct {
	url    string
	client *retryablehttp.Client
}

// NewWebhookNotifier creates a notifier using the webhook retry policy
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: app.NewRetryClient(config.DefaultResilienceConfig.Webhook),
	}
}

type webhookPayload struct {
	Username string  `json:"username,omitempty"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// NotifySample posts one embed with a field per priced war
func (n *WebhookNotifier) NotifySample(ctx context.Context, samples []app.SampledWarOdds) error {
	if len(samples) == 0 {
		return nil
	}

	body, err := json.Marshal(buildPayload(samples))
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	log.Debug().
		Str("sample_id", samples[0].SampleID).
		Int("wars", len(samples)).
		Msg("Sent sample notification")

	return nil
}

func buildPayload(samples []app.SampledWarOdds) webhookPayload {
	e := embed{
		Title:       "New ranked war odds",
		Description: fmt.Sprintf("%d upcoming wars priced", len(samples)),
		Color:       embedColour,
		Timestamp:   samples[0].Odds.Metadata.Timestamp.UTC().Format(time.RFC3339),
	}

	for i, sample := range samples {
		if i == maxEmbedFields {
			break
		}
		favourite, _ := sample.Favourite()
		e.Fields = append(e.Fields, embedField{
			Name: fmt.Sprintf("%s vs %s", sample.Faction1.Name, sample.Faction2.Name),
			Value: fmt.Sprintf("%s **%.2f** | %s **%.2f**\nFavourite: %s (%d%% confidence)",
				sample.Odds.FactionA.Name, sample.Odds.FactionA.Odds,
				sample.Odds.FactionB.Name, sample.Odds.FactionB.Odds,
				favourite, sample.Odds.Metadata.OverallConfidence),
		})
	}

	return webhookPayload{Username: "Torn War Odds", Embeds: []embed{e}}
}
