package torn

import (
	"context"

	"torn_war_odds/internal/app"
)

// TornAPI defines the interface for interacting with the Torn API
// This separates infrastructure concerns from business logic
type TornAPI interface {
	// Core API endpoints
	GetRankedWars(ctx context.Context) (*app.RankedWarsResponse, error)
	GetFactionBasic(ctx context.Context, factionID int) (*app.FactionBasicResponse, error)

	// API call tracking
	GetAPICallCount() int64
	IncrementAPICall()
	ResetAPICallCount()
}
