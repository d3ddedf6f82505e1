package mocks

import (
	"context"
	"fmt"
	"sync"

	"torn_war_odds/internal/app"
)

// MockTornClient is a test double for the torn.Client
type MockTornClient struct {
	mu sync.Mutex

	// Responses to return
	RankedWarsResponse    *app.RankedWarsResponse
	FactionBasicResponses map[int]*app.FactionBasicResponse

	// Errors to return
	RankedWarsError    error
	FactionBasicErrors map[int]error

	// Call tracking
	GetRankedWarsCalls       int
	GetFactionBasicCalledIDs []int
}

// NewMockTornClient creates a new mock torn client
func NewMockTornClient() *MockTornClient {
	return &MockTornClient{
		FactionBasicResponses: make(map[int]*app.FactionBasicResponse),
		FactionBasicErrors:    make(map[int]error),
	}
}

func (m *MockTornClient) GetRankedWars(ctx context.Context) (*app.RankedWarsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetRankedWarsCalls++
	return m.RankedWarsResponse, m.RankedWarsError
}

// GetFactionBasic returns the configured profile for the faction, or an error when none is set
func (m *MockTornClient) GetFactionBasic(ctx context.Context, factionID int) (*app.FactionBasicResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetFactionBasicCalledIDs = append(m.GetFactionBasicCalledIDs, factionID)
	if err := m.FactionBasicErrors[factionID]; err != nil {
		return nil, err
	}
	if response, ok := m.FactionBasicResponses[factionID]; ok {
		return response, nil
	}
	return nil, fmt.Errorf("no faction %d configured", factionID)
}

// Reset clears all call tracking and responses
func (m *MockTornClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RankedWarsResponse = nil
	m.FactionBasicResponses = make(map[int]*app.FactionBasicResponse)
	m.RankedWarsError = nil
	m.FactionBasicErrors = make(map[int]error)
	m.GetRankedWarsCalls = 0
	m.GetFactionBasicCalledIDs = nil
}
