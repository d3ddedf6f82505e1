package mocks

import (
	"context"
	"time"

	"torn_war_odds/internal/app"
)

// MockSheetsClient is a test double for the sheets.Client
type MockSheetsClient struct {
	// Responses to return
	ReadWarsResponse         []app.WarRow
	CleanupOldSheetsResponse []string

	// Errors to return
	EnsureWeeklySheetError error
	WriteWarsError         error
	ReadWarsError          error
	CleanupOldSheetsError  error
	WriteSampleError       error

	// Call tracking
	EnsureWeeklySheetCalled bool
	WriteWarsCalled         bool
	ReadWarsCalled          bool
	CleanupOldSheetsCalled  bool
	WriteSampleCalled       bool

	// Call parameters tracking
	EnsureWeeklySheetCalledWith struct {
		SpreadsheetID string
		SheetName     string
		Now           time.Time
	}
	WriteWarsCalledWith struct {
		SpreadsheetID string
		SheetName     string
		Wars          []app.WarRow
	}
	ReadWarsCalledWith struct {
		SpreadsheetID string
		SheetName     string
	}
	CleanupOldSheetsCalledWith struct {
		SpreadsheetID string
		Keep          int
	}
	WriteSampleCalledWith struct {
		SpreadsheetID string
		Samples       []app.SampledWarOdds
	}
}

// NewMockSheetsClient creates a new mock sheets client
func NewMockSheetsClient() *MockSheetsClient {
	return &MockSheetsClient{}
}

func (m *MockSheetsClient) EnsureWeeklySheet(ctx context.Context, spreadsheetID, sheetName string, now time.Time) error {
	m.EnsureWeeklySheetCalled = true
	m.EnsureWeeklySheetCalledWith.SpreadsheetID = spreadsheetID
	m.EnsureWeeklySheetCalledWith.SheetName = sheetName
	m.EnsureWeeklySheetCalledWith.Now = now
	return m.EnsureWeeklySheetError
}

func (m *MockSheetsClient) WriteWars(ctx context.Context, spreadsheetID, sheetName string, wars []app.WarRow) error {
	m.WriteWarsCalled = true
	m.WriteWarsCalledWith.SpreadsheetID = spreadsheetID
	m.WriteWarsCalledWith.SheetName = sheetName
	m.WriteWarsCalledWith.Wars = wars
	return m.WriteWarsError
}

func (m *MockSheetsClient) ReadWars(ctx context.Context, spreadsheetID, sheetName string) ([]app.WarRow, error) {
	m.ReadWarsCalled = true
	m.ReadWarsCalledWith.SpreadsheetID = spreadsheetID
	m.ReadWarsCalledWith.SheetName = sheetName
	return m.ReadWarsResponse, m.ReadWarsError
}

func (m *MockSheetsClient) CleanupOldSheets(ctx context.Context, spreadsheetID string, keep int) ([]string, error) {
	m.CleanupOldSheetsCalled = true
	m.CleanupOldSheetsCalledWith.SpreadsheetID = spreadsheetID
	m.CleanupOldSheetsCalledWith.Keep = keep
	return m.CleanupOldSheetsResponse, m.CleanupOldSheetsError
}

func (m *MockSheetsClient) WriteSample(ctx context.Context, spreadsheetID string, samples []app.SampledWarOdds) error {
	m.WriteSampleCalled = true
	m.WriteSampleCalledWith.SpreadsheetID = spreadsheetID
	m.WriteSampleCalledWith.Samples = samples
	return m.WriteSampleError
}
