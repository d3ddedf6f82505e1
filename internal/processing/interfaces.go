package processing

import (
	"context"
	"time"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/odds"
)

// TornClientInterface defines the torn API client methods used by the jobs
type TornClientInterface interface {
	GetRankedWars(ctx context.Context) (*app.RankedWarsResponse, error)
	GetFactionBasic(ctx context.Context, factionID int) (*app.FactionBasicResponse, error)
}

// SheetsClientInterface defines the sheets API client methods used by the jobs
type SheetsClientInterface interface {
	EnsureWeeklySheet(ctx context.Context, spreadsheetID, sheetName string, now time.Time) error
	WriteWars(ctx context.Context, spreadsheetID, sheetName string, wars []app.WarRow) error
	ReadWars(ctx context.Context, spreadsheetID, sheetName string) ([]app.WarRow, error)
	CleanupOldSheets(ctx context.Context, spreadsheetID string, keep int) ([]string, error)
	WriteSample(ctx context.Context, spreadsheetID string, samples []app.SampledWarOdds) error
}

// OddsCalculatorInterface prices one matchup
type OddsCalculatorInterface interface {
	WarOdds(a, b odds.FactionAttributes) (odds.Result, error)
}

// SampleArchiverInterface stores priced samples for later analysis
type SampleArchiverInterface interface {
	ArchiveSample(ctx context.Context, samples []app.SampledWarOdds) error
}

// SampleNotifierInterface announces a freshly priced sample
type SampleNotifierInterface interface {
	NotifySample(ctx context.Context, samples []app.SampledWarOdds) error
}
