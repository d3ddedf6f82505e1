package sheets

import (
	"context"
	"time"

	"torn_war_odds/internal/app"
)

// Weekly wars and sample sheet functions that use the infrastructure layer.
// These delegate to the specialized managers for the sheet layouts.

// EnsureWeeklySheet creates the weekly wars sheet if needed and checks its headers
func (c *Client) EnsureWeeklySheet(ctx context.Context, spreadsheetID, sheetName string, now time.Time) error {
	return NewWeeklyWarsManager(c).EnsureWeeklySheet(ctx, spreadsheetID, sheetName, now)
}

// WriteWars replaces the war rows of a weekly sheet
func (c *Client) WriteWars(ctx context.Context, spreadsheetID, sheetName string, wars []app.WarRow) error {
	return NewWeeklyWarsManager(c).WriteWars(ctx, spreadsheetID, sheetName, wars)
}

// ReadWars reads the war rows of a weekly sheet
func (c *Client) ReadWars(ctx context.Context, spreadsheetID, sheetName string) ([]app.WarRow, error) {
	return NewWeeklyWarsManager(c).ReadWars(ctx, spreadsheetID, sheetName)
}

// CleanupOldSheets deletes weekly sheets beyond the newest keep
func (c *Client) CleanupOldSheets(ctx context.Context, spreadsheetID string, keep int) ([]string, error) {
	return NewWeeklyWarsManager(c).CleanupOldSheets(ctx, spreadsheetID, keep)
}

// WriteSample replaces the random wars sample sheet
func (c *Client) WriteSample(ctx context.Context, spreadsheetID string, samples []app.SampledWarOdds) error {
	return NewSampleSheetManager(c).WriteSample(ctx, spreadsheetID, samples)
}

// ReadSampleRecords reads the random wars sample sheet as header-keyed records
func (c *Client) ReadSampleRecords(ctx context.Context, spreadsheetID string) ([]map[string]interface{}, error) {
	return NewSampleSheetManager(c).ReadRecords(ctx, spreadsheetID)
}
