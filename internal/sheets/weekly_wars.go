package sheets

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"torn_war_odds/internal/app"

	"github.com/rs/zerolog/log"
)

const (
	// WeeklySheetPrefix starts the title of every weekly wars sheet
	WeeklySheetPrefix = "Torn Wars Data - "

	weeklyHeaderRow = 4
	weeklyDataRow   = 5
	weeklyColumns   = 22
)

var weeklyHeaders = []interface{}{
	"War ID", "Status", "Start Date", "End Date", "Duration",
	"Target Score", "Faction 1 ID", "Faction 1 Name", "Faction 1 Score",
	"Faction 1 Chain", "Faction 1 Wars Won", "Faction 1 Wars Lost", "Faction 1 Win Rate",
	"Faction 2 ID", "Faction 2 Name", "Faction 2 Score", "Faction 2 Chain",
	"Faction 2 Wars Won", "Faction 2 Wars Lost", "Faction 2 Win Rate",
	"Total Score", "Winner Faction ID",
}

// WeeklyWarsManager maintains the "Torn Wars Data - <date>" sheets:
// two note rows, headers on row 4 and one war per row from row 5.
type WeeklyWarsManager struct {
	api SheetsAPI
}

// NewWeeklyWarsManager creates a manager over the given sheets API
func NewWeeklyWarsManager(api SheetsAPI) *WeeklyWarsManager {
	return &WeeklyWarsManager{api: api}
}

// EnsureWeeklySheet creates the weekly sheet with its notes and headers, or repairs
// the header row of an existing sheet whose layout has drifted.
func (m *WeeklyWarsManager) EnsureWeeklySheet(ctx context.Context, spreadsheetID, sheetName string, now time.Time) error {
	exists, err := m.api.SheetExists(ctx, spreadsheetID, sheetName)
	if err != nil {
		return fmt.Errorf("failed to check if weekly sheet exists: %w", err)
	}

	if !exists {
		log.Info().
			Str("sheet_name", sheetName).
			Msg("Creating weekly wars sheet")

		if err := m.api.CreateSheet(ctx, spreadsheetID, sheetName); err != nil {
			return fmt.Errorf("failed to create weekly sheet: %w", err)
		}

		notes := [][]interface{}{
			{fmt.Sprintf("Sheet created on %s UTC", now.UTC().Format("2006-01-02 15:04:05"))},
			{fmt.Sprintf("Data represents wars as of %s", strings.TrimPrefix(sheetName, WeeklySheetPrefix))},
		}
		if err := m.api.UpdateRange(ctx, spreadsheetID, sheetRange(sheetName, "A1", "A2"), notes); err != nil {
			return fmt.Errorf("failed to write sheet notes: %w", err)
		}

		return m.writeHeaders(ctx, spreadsheetID, sheetName)
	}

	headerRange := sheetRange(sheetName, fmt.Sprintf("A%d", weeklyHeaderRow), fmt.Sprintf("%s%d", columnLetter(weeklyColumns), weeklyHeaderRow))
	values, err := m.api.ReadSheet(ctx, spreadsheetID, headerRange)
	if err != nil {
		log.Warn().
			Err(err).
			Str("sheet_name", sheetName).
			Msg("Could not read weekly sheet headers, rewriting them")
		return m.writeHeaders(ctx, spreadsheetID, sheetName)
	}

	if len(values) == 0 || !headersMatch(values[0], weeklyHeaders) {
		log.Info().
			Str("sheet_name", sheetName).
			Msg("Weekly sheet headers changed, rewriting them")
		return m.writeHeaders(ctx, spreadsheetID, sheetName)
	}

	return nil
}

func (m *WeeklyWarsManager) writeHeaders(ctx context.Context, spreadsheetID, sheetName string) error {
	headerRange := sheetRange(sheetName, fmt.Sprintf("A%d", weeklyHeaderRow), fmt.Sprintf("%s%d", columnLetter(weeklyColumns), weeklyHeaderRow))
	if err := m.api.UpdateRange(ctx, spreadsheetID, headerRange, [][]interface{}{weeklyHeaders}); err != nil {
		return fmt.Errorf("failed to write weekly sheet headers: %w", err)
	}
	return nil
}

// WriteWars replaces the data rows of a weekly sheet with the given wars, in order
func (m *WeeklyWarsManager) WriteWars(ctx context.Context, spreadsheetID, sheetName string, wars []app.WarRow) error {
	lastColumn := columnLetter(weeklyColumns)

	if err := m.api.EnsureSheetCapacity(ctx, spreadsheetID, sheetName, weeklyDataRow+len(wars), weeklyColumns); err != nil {
		return fmt.Errorf("failed to ensure weekly sheet capacity: %w", err)
	}

	if err := m.api.ClearRange(ctx, spreadsheetID, sheetRange(sheetName, fmt.Sprintf("A%d", weeklyDataRow), lastColumn)); err != nil {
		return fmt.Errorf("failed to clear weekly sheet data: %w", err)
	}

	if len(wars) == 0 {
		log.Info().Str("sheet_name", sheetName).Msg("No wars to write")
		return nil
	}

	rows := make([][]interface{}, 0, len(wars))
	for _, war := range wars {
		rows = append(rows, warRowToSheet(war))
	}

	dataRange := sheetRange(sheetName, fmt.Sprintf("A%d", weeklyDataRow), fmt.Sprintf("%s%d", lastColumn, weeklyDataRow+len(rows)-1))
	if err := m.api.UpdateRange(ctx, spreadsheetID, dataRange, rows); err != nil {
		return fmt.Errorf("failed to write weekly sheet data: %w", err)
	}

	log.Info().
		Str("sheet_name", sheetName).
		Int("wars", len(rows)).
		Msg("Updated weekly wars sheet")

	return nil
}

// ReadWars parses the data rows of a weekly sheet. Rows without a valid war ID are skipped.
func (m *WeeklyWarsManager) ReadWars(ctx context.Context, spreadsheetID, sheetName string) ([]app.WarRow, error) {
	values, err := m.api.ReadSheet(ctx, spreadsheetID, sheetRange(sheetName, fmt.Sprintf("A%d", weeklyDataRow), columnLetter(weeklyColumns)))
	if err != nil {
		return nil, fmt.Errorf("failed to read weekly sheet: %w", err)
	}

	wars := make([]app.WarRow, 0, len(values))
	for i, row := range values {
		war, err := parseWarRow(row)
		if err != nil {
			log.Warn().
				Err(err).
				Str("sheet_name", sheetName).
				Int("row", weeklyDataRow+i).
				Msg("Skipping unreadable war row")
			continue
		}
		wars = append(wars, war)
	}

	return wars, nil
}

// WeeklySheets returns the titles of all weekly sheets, newest first
func (m *WeeklyWarsManager) WeeklySheets(ctx context.Context, spreadsheetID string) ([]string, error) {
	sheetList, err := m.api.ListSheets(ctx, spreadsheetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sheets: %w", err)
	}

	var titles []string
	for _, sheet := range sheetList {
		if strings.HasPrefix(sheet.Title, WeeklySheetPrefix) {
			titles = append(titles, sheet.Title)
		}
	}

	// ISO dates in the title sort chronologically
	sort.Sort(sort.Reverse(sort.StringSlice(titles)))
	return titles, nil
}

// CleanupOldSheets deletes weekly sheets beyond the newest keep. Individual delete
// failures are logged and skipped; the deleted titles are returned.
func (m *WeeklyWarsManager) CleanupOldSheets(ctx context.Context, spreadsheetID string, keep int) ([]string, error) {
	titles, err := m.WeeklySheets(ctx, spreadsheetID)
	if err != nil {
		return nil, err
	}

	if keep < 1 {
		keep = 1
	}
	if len(titles) <= keep {
		return nil, nil
	}

	var deleted []string
	for _, title := range titles[keep:] {
		if err := m.api.DeleteSheet(ctx, spreadsheetID, title); err != nil {
			log.Warn().
				Err(err).
				Str("sheet_name", title).
				Msg("Failed to delete old weekly sheet")
			continue
		}
		log.Info().Str("sheet_name", title).Msg("Deleted old weekly sheet")
		deleted = append(deleted, title)
	}

	return deleted, nil
}

func warRowToSheet(war app.WarRow) []interface{} {
	endDate := ""
	if war.EndDate != nil {
		endDate = formatSheetTime(*war.EndDate)
	}

	var winner interface{} = ""
	if war.WinnerFactionID > 0 {
		winner = war.WinnerFactionID
	}

	return []interface{}{
		war.WarID,
		war.Status,
		formatSheetTime(war.StartDate),
		endDate,
		war.Duration,
		war.TargetScore,
		war.Faction1.ID,
		factionHyperlink(war.Faction1.ID, war.Faction1.Name),
		war.Faction1.Score,
		war.Faction1.Chain,
		war.Faction1.WarsWon,
		war.Faction1.WarsLost,
		war.Faction1.WinRate,
		war.Faction2.ID,
		factionHyperlink(war.Faction2.ID, war.Faction2.Name),
		war.Faction2.Score,
		war.Faction2.Chain,
		war.Faction2.WarsWon,
		war.Faction2.WarsLost,
		war.Faction2.WinRate,
		war.TotalScore,
		winner,
	}
}

func parseWarRow(row []interface{}) (app.WarRow, error) {
	warID, err := strconv.Atoi(stripThousands(cellAt(row, 0).String()))
	if err != nil || warID <= 0 {
		return app.WarRow{}, fmt.Errorf("invalid war ID %q", cellAt(row, 0).String())
	}

	start, err := parseSheetTime(cellAt(row, 2).String())
	if err != nil {
		return app.WarRow{}, fmt.Errorf("war %d start date: %w", warID, err)
	}
	if start == nil {
		return app.WarRow{}, fmt.Errorf("war %d has no start date", warID)
	}
	end, err := parseSheetTime(cellAt(row, 3).String())
	if err != nil {
		return app.WarRow{}, fmt.Errorf("war %d end date: %w", warID, err)
	}

	return app.WarRow{
		WarID:           warID,
		Status:          cellAt(row, 1).String(),
		StartDate:       *start,
		EndDate:         end,
		Duration:        cellAt(row, 4).String(),
		TargetScore:     cellAt(row, 5).Int(),
		Faction1:        parseWarRowFaction(row, 6),
		Faction2:        parseWarRowFaction(row, 13),
		TotalScore:      cellAt(row, 20).Int(),
		WinnerFactionID: cellAt(row, 21).Int(),
	}, nil
}

// parseWarRowFaction reads the seven faction columns starting at offset
func parseWarRowFaction(row []interface{}, offset int) app.WarRowFaction {
	return app.WarRowFaction{
		ID:       cellAt(row, offset).Int(),
		Name:     cellAt(row, offset+1).String(),
		Score:    cellAt(row, offset+2).Int(),
		Chain:    cellAt(row, offset+3).Int(),
		WarsWon:  cellAt(row, offset+4).Int(),
		WarsLost: cellAt(row, offset+5).Int(),
		WinRate:  cellAt(row, offset+6).String(),
	}
}

func headersMatch(actual, expected []interface{}) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range expected {
		if NewCell(actual[i]).String() != NewCell(expected[i]).String() {
			return false
		}
	}
	return true
}
