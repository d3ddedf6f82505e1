package processing

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/metrics"
	"torn_war_odds/internal/sheets"

	"github.com/rs/zerolog/log"
)

// NotStartedMarker is the duration shown for wars that have not begun yet
const NotStartedMarker = "Not started"

// War statuses as written to the weekly sheet
const (
	StatusPreparing = "Preparing"
	StatusActive    = "Active"
	StatusFinished  = "Finished"
)

// WeeklySheetName names the sheet for the week containing now. Weeks start on Tuesday (UTC).
func WeeklySheetName(now time.Time) string {
	utc := now.UTC()
	daysSinceTuesday := (int(utc.Weekday()) - int(time.Tuesday) + 7) % 7
	tuesday := utc.AddDate(0, 0, -daysSinceTuesday)
	return sheets.WeeklySheetPrefix + tuesday.Format("2006-01-02")
}

// FormatDuration renders how long a war has run as "Xd Yh Zm", "Yh Zm" or "Zm".
// Unfinished wars are measured up to now; wars starting after now are NotStartedMarker.
func FormatDuration(start time.Time, end *time.Time, now time.Time) string {
	if start.After(now) {
		return NotStartedMarker
	}

	until := now
	if end != nil {
		until = *end
	}
	duration := until.Sub(start)
	if duration < 0 {
		duration = 0
	}

	days := int(duration / (24 * time.Hour))
	hours := int(duration % (24 * time.Hour) / time.Hour)
	minutes := int(duration % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// WarStatus classifies a war relative to now
func WarStatus(start time.Time, end *time.Time, now time.Time) string {
	switch {
	case start.After(now):
		return StatusPreparing
	case end == nil || end.After(now):
		return StatusActive
	default:
		return StatusFinished
	}
}

// FactionHistories counts ranked war wins and losses per faction over the finished
// wars in the response.
func FactionHistories(response *app.RankedWarsResponse) map[int]app.FactionHistory {
	histories := make(map[int]app.FactionHistory)
	if response == nil {
		return histories
	}

	for _, war := range response.RankedWars {
		if war.War.End == 0 || war.War.Winner == 0 {
			continue
		}
		for key := range war.Factions {
			factionID, err := strconv.Atoi(key)
			if err != nil {
				continue
			}
			history := histories[factionID]
			if factionID == war.War.Winner {
				history.WarsWon++
			} else {
				history.WarsLost++
			}
			histories[factionID] = history
		}
	}

	return histories
}

// BuildWarRows converts the ranked wars response into sheet rows, newest start first.
// Wars that do not have exactly two factions are skipped.
func BuildWarRows(response *app.RankedWarsResponse, now time.Time) []app.WarRow {
	if response == nil {
		return nil
	}

	histories := FactionHistories(response)
	rows := make([]app.WarRow, 0, len(response.RankedWars))

	for key, war := range response.RankedWars {
		warID, err := strconv.Atoi(key)
		if err != nil {
			log.Warn().Str("war_id", key).Msg("Skipping war with non-numeric ID")
			continue
		}

		sides := warSides(war, histories)
		if len(sides) != 2 {
			log.Warn().
				Int("war_id", warID).
				Int("factions", len(sides)).
				Msg("Skipping war without exactly two factions")
			continue
		}

		start := time.Unix(war.War.Start, 0).UTC()
		var end *time.Time
		if war.War.End > 0 {
			e := time.Unix(war.War.End, 0).UTC()
			end = &e
		}

		rows = append(rows, app.WarRow{
			WarID:           warID,
			Status:          WarStatus(start, end, now),
			StartDate:       start,
			EndDate:         end,
			Duration:        FormatDuration(start, end, now),
			TargetScore:     war.War.Target,
			Faction1:        sides[0],
			Faction2:        sides[1],
			TotalScore:      sides[0].Score + sides[1].Score,
			WinnerFactionID: war.War.Winner,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if !rows[i].StartDate.Equal(rows[j].StartDate) {
			return rows[i].StartDate.After(rows[j].StartDate)
		}
		return rows[i].WarID > rows[j].WarID
	})

	return rows
}

// warSides returns the factions of a war ordered by faction ID
func warSides(war app.RankedWar, histories map[int]app.FactionHistory) []app.WarRowFaction {
	sides := make([]app.WarRowFaction, 0, len(war.Factions))
	for key, faction := range war.Factions {
		factionID, err := strconv.Atoi(key)
		if err != nil {
			continue
		}
		name := faction.Name
		if name == "" {
			name = "Unknown"
		}
		history := histories[factionID]
		sides = append(sides, app.WarRowFaction{
			ID:       factionID,
			Name:     name,
			Score:    faction.Score,
			Chain:    faction.Chain,
			WarsWon:  history.WarsWon,
			WarsLost: history.WarsLost,
			WinRate:  history.WinRateString(),
		})
	}
	sort.Slice(sides, func(i, j int) bool { return sides[i].ID < sides[j].ID })
	return sides
}

// UpdateResult summarises one run of the wars update job
type UpdateResult struct {
	SheetName     string
	Wars          int
	Unstarted     int
	DeletedSheets []string
}

// WarsUpdateService refreshes this week's wars sheet from the Torn API
type WarsUpdateService struct {
	tornClient   TornClientInterface
	sheetsClient SheetsClientInterface
	config       *app.Config
	now          func() time.Time
}

// NewWarsUpdateService creates the wars update job
func NewWarsUpdateService(tornClient TornClientInterface, sheetsClient SheetsClientInterface, config *app.Config) *WarsUpdateService {
	return &WarsUpdateService{
		tornClient:   tornClient,
		sheetsClient: sheetsClient,
		config:       config,
		now:          time.Now,
	}
}

// Run fetches all ranked wars, rewrites the weekly sheet and prunes old weekly sheets.
// Cleanup failures are logged and do not fail the run.
func (s *WarsUpdateService) Run(ctx context.Context) (*UpdateResult, error) {
	now := s.now().UTC()
	sheetName := WeeklySheetName(now)

	log.Info().Str("sheet_name", sheetName).Msg("Updating ranked wars")

	response, err := s.tornClient.GetRankedWars(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ranked wars: %w", err)
	}

	rows := BuildWarRows(response, now)

	if err := s.sheetsClient.EnsureWeeklySheet(ctx, s.config.SpreadsheetID, sheetName, now); err != nil {
		return nil, fmt.Errorf("failed to prepare weekly sheet: %w", err)
	}
	if err := s.sheetsClient.WriteWars(ctx, s.config.SpreadsheetID, sheetName, rows); err != nil {
		return nil, fmt.Errorf("failed to write weekly sheet: %w", err)
	}
	metrics.RecordSheetWrite("weekly")

	result := &UpdateResult{
		SheetName: sheetName,
		Wars:      len(rows),
		Unstarted: len(UnstartedWars(rows)),
	}

	deleted, err := s.sheetsClient.CleanupOldSheets(ctx, s.config.SpreadsheetID, s.config.KeepWeeks)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to clean up old weekly sheets")
	}
	result.DeletedSheets = deleted

	log.Info().
		Str("sheet_name", sheetName).
		Int("wars", result.Wars).
		Int("unstarted", result.Unstarted).
		Int("deleted_sheets", len(deleted)).
		Msg("Ranked wars update complete")

	return result, nil
}
