package processing

import (
	"context"
	"errors"
	"testing"
	"time"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/processing/mocks"
)

func testConfig() *app.Config {
	return &app.Config{
		SpreadsheetID: "spreadsheet-123",
		SampleSize:    2,
		KeepWeeks:     8,
	}
}

// rankedWarsFixture has a finished war, an active war and an upcoming war around
// 2025-03-04 12:00 UTC
func rankedWarsFixture() *app.RankedWarsResponse {
	return &app.RankedWarsResponse{
		RankedWars: map[string]app.RankedWar{
			"1001": {
				Factions: map[string]app.WarFaction{
					"22": {Name: "Bravo", Score: 2800, Chain: 95},
					"11": {Name: "Alpha", Score: 3200, Chain: 150},
				},
				War: app.WarTimes{
					Start:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Unix(),
					End:    time.Date(2025, 3, 2, 18, 30, 0, 0, time.UTC).Unix(),
					Target: 3000,
					Winner: 11,
				},
			},
			"1002": {
				Factions: map[string]app.WarFaction{
					"11": {Name: "Alpha", Score: 500},
					"33": {Name: "Charlie", Score: 250},
				},
				War: app.WarTimes{
					Start:  time.Date(2025, 3, 4, 9, 45, 0, 0, time.UTC).Unix(),
					Target: 4000,
				},
			},
			"1003": {
				Factions: map[string]app.WarFaction{
					"44": {Name: "Delta"},
					"22": {Name: "Bravo"},
				},
				War: app.WarTimes{
					Start:  time.Date(2025, 3, 6, 12, 0, 0, 0, time.UTC).Unix(),
					Target: 4500,
				},
			},
			"1004": {
				Factions: map[string]app.WarFaction{
					"55": {Name: "Lonely"},
				},
				War: app.WarTimes{Start: time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC).Unix()},
			},
		},
	}
}

var fixtureNow = time.Date(2025, 3, 4, 12, 0, 0, 0, time.UTC)

func TestWeeklySheetName(t *testing.T) {
	testCases := []struct {
		name     string
		now      time.Time
		expected string
	}{
		{"Tuesday itself", time.Date(2025, 3, 4, 0, 0, 1, 0, time.UTC), "Torn Wars Data - 2025-03-04"},
		{"Monday after", time.Date(2025, 3, 10, 23, 59, 0, 0, time.UTC), "Torn Wars Data - 2025-03-04"},
		{"Wednesday", time.Date(2025, 3, 5, 8, 0, 0, 0, time.UTC), "Torn Wars Data - 2025-03-04"},
		{"Across a month", time.Date(2025, 3, 2, 8, 0, 0, 0, time.UTC), "Torn Wars Data - 2025-02-25"},
		{"Non-UTC input", time.Date(2025, 3, 4, 1, 0, 0, 0, time.FixedZone("EST", -5*3600)), "Torn Wars Data - 2025-03-04"},
		{"Late Monday in a zone ahead of UTC", time.Date(2025, 3, 4, 0, 30, 0, 0, time.FixedZone("CET", 3600)), "Torn Wars Data - 2025-02-25"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WeeklySheetName(tc.now); got != tc.expected {
				t.Errorf("Expected %s, got %s", tc.expected, got)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	end := func(d time.Duration) *time.Time {
		e := start.Add(d)
		return &e
	}

	testCases := []struct {
		name     string
		end      *time.Time
		now      time.Time
		expected string
	}{
		{"Days", end(30*time.Hour + 30*time.Minute), fixtureNow, "1d 6h 30m"},
		{"Hours", end(5*time.Hour + 7*time.Minute), fixtureNow, "5h 7m"},
		{"Minutes", end(42 * time.Minute), fixtureNow, "42m"},
		{"Zero", end(0), fixtureNow, "0m"},
		{"Exact day", end(48 * time.Hour), fixtureNow, "2d 0h 0m"},
		{"Ongoing measured to now", nil, start.Add(90 * time.Minute), "1h 30m"},
		{"Not started", nil, start.Add(-time.Minute), NotStartedMarker},
		{"End before start", end(-time.Hour), fixtureNow, "0m"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatDuration(start, tc.end, tc.now); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestWarStatus(t *testing.T) {
	past := fixtureNow.Add(-time.Hour)
	future := fixtureNow.Add(time.Hour)

	testCases := []struct {
		name     string
		start    time.Time
		end      *time.Time
		expected string
	}{
		{"Upcoming", future, nil, StatusPreparing},
		{"Running", past, nil, StatusActive},
		{"Finished", past.Add(-time.Hour), &past, StatusFinished},
		{"End scheduled later", past, &future, StatusActive},
	}

	for _, tc := range testCases {
		if got := WarStatus(tc.start, tc.end, fixtureNow); got != tc.expected {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.expected, got)
		}
	}
}

func TestFactionHistories(t *testing.T) {
	histories := FactionHistories(rankedWarsFixture())

	if h := histories[11]; h.WarsWon != 1 || h.WarsLost != 0 {
		t.Errorf("Expected Alpha 1-0, got %+v", h)
	}
	if h := histories[22]; h.WarsWon != 0 || h.WarsLost != 1 {
		t.Errorf("Expected Bravo 0-1, got %+v", h)
	}
	if _, ok := histories[33]; ok {
		t.Error("Expected no history for a faction with only unfinished wars")
	}

	if got := histories[11].WinRateString(); got != "100%" {
		t.Errorf("Expected 100%%, got %s", got)
	}
	if got := histories[33].WinRateString(); got != "N/A" {
		t.Errorf("Expected N/A, got %s", got)
	}

	if len(FactionHistories(nil)) != 0 {
		t.Error("Expected empty histories for a nil response")
	}
}

func TestBuildWarRows(t *testing.T) {
	rows := BuildWarRows(rankedWarsFixture(), fixtureNow)

	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows (one-sided war skipped), got %d", len(rows))
	}

	// newest start first
	for i, warID := range []int{1003, 1002, 1001} {
		if rows[i].WarID != warID {
			t.Errorf("Row %d: expected war %d, got %d", i, warID, rows[i].WarID)
		}
	}

	upcoming := rows[0]
	if upcoming.Status != StatusPreparing || upcoming.Duration != NotStartedMarker {
		t.Errorf("Expected upcoming war to be preparing and not started, got %s / %s", upcoming.Status, upcoming.Duration)
	}
	if upcoming.Faction1.ID != 22 || upcoming.Faction2.ID != 44 {
		t.Errorf("Expected factions ordered by ID, got %d and %d", upcoming.Faction1.ID, upcoming.Faction2.ID)
	}
	if upcoming.Faction1.WarsLost != 1 || upcoming.Faction1.WinRate != "0%" {
		t.Errorf("Expected Bravo history on the upcoming war, got %+v", upcoming.Faction1)
	}
	if upcoming.Faction2.WinRate != "N/A" {
		t.Errorf("Expected Delta win rate N/A, got %s", upcoming.Faction2.WinRate)
	}

	active := rows[1]
	if active.Status != StatusActive || active.Duration != "2h 15m" {
		t.Errorf("Expected active war running 2h 15m, got %s / %s", active.Status, active.Duration)
	}
	if active.EndDate != nil {
		t.Errorf("Expected no end date for an active war, got %v", active.EndDate)
	}

	finished := rows[2]
	if finished.Status != StatusFinished || finished.Duration != "1d 6h 30m" {
		t.Errorf("Expected finished war of 1d 6h 30m, got %s / %s", finished.Status, finished.Duration)
	}
	if finished.TotalScore != 6000 || finished.WinnerFactionID != 11 {
		t.Errorf("Unexpected finished war totals: %+v", finished)
	}
	if finished.Faction1.Name != "Alpha" || finished.Faction1.Chain != 150 {
		t.Errorf("Unexpected faction 1: %+v", finished.Faction1)
	}
}

func TestWarsUpdateServiceRun(t *testing.T) {
	mockTorn := mocks.NewMockTornClient()
	mockTorn.RankedWarsResponse = rankedWarsFixture()
	mockSheets := mocks.NewMockSheetsClient()
	mockSheets.CleanupOldSheetsResponse = []string{"Torn Wars Data - 2024-12-31"}

	service := NewWarsUpdateService(mockTorn, mockSheets, testConfig())
	service.now = func() time.Time { return fixtureNow }

	result, err := service.Run(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if result.SheetName != "Torn Wars Data - 2025-03-04" {
		t.Errorf("Unexpected sheet name %s", result.SheetName)
	}
	if result.Wars != 3 || result.Unstarted != 1 {
		t.Errorf("Expected 3 wars with 1 unstarted, got %+v", result)
	}
	if len(result.DeletedSheets) != 1 {
		t.Errorf("Expected deleted sheets to be reported, got %v", result.DeletedSheets)
	}

	if mockSheets.EnsureWeeklySheetCalledWith.SheetName != result.SheetName {
		t.Errorf("Expected weekly sheet %s to be ensured, got %s", result.SheetName, mockSheets.EnsureWeeklySheetCalledWith.SheetName)
	}
	if len(mockSheets.WriteWarsCalledWith.Wars) != 3 {
		t.Errorf("Expected 3 wars written, got %d", len(mockSheets.WriteWarsCalledWith.Wars))
	}
	if mockSheets.CleanupOldSheetsCalledWith.Keep != 8 {
		t.Errorf("Expected cleanup to keep 8 weeks, got %d", mockSheets.CleanupOldSheetsCalledWith.Keep)
	}
}

func TestWarsUpdateServiceErrors(t *testing.T) {
	t.Run("FetchFailure", func(t *testing.T) {
		mockTorn := mocks.NewMockTornClient()
		mockTorn.RankedWarsError = errors.New("api down")
		mockSheets := mocks.NewMockSheetsClient()

		service := NewWarsUpdateService(mockTorn, mockSheets, testConfig())
		if _, err := service.Run(context.Background()); err == nil {
			t.Error("Expected error when wars cannot be fetched")
		}
		if mockSheets.WriteWarsCalled {
			t.Error("Expected no sheet write after a fetch failure")
		}
	})

	t.Run("WriteFailure", func(t *testing.T) {
		mockTorn := mocks.NewMockTornClient()
		mockTorn.RankedWarsResponse = rankedWarsFixture()
		mockSheets := mocks.NewMockSheetsClient()
		mockSheets.WriteWarsError = errors.New("quota exceeded")

		service := NewWarsUpdateService(mockTorn, mockSheets, testConfig())
		if _, err := service.Run(context.Background()); err == nil {
			t.Error("Expected error when the sheet cannot be written")
		}
		if mockSheets.CleanupOldSheetsCalled {
			t.Error("Expected no cleanup after a failed write")
		}
	})

	t.Run("CleanupFailureIsNotFatal", func(t *testing.T) {
		mockTorn := mocks.NewMockTornClient()
		mockTorn.RankedWarsResponse = rankedWarsFixture()
		mockSheets := mocks.NewMockSheetsClient()
		mockSheets.CleanupOldSheetsError = errors.New("list failed")

		service := NewWarsUpdateService(mockTorn, mockSheets, testConfig())
		if _, err := service.Run(context.Background()); err != nil {
			t.Errorf("Expected cleanup failure to be logged only, got %v", err)
		}
	})
}
