package sheets

import (
	"context"
	"fmt"
	"math"

	"torn_war_odds/internal/app"
	"torn_war_odds/internal/odds"

	"github.com/rs/zerolog/log"
)

// SampleSheetName is the sheet holding the latest priced sample of unstarted wars
const SampleSheetName = "Random Wars Sample"

var sampleHeaders = []interface{}{
	"Sample ID", "Sampled At", "War ID", "Start Date",
	"Faction 1 ID", "Faction 1 Name", "Faction 1 Rating", "Faction 1 Confidence",
	"Faction 1 Win Chance", "Faction 1 Odds", "Faction 1 Return (1 Xanax)",
	"Faction 2 ID", "Faction 2 Name", "Faction 2 Rating", "Faction 2 Confidence",
	"Faction 2 Win Chance", "Faction 2 Odds", "Faction 2 Return (1 Xanax)",
	"Favourite", "Overall Confidence", "Rating Ratio", "House Edge",
}

// SampleSheetManager replaces and reads the random wars sample sheet
type SampleSheetManager struct {
	api SheetsAPI
}

// NewSampleSheetManager creates a manager over the given sheets API
func NewSampleSheetManager(api SheetsAPI) *SampleSheetManager {
	return &SampleSheetManager{api: api}
}

// WriteSample replaces the sample sheet contents with one row per priced war
func (m *SampleSheetManager) WriteSample(ctx context.Context, spreadsheetID string, samples []app.SampledWarOdds) error {
	exists, err := m.api.SheetExists(ctx, spreadsheetID, SampleSheetName)
	if err != nil {
		return fmt.Errorf("failed to check if sample sheet exists: %w", err)
	}
	if !exists {
		log.Info().Str("sheet_name", SampleSheetName).Msg("Creating sample sheet")
		if err := m.api.CreateSheet(ctx, spreadsheetID, SampleSheetName); err != nil {
			return fmt.Errorf("failed to create sample sheet: %w", err)
		}
	}

	lastColumn := columnLetter(len(sampleHeaders))
	if err := m.api.EnsureSheetCapacity(ctx, spreadsheetID, SampleSheetName, len(samples)+1, len(sampleHeaders)); err != nil {
		return fmt.Errorf("failed to ensure sample sheet capacity: %w", err)
	}
	if err := m.api.ClearRange(ctx, spreadsheetID, sheetRange(SampleSheetName, "A1", lastColumn)); err != nil {
		return fmt.Errorf("failed to clear sample sheet: %w", err)
	}

	rows := make([][]interface{}, 0, len(samples)+1)
	rows = append(rows, sampleHeaders)
	for _, sample := range samples {
		rows = append(rows, sampleToSheet(sample))
	}

	if err := m.api.UpdateRange(ctx, spreadsheetID, sheetRange(SampleSheetName, "A1", fmt.Sprintf("%s%d", lastColumn, len(rows))), rows); err != nil {
		return fmt.Errorf("failed to write sample sheet: %w", err)
	}

	log.Info().
		Int("wars", len(samples)).
		Msg("Updated random wars sample sheet")

	return nil
}

// ReadRecords returns the sample rows keyed by header. Numeric text becomes numbers,
// missing trailing cells become empty strings and blank rows are dropped.
func (m *SampleSheetManager) ReadRecords(ctx context.Context, spreadsheetID string) ([]map[string]interface{}, error) {
	values, err := m.api.ReadSheet(ctx, spreadsheetID, sheetRange(SampleSheetName, "A1", columnLetter(len(sampleHeaders))))
	if err != nil {
		return nil, fmt.Errorf("failed to read sample sheet: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	headers := make([]string, len(values[0]))
	for i, raw := range values[0] {
		headers[i] = NewCell(raw).String()
	}

	records := make([]map[string]interface{}, 0, len(values)-1)
	for _, row := range values[1:] {
		if rowIsBlank(row) {
			continue
		}
		record := make(map[string]interface{}, len(headers))
		for i, header := range headers {
			if header == "" {
				continue
			}
			record[header] = cellAt(row, i).Native()
		}
		records = append(records, record)
	}

	return records, nil
}

func sampleToSheet(sample app.SampledWarOdds) []interface{} {
	favourite, _ := sample.Favourite()
	result := sample.Odds

	row := []interface{}{
		sample.SampleID,
		formatSheetTime(result.Metadata.Timestamp),
		sample.WarID,
		formatSheetTime(sample.StartDate),
	}
	row = append(row, sampleSide(sample.Faction1, result.FactionA)...)
	row = append(row, sampleSide(sample.Faction2, result.FactionB)...)
	row = append(row,
		favourite,
		result.Metadata.OverallConfidence,
		round4(result.Metadata.RatingRatio),
		fmt.Sprintf("%g%%", result.Metadata.HouseEdge),
	)
	return row
}

func sampleSide(faction app.WarRowFaction, side odds.SideOdds) []interface{} {
	var oneUnitReturn int64
	if len(side.Examples) > 0 {
		oneUnitReturn = side.Examples[0].TotalReturn
	}
	return []interface{}{
		faction.ID,
		factionHyperlink(faction.ID, faction.Name),
		round4(side.Rating.OverallRating),
		side.Confidence,
		round4(side.ImpliedProbability),
		side.Odds,
		oneUnitReturn,
	}
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func rowIsBlank(row []interface{}) bool {
	for _, raw := range row {
		if !NewCell(raw).IsEmpty() {
			return false
		}
	}
	return true
}
