package archive

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"torn_war_odds/internal/app"

	"cloud.google.com/go/bigquery"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// inserter is the part of *bigquery.Inserter the archive needs
type inserter interface {
	Put(ctx context.Context, src interface{}) error
}

// BigQueryArchive appends every priced war of a sample to a BigQuery table
type BigQueryArchive struct {
	client   *bigquery.Client
	inserter inserter
	table    string
}

// NewBigQueryArchive creates an archive writing to project.dataset.table using the
// service account credentials file shared with the sheets client
func NewBigQueryArchive(ctx context.Context, project, dataset, table, credentialsFile string) (*BigQueryArchive, error) {
	client, err := bigquery.NewClient(ctx, project, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}

	return &BigQueryArchive{
		client:   client,
		inserter: client.Dataset(dataset).Table(table).Inserter(),
		table:    fmt.Sprintf("%s.%s.%s", project, dataset, table),
	}, nil
}

// Close releases the underlying client
func (a *BigQueryArchive) Close() error {
	if a.client == nil {
		return nil
	}
	return a.client.Close()
}

// ArchiveSample streams one row per sampled war
func (a *BigQueryArchive) ArchiveSample(ctx context.Context, samples []app.SampledWarOdds) error {
	if len(samples) == 0 {
		return nil
	}

	rows := make([]*SampleRow, 0, len(samples))
	for _, sample := range samples {
		rows = append(rows, NewSampleRow(sample))
	}

	if err := a.inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("failed to archive %d samples to %s: %w", len(rows), a.table, err)
	}

	log.Info().
		Str("table", a.table).
		Str("sample_id", samples[0].SampleID).
		Int("rows", len(rows)).
		Msg("Archived sample")

	return nil
}

// SampleRow is the archived form of one sampled war
type SampleRow struct {
	SampleID          string
	SampledAt         time.Time
	WarID             int
	StartDate         time.Time
	Faction1ID        int
	Faction1Name      string
	Faction1Rating    float64
	Faction1Odds      float64
	Faction1Implied   float64
	Faction2ID        int
	Faction2Name      string
	Faction2Rating    float64
	Faction2Odds      float64
	Faction2Implied   float64
	OverallConfidence int
	RatingRatio       float64
	HouseEdge         float64
}

// NewSampleRow flattens a sampled war into a table row
func NewSampleRow(sample app.SampledWarOdds) *SampleRow {
	result := sample.Odds
	return &SampleRow{
		SampleID:          sample.SampleID,
		SampledAt:         result.Metadata.Timestamp.UTC(),
		WarID:             sample.WarID,
		StartDate:         sample.StartDate.UTC(),
		Faction1ID:        sample.Faction1.ID,
		Faction1Name:      sample.Faction1.Name,
		Faction1Rating:    result.FactionA.Rating.OverallRating,
		Faction1Odds:      result.FactionA.Odds,
		Faction1Implied:   result.FactionA.ImpliedProbability,
		Faction2ID:        sample.Faction2.ID,
		Faction2Name:      sample.Faction2.Name,
		Faction2Rating:    result.FactionB.Rating.OverallRating,
		Faction2Odds:      result.FactionB.Odds,
		Faction2Implied:   result.FactionB.ImpliedProbability,
		OverallConfidence: result.Metadata.OverallConfidence,
		RatingRatio:       result.Metadata.RatingRatio,
		HouseEdge:         result.Metadata.HouseEdge,
	}
}

// Save implements bigquery.ValueSaver. The insert ID makes retried inserts of the
// same sample idempotent.
func (r *SampleRow) Save() (map[string]bigquery.Value, string, error) {
	row := map[string]bigquery.Value{
		"sample_id":          r.SampleID,
		"sampled_at":         r.SampledAt,
		"war_id":             r.WarID,
		"start_date":         r.StartDate,
		"faction1_id":        r.Faction1ID,
		"faction1_name":      r.Faction1Name,
		"faction1_rating":    r.Faction1Rating,
		"faction1_odds":      r.Faction1Odds,
		"faction1_implied":   r.Faction1Implied,
		"faction2_id":        r.Faction2ID,
		"faction2_name":      r.Faction2Name,
		"faction2_rating":    r.Faction2Rating,
		"faction2_odds":      r.Faction2Odds,
		"faction2_implied":   r.Faction2Implied,
		"overall_confidence": r.OverallConfidence,
		"rating_ratio":       r.RatingRatio,
		"house_edge":         r.HouseEdge,
	}
	return row, r.SampleID + ":" + strconv.Itoa(r.WarID), nil
}
