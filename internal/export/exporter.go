package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"torn_war_odds/internal/sheets"

	"github.com/rs/zerolog/log"
)

// Envelope statuses
const (
	StatusSuccess = "success"
	StatusEmpty   = "empty"
	StatusError   = "error"
)

// SampleReader reads the sample sheet as header-keyed records
type SampleReader interface {
	ReadSampleRecords(ctx context.Context, spreadsheetID string) ([]map[string]interface{}, error)
}

// Publisher copies an exported file somewhere public
type Publisher interface {
	Deploy(ctx context.Context, localPath string) error
}

// Envelope is the exported JSON document
type Envelope struct {
	Data       []map[string]interface{} `json:"data"`
	Count      int                      `json:"count"`
	ExportedAt string                   `json:"exported_at"`
	Source     string                   `json:"source"`
	Status     string                   `json:"status"`
	Error      string                   `json:"error,omitempty"`
	Metadata   *Metadata                `json:"metadata,omitempty"`
}

// Metadata describes a successful export
type Metadata struct {
	TotalWars       int    `json:"total_wars"`
	ExportTimestamp string `json:"export_timestamp"`
	SheetName       string `json:"sheet_name"`
	SpreadsheetID   string `json:"spreadsheet_id"`
}

// Result summarises one export run
type Result struct {
	Path     string
	Status   string
	Count    int
	Deployed bool
}

// Exporter writes the sample sheet to a JSON file and optionally publishes it.
// Runs are serialized so concurrent jobs never interleave writes to the output file.
type Exporter struct {
	mu            sync.Mutex
	reader        SampleReader
	publisher     Publisher
	spreadsheetID string
	outputPath    string
	now           func() time.Time
}

// NewExporter creates an exporter. publisher may be nil.
func NewExporter(reader SampleReader, publisher Publisher, spreadsheetID, outputPath string) *Exporter {
	return &Exporter{
		reader:        reader,
		publisher:     publisher,
		spreadsheetID: spreadsheetID,
		outputPath:    outputPath,
		now:           time.Now,
	}
}

// BuildEnvelope reads the sample sheet into an export envelope. Read failures become an
// error envelope and are also returned.
func (e *Exporter) BuildEnvelope(ctx context.Context) (*Envelope, error) {
	exportedAt := e.now().UTC().Format(time.RFC3339)

	envelope := &Envelope{
		Data:       []map[string]interface{}{},
		ExportedAt: exportedAt,
		Source:     sheets.SampleSheetName,
	}

	records, err := e.reader.ReadSampleRecords(ctx, e.spreadsheetID)
	if err != nil {
		envelope.Status = StatusError
		envelope.Error = err.Error()
		return envelope, err
	}

	if len(records) == 0 {
		envelope.Status = StatusEmpty
		return envelope, nil
	}

	envelope.Data = records
	envelope.Count = len(records)
	envelope.Status = StatusSuccess
	envelope.Metadata = &Metadata{
		TotalWars:       len(records),
		ExportTimestamp: exportedAt,
		SheetName:       sheets.SampleSheetName,
		SpreadsheetID:   e.spreadsheetID,
	}
	return envelope, nil
}

// Run exports the sample sheet. The envelope is written even when the sheet cannot be
// read; only successful exports are published.
func (e *Exporter) Run(ctx context.Context) (*Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	envelope, readErr := e.BuildEnvelope(ctx)
	if readErr != nil {
		log.Error().Err(readErr).Msg("Failed to read sample sheet for export")
	}

	if err := WriteFile(e.outputPath, envelope); err != nil {
		return nil, err
	}

	result := &Result{
		Path:   e.outputPath,
		Status: envelope.Status,
		Count:  envelope.Count,
	}

	log.Info().
		Str("path", e.outputPath).
		Str("status", envelope.Status).
		Int("count", envelope.Count).
		Msg("Exported sample")

	if readErr != nil {
		return result, fmt.Errorf("export wrote error status: %w", readErr)
	}

	if e.publisher != nil && envelope.Status == StatusSuccess {
		if err := e.publisher.Deploy(ctx, e.outputPath); err != nil {
			return result, fmt.Errorf("failed to publish export: %w", err)
		}
		result.Deployed = true
	}

	return result, nil
}

// WriteFile writes the envelope as indented JSON, creating the parent directory
func WriteFile(path string, envelope *Envelope) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory %s: %w", dir, err)
		}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(envelope); err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write export %s: %w", path, err)
	}
	return nil
}
