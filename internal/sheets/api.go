package sheets

import (
	"context"
)

// SheetInfo identifies one sheet (tab) of a spreadsheet
type SheetInfo struct {
	ID    int64
	Title string
}

// SheetsAPI defines the interface for interacting with Google Sheets.
// This separates infrastructure concerns from business logic.
//
// The Google Sheets API (google.golang.org/api/sheets/v4) uses [][]interface{}
// for cell values. Keep interface{} constrained to this boundary and use the
// Cell type wrapper for type-safe value extraction.
type SheetsAPI interface {
	// ReadSheet reads formatted values from a sheet range.
	ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error)

	// UpdateRange writes values as if typed by a user, so formulas are evaluated.
	UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error

	// ClearRange clears all values in a sheet range
	ClearRange(ctx context.Context, spreadsheetID, range_ string) error

	// CreateSheet creates a new sheet in the spreadsheet
	CreateSheet(ctx context.Context, spreadsheetID, sheetName string) error

	// SheetExists checks if a sheet with the given name exists
	SheetExists(ctx context.Context, spreadsheetID, sheetName string) (bool, error)

	// ListSheets returns every sheet in the spreadsheet in tab order
	ListSheets(ctx context.Context, spreadsheetID string) ([]SheetInfo, error)

	// DeleteSheet removes the sheet with the given name
	DeleteSheet(ctx context.Context, spreadsheetID, sheetName string) error

	// EnsureSheetCapacity ensures a sheet has at least the required number of rows and columns
	EnsureSheetCapacity(ctx context.Context, spreadsheetID, sheetName string, requiredRows, requiredCols int) error
}
