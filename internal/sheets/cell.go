package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// Cell provides type-safe access to Google Sheets cell values.
// The Google Sheets API returns [][]interface{}, which we cannot change.
// This type wraps interface{} to provide type-safe accessors throughout our codebase.
type Cell struct {
	raw interface{}
}

// NewCell creates a Cell from a raw interface{} value from Google Sheets API
func NewCell(raw interface{}) Cell {
	return Cell{raw: raw}
}

// cellAt returns the cell at index i of a row, empty when the row is shorter.
// The API drops trailing empty cells, so short rows are normal.
func cellAt(row []interface{}, i int) Cell {
	if i < 0 || i >= len(row) {
		return Cell{}
	}
	return NewCell(row[i])
}

// String returns the cell value as a string
func (c Cell) String() string {
	if c.raw == nil {
		return ""
	}
	if s, ok := c.raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", c.raw)
}

// Int returns the cell value as an int. Formatted numbers like "3,200" are accepted.
func (c Cell) Int() int {
	if c.raw == nil {
		return 0
	}
	switch v := c.raw.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if i, err := strconv.Atoi(stripThousands(v)); err == nil {
			return i
		}
	}
	return 0
}

// Float64 returns the cell value as a float64
func (c Cell) Float64() float64 {
	if c.raw == nil {
		return 0
	}
	switch v := c.raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(stripThousands(v), 64); err == nil {
			return f
		}
	}
	return 0
}

// Native returns integers and floats for numeric text and the plain string otherwise,
// so exported records carry numbers the way they appear in the sheet.
func (c Cell) Native() interface{} {
	if c.raw == nil {
		return ""
	}
	s, ok := c.raw.(string)
	if !ok {
		return c.raw
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return s
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return f
	}
	return s
}

// IsEmpty returns true if the cell contains nil or empty string
func (c Cell) IsEmpty() bool {
	return c.raw == nil || c.raw == ""
}

// Raw returns the underlying interface{} value for Google Sheets API calls.
// This should only be used at the API boundary.
func (c Cell) Raw() interface{} {
	return c.raw
}

func stripThousands(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), ",", "")
}
