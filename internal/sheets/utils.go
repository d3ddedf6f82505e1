package sheets

import (
	"fmt"
	"strings"
	"time"
)

// factionProfileURL is the public Torn profile page of a faction
const factionProfileURL = "https://www.torn.com/factions.php?step=profile&ID=%d"

// columnLetter converts a 1-based column number to its A1 letter (1 → A, 27 → AA)
func columnLetter(column int) string {
	if column < 1 {
		return ""
	}
	var letters []byte
	for column > 0 {
		column--
		letters = append([]byte{byte('A' + column%26)}, letters...)
		column /= 26
	}
	return string(letters)
}

// sheetRange builds a quoted A1 range such as 'Name'!A5:V
func sheetRange(sheetName, from, to string) string {
	quoted := "'" + strings.ReplaceAll(sheetName, "'", "''") + "'"
	if to == "" {
		return fmt.Sprintf("%s!%s", quoted, from)
	}
	return fmt.Sprintf("%s!%s:%s", quoted, from, to)
}

// factionHyperlink renders a faction name as a link to its profile
func factionHyperlink(factionID int, name string) string {
	if factionID <= 0 {
		return name
	}
	url := fmt.Sprintf(factionProfileURL, factionID)
	return fmt.Sprintf(`=HYPERLINK("%s","%s")`, url, strings.ReplaceAll(name, `"`, `""`))
}

// sheetTimeLayouts are the timestamp forms the sheets may hold, ours first
var sheetTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
	"2006-01-02",
}

// formatSheetTime renders a UTC timestamp for storage in a sheet
func formatSheetTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// parseSheetTime parses a stored timestamp; empty cells yield nil
func parseSheetTime(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	for _, layout := range sheetTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			utc := t.UTC()
			return &utc, nil
		}
	}
	return nil, fmt.Errorf("unrecognised timestamp %q", value)
}
