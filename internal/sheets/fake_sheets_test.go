package sheets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// fakeSheets is an in-memory SheetsAPI holding one grid per sheet.
// It understands the quoted A1 ranges this package builds.
type fakeSheets struct {
	mu     sync.Mutex
	grids  map[string][][]interface{}
	order  []string
	nextID int64
	ids    map[string]int64

	// capacity requests per sheet
	capacity map[string][2]int

	deleteErr map[string]error
	readErr   error
	written   []writeCall
}

type writeCall struct {
	Range  string
	Values [][]interface{}
}

func newFakeSheets(titles ...string) *fakeSheets {
	f := &fakeSheets{
		grids:     map[string][][]interface{}{},
		ids:       map[string]int64{},
		capacity:  map[string][2]int{},
		deleteErr: map[string]error{},
	}
	for _, title := range titles {
		f.addSheet(title)
	}
	return f
}

func (f *fakeSheets) addSheet(title string) {
	f.nextID++
	f.grids[title] = nil
	f.ids[title] = f.nextID
	f.order = append(f.order, title)
}

// parseRange splits 'Name'!A5:V10 into the sheet, start cell and optional end cell.
// Row 0 means open ended.
func parseRange(range_ string) (sheet string, col, row, endCol, endRow int, err error) {
	bang := strings.LastIndex(range_, "!")
	if bang < 0 {
		return "", 0, 0, 0, 0, fmt.Errorf("range %q has no sheet", range_)
	}
	sheet = strings.ReplaceAll(strings.Trim(range_[:bang], "'"), "''", "'")
	cells := strings.SplitN(range_[bang+1:], ":", 2)
	col, row = parseCell(cells[0])
	endCol, endRow = col, row
	if len(cells) == 2 {
		endCol, endRow = parseCell(cells[1])
	}
	return sheet, col, row, endCol, endRow, nil
}

func parseCell(ref string) (col, row int) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		col = col*26 + int(ref[i]-'A'+1)
		i++
	}
	if i < len(ref) {
		row, _ = strconv.Atoi(ref[i:])
	}
	return col, row
}

func (f *fakeSheets) ReadSheet(ctx context.Context, spreadsheetID, range_ string) ([][]interface{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return nil, f.readErr
	}

	sheet, col, row, endCol, endRow, err := parseRange(range_)
	if err != nil {
		return nil, err
	}
	grid, ok := f.grids[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %s not found", sheet)
	}

	var out [][]interface{}
	for r := row; r <= len(grid) && (endRow == 0 || r <= endRow); r++ {
		src := grid[r-1]
		var cells []interface{}
		for c := col; c <= len(src) && c <= endCol; c++ {
			cells = append(cells, src[c-1])
		}
		// the API trims trailing empty cells
		for len(cells) > 0 && NewCell(cells[len(cells)-1]).IsEmpty() {
			cells = cells[:len(cells)-1]
		}
		out = append(out, cells)
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (f *fakeSheets) UpdateRange(ctx context.Context, spreadsheetID, range_ string, values [][]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sheet, col, row, _, _, err := parseRange(range_)
	if err != nil {
		return err
	}
	grid, ok := f.grids[sheet]
	if !ok {
		return fmt.Errorf("sheet %s not found", sheet)
	}
	for i, values := range values {
		r := row + i
		for len(grid) < r {
			grid = append(grid, nil)
		}
		for j, value := range values {
			c := col + j
			for len(grid[r-1]) < c {
				grid[r-1] = append(grid[r-1], "")
			}
			grid[r-1][c-1] = displayed(value)
		}
	}
	f.grids[sheet] = grid
	f.written = append(f.written, writeCall{Range: range_, Values: values})
	return nil
}

func (f *fakeSheets) ClearRange(ctx context.Context, spreadsheetID, range_ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sheet, col, row, endCol, endRow, err := parseRange(range_)
	if err != nil {
		return err
	}
	grid, ok := f.grids[sheet]
	if !ok {
		return fmt.Errorf("sheet %s not found", sheet)
	}
	for r := row; r <= len(grid) && (endRow == 0 || r <= endRow); r++ {
		for c := col; c <= len(grid[r-1]) && c <= endCol; c++ {
			grid[r-1][c-1] = ""
		}
	}
	return nil
}

func (f *fakeSheets) CreateSheet(ctx context.Context, spreadsheetID, sheetName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grids[sheetName]; ok {
		return fmt.Errorf("sheet %s already exists", sheetName)
	}
	f.addSheet(sheetName)
	return nil
}

func (f *fakeSheets) SheetExists(ctx context.Context, spreadsheetID, sheetName string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.grids[sheetName]
	return ok, nil
}

func (f *fakeSheets) ListSheets(ctx context.Context, spreadsheetID string) ([]SheetInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []SheetInfo
	for _, title := range f.order {
		out = append(out, SheetInfo{ID: f.ids[title], Title: title})
	}
	return out, nil
}

func (f *fakeSheets) DeleteSheet(ctx context.Context, spreadsheetID, sheetName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[sheetName]; err != nil {
		return err
	}
	if _, ok := f.grids[sheetName]; !ok {
		return fmt.Errorf("sheet %s not found", sheetName)
	}
	delete(f.grids, sheetName)
	delete(f.ids, sheetName)
	for i, title := range f.order {
		if title == sheetName {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeSheets) EnsureSheetCapacity(ctx context.Context, spreadsheetID, sheetName string, requiredRows, requiredCols int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grids[sheetName]; !ok {
		return fmt.Errorf("sheet %s not found", sheetName)
	}
	f.capacity[sheetName] = [2]int{requiredRows, requiredCols}
	return nil
}

// displayed mimics a formatted read of a user-entered value: numbers come back as
// text and formulas show their text
func displayed(value interface{}) interface{} {
	switch v := value.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	s, ok := value.(string)
	if !ok || !strings.HasPrefix(s, "=HYPERLINK(") {
		return value
	}
	args := strings.SplitN(strings.TrimSuffix(strings.TrimPrefix(s, "=HYPERLINK("), ")"), `","`, 2)
	if len(args) != 2 {
		return value
	}
	return strings.ReplaceAll(strings.TrimSuffix(args[1], `"`), `""`, `"`)
}

// cell returns the value at a 1-based row and column
func (f *fakeSheets) cell(sheet string, row, col int) interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	grid := f.grids[sheet]
	if row > len(grid) || col > len(grid[row-1]) {
		return nil
	}
	return grid[row-1][col-1]
}
