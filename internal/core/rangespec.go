package core

import (
	"strconv"
	"strings"
)

// Column window every range is clamped to.
const (
	FirstColumn = "A"
	LastColumn  = "Z"
)

// RangeSpec addresses a rectangular block of cells.
// Rows are 1-based; a zero row leaves that bound open.
type RangeSpec struct {
	StartCol string
	StartRow int
	EndCol   string
	EndRow   int
}

// FullRange addresses every row of the column window.
func FullRange() RangeSpec {
	return RangeSpec{StartCol: FirstColumn, EndCol: LastColumn}
}

// HeaderRange addresses the header row.
func HeaderRange() RangeSpec {
	return RowRange(1)
}

// RowRange addresses a single row.
func RowRange(row int) RangeSpec {
	return RangeSpec{StartCol: FirstColumn, StartRow: row, EndCol: LastColumn, EndRow: row}
}

// CellRange addresses a single cell.
func CellRange(col string, row int) RangeSpec {
	return RangeSpec{StartCol: col, StartRow: row, EndCol: col, EndRow: row}
}

// A1 renders the range in A1 notation qualified by the sheet name,
// e.g. "productos!A2:Z2".
func (r RangeSpec) A1(sheet string) string {
	start := r.StartCol + rowLabel(r.StartRow)
	end := r.EndCol + rowLabel(r.EndRow)

	var b strings.Builder
	b.WriteString(QuoteSheetName(sheet))
	b.WriteByte('!')
	b.WriteString(start)
	if end != start {
		b.WriteByte(':')
		b.WriteString(end)
	}
	return b.String()
}

// Columns returns the 0-based, inclusive column bounds of the range.
func (r RangeSpec) Columns() (start, end int) {
	start = ColumnIndex(r.StartCol)
	end = ColumnIndex(r.EndCol)
	if r.EndCol == "" {
		end = ColumnIndex(LastColumn)
	}
	return start, end
}

// Width returns the number of columns addressed.
func (r RangeSpec) Width() int {
	start, end := r.Columns()
	return end - start + 1
}

// Extract cuts the range out of sheet, where sheet[0] is row 1, the way the
// Sheets API reports values: trailing empty cells of each row and trailing
// empty rows are omitted.
func (r RangeSpec) Extract(sheet [][]string) [][]string {
	start := r.StartRow
	if start <= 0 {
		start = 1
	}
	end := r.EndRow
	if end <= 0 || end > len(sheet) {
		end = len(sheet)
	}
	startCol, endCol := r.Columns()

	var out [][]string
	for pos := start; pos <= end; pos++ {
		row := sheet[pos-1]
		var cells []string
		for col := startCol; col <= endCol && col < len(row); col++ {
			cells = append(cells, row[col])
		}
		out = append(out, TrimRow(cells))
	}
	return TrimRows(out)
}

// TrimRow drops trailing empty cells.
func TrimRow(row []string) []string {
	n := len(row)
	for n > 0 && row[n-1] == "" {
		n--
	}
	return row[:n]
}

// TrimRows drops trailing rows without any non-empty cell.
func TrimRows(rows [][]string) [][]string {
	n := len(rows)
	for n > 0 && len(TrimRow(rows[n-1])) == 0 {
		n--
	}
	return rows[:n]
}

func rowLabel(row int) string {
	if row <= 0 {
		return ""
	}
	return strconv.Itoa(row)
}

// ColumnIndex converts a column label to a 0-based index: "A" -> 0, "AA" -> 26.
// Empty or invalid labels map to 0.
func ColumnIndex(col string) int {
	n := 0
	for _, c := range strings.ToUpper(col) {
		if c < 'A' || c > 'Z' {
			return 0
		}
		n = n*26 + int(c-'A'+1)
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// QuoteSheetName quotes a sheet name for A1 notation when it contains
// anything besides letters, digits and underscores.
func QuoteSheetName(name string) string {
	plain := name != ""
	for _, c := range name {
		if !(c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z') {
			plain = false
			break
		}
	}
	if plain {
		return name
	}
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
