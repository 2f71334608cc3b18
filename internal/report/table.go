// Package report holds the tabular result model produced by analyses and
// writes finished tables to the per-run output directory.
package report

// Table is an ordered result table. Cells are int64, float64 or string.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]any
}

func NewTable(name string, columns ...string) *Table {
	return &Table{Name: name, Columns: columns}
}

// Append adds one row. The cell count must match the column count.
func (t *Table) Append(cells ...any) {
	t.Rows = append(t.Rows, cells)
}

// AddColumn appends a column whose cell for every existing row is produced
// by fn(row index).
func (t *Table) AddColumn(name string, fn func(row int) any) {
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fn(i))
	}
}

// FileResult is the per-file output of a successful task: the rows computed
// from one trace report, keyed by the report's base filename.
type FileResult struct {
	File  string
	Table *Table
}
