package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
)

// Writer persists result tables as CSV files in a run-specific directory
// named <analysis>-<short run id>, so repeated runs never clobber each other.
type Writer struct {
	dir string
}

func NewWriter(baseDir, analysis string) (*Writer, error) {
	runID := uuid.NewString()[:8]
	dir := filepath.Join(baseDir, fmt.Sprintf("%s-%s", analysis, runID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string {
	return w.dir
}

// WriteTable writes the table as <name>.csv and returns the file path.
func (w *Writer) WriteTable(t *Table) (string, error) {
	path := filepath.Join(w.dir, t.Name+".csv")

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(t.Columns); err != nil {
		return "", fmt.Errorf("writing header of %s: %w", path, err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return "", fmt.Errorf("table %s: row has %d cells, want %d", t.Name, len(row), len(t.Columns))
		}
		for i, cell := range row {
			record[i] = formatCell(cell)
		}
		if err := cw.Write(record); err != nil {
			return "", fmt.Errorf("writing row of %s: %w", path, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("flushing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", path, err)
	}
	return path, nil
}

func formatCell(cell any) string {
	switch v := cell.(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
