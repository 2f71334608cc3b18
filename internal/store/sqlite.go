package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// sqliteReader reads exported trace reports. Reports are SQLite databases
// with one table per activity kind; the queries below only touch the tables
// an analysis can ask for.
type sqliteReader struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens a SQLite trace report for reading.
func OpenSQLite(path string) (Reader, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening report %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening report %s: %w", path, err)
	}
	return &sqliteReader{db: db, path: path}, nil
}

func (r *sqliteReader) Close() error {
	return r.db.Close()
}

func (r *sqliteReader) hasTable(ctx context.Context, name string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("%s: inspecting schema: %w", r.path, err)
	}
	return n > 0, nil
}

const kernelQuery = `
SELECT k.globalPid, k.deviceId, s.value, k.start, k."end"
FROM CUPTI_ACTIVITY_KIND_KERNEL AS k
JOIN StringIds AS s ON s.id = k.shortName
ORDER BY k.start, k."end"`

func (r *sqliteReader) KernelSpans(ctx context.Context) ([]KernelSpan, error) {
	ok, err := r.hasTable(ctx, "CUPTI_ACTIVITY_KIND_KERNEL")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: no kernel activity table: %w", r.path, ErrMalformed)
	}

	rows, err := r.db.QueryContext(ctx, kernelQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: querying kernel spans: %w", r.path, err)
	}
	defer rows.Close()

	var spans []KernelSpan
	for rows.Next() {
		var (
			globalPid, device, start, end int64
			name                          string
		)
		if err := rows.Scan(&globalPid, &device, &name, &start, &end); err != nil {
			return nil, fmt.Errorf("%s: scanning kernel span: %w", r.path, err)
		}
		spans = append(spans, KernelSpan{
			// globalPid packs the hardware and VM ids in the upper bits.
			Key:   GroupKey{Pid: (globalPid >> 24) & 0x00FF_FFFF, Device: device},
			Name:  name,
			Start: start,
			End:   end,
			Comm:  strings.HasPrefix(name, "nccl"),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: reading kernel spans: %w", r.path, err)
	}
	return spans, nil
}

const metricQuery = `
SELECT m.typeId, t.metricName, m.timestamp, m.value
FROM GPU_METRICS AS m
JOIN TARGET_INFO_GPU_METRICS AS t
  ON t.metricId = m.metricId AND t.typeId = m.typeId
ORDER BY m.timestamp`

func (r *sqliteReader) MetricSamples(ctx context.Context) ([]MetricSample, error) {
	ok, err := r.hasTable(ctx, "GPU_METRICS")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s: no GPU metrics table: %w", r.path, ErrMalformed)
	}

	rows, err := r.db.QueryContext(ctx, metricQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: querying metric samples: %w", r.path, err)
	}
	defer rows.Close()

	var samples []MetricSample
	for rows.Next() {
		var (
			typeID, ts int64
			name       string
			value      float64
		)
		if err := rows.Scan(&typeID, &name, &ts, &value); err != nil {
			return nil, fmt.Errorf("%s: scanning metric sample: %w", r.path, err)
		}
		samples = append(samples, MetricSample{
			// The low byte of typeId is the GPU index.
			Device:    typeID & 0xFF,
			Metric:    name,
			Timestamp: ts,
			Value:     value,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: reading metric samples: %w", r.path, err)
	}
	return samples, nil
}

func (r *sqliteReader) Duration(ctx context.Context) (int64, error) {
	ok, err := r.hasTable(ctx, "ANALYSIS_DETAILS")
	if err != nil {
		return 0, err
	}
	if ok {
		var d int64
		err := r.db.QueryRowContext(ctx, `SELECT duration FROM ANALYSIS_DETAILS LIMIT 1`).Scan(&d)
		if err == nil {
			return d, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: reading session duration: %w", r.path, err)
		}
	}

	// Older exports lack ANALYSIS_DETAILS; fall back to the last recorded
	// kernel end.
	ok, err = r.hasTable(ctx, "CUPTI_ACTIVITY_KIND_KERNEL")
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%s: cannot determine session duration: %w", r.path, ErrMalformed)
	}
	var d sql.NullInt64
	err = r.db.QueryRowContext(ctx, `SELECT MAX("end") FROM CUPTI_ACTIVITY_KIND_KERNEL`).Scan(&d)
	if err != nil {
		return 0, fmt.Errorf("%s: reading session duration: %w", r.path, err)
	}
	return d.Int64, nil
}
