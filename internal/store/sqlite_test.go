package store_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/perfgrid/utilmap/internal/store"
)

func createReport(t *testing.T, statements ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "report.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range statements {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return path
}

const kernelSchema = `
CREATE TABLE CUPTI_ACTIVITY_KIND_KERNEL (
	globalPid INTEGER, deviceId INTEGER, shortName INTEGER,
	start INTEGER, "end" INTEGER
);
CREATE TABLE StringIds (id INTEGER PRIMARY KEY, value TEXT);`

func TestKernelSpans(t *testing.T) {
	path := createReport(t, kernelSchema, `
INSERT INTO StringIds VALUES (1, 'ncclAllReduce_Sum'), (2, 'volta_sgemm');
INSERT INTO CUPTI_ACTIVITY_KIND_KERNEL VALUES
	(42 << 24, 0, 2, 100, 200),
	(42 << 24, 0, 1, 150, 250);`)

	r, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer r.Close()

	spans, err := r.KernelSpans(context.Background())
	require.NoError(t, err)
	require.Len(t, spans, 2)

	assert.Equal(t, store.GroupKey{Pid: 42, Device: 0}, spans[0].Key)
	assert.Equal(t, "volta_sgemm", spans[0].Name)
	assert.Equal(t, int64(100), spans[0].Start)
	assert.Equal(t, int64(200), spans[0].End)
	assert.False(t, spans[0].Comm)

	assert.Equal(t, "ncclAllReduce_Sum", spans[1].Name)
	assert.True(t, spans[1].Comm)
}

func TestKernelSpansMissingTable(t *testing.T) {
	path := createReport(t, `CREATE TABLE StringIds (id INTEGER PRIMARY KEY, value TEXT);`)

	r, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.KernelSpans(context.Background())
	assert.ErrorIs(t, err, store.ErrMalformed)
}

func TestMetricSamples(t *testing.T) {
	path := createReport(t, `
CREATE TABLE GPU_METRICS (timestamp INTEGER, typeId INTEGER, metricId INTEGER, value REAL);
CREATE TABLE TARGET_INFO_GPU_METRICS (metricId INTEGER, metricName TEXT, typeId INTEGER);
INSERT INTO TARGET_INFO_GPU_METRICS VALUES (7, 'SMs Active [Throughput %]', 1);
INSERT INTO GPU_METRICS VALUES (1000, 1, 7, 55.5);`)

	r, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer r.Close()

	samples, err := r.MetricSamples(context.Background())
	require.NoError(t, err)
	require.Len(t, samples, 1)

	assert.Equal(t, int64(1), samples[0].Device)
	assert.Equal(t, "SMs Active [Throughput %]", samples[0].Metric)
	assert.Equal(t, int64(1000), samples[0].Timestamp)
	assert.Equal(t, 55.5, samples[0].Value)
}

func TestDuration(t *testing.T) {
	path := createReport(t, `
CREATE TABLE ANALYSIS_DETAILS (duration INTEGER);
INSERT INTO ANALYSIS_DETAILS VALUES (123456789);`)

	r, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer r.Close()

	d, err := r.Duration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(123456789), d)
}

func TestDurationFallsBackToLastKernelEnd(t *testing.T) {
	path := createReport(t, kernelSchema, `
INSERT INTO StringIds VALUES (1, 'volta_sgemm');
INSERT INTO CUPTI_ACTIVITY_KIND_KERNEL VALUES (1 << 24, 0, 1, 100, 9999);`)

	r, err := store.OpenSQLite(path)
	require.NoError(t, err)
	defer r.Close()

	d, err := r.Duration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9999), d)
}
