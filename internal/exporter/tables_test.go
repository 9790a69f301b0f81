package exporter

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accidentscli/internal/infrastructure"
	"accidentscli/internal/metrics"
	"accidentscli/pkg/contracts/domain"
)

func reportDataset() *domain.Dataset {
	var records []domain.AccidentRecord
	for _, year := range []int{2023, 2024} {
		for i := 0; i < 6; i++ {
			records = append(records, domain.AccidentRecord{
				SourceYear:   year,
				Highway:      sql.NullString{String: []string{"55", "150", "55.0"}[i%3], Valid: true},
				Km:           sql.NullFloat64{Float64: float64(10 + 40*i), Valid: true},
				Direction:    sql.NullString{String: "Crescente", Valid: true},
				Occurrence:   sql.NullString{String: "colisão", Valid: true},
				AccidentType: sql.NullString{String: "Engavetamento", Valid: true},
				Light:        sql.NullInt64{Int64: int64(i), Valid: true},
				Severe:       sql.NullInt64{Int64: int64(i % 2), Valid: true},
				Fatal:        sql.NullInt64{Int64: 0, Valid: true},
				TotalVictims: sql.NullInt64{Int64: int64(i + i%2), Valid: true},
				OpenedAt:     sql.NullTime{Time: time.Date(year, time.Month(i+1), 3, 8, 0, 0, 0, time.UTC), Valid: true},
				Regional:     sql.NullString{String: "Litoral", Valid: true},
			})
		}
	}
	return domain.NewDataset(domain.CanonicalColumns(), records)
}

func runReport(t *testing.T) *metrics.Report {
	t.Helper()
	engine := metrics.NewEngine(metrics.DefaultOptions(), discardLogger(), nil)
	report, err := engine.Run(context.Background(), reportDataset())
	require.NoError(t, err)
	return report
}

func TestReportTables(t *testing.T) {
	report := runReport(t)
	tables := ReportTables(report)

	names := make(map[string]Table, len(tables))
	for _, table := range tables {
		require.NotContains(t, names, table.Name, "duplicate table name")
		names[table.Name] = table
		for i, row := range table.Rows {
			assert.Len(t, row, len(table.Headers), "%s row %d", table.Name, i)
		}
	}
	assert.Len(t, tables, 25)

	tests := []struct {
		name     string
		table    string
		validate func(t *testing.T, table Table)
	}{
		{
			name:  "highways merged by label",
			table: "top_highways",
			validate: func(t *testing.T, table Table) {
				require.Len(t, table.Rows, 2)
				assert.Equal(t, []string{"1", "55", "SP-055", "8", "66.67"}, table.Rows[0])
			},
		},
		{
			name:  "monthly has twelve rows per year",
			table: "monthly",
			validate: func(t *testing.T, table Table) {
				assert.Len(t, table.Rows, 24)
			},
		},
		{
			name:  "month over month compares consecutive years",
			table: "month_over_month",
			validate: func(t *testing.T, table Table) {
				require.Len(t, table.Rows, 12)
				assert.Equal(t, []string{"2023", "2024", "1", "1", "1", "0.00"}, table.Rows[0])
			},
		},
		{
			name:  "correlation is square",
			table: "correlation",
			validate: func(t *testing.T, table Table) {
				assert.Len(t, table.Rows, len(metrics.CorrelationVariables))
				assert.Equal(t, "variable", table.Headers[0])
				assert.Equal(t, "1", table.Rows[0][1])
			},
		},
		{
			name:  "year summaries",
			table: "year_summaries",
			validate: func(t *testing.T, table Table) {
				require.Len(t, table.Rows, 2)
				assert.Equal(t, "2023", table.Rows[0][0])
				assert.Equal(t, "6", table.Rows[0][1])
			},
		},
		{
			name:  "percentile labels",
			table: "percentiles",
			validate: func(t *testing.T, table Table) {
				require.NotEmpty(t, table.Rows)
				assert.Equal(t, "P10", table.Rows[0][1])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, ok := names[tt.table]
			require.True(t, ok, "table %s missing", tt.table)
			tt.validate(t, table)
		})
	}
}

func TestCrossTableLongForm(t *testing.T) {
	tab := domain.CrossTab{
		RowKeys:   []string{"55", "150"},
		RowLabels: []string{"SP055", "SP150"},
		ColKeys:   []string{"Colisão", "Tombamento"},
		Counts:    [][]int{{3, 1}, {0, 2}},
	}

	table := crossTable("highway_type", "highway", tab)
	assert.Equal(t, []string{"highway", "label", "column", "count"}, table.Headers)
	assert.Equal(t, [][]string{
		{"55", "SP055", "Colisão", "3"},
		{"55", "SP055", "Tombamento", "1"},
		{"150", "SP150", "Colisão", "0"},
		{"150", "SP150", "Tombamento", "2"},
	}, table.Rows)
}

func TestTableExporter(t *testing.T) {
	ctx := context.Background()
	_, paths := setupTestEnv(t)
	report := runReport(t)

	telemetry, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:   "accidents-test",
		TraceExporter: "none",
		EnableMetrics: true,
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = telemetry.Shutdown(context.Background()) })

	exp := NewTableExporter(paths, nil, discardLogger(), telemetry)

	n, err := exp.ExportTables(ctx, report)
	require.NoError(t, err)
	assert.Equal(t, 25, n)

	for _, table := range ReportTables(report) {
		assert.FileExists(t, paths.GetTablePath(table.Name))
	}
	rows := readCSV(t, paths.GetTablePath("weekday"))
	assert.Equal(t, []string{"year", "weekday", "accidents"}, rows[0])

	require.NoError(t, exp.ExportBundle(ctx, report, paths.ReportBundle))
	content, err := os.ReadFile(paths.ReportBundle)
	require.NoError(t, err)

	var bundle map[string]any
	require.NoError(t, json.Unmarshal(content, &bundle))
	assert.Contains(t, bundle, "palette")
	assert.Contains(t, bundle, "top_highways")
	assert.Equal(t, float64(12), bundle["records"])
}

func TestTableExporterFailure(t *testing.T) {
	_, paths := setupTestEnv(t)
	require.NoError(t, os.RemoveAll(paths.ReportsDir))
	// A regular file where the tables directory should be
	require.NoError(t, os.WriteFile(paths.ReportsDir, []byte("x"), 0644))

	exp := NewTableExporter(paths, nil, discardLogger(), nil)
	n, err := exp.ExportTables(context.Background(), runReport(t))
	require.Error(t, err)
	assert.Zero(t, n)
}
