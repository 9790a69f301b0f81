package dataprocessing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"accidentscli/internal/config"
	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/files"
	"accidentscli/internal/infrastructure"
	"accidentscli/internal/shared/testutil"
	"accidentscli/pkg/contracts/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConsolidator(cfg *config.Config, logger *slog.Logger) *Consolidator {
	c := NewConsolidator(cfg, logger, nil)
	c.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestConsolidateUnionOfColumns(t *testing.T) {
	tables := []*domain.RawTable{
		{Year: 2023, Header: []string{"X", "Y"}, Rows: [][]string{{"x1", "y1"}, {"x2", "y2"}}},
		{Year: 2024, Header: []string{"Y", "Z"}, Rows: [][]string{{"y3", "z3"}}},
	}

	tests := []struct {
		name      string
		canonical []string
		want      []string
	}{
		{
			name:      "columns outside the canonical set",
			canonical: []string{},
			want:      []string{domain.ColYear, "X", "Y", "Z"},
		},
		{
			name:      "canonical columns",
			canonical: []string{"X", "Y", "Z", domain.ColYear},
			want:      []string{"X", "Y", "Z", domain.ColYear},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Schema.Canonical = tt.canonical
			cfg.Schema.Aliases = nil

			ds, stats := newTestConsolidator(cfg, discardLogger()).Consolidate(context.Background(), tables)
			assert.Equal(t, tt.want, ds.Columns)
			require.Equal(t, 3, ds.Len())

			for _, rec := range ds.Records {
				for _, col := range []string{"X", "Y", "Z"} {
					_, stored := rec.Extra[col]
					assert.True(t, stored, "record of %d lacks column %s", rec.SourceYear, col)
				}
			}

			yearA := ds.Records[:2]
			for i, rec := range yearA {
				assert.Equal(t, 2023, rec.SourceYear)
				_, ok := rec.Text("Z")
				assert.False(t, ok)
				x, _ := rec.Text("X")
				assert.Equal(t, []string{"x1", "x2"}[i], x)
			}

			yearB := ds.Records[2]
			assert.Equal(t, 2024, yearB.SourceYear)
			_, ok := yearB.Text("X")
			assert.False(t, ok)
			z, _ := yearB.Text("Z")
			assert.Equal(t, "z3", z)

			assert.Equal(t, []string{"Z"}, stats.FilledColumns[2023])
			assert.Equal(t, []string{"X"}, stats.FilledColumns[2024])
		})
	}
}

func TestConsolidateCanonicalSchema(t *testing.T) {
	tables := []*domain.RawTable{
		{
			Year:   2023,
			Header: []string{"Evento", "Rodovia", "Km", "Ocorrencia", "Leve", "Grave", "Fatal", "Data Abertura", "Nova data"},
			Rows: [][]string{
				{"E1", "55", "12,5", "COLISÃO TRASEIRA", "1", "0", "0", "44927", "44928"},
				{"E2", "101", "sem km", "Atropelamento", "", "1", "1", "31/01/2023", "ontem"},
			},
		},
		{
			Year:   2024,
			Header: []string{"Evento", "Rodovia", " Ocorrência", "Data", "Ano", "Total de Vítimas"},
			Rows: [][]string{
				{"E3", "55", "Colisão Traseira", "2024-03-01 10:00:00", "1999", "2"},
			},
		},
		{
			Year:   2025,
			Header: []string{"Evento", "Rodovia", "Sentido", "UBA", "UBA sigla"},
			Rows: [][]string{
				{"E4", "330", "Norte", "Unidade Básica", "UB1"},
				{"E5", "330", "Sul", "", "UB2"},
			},
		},
	}

	ds, stats := newTestConsolidator(config.Default(), discardLogger()).Consolidate(context.Background(), tables)

	t.Run("canonical columns first then extensions", func(t *testing.T) {
		want := append(domain.CanonicalColumns(), "UBA", "UBA sigla")
		assert.Equal(t, want, ds.Columns)
	})

	t.Run("rows keep year order and row order", func(t *testing.T) {
		var ids []string
		var years []int
		for _, rec := range ds.Records {
			ids = append(ids, rec.EventID.String)
			years = append(years, rec.SourceYear)
		}
		assert.Equal(t, []string{"E1", "E2", "E3", "E4", "E5"}, ids)
		assert.Equal(t, []int{2023, 2023, 2024, 2025, 2025}, years)
	})

	t.Run("re-splitting by year reproduces row counts", func(t *testing.T) {
		parts := ds.ByYear()
		for _, table := range tables {
			assert.Equal(t, len(table.Rows), parts[table.Year].Len())
			assert.Equal(t, len(table.Rows), stats.RowsPerYear[table.Year])
		}
	})

	t.Run("aliases resolve to canonical names", func(t *testing.T) {
		rec := ds.Records[2]
		assert.Equal(t, "Colisão Traseira", rec.Occurrence.String)
		require.True(t, rec.RevisedAt.Valid)
		assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), rec.RevisedAt.Time)
		assert.Equal(t, map[string]string{" Ocorrência": domain.ColOccurrence, "Data": domain.ColRevisedAt}, stats.RenamedColumns[2024])
	})

	t.Run("year comes from configuration", func(t *testing.T) {
		assert.Equal(t, 2024, ds.Records[2].SourceYear)
	})

	t.Run("extension columns backfilled as null", func(t *testing.T) {
		for _, rec := range ds.Records[:3] {
			v, stored := rec.Extra["UBA"]
			assert.True(t, stored)
			assert.False(t, v.Valid)
		}
		assert.Equal(t, "UB2", ds.Records[4].Extra["UBA sigla"].String)
		assert.False(t, ds.Records[4].Extra["UBA"].Valid)
		assert.Contains(t, stats.FilledColumns[2023], "UBA sigla")
		assert.NotContains(t, stats.FilledColumns[2025], "UBA")
	})

	t.Run("bad cells become null and are counted", func(t *testing.T) {
		e2 := ds.Records[1]
		assert.False(t, e2.Km.Valid)
		assert.False(t, e2.RevisedAt.Valid)
		require.True(t, e2.OpenedAt.Valid)
		assert.Equal(t, time.Date(2023, 1, 31, 0, 0, 0, 0, time.UTC), e2.OpenedAt.Time)
		assert.False(t, e2.Light.Valid)

		assert.Equal(t, 1, stats.CoercionFailures[domain.ColKm])
		assert.Equal(t, 1, stats.CoercionFailures[domain.ColRevisedAt])
		assert.Equal(t, 2, stats.TotalCoercionFailures())
	})

	t.Run("typed values", func(t *testing.T) {
		e1 := ds.Records[0]
		assert.InDelta(t, 12.5, e1.Km.Float64, 1e-9)
		opened, _ := e1.Text(domain.ColOpenedAt)
		assert.Equal(t, "2023-01-01 00:00:00", opened)
		assert.Equal(t, int64(2), ds.Records[2].TotalVictims.Int64)
	})

	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), stats.GeneratedAt)
}

func TestConsolidateDuplicateAfterAlias(t *testing.T) {
	cfg := config.Default()
	tables := []*domain.RawTable{{
		Year:   2024,
		Header: []string{"Nova data", "Data"},
		Rows:   [][]string{{"2024-01-01", "2024-12-31"}},
	}}

	ds, _ := newTestConsolidator(cfg, discardLogger()).Consolidate(context.Background(), tables)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ds.Records[0].RevisedAt.Time)
}

func TestConsolidateLogsCoercionOncePerColumn(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	tables := []*domain.RawTable{{
		Year:   2023,
		Header: []string{"Km", "Leve"},
		Rows:   [][]string{{"a", "-1"}, {"b", "x"}, {"c", "2"}},
	}}

	_, stats := newTestConsolidator(config.Default(), logger).Consolidate(context.Background(), tables)

	assert.Equal(t, 3, stats.CoercionFailures[domain.ColKm])
	assert.Equal(t, 2, stats.CoercionFailures[domain.ColLight])
	assert.Equal(t, 2, logs.CountMessage("Values coerced to null"))
	testutil.AssertLogAttr(t, logs, "component", "consolidator")
	testutil.AssertLogAttr(t, logs, "count", int64(3))
}

func TestConsolidatorRun(t *testing.T) {
	dir := t.TempDir()
	header := []interface{}{"Evento", "Rodovia", "Leve", "Grave", "Fatal"}

	path2023 := writeWorkbook(t, dir, "a.xlsx", "Base de Dados", [][]interface{}{
		header,
		{"E1", 55, 1, 0, 0},
		{"E2", 55, 0, 1, 0},
	})
	path2025 := writeWorkbook(t, dir, "c.xlsx", "Base de dados ", [][]interface{}{
		{"Evento", "Rodovia", "UBA"},
		{"E3", 330, "X"},
	})

	sources := []files.Source{
		{Year: 2023, Sheet: "Base de Dados", File: files.FileInfo{Path: path2023}},
		{Year: 2025, Sheet: "Base de dados ", File: files.FileInfo{Path: path2025}},
	}

	c := newTestConsolidator(config.Default(), discardLogger())

	t.Run("loads in configured order", func(t *testing.T) {
		ds, stats, err := c.Run(context.Background(), sources)
		require.NoError(t, err)
		require.Equal(t, 3, ds.Len())
		assert.Equal(t, []int{2023, 2025}, ds.Years())
		assert.Equal(t, "55", ds.Records[0].Highway.String)
		assert.Equal(t, int64(1), ds.Records[1].Severe.Int64)
		assert.Equal(t, "X", ds.Records[2].Extra["UBA"].String)
		assert.Equal(t, map[int]int{2023: 2, 2025: 1}, stats.RowsPerYear)
	})

	t.Run("missing sheet aborts with year", func(t *testing.T) {
		bad := append([]files.Source(nil), sources...)
		bad[1].Sheet = "Base de dados"

		ds, _, err := c.Run(context.Background(), bad)
		require.Error(t, err)
		assert.Nil(t, ds)
		assert.True(t, errors.Is(err, apperrors.ErrSheetNotFound))

		var pe *apperrors.PipelineError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 2025, pe.Year)
		assert.Equal(t, path2025, pe.Path)
	})

	t.Run("missing workbook aborts with year", func(t *testing.T) {
		bad := append([]files.Source(nil), sources...)
		bad[0].File.Path = path2023 + ".missing"

		_, _, err := c.Run(context.Background(), bad)
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSourceNotFound))
	})
}

func TestConsolidatorRecordsTelemetry(t *testing.T) {
	providers, err := infrastructure.InitializeOTel(&infrastructure.OTelConfig{
		ServiceName:   "test",
		TraceExporter: "none",
		EnableMetrics: true,
	}, discardLogger())
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	c := NewConsolidator(config.Default(), discardLogger(), providers)
	tables := []*domain.RawTable{{Year: 2023, Header: []string{"Km"}, Rows: [][]string{{"1"}, {"x"}}}}
	ds, _ := c.Consolidate(context.Background(), tables)
	assert.Equal(t, 2, ds.Len())

	families, err := providers.Registry.Gather()
	require.NoError(t, err)
	var names []string
	for _, mf := range families {
		names = append(names, mf.GetName())
	}
	assert.Contains(t, names, "accidents_records_loaded_total")
}
