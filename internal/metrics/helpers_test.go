package metrics

import (
	"database/sql"
	"io"
	"log/slog"
	"time"

	"accidentscli/pkg/contracts/domain"
)

func newTestEngine(mutate func(*Options)) *Engine {
	opts := DefaultOptions()
	if mutate != nil {
		mutate(&opts)
	}
	e := NewEngine(opts, slog.New(slog.NewTextHandler(io.Discard, nil)), nil)
	e.now = func() time.Time { return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC) }
	return e
}

func str(s string) sql.NullString { return sql.NullString{String: s, Valid: true} }

func num(n int64) sql.NullInt64 { return sql.NullInt64{Int64: n, Valid: true} }

func km(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func day(year int, month time.Month, d int) sql.NullTime {
	return sql.NullTime{Time: time.Date(year, month, d, 10, 0, 0, 0, time.UTC), Valid: true}
}

// victims builds a record of year with the given victim counts, all present
func victims(year int, light, severe, fatal int64) domain.AccidentRecord {
	return domain.AccidentRecord{
		SourceYear:   year,
		Light:        num(light),
		Severe:       num(severe),
		Fatal:        num(fatal),
		TotalVictims: num(light + severe + fatal),
	}
}

func onHighway(highway string, r domain.AccidentRecord) domain.AccidentRecord {
	r.Highway = str(highway)
	return r
}

func repeat(n int, r domain.AccidentRecord) []domain.AccidentRecord {
	out := make([]domain.AccidentRecord, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func dataset(records ...domain.AccidentRecord) *domain.Dataset {
	return domain.NewDataset(domain.CanonicalColumns(), records)
}
