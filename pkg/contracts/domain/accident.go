package domain

import (
	"database/sql"
	"strconv"
	"time"
)

// Canonical column names. They match the headers used by the yearly
// workbooks so the consolidated CSV stays readable by existing consumers.
const (
	ColEvent        = "Evento"
	ColHighway      = "Rodovia"
	ColKm           = "Km"
	ColDirection    = "Sentido"
	ColOccurrence   = "Ocorrencia"
	ColAccidentType = "Tipo Acidente"
	ColLight        = "Leve"
	ColSevere       = "Grave"
	ColFatal        = "Fatal"
	ColOpenedAt     = "Data Abertura"
	ColRegional     = "Regional"
	ColRevisedAt    = "Nova data"
	ColTotalVictims = "Total de Vítimas"
	ColYear         = "Ano"
)

// DateTimeLayout is the layout used when dates are written to text outputs.
const DateTimeLayout = "2006-01-02 15:04:05"

// CanonicalColumns returns the canonical column list in output order.
func CanonicalColumns() []string {
	return []string{
		ColEvent, ColHighway, ColKm, ColDirection, ColOccurrence, ColAccidentType,
		ColLight, ColSevere, ColFatal, ColOpenedAt, ColRegional, ColRevisedAt,
		ColTotalVictims, ColYear,
	}
}

// ColumnKind describes how a canonical column is typed after coercion.
type ColumnKind string

const (
	KindText    ColumnKind = "text"
	KindFloat   ColumnKind = "float"
	KindInteger ColumnKind = "integer"
	KindDate    ColumnKind = "date"
)

// KindOf returns the coercion kind of a column. Unknown columns are text.
func KindOf(column string) ColumnKind {
	switch column {
	case ColKm:
		return KindFloat
	case ColLight, ColSevere, ColFatal, ColTotalVictims, ColYear:
		return KindInteger
	case ColOpenedAt, ColRevisedAt:
		return KindDate
	default:
		return KindText
	}
}

// AccidentRecord is one reported accident. Every field except SourceYear may
// be missing; missing values are represented by Valid == false.
type AccidentRecord struct {
	EventID      sql.NullString  `json:"event_id"`
	Highway      sql.NullString  `json:"highway"`
	Km           sql.NullFloat64 `json:"km"`
	Direction    sql.NullString  `json:"direction"`
	Occurrence   sql.NullString  `json:"occurrence"`
	AccidentType sql.NullString  `json:"accident_type"`
	Light        sql.NullInt64   `json:"light"`
	Severe       sql.NullInt64   `json:"severe"`
	Fatal        sql.NullInt64   `json:"fatal"`
	TotalVictims sql.NullInt64   `json:"total_victims"`
	OpenedAt     sql.NullTime    `json:"opened_at"`
	RevisedAt    sql.NullTime    `json:"revised_at"`
	Regional     sql.NullString  `json:"regional"`
	SourceYear   int             `json:"source_year"`

	// Extra holds columns outside the canonical set, such as extension
	// fields introduced by later years.
	Extra map[string]sql.NullString `json:"extra,omitempty"`
}

// LightOrZero returns the light-victim count, treating missing as zero.
func (r AccidentRecord) LightOrZero() int64 { return orZero(r.Light) }

// SevereOrZero returns the severe-victim count, treating missing as zero.
func (r AccidentRecord) SevereOrZero() int64 { return orZero(r.Severe) }

// FatalOrZero returns the fatal-victim count, treating missing as zero.
func (r AccidentRecord) FatalOrZero() int64 { return orZero(r.Fatal) }

func orZero(v sql.NullInt64) int64 {
	if !v.Valid {
		return 0
	}
	return v.Int64
}

// Text returns the textual value of a column and whether it is present.
// Dates are rendered with DateTimeLayout.
func (r AccidentRecord) Text(column string) (string, bool) {
	switch column {
	case ColEvent:
		return r.EventID.String, r.EventID.Valid
	case ColHighway:
		return r.Highway.String, r.Highway.Valid
	case ColKm:
		if !r.Km.Valid {
			return "", false
		}
		return strconv.FormatFloat(r.Km.Float64, 'f', -1, 64), true
	case ColDirection:
		return r.Direction.String, r.Direction.Valid
	case ColOccurrence:
		return r.Occurrence.String, r.Occurrence.Valid
	case ColAccidentType:
		return r.AccidentType.String, r.AccidentType.Valid
	case ColLight:
		return intText(r.Light)
	case ColSevere:
		return intText(r.Severe)
	case ColFatal:
		return intText(r.Fatal)
	case ColTotalVictims:
		return intText(r.TotalVictims)
	case ColOpenedAt:
		return timeText(r.OpenedAt)
	case ColRevisedAt:
		return timeText(r.RevisedAt)
	case ColRegional:
		return r.Regional.String, r.Regional.Valid
	case ColYear:
		return strconv.Itoa(r.SourceYear), true
	default:
		v, ok := r.Extra[column]
		if !ok || !v.Valid {
			return "", false
		}
		return v.String, true
	}
}

func intText(v sql.NullInt64) (string, bool) {
	if !v.Valid {
		return "", false
	}
	return strconv.FormatInt(v.Int64, 10), true
}

func timeText(v sql.NullTime) (string, bool) {
	if !v.Valid {
		return "", false
	}
	return v.Time.Format(DateTimeLayout), true
}

// RawTable is one yearly sheet as read from its workbook, before any
// renaming or coercion.
type RawTable struct {
	Year   int
	Path   string
	Sheet  string
	Header []string
	Rows   [][]string
}

// ConsolidationStats summarises what the consolidator recovered from.
type ConsolidationStats struct {
	RowsPerYear      map[int]int               `json:"rows_per_year"`
	FilledColumns    map[int][]string          `json:"filled_columns"`
	RenamedColumns   map[int]map[string]string `json:"renamed_columns"`
	CoercionFailures map[string]int            `json:"coercion_failures"`
	GeneratedAt      time.Time                 `json:"generated_at"`
}

// TotalCoercionFailures returns the number of cells coerced to null.
func (s ConsolidationStats) TotalCoercionFailures() int {
	total := 0
	for _, n := range s.CoercionFailures {
		total += n
	}
	return total
}
