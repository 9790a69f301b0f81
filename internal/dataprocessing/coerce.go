package dataprocessing

import (
	"database/sql"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"accidentscli/pkg/contracts/domain"
)

// dateLayouts are tried in order for date cells stored as text. Slash dates
// are day-first since the workbooks use Brazilian dates.
var dateLayouts = []string{
	domain.DateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

// Excel serials outside this range are not plausible report dates
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465 // 9999-12-31
)

// ParseFloat parses a number, accepting a decimal comma. The second result
// is false for blank input; the third is false when a non-blank value could
// not be parsed.
func ParseFloat(raw string) (float64, bool, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, true
	}
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, false
	}
	return v, true, true
}

// ParseInt parses a whole number. Float text with a zero fraction, such as
// the "2.0" pandas writes for integer columns with gaps, is accepted.
func ParseInt(raw string) (int64, bool, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false, true
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true, true
	}
	f, present, ok := ParseFloat(s)
	if !present || !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64/2 {
		return 0, false, false
	}
	return int64(f), true, true
}

// ParseDate parses an Excel serial or one of the known text layouts
func ParseDate(raw string) (time.Time, bool, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false, true
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		if serial < minExcelSerial || serial > maxExcelSerial {
			return time.Time{}, false, false
		}
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false, false
		}
		return t.Round(time.Second), true, true
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true, true
		}
	}
	return time.Time{}, false, false
}

// SetField stores raw into the record field for column, coercing it to the
// column kind. It reports false when a non-blank value failed coercion; the
// field is then left null.
func SetField(rec *domain.AccidentRecord, column, raw string) bool {
	switch domain.KindOf(column) {
	case domain.KindFloat:
		v, present, ok := ParseFloat(raw)
		rec.Km = sql.NullFloat64{Float64: v, Valid: present}
		return ok
	case domain.KindInteger:
		v, present, ok := ParseInt(raw)
		if ok && present && v < 0 && column != domain.ColYear {
			// Victim counts are never negative
			present, ok = false, false
		}
		n := sql.NullInt64{Int64: v, Valid: present}
		switch column {
		case domain.ColLight:
			rec.Light = n
		case domain.ColSevere:
			rec.Severe = n
		case domain.ColFatal:
			rec.Fatal = n
		case domain.ColTotalVictims:
			rec.TotalVictims = n
		case domain.ColYear:
			if present {
				rec.SourceYear = int(v)
			}
		}
		return ok
	case domain.KindDate:
		v, present, ok := ParseDate(raw)
		t := sql.NullTime{Time: v, Valid: present}
		if column == domain.ColOpenedAt {
			rec.OpenedAt = t
		} else {
			rec.RevisedAt = t
		}
		return ok
	}

	text := sql.NullString{String: raw, Valid: raw != ""}
	switch column {
	case domain.ColEvent:
		rec.EventID = text
	case domain.ColHighway:
		rec.Highway = text
	case domain.ColDirection:
		rec.Direction = text
	case domain.ColOccurrence:
		rec.Occurrence = text
	case domain.ColAccidentType:
		rec.AccidentType = text
	case domain.ColRegional:
		rec.Regional = text
	default:
		if rec.Extra == nil {
			rec.Extra = make(map[string]sql.NullString)
		}
		rec.Extra[column] = text
	}
	return true
}
