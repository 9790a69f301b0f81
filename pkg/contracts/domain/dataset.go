package domain

import "sort"

// Dataset is the consolidated, row-unioned accident table. Records are
// ordered by configured year, then by original row order within each year.
// A Dataset is never mutated after construction; filters return new values
// that share the underlying records.
type Dataset struct {
	Columns []string
	Records []AccidentRecord
}

// NewDataset builds a dataset from a column list and records.
func NewDataset(columns []string, records []AccidentRecord) *Dataset {
	return &Dataset{Columns: columns, Records: records}
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Years returns the distinct source years in first-seen order.
func (d *Dataset) Years() []int {
	var years []int
	seen := make(map[int]bool)
	for _, r := range d.Records {
		if !seen[r.SourceYear] {
			seen[r.SourceYear] = true
			years = append(years, r.SourceYear)
		}
	}
	return years
}

// SortedYears returns the distinct source years ascending.
func (d *Dataset) SortedYears() []int {
	years := d.Years()
	sort.Ints(years)
	return years
}

// HasColumn reports whether the dataset carries the given column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// FilterYears returns the subset of records whose source year is listed.
// An empty list returns the dataset unchanged.
func (d *Dataset) FilterYears(years ...int) *Dataset {
	if len(years) == 0 {
		return d
	}
	keep := make(map[int]bool, len(years))
	for _, y := range years {
		keep[y] = true
	}
	out := make([]AccidentRecord, 0, len(d.Records))
	for _, r := range d.Records {
		if keep[r.SourceYear] {
			out = append(out, r)
		}
	}
	return &Dataset{Columns: d.Columns, Records: out}
}

// ByYear splits the dataset by source year.
func (d *Dataset) ByYear() map[int]*Dataset {
	out := make(map[int]*Dataset)
	for _, r := range d.Records {
		part, ok := out[r.SourceYear]
		if !ok {
			part = &Dataset{Columns: d.Columns}
			out[r.SourceYear] = part
		}
		part.Records = append(part.Records, r)
	}
	return out
}

// Row renders a record as text cells aligned with Columns. Missing values
// are returned as empty strings.
func (d *Dataset) Row(r AccidentRecord) []string {
	row := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		if v, ok := r.Text(c); ok {
			row[i] = v
		}
	}
	return row
}
