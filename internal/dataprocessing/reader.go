package dataprocessing

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	apperrors "accidentscli/internal/errors"
	"accidentscli/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadConsolidatedCSV loads a dataset previously written by the dataset
// exporter. The year column is mandatory since every record must carry its
// source year; other cells are coerced like workbook cells.
func ReadConsolidatedCSV(ctx context.Context, path string) (*domain.Dataset, *domain.ConsolidationStats, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.SourceNotFound(0, path, err)
	}
	defer file.Close()

	ds, stats, err := ReadConsolidated(ctx, file)
	if err != nil {
		return nil, nil, apperrors.LoadFailed(0, path, err)
	}
	return ds, stats, nil
}

// ReadConsolidated parses consolidated CSV content from r
func ReadConsolidated(ctx context.Context, r io.Reader) (*domain.Dataset, *domain.ConsolidationStats, error) {
	br := bufio.NewReader(r)
	// Remove BOM if present
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimPrefix(header[i], "\ufeff")
	}

	yearIdx := -1
	for i, col := range header {
		if col == domain.ColYear {
			yearIdx = i
		}
	}
	if yearIdx < 0 {
		return nil, nil, fmt.Errorf("column %q not found", domain.ColYear)
	}

	stats := &domain.ConsolidationStats{
		RowsPerYear:      make(map[int]int),
		FilledColumns:    make(map[int][]string),
		RenamedColumns:   make(map[int]map[string]string),
		CoercionFailures: make(map[string]int),
	}

	var records []domain.AccidentRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(row) {
			continue
		}

		if yearIdx >= len(row) {
			return nil, nil, fmt.Errorf("line %d: missing %s value", line, domain.ColYear)
		}
		year, present, ok := ParseInt(row[yearIdx])
		if !present || !ok {
			return nil, nil, fmt.Errorf("line %d: invalid %s value %q", line, domain.ColYear, row[yearIdx])
		}

		rec := domain.AccidentRecord{SourceYear: int(year)}
		for i, col := range header {
			if i == yearIdx {
				continue
			}
			raw := ""
			if i < len(row) {
				raw = row[i]
			}
			if !SetField(&rec, col, raw) {
				stats.CoercionFailures[col]++
			}
		}
		records = append(records, rec)
		stats.RowsPerYear[rec.SourceYear]++
	}

	if n := stats.TotalCoercionFailures(); n > 0 {
		slog.WarnContext(ctx, "Values coerced to null while reading dataset",
			slog.Int("count", n),
			slog.Any("by_column", stats.CoercionFailures))
	}

	return domain.NewDataset(header, records), stats, nil
}
