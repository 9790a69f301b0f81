package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "accidentscli/internal/errors"
	"accidentscli/pkg/contracts/domain"
)

// LoadWorkbook reads the named sheet of one yearly workbook. The sheet name
// must match exactly, trailing spaces included; an empty name selects the
// first sheet. The header is the first row with any non-empty cell and every
// data row is padded or cut to the header width. Blank rows are dropped.
func LoadWorkbook(ctx context.Context, year int, path, sheet string) (*domain.RawTable, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.SourceNotFound(year, path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.LoadFailed(year, path, fmt.Errorf("failed to open file: %w", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if sheet == "" {
		if len(sheets) == 0 {
			return nil, apperrors.SheetNotFound(year, path, sheet)
		}
		sheet = sheets[0]
	} else if !containsExact(sheets, sheet) {
		slog.WarnContext(ctx, "Configured sheet missing from workbook",
			slog.Int("year", year),
			slog.String("sheet", sheet),
			slog.Any("available", sheets))
		return nil, apperrors.SheetNotFound(year, path, sheet)
	}

	// Raw values keep date cells as Excel serials instead of display text
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.LoadFailed(year, path, fmt.Errorf("failed to read sheet %q: %w", sheet, err))
	}

	table := &domain.RawTable{Year: year, Path: path, Sheet: sheet}

	headerRow := -1
	for i, row := range rows {
		if !isBlank(row) {
			headerRow = i
			break
		}
	}
	if headerRow < 0 {
		slog.WarnContext(ctx, "Sheet is empty", slog.Int("year", year), slog.String("sheet", sheet))
		return table, nil
	}

	table.Header = normalizeHeader(rows[headerRow])
	width := len(table.Header)

	for _, row := range rows[headerRow+1:] {
		if isBlank(row) {
			continue
		}
		cells := make([]string, width)
		copy(cells, row)
		table.Rows = append(table.Rows, cells)
	}

	slog.DebugContext(ctx, "Workbook loaded",
		slog.Int("year", year),
		slog.String("file", path),
		slog.String("sheet", sheet),
		slog.Int("header_row", headerRow+1),
		slog.Int("columns", width),
		slog.Int("rows", len(table.Rows)))

	return table, nil
}

// normalizeHeader names empty header cells by position and disambiguates
// repeated names with a numeric suffix. Names are otherwise kept verbatim
// since the alias table matches them exactly.
func normalizeHeader(row []string) []string {
	// Trailing empty cells carry no column
	end := len(row)
	for end > 0 && strings.TrimSpace(row[end-1]) == "" {
		end--
	}

	header := make([]string, end)
	seen := make(map[string]int, end)
	for i := 0; i < end; i++ {
		name := row[i]
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, dup := seen[name]; dup {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		} else {
			seen[name] = 0
		}
		header[i] = name
	}
	return header
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func containsExact(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
