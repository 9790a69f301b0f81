package validation

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "accidentscli/internal/errors"
	"accidentscli/internal/files"
)

func TestFileValidator_ValidateInputDirectory(t *testing.T) {
	tests := []struct {
		name          string
		setupFunc     func(t *testing.T) string
		wantErr       bool
		errorContains string
	}{
		{
			name:      "existing directory",
			setupFunc: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name:          "non-existent directory",
			setupFunc:     func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			wantErr:       true,
			errorContains: "does not exist",
		},
		{
			name: "path is file not directory",
			setupFunc: func(t *testing.T) string {
				file := filepath.Join(t.TempDir(), "test.txt")
				require.NoError(t, os.WriteFile(file, []byte("test"), 0644))
				return file
			},
			wantErr:       true,
			errorContains: "not a directory",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			validator := NewFileValidator(slog.Default())
			err := validator.ValidateInputDirectory(tt.setupFunc(t))

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	validator := NewFileValidator(nil)
	dir := filepath.Join(t.TempDir(), "reports", "tables")

	require.NoError(t, validator.ValidateOutputDirectory(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = os.Stat(filepath.Join(dir, ".write_test"))
	assert.True(t, os.IsNotExist(err), "probe file must be removed")
}

func TestFileValidator_ValidateExcelFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("PK"), 0644))
		return path
	}

	tests := []struct {
		name          string
		path          string
		wantErr       bool
		errorContains string
	}{
		{name: "xlsx", path: write("Acidentes_DER_2023.xlsx")},
		{name: "xlsm", path: write("macro.xlsm")},
		{name: "legacy xls", path: write("old.xls"), wantErr: true, errorContains: "not an Excel workbook"},
		{name: "csv", path: write("data.csv"), wantErr: true, errorContains: "not an Excel workbook"},
		{name: "lock file", path: write("~$open.xlsx"), wantErr: true, errorContains: "temporary"},
		{name: "missing", path: filepath.Join(dir, "missing.xlsx"), wantErr: true, errorContains: "does not exist"},
		{name: "directory", path: dir, wantErr: true, errorContains: "is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewFileValidator(nil).ValidateExcelFile(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileValidator_ValidateCSVFile(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "dados_completos.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("Ano\n2023\n"), 0644))
	txtPath := filepath.Join(dir, "dados.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0644))

	v := NewFileValidator(nil)
	assert.NoError(t, v.ValidateCSVFile(csvPath))
	assert.Error(t, v.ValidateCSVFile(txtPath))
	assert.Error(t, v.ValidateCSVFile(filepath.Join(dir, "missing.csv")))
}

func TestFileValidator_ValidateSources(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "Acidentes_DER_2023.xlsx")
	bad := filepath.Join(dir, "Acidentes_DER_2024.xls")
	require.NoError(t, os.WriteFile(good, []byte("PK"), 0644))
	require.NoError(t, os.WriteFile(bad, []byte("x"), 0644))

	v := NewFileValidator(nil)

	require.NoError(t, v.ValidateSources([]files.Source{
		{Year: 2023, File: files.FileInfo{Path: good}},
	}))

	err := v.ValidateSources([]files.Source{
		{Year: 2023, File: files.FileInfo{Path: good}},
		{Year: 2024, File: files.FileInfo{Path: bad}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrLoadFailed))

	var pe *apperrors.PipelineError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, 2024, pe.Year)
	assert.Equal(t, bad, pe.Path)
}
