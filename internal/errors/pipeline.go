package errors

import (
	stderrors "errors"
	"fmt"
)

// Error codes surfaced by the consolidation and reporting tools.
const (
	CodeSourceNotFound = "SOURCE_NOT_FOUND"
	CodeSheetNotFound  = "SHEET_NOT_FOUND"
	CodeLoadFailed     = "LOAD_FAILED"
	CodeInvalidConfig  = "INVALID_CONFIG"
	CodeExportFailed   = "EXPORT_FAILED"
	CodeStoreFailed    = "STORE_FAILED"
)

// PipelineError is a fatal run error. Year and Path identify the offending
// yearly source when there is one.
type PipelineError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Year    int    `json:"year,omitempty"`
	Path    string `json:"path,omitempty"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	msg := e.Message
	if e.Year != 0 {
		msg = fmt.Sprintf("%s (year %d)", msg, e.Year)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is matches any PipelineError carrying the same code
func (e *PipelineError) Is(target error) bool {
	var pe *PipelineError
	if !stderrors.As(target, &pe) {
		return false
	}
	return pe.Code == e.Code
}

// Sentinels for errors.Is comparisons
var (
	ErrSourceNotFound = &PipelineError{Code: CodeSourceNotFound, Message: "source workbook not found"}
	ErrSheetNotFound  = &PipelineError{Code: CodeSheetNotFound, Message: "source sheet not found"}
	ErrLoadFailed     = &PipelineError{Code: CodeLoadFailed, Message: "source could not be loaded"}
	ErrInvalidConfig  = &PipelineError{Code: CodeInvalidConfig, Message: "invalid configuration"}
	ErrExportFailed   = &PipelineError{Code: CodeExportFailed, Message: "export failed"}
	ErrStoreFailed    = &PipelineError{Code: CodeStoreFailed, Message: "store write failed"}
)

// SourceNotFound reports a configured year whose workbook does not exist
func SourceNotFound(year int, path string, err error) *PipelineError {
	return &PipelineError{Code: CodeSourceNotFound, Message: "source workbook not found", Year: year, Path: path, Err: err}
}

// SheetNotFound reports a workbook missing its configured sheet
func SheetNotFound(year int, path, sheet string) *PipelineError {
	return &PipelineError{
		Code:    CodeSheetNotFound,
		Message: fmt.Sprintf("sheet %q not found", sheet),
		Year:    year,
		Path:    path,
	}
}

// LoadFailed reports a workbook that exists but cannot be read
func LoadFailed(year int, path string, err error) *PipelineError {
	return &PipelineError{Code: CodeLoadFailed, Message: "source could not be loaded", Year: year, Path: path, Err: err}
}

// InvalidConfig reports a configuration problem
func InvalidConfig(message string, err error) *PipelineError {
	return &PipelineError{Code: CodeInvalidConfig, Message: message, Err: err}
}

// ExportFailed reports an output file that could not be written
func ExportFailed(path string, err error) *PipelineError {
	return &PipelineError{Code: CodeExportFailed, Message: "export failed", Path: path, Err: err}
}

// StoreFailed reports a failed write to the dataset store
func StoreFailed(path string, err error) *PipelineError {
	return &PipelineError{Code: CodeStoreFailed, Message: "store write failed", Path: path, Err: err}
}

// CodeOf returns the pipeline error code carried by err, or "" if none
func CodeOf(err error) string {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code
	}
	return ""
}
