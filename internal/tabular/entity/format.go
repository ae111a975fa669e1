package entity

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for files whose extension is neither .csv nor .xlsx.
var ErrUnsupportedFormat = errors.New("file type not supported")

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	MIMECSV  = "text/csv"
	MIMEXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Extension returns the canonical extension including the leading dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatXLSX:
		return ".xlsx"
	default:
		return ""
	}
}

func (f Format) MIMEType() string {
	switch f {
	case FormatCSV:
		return MIMECSV
	case FormatXLSX:
		return MIMEXLSX
	default:
		return "application/octet-stream"
	}
}

// Label is the name shown next to the export choice.
func (f Format) Label() string {
	switch f {
	case FormatCSV:
		return "CSV"
	case FormatXLSX:
		return "Excel"
	default:
		return string(f)
	}
}

// ParseFormat accepts the export choices "csv", "xlsx" and "excel" in any case.
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, value)
	}
}

// FormatFromFilename dispatches on the lowercased extension of name.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(name))
	switch ext {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, displayExt(ext))
	}
}

// SwapExtension replaces the extension of name with the canonical one for f.
// Names without an extension get one appended.
func SwapExtension(name string, f Format) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + f.Extension()
}

func displayExt(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}
