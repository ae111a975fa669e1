package codec

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/table"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	errNoRows      = errors.New("workbook has no rows")
	errInvalidUTF8 = errors.New("invalid UTF-8 encoding")
)

// Load parses data according to the extension of name. Unsupported
// extensions return entity.ErrUnsupportedFormat; unreadable content returns
// a *ParseError.
func Load(name string, data []byte) (table.Table, entity.Format, error) {
	format, err := entity.FormatFromFilename(name)
	if err != nil {
		return table.Table{}, "", err
	}

	var records [][]string
	switch format {
	case entity.FormatCSV:
		records, err = readCSV(data)
	case entity.FormatXLSX:
		records, err = readXLSX(data)
	}
	if err != nil {
		return table.Table{}, format, &ParseError{File: name, Err: err}
	}

	t, err := table.FromRecords(records)
	if err != nil {
		return table.Table{}, format, &ParseError{File: name, Err: err}
	}

	return t, format, nil
}

func readCSV(data []byte) ([][]string, error) {
	if err := checkUTF8(data); err != nil {
		return nil, err
	}

	// strips a UTF-8 BOM and transcodes UTF-16 input that starts with one
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	r := csv.NewReader(transform.NewReader(bytes.NewReader(data), dec))

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, table.ErrNoColumns
	}

	return records, nil
}

// checkUTF8 rejects input that is neither valid UTF-8 nor UTF-16 with a
// byte order mark, since the decoder would otherwise replace bad bytes with
// U+FFFD.
func checkUTF8(data []byte) error {
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return nil
	}

	for off := 0; off < len(data); {
		r, size := utf8.DecodeRune(data[off:])
		if r == utf8.RuneError && size == 1 {
			return fmt.Errorf("%w: byte 0x%02x at offset %d", errInvalidUTF8, data[off], off)
		}
		off += size
	}

	return nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errNoRows
	}

	// trailing empty cells are trimmed by excelize
	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	if width == 0 {
		return nil, errNoRows
	}

	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}

	return rows, nil
}
