package codec

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/table"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const DefaultSheetName = "Sheet1"

type ExportOptions struct {
	SheetName string
	CSVBOM    bool
}

// Download is an export held in memory.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export writes t in the requested format. The filename is the original name
// with its extension swapped.
func Export(t table.Table, format entity.Format, originalName string, opts ExportOptions) (Download, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case entity.FormatCSV:
		data, err = writeCSV(t, opts.CSVBOM)
	case entity.FormatXLSX:
		data, err = writeXLSX(t, opts.SheetName)
	default:
		return Download{}, fmt.Errorf("%w: %q", entity.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return Download{}, err
	}

	return Download{
		Filename:    entity.SwapExtension(originalName, format),
		ContentType: format.MIMEType(),
		Data:        data,
	}, nil
}

func writeCSV(t table.Table, bom bool) ([]byte, error) {
	var buf bytes.Buffer

	var out io.Writer = &buf
	var tw io.WriteCloser
	if bom {
		tw = transform.NewWriter(&buf, unicode.UTF8BOM.NewEncoder())
		out = tw
	}

	records := t.Records()
	if t.Width() == 0 {
		// a columnless table exports its (empty) header only
		records = records[:1]
	}

	w := csv.NewWriter(out)
	if err := w.WriteAll(records); err != nil {
		return nil, err
	}

	if tw != nil {
		if err := tw.Close(); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeXLSX(t table.Table, sheet string) ([]byte, error) {
	if sheet == "" {
		sheet = DefaultSheetName
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if sheet != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, sheet); err != nil {
			return nil, err
		}
	}

	header := make([]any, 0, t.Width())
	for _, name := range t.Names() {
		header = append(header, name)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, err
	}

	for i := 0; i < t.Rows() && t.Width() > 0; i++ {
		for j, c := range t.Row(i) {
			if c.Missing {
				continue
			}
			addr, err := excelize.CoordinatesToCellName(j+1, i+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, addr, c.Value()); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
