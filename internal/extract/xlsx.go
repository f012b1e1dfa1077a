package extract

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/localvector/vectorstore/internal/storeerr"
)

type xlsxExtractor struct{}

// Extract joins each sheet's rows, tab-separating cells and newline-separating rows,
// with sheets themselves newline-separated. Sheet names are surfaced as metadata so
// downstream chunking can attribute content back to a sheet.
func (xlsxExtractor) Extract(content []byte, _ string) (Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return Result{}, storeerr.Wrap(storeerr.UnreadableSource, "open xlsx", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	var buf strings.Builder
	for _, sheet := range sheets {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return Result{}, storeerr.Wrap(storeerr.UnreadableSource, "read xlsx sheet "+sheet, err)
		}
		for _, row := range rows {
			buf.WriteString(strings.Join(row, "\t"))
			buf.WriteByte('\n')
		}
	}

	return Result{
		Text: strings.TrimSpace(buf.String()),
		Metadata: map[string]interface{}{
			"sheet_count": len(sheets),
			"sheets":      sheets,
		},
	}, nil
}
