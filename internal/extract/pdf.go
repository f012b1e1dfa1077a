package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/localvector/vectorstore/internal/storeerr"
)

type pdfExtractor struct{}

// Extract joins pages with form-feed characters and prefixes each with a
// "--- Page N ---" marker so downstream boundary detection can split on page breaks.
// Document info dictionary fields are surfaced as metadata.
func (pdfExtractor) Extract(content []byte, _ string) (Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, storeerr.Wrap(storeerr.UnreadableSource, "open PDF", err)
	}

	var buf strings.Builder
	numPages := r.NumPage()
	for i := 0; i < numPages; i++ {
		page := r.Page(i + 1)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return Result{}, storeerr.Wrap(storeerr.UnreadableSource, fmt.Sprintf("extract page %d", i+1), err)
		}
		if i > 0 {
			buf.WriteByte('\f')
		}
		buf.WriteString(fmt.Sprintf("--- Page %d ---\n", i+1))
		buf.WriteString(text)
	}

	meta := map[string]interface{}{
		"total_pages": numPages,
	}
	trailer := r.Trailer()
	if info := trailer.Key("Info"); !info.IsNull() {
		setStringMeta(meta, "title", info.Key("Title").Text())
		setStringMeta(meta, "author", info.Key("Author").Text())
		setStringMeta(meta, "subject", info.Key("Subject").Text())
		setStringMeta(meta, "creator", info.Key("Creator").Text())
		setStringMeta(meta, "producer", info.Key("Producer").Text())
		if cd := info.Key("CreationDate").Text(); cd != "" {
			meta["creation_date"] = parsePDFDate(cd)
		}
	}

	return Result{Text: buf.String(), Metadata: meta}, nil
}

func setStringMeta(meta map[string]interface{}, key, value string) {
	if strings.TrimSpace(value) != "" {
		meta[key] = value
	}
}

// parsePDFDate loosely parses the PDF date format D:YYYYMMDDHHmmSS, returning the raw
// string unchanged if it doesn't match, since downstream consumers treat this as opaque
// metadata rather than a typed timestamp.
func parsePDFDate(raw string) string {
	s := strings.TrimPrefix(raw, "D:")
	if len(s) < 8 {
		return raw
	}
	if _, err := strconv.Atoi(s[:8]); err != nil {
		return raw
	}
	return s
}
