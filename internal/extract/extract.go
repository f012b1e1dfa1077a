// Package extract maps a file's extension to a format-specific extractor and yields
// normalized UTF-8 text plus document-level metadata.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/localvector/vectorstore/internal/storeerr"
)

// Kind identifies which format-specific extractor handled a document.
type Kind int

const (
	Text Kind = iota
	Markdown
	PDF
	Docx
	Xlsx
)

// Result is what every extractor produces: normalized text plus free-form
// document-level metadata (title, headers present, page count, and so on).
type Result struct {
	Text     string
	Metadata map[string]interface{}
}

// Extractor turns raw file bytes into a Result.
type Extractor interface {
	Extract(content []byte, filename string) (Result, error)
}

type registryEntry struct {
	kind       Kind
	predicate  func(ext string) bool
	extractor  Extractor
}

// registry is the dispatch table of (predicate, impl) pairs. A new format is added by
// appending an entry here; there is no inheritance hierarchy to extend.
var registry = []registryEntry{
	{kind: Markdown, predicate: extSet(".md", ".markdown", ".mdown", ".mkd"), extractor: markdownExtractor{}},
	{kind: PDF, predicate: extSet(".pdf"), extractor: pdfExtractor{}},
	{kind: Docx, predicate: extSet(".docx"), extractor: docxExtractor{}},
	{kind: Xlsx, predicate: extSet(".xlsx"), extractor: xlsxExtractor{}},
	{kind: Text, predicate: extSet(".txt", ".text", ".log", ".csv", ".json", ".xml"), extractor: textExtractor{}},
}

func extSet(exts ...string) func(string) bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[e] = true
	}
	return func(ext string) bool { return set[ext] }
}

// Dispatch extracts normalized text and metadata from content, choosing the
// extractor whose predicate matches filename's extension. It fails with
// UnsupportedFormat if no entry matches.
func Dispatch(filename string, content []byte) (Result, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range registry {
		if e.predicate(ext) {
			res, err := e.extractor.Extract(content, filename)
			if err != nil {
				return Result{}, err
			}
			if res.Metadata == nil {
				res.Metadata = map[string]interface{}{}
			}
			return res, nil
		}
	}
	return Result{}, storeerr.New(storeerr.UnsupportedFormat, fmt.Sprintf("no extractor registered for extension %q", ext))
}

// DispatchFile reads path and dispatches on its extension.
func DispatchFile(path string) (Result, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, storeerr.Wrap(storeerr.NotFound, fmt.Sprintf("read source file %s", path), err)
	}
	return Dispatch(path, content)
}

// decodeText applies the encoding fallback contract: try UTF-8, then the platform
// default (Windows-1252, the common fallback for untagged text on most platforms),
// then fail with UnreadableSource.
func decodeText(content []byte) (string, error) {
	if utf8.Valid(content) {
		return string(content), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(content)
	if err != nil {
		return "", storeerr.Wrap(storeerr.UnreadableSource, "decode text: neither UTF-8 nor platform default encoding succeeded", err)
	}
	return string(decoded), nil
}
