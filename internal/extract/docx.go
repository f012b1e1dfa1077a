package extract

import (
	"archive/zip"
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/localvector/vectorstore/internal/storeerr"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// corePropertiesPath is the standard OOXML core properties part.
const corePropertiesPath = "docProps/core.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wtTag matches <w:t>text</w:t> or <w:t xml:space="preserve">text</w:t> (and any other attributes).
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// paragraphRe matches a whole <w:p ...>...</w:p> block, capturing its attributes (for
// <w:pPr> lookups done separately) is not needed since style lives inside the body; we
// capture the full inner content instead.
var paragraphRe = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>`)

// headingStyleRe finds a Heading paragraph style reference, capturing its level.
var headingStyleRe = regexp.MustCompile(`<w:pStyle w:val="Heading(\d)"`)

// tableRe matches a whole <w:tbl>...</w:tbl> block.
var tableRe = regexp.MustCompile(`(?s)<w:tbl>.*?</w:tbl>`)

// rowRe and cellRe split a table block into rows and cells.
var rowRe = regexp.MustCompile(`(?s)<w:tr[ >].*?</w:tr>`)
var cellRe = regexp.MustCompile(`(?s)<w:tc[ >].*?</w:tc>`)

var coreTitleRe = regexp.MustCompile(`<dc:title>([^<]*)</dc:title>`)
var coreCreatorRe = regexp.MustCompile(`<dc:creator>([^<]*)</dc:creator>`)
var coreSubjectRe = regexp.MustCompile(`<dc:subject>([^<]*)</dc:subject>`)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	for _, f := range zr.File {
		if f.Name != contentTypesPath {
			continue
		}
		content, err := readZipEntry(f)
		if err != nil {
			return ""
		}
		if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
			return strings.TrimPrefix(matches[1], "/")
		}
		if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
			return strings.TrimPrefix(matches[1], "/")
		}
		return ""
	}
	return ""
}

func readZipEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(rc); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func findZipEntry(zr *zip.Reader, name string) (string, bool) {
	for _, f := range zr.File {
		if f.Name == name {
			content, err := readZipEntry(f)
			if err != nil {
				return "", false
			}
			return content, true
		}
	}
	return "", false
}

type docxExtractor struct{}

// Extract turns word/document.xml into Markdown-flavored text: headings become "# "
// prefixed lines (depth matching their Heading level) and tables are flattened into
// pipe-separated rows, so the output reads naturally under Markdown boundary detection
// even though the source was never Markdown. We hand-roll XML scanning instead of using
// a DOCX library because real-world <w:p> elements carry rsid/other attributes that a
// naive <w:p>(.*)</w:p> regex (as used by some off-the-shelf converters) fails to match.
func (docxExtractor) Extract(content []byte, _ string) (Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return Result{}, storeerr.Wrap(storeerr.UnreadableSource, "docx: not a zip", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, ok := findZipEntry(zr, docPath)
	if !ok {
		return Result{}, storeerr.New(storeerr.UnreadableSource, "docx: "+docPath+" not found")
	}

	text, hasHeaders, hasTables := renderDocxBody(docXML)

	meta := map[string]interface{}{
		"has_headers": hasHeaders,
		"has_tables":  hasTables,
		"word_count":  len(strings.Fields(text)),
	}
	if coreXML, ok := findZipEntry(zr, corePropertiesPath); ok {
		if m := coreTitleRe.FindStringSubmatch(coreXML); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			meta["title"] = m[1]
		}
		if m := coreCreatorRe.FindStringSubmatch(coreXML); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			meta["author"] = m[1]
		}
		if m := coreSubjectRe.FindStringSubmatch(coreXML); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			meta["subject"] = m[1]
		}
	}

	return Result{Text: text, Metadata: meta}, nil
}

func renderDocxBody(docXML string) (text string, hasHeaders, hasTables bool) {
	// Replace whole table blocks with a placeholder-free flattened rendering first,
	// since <w:tbl> blocks also contain <w:p> paragraphs per cell that would otherwise
	// be double-counted by paragraphRe.
	tables := tableRe.FindAllString(docXML, -1)
	rendered := docXML
	for _, tbl := range tables {
		hasTables = true
		rendered = strings.Replace(rendered, tbl, flattenDocxTable(tbl), 1)
	}

	paragraphs := paragraphRe.FindAllString(rendered, -1)
	var out strings.Builder
	for i, p := range paragraphs {
		if rest, ok := cutTablePlaceholder(p); ok {
			out.WriteString(rest)
			out.WriteByte('\n')
			continue
		}
		line := joinRuns(p)
		if line == "" {
			continue
		}
		if m := headingStyleRe.FindStringSubmatch(p); len(m) > 1 {
			hasHeaders = true
			level, _ := strconv.Atoi(m[1])
			if level < 1 {
				level = 1
			}
			if level > 6 {
				level = 6
			}
			out.WriteString(strings.Repeat("#", level))
			out.WriteByte(' ')
		}
		out.WriteString(line)
		if i < len(paragraphs)-1 {
			out.WriteByte('\n')
		}
	}
	return strings.TrimSpace(out.String()), hasHeaders, hasTables
}

func joinRuns(paragraphXML string) string {
	parts := wtTag.FindAllStringSubmatch(paragraphXML, -1)
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strings.TrimSpace(p[1]))
	}
	return strings.TrimSpace(b.String())
}

// flattenDocxTable renders a <w:tbl> block as pipe-separated rows, tagged with a sentinel
// prefix so renderDocxBody's paragraph pass can recognize and pass it through untouched
// (a table cell itself contains <w:p> elements that would otherwise be re-matched).
func flattenDocxTable(tblXML string) string {
	rows := rowRe.FindAllString(tblXML, -1)
	var lines []string
	for _, row := range rows {
		cells := cellRe.FindAllString(row, -1)
		cellTexts := make([]string, 0, len(cells))
		for _, cell := range cells {
			cellTexts = append(cellTexts, joinRuns(cell))
		}
		lines = append(lines, strings.Join(cellTexts, " | "))
	}
	return "<w:p data-table=\"1\">" + tablePlaceholderOpen + strings.Join(lines, "\n") + tablePlaceholderClose + "</w:p>"
}

const tablePlaceholderOpen = "\x00TBL\x00"
const tablePlaceholderClose = "\x00/TBL\x00"

// cutTablePlaceholder recognizes a paragraph produced by flattenDocxTable and returns
// its flattened row text.
func cutTablePlaceholder(p string) (string, bool) {
	start := strings.Index(p, tablePlaceholderOpen)
	end := strings.Index(p, tablePlaceholderClose)
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return p[start+len(tablePlaceholderOpen) : end], true
}
