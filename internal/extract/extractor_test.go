package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/localvector/vectorstore/internal/storeerr"
)

func TestDispatch_text(t *testing.T) {
	res, err := Dispatch("notes.txt", []byte("Hello world\nLine 2"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Text != "Hello world\nLine 2" {
		t.Errorf("got %q", res.Text)
	}
}

func TestDispatch_textInvalidUTF8FallsBackToCharmap(t *testing.T) {
	// 0x93/0x94 are Windows-1252 curly quotes, invalid as UTF-8 on their own.
	content := []byte("hello \x93world\x94")
	res, err := Dispatch("notes.txt", content)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Text == "" {
		t.Error("expected non-empty decoded text")
	}
}

func TestDispatch_unsupportedFormat(t *testing.T) {
	_, err := Dispatch("archive.zip", []byte("PK\x03\x04"))
	if storeerr.KindOf(err) != storeerr.UnsupportedFormat {
		t.Errorf("got %v, want UnsupportedFormat", err)
	}
}

func TestDispatch_markdownMetadata(t *testing.T) {
	content := []byte("# Title Here\n\nSome intro text.\n\n## Section\n\n- item one\n- item two\n\n```go\nfmt.Println(\"hi\")\n```\n")
	res, err := Dispatch("doc.md", content)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Metadata["title"] != "Title Here" {
		t.Errorf("title = %v", res.Metadata["title"])
	}
	if res.Metadata["has_headers"] != true {
		t.Error("expected has_headers true")
	}
	if res.Metadata["has_lists"] != true {
		t.Error("expected has_lists true")
	}
	if res.Metadata["has_code_blocks"] != true {
		t.Error("expected has_code_blocks true")
	}
}

func TestDispatch_markdownNoHeaderNoTitle(t *testing.T) {
	res, err := Dispatch("doc.md", []byte("just a paragraph, no structure"))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if _, ok := res.Metadata["title"]; ok {
		t.Error("expected no title key when no header is present at all")
	}
	if res.Metadata["has_headers"] != false {
		t.Error("expected has_headers false")
	}
}

func TestDispatch_markdownH2TitleFallback(t *testing.T) {
	content := []byte("## Section Heading\n\nNo level-1 header in this document.\n")
	res, err := Dispatch("doc.md", content)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Metadata["title"] != "Section Heading" {
		t.Errorf("title = %v, want fallback to the first H2", res.Metadata["title"])
	}
	if res.Metadata["has_headers"] != true {
		t.Error("expected has_headers true")
	}
}

func TestDispatch_xlsx(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	res, err := Dispatch("sheet.xlsx", buf.Bytes())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Text != "Title\nValue 1\tValue 2" {
		t.Errorf("got %q", res.Text)
	}
	if res.Metadata["sheet_count"] != 1 {
		t.Errorf("sheet_count = %v", res.Metadata["sheet_count"])
	}
}

func TestDispatchFile_xlsx(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.xlsx")
	f := excelize.NewFile()
	f.SetCellValue("Sheet1", "A1", "Searchable text")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
	f.Close()

	res, err := DispatchFile(path)
	if err != nil {
		t.Fatalf("DispatchFile: %v", err)
	}
	if res.Text != "Searchable text" {
		t.Errorf("got %q", res.Text)
	}
}

func TestDispatchFile_nonexistent(t *testing.T) {
	_, err := DispatchFile("/nonexistent/path/file.txt")
	if storeerr.KindOf(err) != storeerr.NotFound {
		t.Errorf("got %v, want NotFound", err)
	}
}

// minimalDocx returns a minimal .docx zip with word/document.xml containing the given
// text in <w:t> tags.
func minimalDocx(text string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

// minimalDocxWithContentTypes returns a .docx zip with [Content_Types].xml pointing to
// a custom document path.
func minimalDocxWithContentTypes(text, docPath string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/` + docPath + `" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`))
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestDispatch_docx(t *testing.T) {
	content := minimalDocx("Searchable docx content")
	res, err := Dispatch("doc.docx", content)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Text != "Searchable docx content" {
		t.Errorf("got %q", res.Text)
	}
}

func TestDispatch_docxWithDocument2(t *testing.T) {
	content := minimalDocxWithContentTypes("Content from document2", "word/document2.xml")
	res, err := Dispatch("doc.docx", content)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Text != "Content from document2" {
		t.Errorf("got %q", res.Text)
	}
}

func TestDispatch_docxContentTypesReversedOrder(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create("[Content_Types].xml")
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/word/document3.xml"/>
</Types>`))
	fw, _ := w.Create("word/document3.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Reversed order test</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	res, err := Dispatch("doc.docx", buf.Bytes())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Text != "Reversed order test" {
		t.Errorf("got %q", res.Text)
	}
}

func TestDispatch_docxHeadingsAndTables(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Intro</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Some body text.</w:t></w:r></w:p>` +
		`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>A1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>B1</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
		`</w:body></w:document>`))
	_ = w.Close()

	res, err := Dispatch("doc.docx", buf.Bytes())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Metadata["has_headers"] != true {
		t.Error("expected has_headers true")
	}
	if res.Metadata["has_tables"] != true {
		t.Error("expected has_tables true")
	}
	if !bytes.Contains([]byte(res.Text), []byte("# Intro")) {
		t.Errorf("expected heading prefix, got %q", res.Text)
	}
	if !bytes.Contains([]byte(res.Text), []byte("A1 | B1")) {
		t.Errorf("expected flattened table row, got %q", res.Text)
	}
}

func TestDispatch_docxCoreProperties(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create("word/document.xml")
	_, _ = fw.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Body</w:t></w:r></w:p></w:body></w:document>`))
	core, _ := w.Create("docProps/core.xml")
	_, _ = core.Write([]byte(`<cp:coreProperties xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>Quarterly Report</dc:title><dc:creator>Jane Doe</dc:creator></cp:coreProperties>`))
	_ = w.Close()

	res, err := Dispatch("doc.docx", buf.Bytes())
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if res.Metadata["title"] != "Quarterly Report" {
		t.Errorf("title = %v", res.Metadata["title"])
	}
	if res.Metadata["author"] != "Jane Doe" {
		t.Errorf("author = %v", res.Metadata["author"])
	}
}

func TestDispatch_docxNotZip(t *testing.T) {
	_, err := Dispatch("doc.docx", []byte("not a zip"))
	if storeerr.KindOf(err) != storeerr.UnreadableSource {
		t.Errorf("got %v, want UnreadableSource", err)
	}
}

func TestDispatchFile_text(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}
	res, err := DispatchFile(path)
	if err != nil {
		t.Fatalf("DispatchFile: %v", err)
	}
	if res.Text != "File content" {
		t.Errorf("got %q", res.Text)
	}
}
