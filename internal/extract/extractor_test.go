package extract

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExtractBytes_plain(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("Jane Doe\r\nStaff Engineer"), ".txt")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Jane Doe\nStaff Engineer" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes([]byte("hello\x80world"), ".md")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "hello\uFFFDworld" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_plainFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.md")
	if err := os.WriteFile(path, []byte("# Jane Doe"), 0600); err != nil {
		t.Fatal(err)
	}
	got, err := NewExtractor().Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "# Jane Doe" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	if _, err := NewExtractor().Extract("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestExtract_unsupported(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("raw"), ".xlsx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := e.Extract("/tmp/cv.pptx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat before reading", err)
	}
	for ext, want := range map[string]bool{".PDF": true, ".docx": true, ".txt": true, ".odp": false, "": false} {
		if Supported(ext) != want {
			t.Errorf("Supported(%q) = %v", ext, !want)
		}
	}
}

func TestExtract_invalidPDF(t *testing.T) {
	if _, err := NewExtractor().ExtractBytes([]byte("not a pdf"), ".pdf"); err == nil {
		t.Error("expected error for invalid PDF")
	}
}

const wordNS = `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

// minimalDocx returns .docx zip bytes whose document.xml has one paragraph per entry in paras.
func minimalDocx(docPath string, contentTypes bool, paras ...string) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if contentTypes {
		ct, _ := w.Create("[Content_Types].xml")
		_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml" PartName="/` + docPath + `"/>
</Types>`))
	}
	var body strings.Builder
	body.WriteString(wordNS)
	for _, p := range paras {
		body.WriteString(`<w:p w:rsidR="00A1"><w:r><w:t xml:space="preserve">` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)
	fw, _ := w.Create(docPath)
	_, _ = fw.Write([]byte(body.String()))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docxParagraphs(t *testing.T) {
	content := minimalDocx(docxDefaultBody, false, "Jane Doe", "Experience", "Engineer at R&amp;D Labs")
	got, err := NewExtractor().ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Jane Doe\nExperience\nEngineer at R&D Labs" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxSplitRuns(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	fw, _ := w.Create(docxDefaultBody)
	_, _ = fw.Write([]byte(wordNS + `<w:p><w:r><w:t>Kuber</w:t></w:r><w:r><w:t>netes</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	got, err := NewExtractor().ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Kubernetes" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxContentTypes(t *testing.T) {
	content := minimalDocx("word/document2.xml", true, "Content from document2")
	got, err := NewExtractor().ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Content from document2" {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxErrors(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("plain bytes"), ".docx"); err == nil {
		t.Error("expected error for non-zip input")
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	_, _ = w.Create("other.xml")
	_ = w.Close()
	if _, err := e.ExtractBytes(buf.Bytes(), ".docx"); err == nil {
		t.Error("expected error when document.xml is missing")
	}
}

func TestDocxParagraphs_tabsAndBreaks(t *testing.T) {
	doc := wordNS + `<w:p><w:r><w:t>2019</w:t><w:tab/><w:t>Acme</w:t><w:br/><w:t>Engineer</w:t></w:r></w:p><w:p/></w:body></w:document>`
	got, err := docxParagraphs([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if got != "2019 Acme\nEngineer" {
		t.Errorf("got %q", got)
	}
	if _, err := docxParagraphs([]byte("<w:p><w:t>unclosed")); err == nil {
		t.Error("expected error for malformed XML")
	}
}
