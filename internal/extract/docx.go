package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	docxDefaultBody     = "word/document.xml"
	docxContentTypes    = "[Content_Types].xml"
	docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"
)

// contentTypes is the subset of [Content_Types].xml needed to locate the body part.
type contentTypes struct {
	Overrides []struct {
		PartName    string `xml:"PartName,attr"`
		ContentType string `xml:"ContentType,attr"`
	} `xml:"Override"`
}

func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}
	return nil, fmt.Errorf("%s not found", name)
}

// docxBodyPath returns the main document part named in [Content_Types].xml,
// or the conventional word/document.xml.
func docxBodyPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, docxContentTypes)
	if err != nil {
		return docxDefaultBody
	}
	var ct contentTypes
	if xml.Unmarshal(data, &ct) != nil {
		return docxDefaultBody
	}
	for _, o := range ct.Overrides {
		if o.ContentType == docxMainContentType && o.PartName != "" {
			return strings.TrimPrefix(o.PartName, "/")
		}
	}
	return docxDefaultBody
}

// extractDOCX returns the text of a .docx file, one line per <w:p> paragraph.
// Runs within a paragraph are concatenated; <w:tab/> becomes a space and
// <w:br/> a line break.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}
	body := docxBodyPath(zr)
	data, err := readZipFile(zr, body)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: %w", err)
	}
	text, err := docxParagraphs(data)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: parse %s: %w", body, err)
	}
	return text, nil
}

func docxParagraphs(data []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		lines  []string
		para   strings.Builder
		inText bool
	)
	flush := func() {
		if line := strings.TrimSpace(para.String()); line != "" {
			lines = append(lines, line)
		}
		para.Reset()
	}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte(' ')
			case "br", "cr":
				flush()
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				flush()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	flush()
	return strings.Join(lines, "\n"), nil
}
