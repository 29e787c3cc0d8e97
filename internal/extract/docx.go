package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/pbaille/pyq/internal/domain"
)

const (
	docxBody     = "word/document.xml"
	xlsxWorkbook = "xl/workbook.xml"
)

// sniffOOXML tells DOCX and XLSX apart by their main part
func sniffOOXML(data []byte) string {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return domain.ContentTypeOctet
	}
	for _, f := range r.File {
		switch {
		case strings.EqualFold(f.Name, docxBody):
			return domain.ContentTypeDOCX
		case strings.EqualFold(f.Name, xlsxWorkbook):
			return domain.ContentTypeXLSX
		}
	}
	return domain.ContentTypeOctet
}

func extractDOCX(data []byte) (string, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	var body *zip.File
	for _, f := range r.File {
		if strings.EqualFold(f.Name, docxBody) {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("open docx: missing %s", docxBody)
	}
	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer rc.Close()
	return docxText(rc)
}

// docxText walks WordprocessingML runs, emitting a newline per paragraph
// and table row and a tab per cell.
func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	lastNewline := true
	newline := func() {
		if !lastNewline {
			sb.WriteByte('\n')
			lastNewline = true
		}
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse docx: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return "", fmt.Errorf("parse docx: %w", err)
				}
				sb.WriteString(text)
				lastNewline = false
			case "tab":
				sb.WriteByte('\t')
				lastNewline = false
			case "br", "cr":
				sb.WriteByte('\n')
				lastNewline = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p", "tr":
				newline()
			case "tc":
				if !lastNewline {
					sb.WriteByte('\t')
				}
			}
		}
	}
	return sb.String(), nil
}
