package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"ingexai/types"
)

// Extract converts raw upload bytes of the given content type into plain
// text. The caller is expected to reject unsupported content types before
// calling; an unknown type here reports an extraction failure.
func Extract(contentType string, data []byte) (string, error) {
	switch contentType {
	case types.ContentTypePlainText:
		return fromPlainText(data)
	case types.ContentTypePDF:
		return fromPDF(data)
	case types.ContentTypeDOCX:
		return fromDOCX(data)
	}
	return "", fmt.Errorf("%w: no extractor for %q", types.ErrExtraction, contentType)
}

func fromPlainText(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", types.ErrDecoding
	}
	return string(data), nil
}

// fromPDF validates the payload with pdfcpu, then pulls each page's text in
// document order and concatenates them with no separator. Pages without
// extractable text contribute an empty string.
func fromPDF(data []byte) (string, error) {
	conf := api.LoadConfiguration()
	if err := api.Validate(bytes.NewReader(data), conf); err != nil {
		return "", fmt.Errorf("%w: invalid pdf: %v", types.ErrExtraction, err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// Page has no extractable text.
			continue
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// documentXML mirrors the parts of word/document.xml we read: paragraphs,
// their runs and the text elements inside each run.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Text []textElement `xml:"t"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

// fromDOCX opens the payload as a ZIP archive and joins the paragraph texts
// of word/document.xml with single newlines.
func fromDOCX(data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", types.ErrExtraction, err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrExtraction, err)
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrExtraction, err)
		}

		var doc documentXML
		if err := xml.Unmarshal(content, &doc); err != nil {
			return "", fmt.Errorf("%w: %v", types.ErrExtraction, err)
		}

		paras := make([]string, 0, len(doc.Body.Paragraphs))
		for _, para := range doc.Body.Paragraphs {
			var sb strings.Builder
			for _, r := range para.Runs {
				for _, t := range r.Text {
					sb.WriteString(t.Content)
				}
			}
			paras = append(paras, sb.String())
		}
		return strings.Join(paras, "\n"), nil
	}
	return "", fmt.Errorf("%w: missing word/document.xml", types.ErrExtraction)
}
