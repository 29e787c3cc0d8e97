// Package extract turns uploaded exam papers into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"runtime"
	"strings"

	"github.com/pbaille/pyq/internal/domain"
	"golang.org/x/sync/errgroup"
)

// ErrNoText is returned when a document parses but carries no text layer,
// e.g. a scanned paper made only of page images.
var ErrNoText = errors.New("no extractable text")

// ErrUnsupported is returned for content types no extractor handles
var ErrUnsupported = errors.New("unsupported content type")

// Func extracts the text of one payload of a known format
type Func func(data []byte) (string, error)

// Extractor converts documents to text, optionally in parallel
type Extractor struct {
	parallel bool
	limit    int
	funcs    map[string]Func
}

// New creates an Extractor with the built-in formats registered
func New(parallel bool) *Extractor {
	e := &Extractor{
		parallel: parallel,
		limit:    runtime.GOMAXPROCS(0),
		funcs:    make(map[string]Func),
	}
	e.Register(domain.ContentTypePDF, extractPDF)
	e.Register(domain.ContentTypeDOCX, extractDOCX)
	e.Register(domain.ContentTypeXLSX, extractXLSX)
	e.Register(domain.ContentTypeHTML, extractHTML)
	e.Register(domain.ContentTypeText, extractPlain)
	return e
}

// Register installs fn for a content type, replacing any existing one
func (e *Extractor) Register(contentType string, fn Func) {
	e.funcs[contentType] = fn
}

// Extract returns the text of a single document. Every failure wraps
// domain.ErrExtraction.
func (e *Extractor) Extract(doc domain.InputDocument) (string, error) {
	ct, err := resolveType(doc)
	if err != nil {
		return "", fail(doc, err)
	}
	fn, ok := e.funcs[ct]
	if !ok {
		return "", fail(doc, fmt.Errorf("%w: %s", ErrUnsupported, ct))
	}

	text, err := run(fn, doc.Data)
	if err != nil {
		return "", fail(doc, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fail(doc, ErrNoText)
	}
	return text, nil
}

// ExtractAll extracts every document and returns the texts in input order.
// When several documents fail, the error of the earliest one is reported.
func (e *Extractor) ExtractAll(ctx context.Context, docs []domain.InputDocument) ([]string, error) {
	texts := make([]string, len(docs))
	errs := make([]error, len(docs))

	if !e.parallel || len(docs) < 2 {
		for i, doc := range docs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			text, err := e.Extract(doc)
			if err != nil {
				return nil, err
			}
			texts[i] = text
		}
		return texts, nil
	}

	var g errgroup.Group
	g.SetLimit(e.limit)
	for i, doc := range docs {
		g.Go(func() error {
			texts[i], errs[i] = e.Extract(doc)
			return errs[i]
		})
	}
	if g.Wait() != nil {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

func fail(doc domain.InputDocument, err error) error {
	name := doc.Name
	if name == "" {
		name = "document"
	}
	return fmt.Errorf("%s: %w: %w", name, domain.ErrExtraction, err)
}

// run shields the caller from parser panics on hostile input
func run(fn Func, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("corrupt document: %v", r)
		}
	}()
	return fn(data)
}

// resolveType returns the canonical content type for doc. Declared types
// are checked against the payload's magic bytes; missing or generic types
// are sniffed.
func resolveType(doc domain.InputDocument) (string, error) {
	if len(doc.Data) == 0 {
		return "", errors.New("empty payload")
	}

	declared := ""
	if doc.ContentType != "" {
		mt, _, err := mime.ParseMediaType(doc.ContentType)
		if err != nil {
			return "", fmt.Errorf("content type %q: %w", doc.ContentType, err)
		}
		declared = mt
	}

	sniffed := sniff(doc.Data)
	switch declared {
	case "", domain.ContentTypeOctet:
		return sniffed, nil
	case domain.ContentTypePDF, domain.ContentTypeDOCX, domain.ContentTypeXLSX:
		if sniffed != declared {
			return "", fmt.Errorf("payload does not match declared type %s", declared)
		}
	}
	return declared, nil
}

var (
	pdfMagic = []byte("%PDF-")
	zipMagic = []byte("PK\x03\x04")
	utf8BOM  = []byte("\xef\xbb\xbf")
)

func sniff(data []byte) string {
	head := bytes.TrimLeft(bytes.TrimPrefix(data, utf8BOM), " \t\r\n")
	switch {
	case bytes.HasPrefix(head, pdfMagic):
		return domain.ContentTypePDF
	case bytes.HasPrefix(data, zipMagic):
		return sniffOOXML(data)
	}

	mt, _, _ := mime.ParseMediaType(http.DetectContentType(data))
	return mt
}
