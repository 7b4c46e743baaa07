package scanning

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
)

// Reader turns uploaded receipts and statements into plain text. PDFs are
// read from their text layer; images and image-only PDFs go through OCR.
type Reader struct {
	recognizer Recognizer
	pdfText    func([]byte) (string, int, error)
	pdfImage   func([]byte) ([]byte, error)
}

// NewReader creates a Reader. recognizer may be nil, in which case only PDFs
// with a text layer can be read.
func NewReader(recognizer Recognizer) *Reader {
	return &Reader{
		recognizer: recognizer,
		pdfText:    pdfText,
		pdfImage:   pdfToImage,
	}
}

// IsPDF reports whether the upload is a PDF, by content type or magic bytes
func IsPDF(data []byte, contentType string) bool {
	return normalizeMimeType(contentType) == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF-"))
}

// Read recognizes the text of a document
func (r *Reader) Read(data []byte, contentType string) (*Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document: %w", ErrNoText)
	}
	if IsPDF(data, contentType) {
		return r.readPDF(data)
	}

	mimeType := normalizeMimeType(contentType)
	if mimeType != "" && !strings.HasPrefix(mimeType, "image/") && mimeType != "application/octet-stream" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDocument, mimeType)
	}

	pngData, err := toPNG(data, mimeType)
	if err != nil {
		return nil, fmt.Errorf("converting image to PNG: %w", err)
	}
	text, err := r.ocr(pngData)
	if err != nil {
		return nil, err
	}
	return &Document{Source: SourceImage, Method: "image-ocr", Pages: 1, Text: text}, nil
}

func (r *Reader) readPDF(data []byte) (*Document, error) {
	text, pages, err := r.pdfText(data)
	if err != nil {
		return nil, fmt.Errorf("extracting PDF text: %w", err)
	}
	if text != "" {
		return &Document{Source: SourcePDF, Method: "pdf-text", Pages: pages, Text: text}, nil
	}

	// Scanned PDFs have no text layer
	slog.Debug("PDF has no text layer, falling back to OCR", "pages", pages)
	pngData, err := r.pdfImage(data)
	if err != nil {
		return nil, fmt.Errorf("converting PDF to image: %w", err)
	}
	text, err = r.ocr(pngData)
	if err != nil {
		return nil, err
	}
	return &Document{Source: SourcePDF, Method: "pdf-ocr", Pages: pages, Text: text}, nil
}

func (r *Reader) ocr(pngData []byte) (string, error) {
	if r.recognizer == nil {
		return "", ErrNoRecognizer
	}
	text, err := r.recognizer.RecognizeText(pngData, "image/png")
	if err != nil {
		return "", fmt.Errorf("recognizing text: %w", err)
	}
	return text, nil
}

// Close closes the underlying recognizer
func (r *Reader) Close() error {
	if r.recognizer == nil {
		return nil
	}
	return r.recognizer.Close()
}
