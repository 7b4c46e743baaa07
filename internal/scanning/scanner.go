package scanning

import "errors"

var (
	// ErrNoText is returned when a document yields no readable text.
	ErrNoText = errors.New("no text recognized")
	// ErrUnsupportedDocument is returned for content types that cannot be read.
	ErrUnsupportedDocument = errors.New("unsupported document type")
	// ErrNoRecognizer is returned when a document needs OCR and no provider is configured.
	ErrNoRecognizer = errors.New("no OCR provider configured")
)

// Source is where a document's text came from.
type Source string

const (
	SourcePDF   Source = "pdf"
	SourceImage Source = "image"
)

// Document is the text recognized from an uploaded file
type Document struct {
	Source Source `json:"source"`
	Method string `json:"method"` // pdf-text, pdf-ocr or image-ocr
	Pages  int    `json:"pages"`
	Text   string `json:"text"`
}

// Recognizer defines the interface for OCR providers
type Recognizer interface {
	// RecognizeText transcribes all text visible in an image
	RecognizeText(imageData []byte, contentType string) (string, error)
	// Close closes the recognizer and releases resources
	Close() error
}
