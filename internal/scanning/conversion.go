package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// noTextMarker is what the models are told to answer for blank images
const noTextMarker = "NO_TEXT"

// transcribePrompt is the shared prompt used by all OCR providers
const transcribePrompt = `You are an OCR engine. Transcribe every piece of text visible in this receipt, invoice or statement image exactly as printed.

Rules:
- Keep the original line breaks and reading order (top to bottom, left to right)
- Keep labels such as "TOTAL", "Amount Due", "Balance" or "Grand Total" next to their amounts on the same line
- Copy numbers exactly, including currency symbols, commas and decimal points
- Do not summarize, translate, correct or explain anything
- Do not use markdown or code blocks
- If the image contains no readable text, answer with ` + noTextMarker

// pdfText extracts the embedded text layer of every page, one page per line
// group, and returns the page count
func pdfText(pdfData []byte) (string, int, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return "", 0, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	var sb strings.Builder
	for i := 0; i < pages; i++ {
		text, err := doc.Text(i)
		if err != nil {
			return "", 0, fmt.Errorf("reading PDF page %d: %w", i+1, err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return strings.TrimSpace(sb.String()), pages, nil
}

// pdfToImage renders the first page of a PDF as PNG for OCR
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	return encodePNG(img)
}

// decodeImage decodes JPEG, PNG, GIF and the HEIC/HEIF photos iPhones produce
func decodeImage(imageData []byte, mimeType string) (image.Image, error) {
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err := heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
		return img, nil
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		if strings.Contains(err.Error(), "unknown format") {
			return nil, fmt.Errorf("%w: supported images are JPEG, PNG, GIF, HEIC and HEIF: %v", ErrUnsupportedDocument, err)
		}
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-family brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	switch string(data[8:12]) {
	case "heic", "heif", "mif1", "msf1":
		return true
	}
	return false
}

func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// normalizeMimeType lowercases and trims a content type, dropping parameters
func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	return mimeType
}

// toPNG returns PNG bytes for any supported image. PNG input is passed through.
func toPNG(imageData []byte, mimeType string) ([]byte, error) {
	if mimeType == "image/png" && !isHEICFormat(imageData) {
		return imageData, nil
	}
	img, err := decodeImage(imageData, mimeType)
	if err != nil {
		return nil, err
	}
	return encodePNG(img)
}
