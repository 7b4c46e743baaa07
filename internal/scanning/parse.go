package scanning

import (
	"fmt"
	"strings"
)

// cleanTranscript strips the wrapping that vision models like to add around
// a plain-text answer and normalizes line endings
func cleanTranscript(text string) (string, error) {
	text = strings.TrimSpace(text)

	// Models sometimes answer inside a fenced block despite the prompt
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```text")
		text = strings.TrimPrefix(text, "```plaintext")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSpace(text)

	if text == "" || text == noTextMarker {
		return "", fmt.Errorf("transcript: %w", ErrNoText)
	}
	return text, nil
}
