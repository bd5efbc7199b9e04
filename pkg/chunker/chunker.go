package chunker

import "strings"

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 100
)

// Chunk splits text into overlapping character windows of length 'size'.
// Consecutive windows start 'size - overlap' characters apart so that
// context at window boundaries is preserved in both neighbours.
// Empty or whitespace-only input yields nil. The split is stateless:
// the same input always produces the same sequence.
func Chunk(text string, size int, overlap int) []string {
	if text == "" {
		return nil
	}

	cleaned := strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if cleaned == "" {
		return nil
	}

	step := size - overlap
	if step < 1 {
		step = 1
	}

	runes := []rune(cleaned)
	total := len(runes)

	var chunks []string
	for start := 0; start < total; start += step {
		end := start + size
		if end > total {
			end = total
		}
		window := strings.TrimSpace(string(runes[start:end]))
		if window != "" {
			chunks = append(chunks, window)
		}
		if end == total {
			break
		}
	}
	return chunks
}
