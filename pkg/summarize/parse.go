package summarize

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoJSON means the provider response contained no decodable JSON object.
var ErrNoJSON = errors.New("summarize: no JSON object found in response")

// parseJSON decodes a summary from provider output. Models wrap JSON in
// different ways, so three encodings are accepted, in preference order:
// a bare object, a fenced ```json block, and whatever sits between the
// first '{' and the last '}'.
func parseJSON(text string) (*FileSummary, error) {
	cleaned := strings.TrimSpace(text)

	if strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}") {
		return decodeSummary(cleaned)
	}

	if idx := strings.Index(cleaned, "```json"); idx != -1 {
		rest := cleaned[idx+len("```json"):]
		if end := strings.Index(rest, "```"); end != -1 {
			return decodeSummary(strings.TrimSpace(rest[:end]))
		}
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start != -1 && end > start {
		return decodeSummary(cleaned[start : end+1])
	}

	return nil, ErrNoJSON
}

func decodeSummary(raw string) (*FileSummary, error) {
	var summary FileSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}
