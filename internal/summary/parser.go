package summary

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

const (
	versionSentinel = "<!-- tabletalk-meal-version: 1 -->"
	dataPrefix      = "<!-- tabletalk-data: "
	dataSuffix      = " -->"
)

// Parser deserializes a meal summary file back into structured data.
type Parser interface {
	Parse(data []byte) (*MealSummary, error)
}

// ParserFor picks a parser from a file name's extension.
func ParserFor(path string) Parser {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return &JSONParser{}
	}
	return &MarkdownParser{}
}

// JSONParser parses a JSON-encoded MealSummary.
type JSONParser struct{}

func (p *JSONParser) Parse(data []byte) (*MealSummary, error) {
	var s MealSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse JSON meal summary: %w", err)
	}
	return &s, nil
}

// MarkdownParser extracts the embedded base64 JSON payload from a Markdown
// meal summary.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(data []byte) (*MealSummary, error) {
	content := string(data)

	if !strings.Contains(content, versionSentinel) {
		return nil, fmt.Errorf("not a valid meal summary: missing version sentinel")
	}

	start := strings.Index(content, dataPrefix)
	if start == -1 {
		return nil, fmt.Errorf("not a valid meal summary: missing data payload")
	}
	start += len(dataPrefix)
	end := strings.Index(content[start:], dataSuffix)
	if end == -1 {
		return nil, fmt.Errorf("not a valid meal summary: malformed data payload")
	}

	jsonBytes, err := base64.StdEncoding.DecodeString(content[start : start+end])
	if err != nil {
		return nil, fmt.Errorf("not a valid meal summary: corrupted base64 payload: %w", err)
	}

	var s MealSummary
	if err := json.Unmarshal(jsonBytes, &s); err != nil {
		return nil, fmt.Errorf("not a valid meal summary: failed to parse embedded JSON: %w", err)
	}
	return &s, nil
}
