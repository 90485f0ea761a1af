package summary

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// Renderer serializes a MealSummary to bytes.
type Renderer interface {
	Render(s *MealSummary) ([]byte, error)
	Ext() string
}

// RendererFor returns the renderer for a format name; anything other than
// "json" renders Markdown.
func RendererFor(format string) Renderer {
	if format == "json" {
		return &JSONRenderer{}
	}
	return &MarkdownRenderer{}
}

// JSONRenderer renders a MealSummary as indented JSON.
type JSONRenderer struct{}

func (r *JSONRenderer) Render(s *MealSummary) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func (r *JSONRenderer) Ext() string { return ".json" }

// MarkdownRenderer renders a MealSummary as human-readable Markdown with
// an embedded base64 JSON payload for lossless round-trip parsing.
type MarkdownRenderer struct{}

func (r *MarkdownRenderer) Ext() string { return ".md" }

func (r *MarkdownRenderer) Render(s *MealSummary) ([]byte, error) {
	jsonBytes, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal summary: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(jsonBytes)

	var sb strings.Builder

	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, encoded, dataSuffix)

	fmt.Fprintf(&sb, "# Meal with %s — %s\n\n", s.Companion, FormatDate(s.Meal.StartTime))

	sb.WriteString("## Summary\n\n")
	fmt.Fprintf(&sb, "- Started: %s\n", s.Meal.StartTime.Format("2006-01-02 15:04:05 MST"))
	if s.Meal.EndTime != nil {
		fmt.Fprintf(&sb, "- Ended: %s\n", s.Meal.EndTime.Format("2006-01-02 15:04:05 MST"))
	}
	fmt.Fprintf(&sb, "- Duration: %s\n", s.Duration)
	if s.Author != "" {
		fmt.Fprintf(&sb, "- Diner: %s\n", s.Author)
	}
	if s.Meal.Rating > 0 {
		fmt.Fprintf(&sb, "- Mindfulness: %s\n", Stars(s.Meal.Rating))
	}
	sb.WriteString("\n")

	sb.WriteString("## Conversation Highlights\n\n")
	highlights, more := s.Highlights()
	if len(highlights) == 0 {
		sb.WriteString("_No conversation recorded for this meal._\n")
	} else {
		for _, m := range highlights {
			fmt.Fprintf(&sb, "- **%s:** %s\n", m.Speaker.Label(), m.Text)
		}
		if more > 0 {
			fmt.Fprintf(&sb, "\n_... and %d more messages_\n", more)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## What I Ate\n\n")
	if len(s.Meal.FoodItems) == 0 {
		sb.WriteString("_No food items recorded._\n")
	} else {
		for _, item := range s.Meal.FoodItems {
			fmt.Fprintf(&sb, "- %s\n", item)
		}
	}
	sb.WriteString("\n")

	sb.WriteString("## Notes\n\n")
	if strings.TrimSpace(s.Meal.Notes) == "" {
		sb.WriteString("_No notes._\n")
	} else {
		sb.WriteString(s.Meal.Notes)
		if !strings.HasSuffix(s.Meal.Notes, "\n") {
			sb.WriteString("\n")
		}
	}
	sb.WriteString("\n")

	return []byte(sb.String()), nil
}

// Stars renders a 1-5 rating as filled and empty stars.
func Stars(rating int) string {
	if rating < 0 {
		rating = 0
	}
	if rating > 5 {
		rating = 5
	}
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}
