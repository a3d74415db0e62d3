package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/xin285109136/AutoTicket/internal/models"
)

// htmlExcerptLimit bounds the HTML sent to the model. The interesting rows
// sit near the top of the rendered results page.
const htmlExcerptLimit = 30000

var mandatoryFields = []string{"flight_number", "departure_time", "arrival_time", "price"}

// FallbackExtractor parses flight rows out of raw HTML with a language
// model when the selector-driven path extracts nothing.
type FallbackExtractor struct {
	client Client
}

func NewFallbackExtractor(client Client) *FallbackExtractor {
	return &FallbackExtractor{client: client}
}

// Extract never fails past this boundary: any model, parse, or validation
// problem yields an empty list.
func (e *FallbackExtractor) Extract(ctx context.Context, html, origin, dest, date string) []models.RawOffer {
	if e == nil || e.client == nil {
		return nil
	}

	prompt := buildExtractionPrompt(truncateHTML(html), origin, dest, date)

	completion, err := e.client.Complete(ctx, prompt)
	if err != nil {
		log.Printf("ai: fallback extraction call failed: %v", err)
		return nil
	}

	text := StripCodeFences(completion.Text)

	var rows []map[string]any
	if err := json.Unmarshal([]byte(text), &rows); err != nil {
		log.Printf("ai: fallback extraction returned invalid JSON: %v", err)
		return nil
	}

	valid := make([]models.RawOffer, 0, len(rows))
	for idx, row := range rows {
		if !hasMandatoryFields(row) {
			continue
		}
		row["origin"] = origin
		row["destination"] = dest
		row["date"] = date
		row["id"] = fmt.Sprintf("AI_%d_%v", idx, row["flight_number"])
		row["_source"] = models.SourceAIFallback
		valid = append(valid, models.RawOffer(row))
	}

	log.Printf("ai: fallback extracted %d/%d valid flights from HTML", len(valid), len(rows))
	return valid
}

func hasMandatoryFields(row map[string]any) bool {
	for _, field := range mandatoryFields {
		if _, ok := row[field]; !ok {
			return false
		}
	}
	return true
}

func truncateHTML(html string) string {
	if len(html) > htmlExcerptLimit {
		return html[:htmlExcerptLimit]
	}
	return html
}

// StripCodeFences removes markdown code-fence markers models sometimes wrap
// around JSON despite instructions.
func StripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func buildExtractionPrompt(htmlExcerpt, origin, dest, date string) string {
	return fmt.Sprintf(`You are an expert web scraper. Extract flight information from the following HTML snippet.
The page contains domestic Japan flights from %[1]s to %[2]s on %[3]s.

HTML Content:
`+"```html\n%[4]s\n... (truncated)\n```"+`

Task:
Identify flight results in the HTML. For each flight, extract:
1. Flight Number (e.g., ANA123, JL456)
2. Departure Time (HH:MM)
3. Arrival Time (HH:MM)
4. Price (in JPY, just the number)
5. Airline Code (e.g., NH for ANA, JL for JAL)

Output Format:
Return ONLY a valid JSON array of objects. No markdown formatting, no explanations.
Example:
[
  {
    "airline": "NH",
    "flight_number": "123",
    "departure_time": "10:00",
    "arrival_time": "11:30",
    "price": 15000
  }
]

If no flights are found, return empty array [].`, origin, dest, date, htmlExcerpt)
}
