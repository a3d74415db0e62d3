package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/internal/selector"
)

// Healer asks the model to reverse-engineer working selectors from the HTML
// plus a sample of successfully AI-extracted rows, and persists the result
// as a pending suggestion. It never writes the active configuration.
type Healer struct {
	client Client
	store  *selector.Store
}

func NewHealer(client Client, store *selector.Store) *Healer {
	return &Healer{client: client, store: store}
}

// Heal returns the suggested selector set after writing the suggestion
// file, or an error. The suggestion stays pending until an operator
// promotes it.
func (h *Healer) Heal(ctx context.Context, site, html string, sample []models.RawOffer) (map[string]string, error) {
	if h == nil || h.client == nil {
		return nil, fmt.Errorf("ai healing is disabled")
	}

	prompt := buildSelectorFixPrompt(truncateHTML(html), sample)

	completion, err := h.client.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("selector fix call failed: %w", err)
	}

	text := StripCodeFences(completion.Text)

	var selectors map[string]string
	if err := json.Unmarshal([]byte(text), &selectors); err != nil {
		return nil, fmt.Errorf("selector fix returned invalid JSON: %w", err)
	}

	for _, field := range selector.RequiredFields {
		if selectors[field] == "" {
			return nil, fmt.Errorf("selector fix is missing field %q", field)
		}
	}

	// The container selector must at least match something in the page we
	// just extracted from, otherwise the suggestion is useless.
	if n := selectorMatches(html, selectors["container"]); n == 0 {
		return nil, fmt.Errorf("suggested container %q matches nothing in the captured HTML", selectors["container"])
	}

	if err := h.store.SaveSuggestion(site, selectors); err != nil {
		return nil, fmt.Errorf("persisting suggestion: %w", err)
	}

	log.Printf("ai: selector suggestion for %s written (container=%q)", site, selectors["container"])
	return selectors, nil
}

// selectorMatches counts nodes the selector hits in the document. Invalid
// selector expressions panic inside goquery's matcher, so this recovers and
// treats them as zero matches.
func selectorMatches(html, sel string) (n int) {
	defer func() {
		if recover() != nil {
			n = 0
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0
	}
	return doc.Find(sel).Length()
}

func buildSelectorFixPrompt(htmlExcerpt string, sample []models.RawOffer) string {
	sampleData, _ := json.Marshal(firstN(sample, 2))

	return fmt.Sprintf(`You represent a Self-Healing Code System.
The web scraper's CSS selectors failed, but an AI fallback successfully extracted data.

Your task: Reverse-engineer the CORRECT CSS selectors based on the HTML and Extracted Data.

HTML Context:
`+"```html\n%s\n...\n```"+`

Target Data:
%s

Output Format:
Return ONLY a valid JSON object with the following keys. No markdown, no code blocks.
{
  "container": "CSS selector for the list item (e.g. li.flight-row)",
  "flight_number": "CSS selector relative to container for flight number",
  "departure_time": "CSS selector relative to container for dep time",
  "arrival_time": "CSS selector relative to container for arr time",
  "price": "CSS selector relative to container for price"
}`, htmlExcerpt, sampleData)
}

func firstN(rows []models.RawOffer, n int) []models.RawOffer {
	if len(rows) <= n {
		return rows
	}
	return rows[:n]
}
