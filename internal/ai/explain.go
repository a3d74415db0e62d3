package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/pkg/currency"
)

// Explainer produces human-facing recommendations from ranked offers.
type Explainer struct {
	client Client
}

func NewExplainer(client Client) *Explainer {
	return &Explainer{client: client}
}

func (e *Explainer) Enabled() bool {
	return e != nil && e.client != nil
}

// ExplainChoice explains why the target offer is a good pick, optionally
// compared against a second offer.
func (e *Explainer) ExplainChoice(ctx context.Context, target models.Offer, comparison *models.Offer) (*Completion, error) {
	if !e.Enabled() {
		return nil, fmt.Errorf("ai explanations are disabled")
	}

	var b strings.Builder
	b.WriteString("Please briefly explain why this flight option is good in 2-3 sentences.\n")
	b.WriteString("Focus on value, time, and convenience. Use Japanese.\n\n")
	b.WriteString("Option A:\n")
	writeOfferSummary(&b, target)

	if comparison != nil {
		b.WriteString("\nOption B (Comparison):\n")
		writeOfferSummary(&b, *comparison)
		b.WriteString("\nCompare A against B. Highlight why A might be preferred.\n")
	}

	return e.client.Complete(ctx, b.String())
}

// AnalyzeTopOffers produces a structured recommendation over the best five
// ranked offers.
func (e *Explainer) AnalyzeTopOffers(ctx context.Context, offers []models.Offer) (*Completion, error) {
	if !e.Enabled() {
		return nil, fmt.Errorf("ai explanations are disabled")
	}

	top := offers
	if len(top) > 5 {
		top = top[:5]
	}

	var b strings.Builder
	for idx, o := range top {
		fmt.Fprintf(&b, "Option %d: %s | %s\n", idx+1, o.CarrierMain, currency.FormatJPY(o.Price))
		if len(o.Segments) > 0 {
			first := o.Segments[0]
			last := o.Segments[len(o.Segments)-1]
			fmt.Fprintf(&b, "Time: %s -> %s (Duration: %dm)\n",
				first.DepartureTime.Format("15:04"), last.ArrivalTime.Format("15:04"), o.TotalDurationMinutes)
			fmt.Fprintf(&b, "Stops: %d", o.Stops)
			if first.Aircraft != nil {
				fmt.Fprintf(&b, " | Aircraft: %s", *first.Aircraft)
			}
			if first.SeatsAvailable != nil {
				fmt.Fprintf(&b, " | Seats: %d", *first.SeatsAvailable)
			}
			b.WriteString("\n")
		}
	}

	prompt := fmt.Sprintf(`You are a professional travel agent. Analyze these top flight options for the user.
Output a structured recommendation in Japanese.

Flight Options:
%s

Please provide:
1. Best Overall: Which one and why?
2. Best Value: If different from above.
3. Fastest/Most Convenient: Best for time.
4. Important Notes: Any warnings about terminals, tight connections, or low seats?

Keep it concise and helpful. Format with Markdown.`, b.String())

	return e.client.Complete(ctx, prompt)
}

func writeOfferSummary(b *strings.Builder, o models.Offer) {
	fmt.Fprintf(b, "Airline: %s\n", o.CarrierMain)
	fmt.Fprintf(b, "Price: %s (%s)\n", currency.FormatJPY(o.Price), o.Currency)
	fmt.Fprintf(b, "Duration: %d min\n", o.TotalDurationMinutes)
	fmt.Fprintf(b, "Stops: %d\n", o.Stops)
	if len(o.ScoreBreakdown) > 0 {
		fmt.Fprintf(b, "Score Breakdown: %v\n", o.ScoreBreakdown)
	}
}
