// Package scraper drives a headless browser against the ANA domestic
// booking form and extracts flight rows with operator-configurable
// selectors. When the selectors match nothing it hands the rendered page to
// the AI fallback and, on success, asks the healer to propose replacements.
package scraper

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xin285109136/AutoTicket/internal/ai"
	"github.com/xin285109136/AutoTicket/internal/browser"
	"github.com/xin285109136/AutoTicket/internal/filter"
	"github.com/xin285109136/AutoTicket/internal/models"
	"github.com/xin285109136/AutoTicket/internal/selector"
)

const Site = "ana"

const defaultSearchURL = "https://www.ana.co.jp/ja/jp/search/domestic/flight/"

// Rows quoting less than this are assumed to be noise (mileage numbers,
// seat counts), not fares.
const minPlausiblePrice = 5000

type Logger interface {
	Printf(format string, v ...any)
	Errorf(format string, v ...any)
}

type stdLogger struct{}

func (stdLogger) Printf(format string, v ...any) { log.Printf("scraper: "+format, v...) }
func (stdLogger) Errorf(format string, v ...any) { log.Printf("scraper: ERROR: "+format, v...) }

type Config struct {
	URL            string
	AutoClose      bool
	KeepOpenGrace  time.Duration
	NavTimeout     time.Duration
	ResultsTimeout time.Duration
	// SettleDelay paces form interactions so the site's own scripts keep up.
	SettleDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		URL:            defaultSearchURL,
		AutoClose:      true,
		KeepOpenGrace:  30 * time.Second,
		NavTimeout:     60 * time.Second,
		ResultsTimeout: 30 * time.Second,
		SettleDelay:    time.Second,
	}
}

type Request struct {
	Origin         string
	Destination    string
	Date           string // YYYY-MM-DD
	Adults         int
	TripType       string
	TimeRange      string
	FlexibleTicket bool
}

// ANAScraper owns one scrape attempt end to end. A fresh browser session is
// opened per call and closed on every exit path.
type ANAScraper struct {
	launcher browser.Launcher
	store    *selector.Store
	fallback *ai.FallbackExtractor
	healer   *ai.Healer
	logger   Logger
	cfg      Config
}

func NewANAScraper(launcher browser.Launcher, store *selector.Store, fallback *ai.FallbackExtractor, healer *ai.Healer, cfg Config, logger Logger) *ANAScraper {
	if logger == nil {
		logger = stdLogger{}
	}
	if cfg.URL == "" {
		cfg.URL = defaultSearchURL
	}
	return &ANAScraper{
		launcher: launcher,
		store:    store,
		fallback: fallback,
		healer:   healer,
		logger:   logger,
		cfg:      cfg,
	}
}

// Scrape returns raw payloads plus an optional warning. Navigation and
// selection failures surface as an empty result with a warning, never as a
// fault the caller has to recover from.
func (s *ANAScraper) Scrape(ctx context.Context, req Request) ([]models.RawOffer, string, error) {
	session, err := s.launcher.NewSession()
	if err != nil {
		return nil, fmt.Sprintf("ANA scraper failed to start a browser: %v", err), nil
	}
	defer s.closeSession(session)

	results, warning, err := s.run(ctx, session, req)
	if err != nil {
		s.logger.Errorf("scrape aborted: %v", err)
		return nil, fmt.Sprintf("ANA scraper error: %v", err), nil
	}
	return results, warning, nil
}

func (s *ANAScraper) run(ctx context.Context, session browser.Session, req Request) ([]models.RawOffer, string, error) {
	page, err := session.NewPage()
	if err != nil {
		return nil, "", fmt.Errorf("creating page: %w", err)
	}

	s.logger.Printf("navigating to %s", s.cfg.URL)
	if err := page.Navigate(s.cfg.URL, s.cfg.NavTimeout); err != nil {
		return nil, "", fmt.Errorf("navigation: %w", err)
	}

	s.openSearchForm(page)
	s.selectTripType(page, req.TripType)

	if err := s.selectAirport(page, "button.be-domestic-reserve-ticket-departure-airport__button", req.Origin); err != nil {
		return nil, "", fmt.Errorf("selecting origin %s: %w", req.Origin, err)
	}
	if err := s.selectAirport(page, "button.be-domestic-reserve-ticket-arrival-airport__button", req.Destination); err != nil {
		return nil, "", fmt.Errorf("selecting destination %s: %w", req.Destination, err)
	}

	if err := s.selectDate(page, req.Date); err != nil {
		// A wrong date would silently produce wrong-date results; abort.
		return nil, "", err
	}

	if err := page.Locator("button.be-domestic-reserve-ticket-submit__button:not([disabled])").First().Click(); err != nil {
		return nil, "", fmt.Errorf("submitting search: %w", err)
	}

	s.logger.Printf("search submitted, waiting for results")
	if err := page.WaitFor("div.be-flight-list, table", s.cfg.ResultsTimeout); err != nil {
		return nil, "", fmt.Errorf("waiting for results: %w", err)
	}
	s.settle(3)

	selectors := s.store.Active(Site)
	results := s.parseRows(page, req, selectors)

	if len(results) > 0 {
		return results, "", nil
	}
	return s.fallbackExtract(ctx, page, req)
}

// openSearchForm clicks the expander when the form starts collapsed. Its
// absence is normal.
func (s *ANAScraper) openSearchForm(page browser.Page) {
	btn := page.Locator("button.be-domestic-reserve-ticket-form-open__button")
	if visible, _ := btn.IsVisible(); visible {
		if err := btn.Click(); err != nil {
			s.logger.Printf("could not open search form: %v", err)
		}
		s.settle(1)
	}
}

// selectTripType clicks 片道 for one-way; the form defaults to round-trip
// (往復) so round-trip needs no click.
func (s *ANAScraper) selectTripType(page browser.Page, tripType string) {
	if tripType != models.TripOneWay {
		s.logger.Printf("round-trip requested, keeping form default")
		return
	}
	oneWay := page.LocatorWithText("li.be-switch__item", "片道").First()
	if err := oneWay.Click(); err != nil {
		s.logger.Printf("could not select one-way: %v", err)
		return
	}
	s.settle(1)
}

var airportSearchInputs = []string{
	"input[placeholder*='都市']",
	"input[placeholder*='空港']",
	"input.be-search-autocomplete__input",
	"div[role='dialog'] input[type='text']",
}

// selectAirport opens the airport picker and filters it with type-ahead the
// way a real user would, then clicks the matching entry from the page's own
// script context to dodge overlay visibility checks. When no search input
// exists it falls back to a direct text match.
func (s *ANAScraper) selectAirport(page browser.Page, btnSelector, code string) error {
	if err := page.Locator(btnSelector).Click(); err != nil {
		return fmt.Errorf("opening picker: %w", err)
	}
	s.settle(2)

	var input browser.Locator
	for _, sel := range airportSearchInputs {
		candidate := page.Locator(sel)
		if count, _ := candidate.Count(); count == 0 {
			continue
		}
		if visible, _ := candidate.First().IsVisible(); visible {
			input = candidate.First()
			break
		}
	}

	if input == nil {
		s.logger.Printf("no search input found for %s, trying direct selection", code)
		if err := page.LocatorWithText("button", code).First().Click(); err != nil {
			return fmt.Errorf("direct selection: %w", err)
		}
		s.settle(1)
		return nil
	}

	if err := input.Fill(""); err != nil {
		return fmt.Errorf("clearing input: %w", err)
	}
	if err := input.Fill(code); err != nil {
		return fmt.Errorf("typing %s: %w", code, err)
	}
	s.settle(2) // let the autocomplete filter

	result, err := page.Evaluate(airportClickScript(code))
	if err != nil {
		return fmt.Errorf("clicking list entry: %w", err)
	}
	s.logger.Printf("airport %s selection: %v", code, result)
	if result == "not found" {
		return fmt.Errorf("no list entry matched %s", code)
	}
	s.settle(1)
	return nil
}

func airportClickScript(code string) string {
	return fmt.Sprintf(`() => {
		const item = document.querySelector('li[data-value="%[1]s"]');
		if (item) {
			item.click();
			return 'clicked: ' + item.textContent;
		}
		const items = Array.from(document.querySelectorAll('li.be-list__item'));
		const match = items.find(el => el.textContent.includes('%[1]s'));
		if (match) {
			match.click();
			return 'clicked by text: ' + match.textContent;
		}
		return 'not found';
	}`, code)
}

// selectDate picks the exact calendar cell for the requested day. The cell
// aria-label starts with "YYYY年M月D日"; no visible match is fatal because a
// mis-selected date must not silently return wrong-date results.
func (s *ANAScraper) selectDate(page browser.Page, date string) error {
	dt, err := time.Parse("2006-01-02", date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}
	label := fmt.Sprintf("%d年%d月%d日", dt.Year(), int(dt.Month()), dt.Day())

	if err := page.Locator("button.be-domestic-reserve-ticket-departure-date__button").Click(); err != nil {
		return fmt.Errorf("opening calendar: %w", err)
	}
	s.settle(2)

	cells := page.Locator(fmt.Sprintf("button.be-calendar-month__cell-button[aria-label^='%s']", label))
	count, err := cells.Count()
	if err != nil {
		return fmt.Errorf("querying calendar cells: %w", err)
	}
	s.logger.Printf("found %d calendar cells for %s", count, label)

	selected := false
	for i := 0; i < count; i++ {
		cell := cells.Nth(i)
		if visible, _ := cell.IsVisible(); !visible {
			continue
		}
		if err := cell.Click(); err == nil {
			selected = true
			break
		}
	}
	if !selected {
		return fmt.Errorf("failed to select date %s: no visible calendar cell matches %s", date, label)
	}
	s.settle(1)

	s.confirmDateDialog(page)
	return nil
}

func (s *ANAScraper) confirmDateDialog(page browser.Page) {
	confirm := page.LocatorWithText("button.be-dialog__button--positive", "決定")
	if count, _ := confirm.Count(); count > 0 {
		if err := confirm.Click(); err == nil {
			s.settle(1)
			return
		}
	}
	fallbackBtn := page.LocatorWithText("button", "決定")
	if count, _ := fallbackBtn.Count(); count > 0 {
		if err := fallbackBtn.First().Click(); err == nil {
			s.settle(1)
			return
		}
	}
	s.logger.Printf("no confirm button found, date may auto-apply")
}

var (
	timeRe   = regexp.MustCompile(`(\d{2}:\d{2})`)
	flightRe = regexp.MustCompile(`(ANA\s?\d{2,4})`)
	priceRe  = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)`)
	digitsRe = regexp.MustCompile(`\d+`)
)

type parsedRow struct {
	flightNumber string
	depTime      string
	arrTime      string
	price        int
	fareType     string
}

// parseRows walks the configured row container and keeps rows matching the
// minimal flight shape. The configured per-field selectors are tried first;
// rows they don't resolve fall back to a regex parse of the row text. Rows
// matching neither are skipped, never fatal.
func (s *ANAScraper) parseRows(page browser.Page, req Request, selectors map[string]string) []models.RawOffer {
	container := selectors["container"]
	if container == "" {
		container = "tr"
	}

	rows := page.Locator(container)
	count, err := rows.Count()
	if err != nil {
		s.logger.Errorf("counting rows with %q: %v", container, err)
		return nil
	}
	s.logger.Printf("processing %d rows", count)

	var results []models.RawOffer
	for i := 0; i < count; i++ {
		rowLoc := rows.Nth(i)

		row, ok := parseRowFields(rowLoc, selectors, req.FlexibleTicket)
		if !ok {
			text, err := rowLoc.Text()
			if err != nil {
				continue
			}
			row, ok = parseRowText(text, req.FlexibleTicket)
		}
		if !ok {
			continue
		}
		if req.TimeRange != "" && !filter.InBucket(row.depTime, req.TimeRange) {
			continue
		}
		results = append(results, buildRawOffer(req, row))
	}
	return results
}

func fieldText(row browser.Locator, sel string) string {
	if sel == "" {
		return ""
	}
	text, err := row.Locator(sel).First().Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// parseRowFields extracts one row through the configured field selectors,
// so a promoted selector suggestion actually drives extraction. Any field
// the selectors can't resolve rejects the row and the caller falls back to
// the text parse.
func parseRowFields(row browser.Locator, selectors map[string]string, flexible bool) (parsedRow, bool) {
	dep := timeRe.FindString(fieldText(row, selectors["departure_time"]))
	arr := timeRe.FindString(fieldText(row, selectors["arrival_time"]))
	priceText := fieldText(row, selectors["price"])
	if dep == "" || arr == "" || priceText == "" {
		return parsedRow{}, false
	}

	price, err := strconv.Atoi(strings.Join(digitsRe.FindAllString(priceText, -1), ""))
	if err != nil || price <= minPlausiblePrice {
		return parsedRow{}, false
	}

	flightNum := "ANA???"
	if ft := fieldText(row, selectors["flight_number"]); ft != "" {
		if m := flightRe.FindString(ft); m != "" {
			flightNum = strings.ReplaceAll(m, " ", "")
		} else if d := digitsRe.FindString(ft); d != "" {
			flightNum = "ANA" + d
		}
	}

	fareType := "Value"
	if flexible {
		fareType = "Flex"
	}

	return parsedRow{
		flightNumber: flightNum,
		depTime:      dep,
		arrTime:      arr,
		price:        price,
		fareType:     fareType,
	}, true
}

func parseRowText(text string, flexible bool) (parsedRow, bool) {
	// header and non-flight rows
	if !strings.Contains(text, "ANA") || strings.Contains(text, "到着") {
		return parsedRow{}, false
	}

	times := timeRe.FindAllString(text, -1)
	if len(times) < 2 {
		return parsedRow{}, false
	}

	flightNum := "ANA???"
	if m := flightRe.FindString(text); m != "" {
		flightNum = strings.ReplaceAll(m, " ", "")
	}

	var prices []int
	for _, m := range priceRe.FindAllString(text, -1) {
		v, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
		if err != nil || v <= minPlausiblePrice {
			continue
		}
		prices = append(prices, v)
	}
	if len(prices) == 0 {
		return parsedRow{}, false
	}

	// Heuristic, not a contract: without a definitive column mapping the
	// row minimum is taken as the standard fare and the maximum as the
	// flexible fare when flexibility is requested.
	price := prices[0]
	for _, p := range prices {
		if p < price {
			price = p
		}
	}
	fareType := "Value"
	if flexible {
		for _, p := range prices {
			if p > price {
				price = p
			}
		}
		fareType = "Flex"
	}

	return parsedRow{
		flightNumber: flightNum,
		depTime:      times[0],
		arrTime:      times[1],
		price:        price,
		fareType:     fareType,
	}, true
}

// buildRawOffer shapes a parsed row API-compatible so the normalizer treats
// scraped rows exactly like API payloads.
func buildRawOffer(req Request, row parsedRow) models.RawOffer {
	dep, _ := time.Parse("15:04", row.depTime)
	arr, _ := time.Parse("15:04", row.arrTime)
	minutes := int(arr.Sub(dep).Minutes())
	if minutes < 0 {
		minutes += 24 * 60
	}
	duration := fmt.Sprintf("PT%dH%dM", minutes/60, minutes%60)

	return models.RawOffer{
		"_source":                models.SourceANAScraper,
		"id":                     fmt.Sprintf("ANA_%s_%s", row.flightNumber, row.depTime),
		"price":                  map[string]any{"total": strconv.Itoa(row.price), "currency": "JPY"},
		"validatingAirlineCodes": []any{"NH"},
		"fare_type":              row.fareType,
		"itineraries": []any{map[string]any{
			"duration": duration,
			"segments": []any{map[string]any{
				"departure":   map[string]any{"iataCode": req.Origin, "at": fmt.Sprintf("%sT%s:00", req.Date, row.depTime)},
				"arrival":     map[string]any{"iataCode": req.Destination, "at": fmt.Sprintf("%sT%s:00", req.Date, row.arrTime)},
				"carrierCode": "NH",
				"number":      strings.TrimPrefix(row.flightNumber, "ANA"),
				"duration":    duration,
			}},
		}},
	}
}

// fallbackExtract hands the rendered page to the AI extractor and, when
// that works, runs the healer so an operator gets a selector suggestion to
// review. The suggestion is never applied automatically.
func (s *ANAScraper) fallbackExtract(ctx context.Context, page browser.Page, req Request) ([]models.RawOffer, string, error) {
	s.logger.Printf("selector extraction returned 0 rows, trying AI fallback")

	html, err := page.Content()
	if err != nil {
		return nil, "", fmt.Errorf("reading page content: %w", err)
	}

	aiRows := s.fallback.Extract(ctx, html, req.Origin, req.Destination, req.Date)
	if len(aiRows) == 0 {
		return nil, "ANA scraper found no flights and the AI fallback also failed.", nil
	}
	s.logger.Printf("AI fallback extracted %d rows", len(aiRows))

	warning := ""
	if s.healer != nil {
		if _, err := s.healer.Heal(ctx, Site, html, aiRows); err != nil {
			s.logger.Printf("selector healing failed: %v", err)
		} else {
			warning = "ANA scraper selectors look broken; the AI proposed replacements. Review them in settings."
		}
	}

	if req.TimeRange != "" {
		filtered := aiRows[:0]
		for _, row := range aiRows {
			dep, _ := row["departure_time"].(string)
			if filter.InBucket(dep, req.TimeRange) {
				filtered = append(filtered, row)
			}
		}
		aiRows = filtered
	}

	return aiRows, warning, nil
}

func (s *ANAScraper) closeSession(session browser.Session) {
	if !s.cfg.AutoClose && s.cfg.KeepOpenGrace > 0 {
		s.logger.Printf("leaving browser open for inspection, closing in %s", s.cfg.KeepOpenGrace)
		time.Sleep(s.cfg.KeepOpenGrace)
	}
	if err := session.Close(); err != nil {
		s.logger.Errorf("closing browser session: %v", err)
	}
}

func (s *ANAScraper) settle(factor int) {
	time.Sleep(time.Duration(factor) * s.cfg.SettleDelay / 2)
}
