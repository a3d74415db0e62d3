package browser

import (
	"fmt"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

const defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Install downloads the browser binaries playwright drives. Call once at
// startup before the first session.
func Install() error {
	return pw.Install(&pw.RunOptions{Verbose: false})
}

// PlaywrightLauncher launches real Chromium sessions.
type PlaywrightLauncher struct {
	Headless  bool
	UserAgent string
}

func NewPlaywrightLauncher(headless bool) *PlaywrightLauncher {
	return &PlaywrightLauncher{
		Headless:  headless,
		UserAgent: defaultUserAgent,
	}
}

func (l *PlaywrightLauncher) NewSession() (Session, error) {
	run, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("starting playwright: %w", err)
	}

	browser, err := run.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(l.Headless),
	})
	if err != nil {
		_ = run.Stop()
		return nil, fmt.Errorf("launching chromium: %w", err)
	}

	return &playwrightSession{run: run, browser: browser, userAgent: l.UserAgent}, nil
}

type playwrightSession struct {
	run       *pw.Playwright
	browser   pw.Browser
	userAgent string
}

func (s *playwrightSession) NewPage() (Page, error) {
	page, err := s.browser.NewPage(pw.BrowserNewPageOptions{
		UserAgent: pw.String(s.userAgent),
	})
	if err != nil {
		return nil, fmt.Errorf("creating page: %w", err)
	}
	return &playwrightPage{page: page}, nil
}

func (s *playwrightSession) Close() error {
	err := s.browser.Close()
	if stopErr := s.run.Stop(); err == nil {
		err = stopErr
	}
	return err
}

type playwrightPage struct {
	page pw.Page
}

func (p *playwrightPage) Navigate(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, pw.PageGotoOptions{
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Locator(selector string) Locator {
	return &playwrightLocator{locator: p.page.Locator(selector)}
}

func (p *playwrightPage) LocatorWithText(selector, text string) Locator {
	return &playwrightLocator{locator: p.page.Locator(selector, pw.PageLocatorOptions{HasText: text})}
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, pw.PageWaitForSelectorOptions{
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
	return err
}

func (p *playwrightPage) Evaluate(script string) (any, error) {
	return p.page.Evaluate(script)
}

func (p *playwrightPage) Content() (string, error) {
	return p.page.Content()
}

type playwrightLocator struct {
	locator pw.Locator
}

func (l *playwrightLocator) Count() (int, error) {
	return l.locator.Count()
}

func (l *playwrightLocator) Nth(i int) Locator {
	return &playwrightLocator{locator: l.locator.Nth(i)}
}

func (l *playwrightLocator) First() Locator {
	return &playwrightLocator{locator: l.locator.First()}
}

func (l *playwrightLocator) Locator(selector string) Locator {
	return &playwrightLocator{locator: l.locator.Locator(selector)}
}

func (l *playwrightLocator) IsVisible() (bool, error) {
	return l.locator.IsVisible()
}

func (l *playwrightLocator) Click() error {
	return l.locator.Click(pw.LocatorClickOptions{Timeout: pw.Float(5000)})
}

func (l *playwrightLocator) Fill(value string) error {
	return l.locator.Fill(value)
}

func (l *playwrightLocator) Text() (string, error) {
	return l.locator.InnerText()
}
