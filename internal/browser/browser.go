// Package browser models the headless-browser capability behind a narrow
// interface so extraction logic can be tested against a scripted double.
package browser

import "time"

// Launcher opens one isolated browser session per extraction attempt.
// Sessions are never pooled or reused across requests.
type Launcher interface {
	NewSession() (Session, error)
}

type Session interface {
	NewPage() (Page, error)
	Close() error
}

type Page interface {
	Navigate(url string, timeout time.Duration) error
	// Locator resolves a selector lazily; it never fails by itself.
	Locator(selector string) Locator
	// LocatorWithText narrows a selector to elements containing the text.
	LocatorWithText(selector, text string) Locator
	// WaitFor blocks until the selector appears or the timeout fires.
	WaitFor(selector string, timeout time.Duration) error
	// Evaluate runs a script in the page and returns its result.
	Evaluate(script string) (any, error)
	// Content returns the full rendered HTML.
	Content() (string, error)
}

type Locator interface {
	Count() (int, error)
	Nth(i int) Locator
	First() Locator
	// Locator resolves a selector relative to this element.
	Locator(selector string) Locator
	IsVisible() (bool, error)
	Click() error
	Fill(value string) error
	Text() (string, error)
}
