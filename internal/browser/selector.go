package browser

import (
	"encoding/json"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Selector is an XPath expression when it starts with "//" or "(", a CSS
// selector otherwise.
type Selector string

func (s Selector) IsXPath() bool {
	q := string(s)
	return strings.HasPrefix(q, "//") || strings.HasPrefix(q, "(")
}

func (s Selector) queryOption() chromedp.QueryOption {
	if s.IsXPath() {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

func (s Selector) String() string { return string(s) }

// State is what a wait requires of the element.
type State int

const (
	// Present only requires the node in the DOM (hidden file inputs).
	Present State = iota
	Visible
	// Clickable is visible and enabled.
	Clickable
)

func (st State) String() string {
	switch st {
	case Present:
		return "present"
	case Visible:
		return "visible"
	case Clickable:
		return "clickable"
	}
	return "unknown"
}

type Key string

const (
	KeyEnter     Key = kb.Enter
	KeyBackspace Key = kb.Backspace
	KeySpace     Key = " "
)

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
