package whatsapp

import (
	"context"

	"whatsapp-broadcaster/internal/browser"
)

// Page is the browser capability the send flows need. *browser.Session
// implements it; tests use a scripted fake.
type Page interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, sel browser.Selector, state browser.State) error
	Click(ctx context.Context, sel browser.Selector) error
	ClickJS(ctx context.Context, sel browser.Selector) error
	Focus(ctx context.Context, sel browser.Selector) error
	SetContent(ctx context.Context, sel browser.Selector, text string) error
	Clear(ctx context.Context, sel browser.Selector) error
	FireInputEvents(ctx context.Context, sel browser.Selector) error
	WriteClipboard(ctx context.Context, text string) error
	Paste(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Press(ctx context.Context, key browser.Key) error
	Text(ctx context.Context, sel browser.Selector) (string, error)
	Visible(ctx context.Context, sel browser.Selector) (bool, error)
	Upload(ctx context.Context, sel browser.Selector, files []string) error
	Source(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
}

var _ Page = (*browser.Session)(nil)
