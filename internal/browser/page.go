package browser

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/chromedp/cdproto/input"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/rivo/uniseg"
)

// pasteModifier is Cmd on macOS and Ctrl elsewhere.
var pasteModifier = func() input.Modifier {
	if runtime.GOOS == "darwin" {
		return input.ModifierMeta
	}
	return input.ModifierCtrl
}()

// Navigate opens url with the "Leave site?" dialog disabled.
func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx,
		chromedp.Evaluate(disableUnloadScript, nil),
		chromedp.Navigate(url),
	)
}

func (s *Session) WaitFor(ctx context.Context, sel Selector, state State) error {
	by := sel.queryOption()
	switch state {
	case Present:
		return s.run(ctx, chromedp.WaitReady(string(sel), by))
	case Visible:
		return s.run(ctx, chromedp.WaitVisible(string(sel), by))
	default:
		return s.run(ctx,
			chromedp.WaitVisible(string(sel), by),
			chromedp.WaitEnabled(string(sel), by),
		)
	}
}

func (s *Session) Click(ctx context.Context, sel Selector) error {
	return s.run(ctx, chromedp.Click(string(sel), sel.queryOption(), chromedp.NodeVisible))
}

// ClickJS clicks through element.click(), which works when an overlay
// intercepts the synthetic mouse event.
func (s *Session) ClickJS(ctx context.Context, sel Selector) error {
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(script(sel, clickBody), &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element for %s", sel)
	}
	return nil
}

func (s *Session) Focus(ctx context.Context, sel Selector) error {
	return s.run(ctx, chromedp.Focus(string(sel), sel.queryOption()))
}

// SetContent writes text into a contenteditable and fires the input event
// the app listens for.
func (s *Session) SetContent(ctx context.Context, sel Selector, text string) error {
	return s.evalOnElement(ctx, sel, setContentBody(text))
}

func (s *Session) Clear(ctx context.Context, sel Selector) error {
	return s.evalOnElement(ctx, sel, clearBody)
}

func (s *Session) FireInputEvents(ctx context.Context, sel Selector) error {
	return s.evalOnElement(ctx, sel, fireEventsBody)
}

func (s *Session) evalOnElement(ctx context.Context, sel Selector, body string) error {
	var ok bool
	if err := s.run(ctx, chromedp.Evaluate(script(sel, body), &ok)); err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no element for %s", sel)
	}
	return nil
}

func (s *Session) WriteClipboard(ctx context.Context, text string) error {
	var ok bool
	err := s.run(ctx, chromedp.Evaluate(clipboardWriteScript(text), &ok,
		func(p *cdpruntime.EvaluateParams) *cdpruntime.EvaluateParams {
			return p.WithAwaitPromise(true).WithUserGesture(true)
		}))
	if err != nil {
		return fmt.Errorf("clipboard write failed (permission granted: %t): %w", s.clipboardOK, err)
	}
	return nil
}

// Paste sends the platform paste shortcut to the focused element.
func (s *Session) Paste(ctx context.Context) error {
	return s.run(ctx,
		chromedp.KeyEvent("v", chromedp.KeyModifiers(pasteModifier)),
		chromedp.Sleep(300*time.Millisecond),
	)
}

// Type enters text one grapheme at a time into the focused element. Line
// breaks become Shift+Enter so the message is not sent early; graphemes the
// keyboard layer cannot produce (emoji, combined characters) are inserted as
// text.
func (s *Session) Type(ctx context.Context, text string) error {
	actions := make([]chromedp.Action, 0, len(text))
	g := uniseg.NewGraphemes(text)
	for g.Next() {
		cluster := g.Str()
		runes := g.Runes()
		switch {
		case cluster == "\n":
			actions = append(actions, chromedp.KeyEvent(string(KeyEnter), chromedp.KeyModifiers(input.ModifierShift)))
		case len(runes) == 1 && runes[0] < 0x80:
			actions = append(actions, chromedp.KeyEvent(cluster))
		default:
			actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
				return input.InsertText(cluster).Do(ctx)
			}))
		}
		actions = append(actions, chromedp.Sleep(15*time.Millisecond))
	}
	return s.run(ctx, actions...)
}

func (s *Session) Press(ctx context.Context, key Key) error {
	return s.run(ctx, chromedp.KeyEvent(string(key)))
}

// Text returns the element's text content, "" when it is missing.
func (s *Session) Text(ctx context.Context, sel Selector) (string, error) {
	var text string
	if err := s.run(ctx, chromedp.Evaluate(script(sel, readTextBody), &text)); err != nil {
		return "", err
	}
	return text, nil
}

func (s *Session) Visible(ctx context.Context, sel Selector) (bool, error) {
	var visible bool
	if err := s.run(ctx, chromedp.Evaluate(script(sel, visibleBody), &visible)); err != nil {
		return false, err
	}
	return visible, nil
}

func (s *Session) Upload(ctx context.Context, sel Selector, files []string) error {
	return s.run(ctx, chromedp.SetUploadFiles(string(sel), files, sel.queryOption()))
}

// Source returns the current document HTML.
func (s *Session) Source(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	if err := s.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, err
	}
	return buf, nil
}
