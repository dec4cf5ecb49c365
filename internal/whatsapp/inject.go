package whatsapp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"whatsapp-broadcaster/internal/browser"
)

// Method is one way of getting text into an editor.
type Method struct {
	Name  string
	Enter func(ctx context.Context, p Page, sel browser.Selector, text string) error
}

// DefaultMethods are tried in this order.
var DefaultMethods = []Method{
	{Name: "dom", Enter: enterDOM},
	{Name: "clipboard", Enter: enterClipboard},
	{Name: "typing", Enter: enterTyping},
}

func enterDOM(ctx context.Context, p Page, sel browser.Selector, text string) error {
	return p.SetContent(ctx, sel, text)
}

func enterClipboard(ctx context.Context, p Page, sel browser.Selector, text string) error {
	if err := p.WriteClipboard(ctx, text); err != nil {
		return err
	}
	if err := focus(ctx, p, sel); err != nil {
		return err
	}
	return p.Paste(ctx)
}

func enterTyping(ctx context.Context, p Page, sel browser.Selector, text string) error {
	if err := focus(ctx, p, sel); err != nil {
		return err
	}
	return p.Type(ctx, text)
}

func focus(ctx context.Context, p Page, sel browser.Selector) error {
	if err := p.Focus(ctx, sel); err != nil {
		return err
	}
	return p.Click(ctx, sel)
}

type Injector struct {
	page    Page
	methods []Method
	settle  time.Duration
	sleep   Sleeper
	log     *zap.SugaredLogger
}

func NewInjector(page Page, settle time.Duration, sleep Sleeper) *Injector {
	return &Injector{
		page:    page,
		methods: DefaultMethods,
		settle:  settle,
		sleep:   sleep,
		log:     zap.S().Named("injector"),
	}
}

// Inject runs the methods in order until the editor reads back non-empty and
// returns the name of the method that worked. When every method leaves the
// editor empty it returns ErrInjectionFailed; callers decide whether that is
// fatal.
func (in *Injector) Inject(ctx context.Context, sel browser.Selector, text string) (string, error) {
	text = normalizeNewlines(text)
	tried := make([]string, 0, len(in.methods))

	for _, m := range in.methods {
		tried = append(tried, m.Name)

		if err := m.Enter(ctx, in.page, sel, text); err != nil {
			if isFatal(ctx, err) {
				return "", err
			}
			in.log.Debugw("method failed", "method", m.Name, "error", err)
			in.reset(ctx, sel)
			continue
		}

		if err := in.sleep(ctx, in.settle); err != nil {
			return "", err
		}

		got, err := in.page.Text(ctx, sel)
		if err != nil && isFatal(ctx, err) {
			return "", err
		}
		if strings.TrimSpace(got) != "" {
			in.log.Debugw("text entered", "method", m.Name, "chars", len([]rune(got)))
			return m.Name, nil
		}

		in.log.Debugw("read-back empty", "method", m.Name)
		in.reset(ctx, sel)
	}
	return "", fmt.Errorf("%w: tried %s", ErrInjectionFailed, strings.Join(tried, ", "))
}

// reset clears partial input so the next method starts from an empty editor.
func (in *Injector) reset(ctx context.Context, sel browser.Selector) {
	if err := in.page.Clear(ctx, sel); err != nil {
		in.log.Debugw("clear failed", "error", err)
	}
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
