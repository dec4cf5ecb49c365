package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"whatsapp-broadcaster/internal/browser"
)

var errNoNode = errors.New("no such node")

// fakePage is a scripted Page. Elements exist when listed in present or
// visible; editors keep whatever the enabled input methods wrote.
type fakePage struct {
	mu sync.Mutex

	present map[browser.Selector]bool
	visible map[browser.Selector]bool
	text    map[browser.Selector]string

	// Input methods that actually change the editor.
	domWorks, pasteWorks, typeWorks bool
	focused                         browser.Selector
	clipboard                       string

	// sources are served in order; the last one repeats.
	sources []string
	served  int

	clickErr   map[browser.Selector]error
	uploadErr  error
	sourceErr  error
	onSource   func(n int)
	calls      []string
	uploaded   []string
	navigated  []string
	keys       []browser.Key
	screenshot int
}

func newFakePage() *fakePage {
	return &fakePage{
		present:  map[browser.Selector]bool{},
		visible:  map[browser.Selector]bool{},
		text:     map[browser.Selector]string{},
		clickErr: map[browser.Selector]error{},
	}
}

func (f *fakePage) record(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakePage) show(sels ...browser.Selector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range sels {
		f.visible[s] = true
		f.present[s] = true
	}
}

func (f *fakePage) hide(sels ...browser.Selector) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range sels {
		f.visible[s] = false
	}
}

func (f *fakePage) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	f.record("navigate %s", url)
	return nil
}

func (f *fakePage) WaitFor(ctx context.Context, sel browser.Selector, state browser.State) error {
	f.mu.Lock()
	f.record("wait %s", sel)
	ok := f.visible[sel] || (state == browser.Present && f.present[sel])
	f.mu.Unlock()
	if ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		if deadline, has := ctx.Deadline(); has && time.Now().After(deadline) {
			return context.DeadlineExceeded
		}
		return err
	}
	return context.DeadlineExceeded
}

func (f *fakePage) Click(ctx context.Context, sel browser.Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("click %s", sel)
	if err := f.clickErr[sel]; err != nil {
		return err
	}
	f.focused = sel
	return nil
}

func (f *fakePage) ClickJS(ctx context.Context, sel browser.Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clickjs %s", sel)
	if !f.present[sel] {
		return errNoNode
	}
	return nil
}

func (f *fakePage) Focus(ctx context.Context, sel browser.Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("focus %s", sel)
	f.focused = sel
	return nil
}

func (f *fakePage) SetContent(ctx context.Context, sel browser.Selector, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("setcontent %s", sel)
	if f.domWorks {
		f.text[sel] = text
	}
	return nil
}

func (f *fakePage) Clear(ctx context.Context, sel browser.Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clear %s", sel)
	delete(f.text, sel)
	return nil
}

func (f *fakePage) FireInputEvents(ctx context.Context, sel browser.Selector) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("events %s", sel)
	return nil
}

func (f *fakePage) WriteClipboard(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clipboard")
	f.clipboard = text
	return nil
}

func (f *fakePage) Paste(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("paste")
	if f.pasteWorks {
		f.text[f.focused] += f.clipboard
	}
	return nil
}

func (f *fakePage) Type(ctx context.Context, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("type")
	if f.typeWorks {
		f.text[f.focused] += text
	}
	return nil
}

func (f *fakePage) Press(ctx context.Context, key browser.Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("press %q", string(key))
	f.keys = append(f.keys, key)
	return nil
}

func (f *fakePage) Text(ctx context.Context, sel browser.Selector) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text[sel], nil
}

func (f *fakePage) Visible(ctx context.Context, sel browser.Selector) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visible[sel], nil
}

func (f *fakePage) Upload(ctx context.Context, sel browser.Selector, files []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("upload %s", sel)
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.uploaded = append(f.uploaded, files...)
	return nil
}

func (f *fakePage) Source(ctx context.Context) (string, error) {
	f.mu.Lock()
	n := f.served
	f.served++
	hook := f.onSource
	f.mu.Unlock()

	if hook != nil {
		hook(n)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sourceErr != nil {
		return "", f.sourceErr
	}
	if len(f.sources) == 0 {
		return "<html><body></body></html>", nil
	}
	if n >= len(f.sources) {
		n = len(f.sources) - 1
	}
	return f.sources[n], nil
}

func (f *fakePage) Screenshot(ctx context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screenshot++
	return []byte("png"), nil
}

// noSleep records waits without blocking.
func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func page(body string) string {
	return "<html><body>" + body + "</body></html>"
}

func markers(n int) string {
	s := ""
	for i := 0; i < n; i++ {
		s += `<div class="message-out"><span data-icon="msg-check"></span></div>`
	}
	return s
}
