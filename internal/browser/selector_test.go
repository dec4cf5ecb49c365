package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/chromedp/chromedp"
)

func TestSelectorIsXPath(t *testing.T) {
	tests := map[Selector]bool{
		`//div[@aria-label="Attach"]`:                       true,
		`(//div[@contenteditable="true"])[last()]`:          true,
		`div[contenteditable="true"][data-tab="10"]`:        false,
		`#side`:                                             false,
		`input[type="file"][accept*="image"]`:               false,
	}
	for sel, want := range tests {
		if got := sel.IsXPath(); got != want {
			t.Errorf("%s.IsXPath() = %v, want %v", sel, got, want)
		}
	}
}

func TestJSStringEscapes(t *testing.T) {
	in := "Hi \"Asha\"\nline `two` \\ ${x} 😀"
	out := jsString(in)
	if !strings.HasPrefix(out, `"`) || !strings.HasSuffix(out, `"`) {
		t.Fatalf("not a string literal: %s", out)
	}
	if strings.Contains(out, "\n") {
		t.Errorf("raw newline leaked into literal: %s", out)
	}
	if !strings.Contains(out, `\"Asha\"`) {
		t.Errorf("quotes not escaped: %s", out)
	}
}

func TestScriptEmbedsSelector(t *testing.T) {
	js := script(`//span[@data-icon="send"]`, readTextBody)
	if !strings.Contains(js, `"//span[@data-icon=\"send\"]", true`) {
		t.Errorf("xpath selector not passed to locator:\n%s", js)
	}
	js = script(`div[title="Attach"]`, clickBody)
	if !strings.Contains(js, `"div[title=\"Attach\"]", false`) {
		t.Errorf("css selector not passed to locator:\n%s", js)
	}
}

func TestSetContentBodyEscapesText(t *testing.T) {
	body := setContentBody("a\"b\nc")
	if !strings.Contains(body, `var text = "a\"b\nc";`) {
		t.Errorf("unexpected body:\n%s", body)
	}
}

func TestIsSessionLost(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{chromedp.ErrInvalidContext, true},
		{fmt.Errorf("run: %w", chromedp.ErrChannelClosed), true},
		{fmt.Errorf("%w: %v", ErrSessionClosed, context.Canceled), true},
		{context.Canceled, false},
		{context.DeadlineExceeded, false},
		{errors.New("could not find node"), false},
	}
	for _, tt := range tests {
		if got := IsSessionLost(tt.err); got != tt.want {
			t.Errorf("IsSessionLost(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
