package whatsapp

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"whatsapp-broadcaster/internal/browser"
)

var testTarget = Target{
	Name:  "widget",
	State: browser.Clickable,
	Strategies: []Strategy{
		{"first", `//div[@id="a"]`},
		{"second", `//div[@id="b"]`},
		{"third", `div.c`},
	},
}

func TestResolveFallsBackInOrder(t *testing.T) {
	p := newFakePage()
	p.show(`div.c`)
	r := NewResolver(p, 10*time.Millisecond)

	got, err := r.Resolve(context.Background(), testTarget)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "third" {
		t.Errorf("resolved %q, want third", got.Name)
	}

	want := []string{`wait //div[@id="a"]`, `wait //div[@id="b"]`, `wait div.c`}
	if !reflect.DeepEqual(p.calls, want) {
		t.Errorf("calls = %q, want %q", p.calls, want)
	}
}

func TestResolveStopsAtFirstMatch(t *testing.T) {
	p := newFakePage()
	p.show(`//div[@id="a"]`, `div.c`)
	r := NewResolver(p, 10*time.Millisecond)

	got, err := r.Resolve(context.Background(), testTarget)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "first" || len(p.calls) != 1 {
		t.Errorf("resolved %q after %d waits", got.Name, len(p.calls))
	}
}

func TestResolveNotFoundListsStrategies(t *testing.T) {
	r := NewResolver(newFakePage(), 10*time.Millisecond)

	_, err := r.Resolve(context.Background(), testTarget)
	if !errors.Is(err, ErrElementNotFound) {
		t.Fatalf("err = %v, want ErrElementNotFound", err)
	}
	var notFound *ElementNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("err is %T", err)
	}
	if !reflect.DeepEqual(notFound.Tried, []string{"first", "second", "third"}) {
		t.Errorf("Tried = %q", notFound.Tried)
	}
	if !strings.Contains(err.Error(), "tried 3 methods") {
		t.Errorf("message = %q", err)
	}
}

func TestResolvePresentState(t *testing.T) {
	p := newFakePage()
	p.present[`input[type="file"]`] = true
	r := NewResolver(p, 10*time.Millisecond)

	target := Target{Name: "input", State: browser.Present, Strategies: []Strategy{{"file", `input[type="file"]`}}}
	if _, err := r.Resolve(context.Background(), target); err != nil {
		t.Fatalf("hidden element should satisfy Present: %v", err)
	}
	target.State = browser.Visible
	if _, err := r.Resolve(context.Background(), target); err == nil {
		t.Fatal("hidden element must not satisfy Visible")
	}
}

func TestResolveCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(newFakePage(), time.Second).Resolve(ctx, testTarget)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestProbe(t *testing.T) {
	p := newFakePage()
	r := NewResolver(p, time.Second)

	if _, ok, err := r.Probe(context.Background(), testTarget); ok || err != nil {
		t.Fatalf("Probe on empty page = %v, %v", ok, err)
	}
	p.show(`//div[@id="b"]`)
	s, ok, err := r.Probe(context.Background(), testTarget)
	if err != nil || !ok || s.Name != "second" {
		t.Fatalf("Probe = %q, %v, %v", s.Name, ok, err)
	}
}
