package whatsapp

import (
	"context"
	"time"

	"go.uber.org/zap"

	"whatsapp-broadcaster/internal/browser"
)

// Strategy is one way of locating a UI element.
type Strategy struct {
	Name     string
	Selector browser.Selector
}

// Target is a logical UI element and its ordered strategies.
type Target struct {
	Name       string
	State      browser.State
	FirstWait  time.Duration // wait for the first strategy; the rest use Resolver.Timeout
	Strategies []Strategy
}

type Resolver struct {
	page    Page
	timeout time.Duration
	log     *zap.SugaredLogger
}

func NewResolver(page Page, timeout time.Duration) *Resolver {
	return &Resolver{page: page, timeout: timeout, log: zap.S().Named("resolver")}
}

// Resolve returns the first strategy whose element reaches the target state.
// Only after every strategy failed does it return *ElementNotFoundError.
// Cancellation and a lost session are returned as they are.
func (r *Resolver) Resolve(ctx context.Context, t Target) (Strategy, error) {
	tried := make([]string, 0, len(t.Strategies))
	for i, s := range t.Strategies {
		wait := r.timeout
		if i == 0 && t.FirstWait > 0 {
			wait = t.FirstWait
		}

		waitCtx, cancel := context.WithTimeout(ctx, wait)
		err := r.page.WaitFor(waitCtx, s.Selector, t.State)
		cancel()

		if err == nil {
			r.log.Debugw("resolved", "target", t.Name, "strategy", s.Name, "attempt", i+1)
			return s, nil
		}
		if ctx.Err() != nil {
			return Strategy{}, ctx.Err()
		}
		if browser.IsSessionLost(err) {
			return Strategy{}, err
		}

		tried = append(tried, s.Name)
		r.log.Debugw("strategy failed", "target", t.Name, "strategy", s.Name,
			"attempt", i+1, "of", len(t.Strategies), "error", err)
	}
	return Strategy{}, &ElementNotFoundError{Target: t.Name, Tried: tried}
}

// Probe makes a single non-blocking pass and reports the first visible match.
func (r *Resolver) Probe(ctx context.Context, t Target) (Strategy, bool, error) {
	for _, s := range t.Strategies {
		visible, err := r.page.Visible(ctx, s.Selector)
		if err != nil {
			if ctx.Err() != nil || browser.IsSessionLost(err) {
				return Strategy{}, false, err
			}
			continue
		}
		if visible {
			return s, true, nil
		}
	}
	return Strategy{}, false, nil
}

// isFatal separates errors that end the campaign from per-contact failures.
func isFatal(ctx context.Context, err error) bool {
	return ctx.Err() != nil || browser.IsSessionLost(err)
}
