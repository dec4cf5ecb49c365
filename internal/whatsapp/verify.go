package whatsapp

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"whatsapp-broadcaster/internal/browser"
)

// VerifyOptions describe what counts as confirmation for one send.
type VerifyOptions struct {
	// Baseline is the number of delivery markers on screen before sending.
	Baseline int
	// Compose is the resolved chat editor. When set, the preview overlay
	// closing with Compose visible again counts as sent (media sends).
	Compose browser.Selector
	// DialogErrors enables the error dialog check (media sends).
	DialogErrors bool
}

type Verifier struct {
	page     Page
	attempts int
	interval time.Duration
	sleep    Sleeper
	log      *zap.SugaredLogger
}

func NewVerifier(page Page, attempts int, interval time.Duration, sleep Sleeper) *Verifier {
	return &Verifier{
		page:     page,
		attempts: attempts,
		interval: interval,
		sleep:    sleep,
		log:      zap.S().Named("verifier"),
	}
}

// Await polls until one signal decides the send. Checks run in a fixed
// order each poll and the first match wins. Running out of attempts is
// ambiguous, not a failure: the message may have gone out anyway.
func (v *Verifier) Await(ctx context.Context, opts VerifyOptions) (Result, error) {
	for attempt := 1; attempt <= v.attempts; attempt++ {
		if err := v.sleep(ctx, v.interval); err != nil {
			return Result{}, err
		}

		html, err := v.page.Source(ctx)
		if err != nil {
			if isFatal(ctx, err) {
				return Result{}, err
			}
			v.log.Debugw("page source unavailable", "attempt", attempt, "error", err)
			continue
		}
		snap, err := ParseSnapshot(html)
		if err != nil {
			v.log.Debugw("page source unparsable", "attempt", attempt, "error", err)
			continue
		}

		if res, ok := v.check(ctx, snap, opts); ok {
			v.log.Debugw("delivery decided", "attempt", attempt, "status", res.Status, "reason", res.Reason())
			return res, nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
	}

	v.log.Warnf("couldn't verify delivery within %d checks", v.attempts)
	return ambiguous(), nil
}

func (v *Verifier) check(ctx context.Context, snap *Snapshot, opts VerifyOptions) (Result, bool) {
	if snap.InvalidNumber() {
		return failure(ErrInvalidRecipient), true
	}
	if phrase, ok := snap.RateLimitPhrase(); ok {
		return failure(&RateLimitError{Phrase: phrase}), true
	}
	if opts.DialogErrors {
		if phrase, ok := snap.DialogError(); ok {
			return failure(fmt.Errorf("%w: send failed - error message contains: %s", ErrUploadFailed, phrase)), true
		}
	}
	if snap.DeliveryMarkers() > opts.Baseline {
		return success(""), true
	}
	if opts.Compose != "" && v.backToChat(ctx, opts.Compose) {
		return success(""), true
	}
	return Result{}, false
}

// backToChat reports the preview overlay closed and the chat editor shown.
func (v *Verifier) backToChat(ctx context.Context, compose browser.Selector) bool {
	overlay, err := v.page.Visible(ctx, previewOverlay)
	if err != nil || overlay {
		return false
	}
	editor, err := v.page.Visible(ctx, compose)
	return err == nil && editor
}
