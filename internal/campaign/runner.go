// Package campaign drives a bulk send: one contact at a time, with skips,
// cooldowns and a hard stop on rate limiting.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"whatsapp-broadcaster/internal/config"
	"whatsapp-broadcaster/internal/contacts"
	"whatsapp-broadcaster/internal/metrics"
	"whatsapp-broadcaster/internal/tracker"
	"whatsapp-broadcaster/internal/whatsapp"
)

// Sender is the send capability the runner needs; *whatsapp.Sender
// implements it.
type Sender interface {
	SendText(ctx context.Context, number, message string) (whatsapp.Result, error)
	SendMedia(ctx context.Context, number string, media *whatsapp.Media, caption string) (whatsapp.Result, error)
}

var _ Sender = (*whatsapp.Sender)(nil)

type Options struct {
	Message      *Message
	Media        *whatsapp.Media // nil sends plain text
	Excluded     map[string]struct{}
	Cooldowns    []config.Cooldown
	DefaultDelay time.Duration
	MaxPerHour   int
	DryRun       bool

	// Sleep and Rand are replaceable for tests.
	Sleep whatsapp.Sleeper
	Rand  *rand.Rand
}

type Runner struct {
	sender  Sender
	tracker *tracker.Tracker
	opts    Options
	limiter *rate.Limiter
	log     *zap.SugaredLogger
}

func NewRunner(sender Sender, t *tracker.Tracker, opts Options) *Runner {
	if opts.Sleep == nil {
		opts.Sleep = whatsapp.Sleep
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r := &Runner{
		sender:  sender,
		tracker: t,
		opts:    opts,
		log:     zap.S().Named("campaign"),
	}
	if opts.MaxPerHour > 0 {
		r.limiter = rate.NewLimiter(rate.Every(time.Hour/time.Duration(opts.MaxPerHour)), 1)
	}
	return r
}

// Plan is the pre-run breakdown of the contact list.
type Plan struct {
	Loaded      int
	Excluded    int
	AlreadySent int
	ToProcess   int
}

func (r *Runner) Plan(list []contacts.Contact) Plan {
	p := Plan{Loaded: len(list)}
	for _, c := range list {
		switch {
		case r.excluded(c):
			p.Excluded++
		case r.tracker.IsSent(c.Normalized):
			p.AlreadySent++
		default:
			p.ToProcess++
		}
	}
	return p
}

// Failure is one contact that did not get the message.
type Failure struct {
	Contact contacts.Contact
	Reason  string
}

type Summary struct {
	tracker.Counters
	Total    int
	Failures []Failure
	Duration time.Duration
	// Aborted is set when the run stopped before the last contact.
	Aborted bool
}

// ErrAborted wraps the cause of a run that stopped early.
var ErrAborted = errors.New("campaign aborted")

// Run sends to every contact in order. It returns a non-nil error only when
// the run was aborted: on a rate-limit signal, a lost browser session,
// cancellation or a campaign log that cannot be written.
func (r *Runner) Run(ctx context.Context, list []contacts.Contact) (Summary, error) {
	start := time.Now()
	summary := Summary{Total: len(list)}
	done := func(err error) (Summary, error) {
		summary.Counters = r.tracker.Counters
		summary.Duration = time.Since(start)
		if err != nil {
			summary.Aborted = true
			metrics.CampaignAborted.Inc()
			err = fmt.Errorf("%w: %v", ErrAborted, err)
		}
		return summary, err
	}

	for i, c := range list {
		log := r.log.With("contact", fmt.Sprintf("%d/%d", i+1, len(list)), "name", c.Name, "phone", c.Number)

		if r.excluded(c) {
			log.Info("SKIPPED (excluded)")
			r.tracker.Excluded++
			metrics.ContactsTotal.WithLabelValues(metrics.Excluded).Inc()
			continue
		}
		if r.tracker.IsSent(c.Normalized) {
			log.Info("SKIPPED (already sent)")
			r.tracker.AlreadySent++
			metrics.ContactsTotal.WithLabelValues(metrics.AlreadySent).Inc()
			continue
		}

		text, err := r.opts.Message.Render(c)
		if err != nil {
			log.Errorw("failed to render message", "error", err)
			if r.opts.DryRun {
				r.tracker.Failed++
			} else if err := r.tracker.RecordFailure(c.Name, c.Number, c.Normalized, err.Error()); err != nil {
				return done(err)
			}
			summary.Failures = append(summary.Failures, Failure{Contact: c, Reason: err.Error()})
			continue
		}

		if r.opts.DryRun {
			log.Infof("[DRY RUN] Would send message to %s:\n%s", c.Normalized, text)
			continue
		}

		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return done(err)
			}
		}

		log.Info("Sending")
		res, err := r.Send(ctx, c.Normalized, text)
		if err != nil {
			log.Errorw("CRITICAL ERROR", "error", err)
			return done(err)
		}

		switch res.Status {
		case whatsapp.StatusSuccess:
			log.Infow("Message sent", "method", res.Method)
			metrics.ContactsTotal.WithLabelValues(metrics.Success).Inc()
			if err := r.tracker.RecordSuccess(c.Name, c.Number, c.Normalized, res.Method); err != nil {
				return done(err)
			}
			if err := r.cooldown(ctx, r.tracker.Sent); err != nil {
				return done(err)
			}
			if err := r.delay(ctx); err != nil {
				return done(err)
			}

		case whatsapp.StatusAmbiguous:
			log.Warnw("Send status unclear, recorded as ambiguous", "reason", res.Reason())
			metrics.ContactsTotal.WithLabelValues(metrics.Ambiguous).Inc()
			if err := r.tracker.RecordAmbiguous(c.Name, c.Number, c.Normalized, res.Reason()); err != nil {
				return done(err)
			}
			if err := r.delay(ctx); err != nil {
				return done(err)
			}

		default:
			log.Errorw("Send failed", "reason", res.Reason())
			metrics.ContactsTotal.WithLabelValues(metrics.Failed).Inc()
			if err := r.tracker.RecordFailure(c.Name, c.Number, c.Normalized, res.Reason()); err != nil {
				return done(err)
			}
			summary.Failures = append(summary.Failures, Failure{Contact: c, Reason: res.Reason()})

			if errors.Is(res.Err, whatsapp.ErrRateLimited) {
				log.Error("CRITICAL: Rate limit detected! Stopping to protect account.")
				log.Error("Wait at least 24 hours before resuming.")
				return done(res.Err)
			}
		}
	}
	return done(nil)
}

// Send delivers text to one number with the configured media, if any. The
// preflight test message goes through here too.
func (r *Runner) Send(ctx context.Context, number, text string) (whatsapp.Result, error) {
	mode := "text"
	if r.opts.Media != nil {
		mode = "media"
	}
	timer := time.Now()
	defer func() {
		metrics.SendDuration.WithLabelValues(mode).Observe(time.Since(timer).Seconds())
	}()

	if r.opts.Media != nil {
		return r.sender.SendMedia(ctx, number, r.opts.Media, text)
	}
	if strings.TrimSpace(text) == "" {
		return whatsapp.Result{Status: whatsapp.StatusFailed, Err: fmt.Errorf("%w: message is empty", whatsapp.ErrInjectionFailed)}, nil
	}
	return r.sender.SendText(ctx, number, text)
}

func (r *Runner) excluded(c contacts.Contact) bool {
	_, ok := r.opts.Excluded[c.Normalized]
	return ok
}

// cooldown sleeps for every configured interval that sent is a multiple of.
func (r *Runner) cooldown(ctx context.Context, sent int) error {
	for _, c := range DueCooldowns(r.opts.Cooldowns, sent) {
		pause := pauseFor(c)
		r.log.Infof("Applying timeout: waiting %v mins after %d messages", c.Minutes, sent)
		metrics.CooldownSeconds.Add(pause.Seconds())
		if err := r.opts.Sleep(ctx, pause); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) delay(ctx context.Context) error {
	d := Jitter(r.opts.DefaultDelay, r.opts.Rand)
	r.log.Debugf("waiting %v before next contact", d.Round(time.Millisecond))
	return r.opts.Sleep(ctx, d)
}

// Log writes the end-of-run summary.
func (s Summary) Log(log *zap.SugaredLogger) {
	log.Info("=== Campaign Summary ===")
	log.Infof("Total contacts: %d", s.Total)
	log.Infof("Sent: %d", s.Sent)
	log.Infof("Failed: %d", s.Failed)
	log.Infof("Ambiguous: %d", s.Ambiguous)
	log.Infof("Skipped (excluded): %d", s.Excluded)
	log.Infof("Skipped (already sent): %d", s.AlreadySent)
	log.Infof("Duration: %v", s.Duration.Round(time.Second))

	if len(s.Failures) > 0 {
		log.Warn("Failed contacts:")
		for _, f := range s.Failures {
			log.Warnf("  - %s (%s): %s", f.Contact.Name, f.Contact.Number, f.Reason)
		}
	}
	if s.Aborted {
		log.Error("Campaign stopped before the last contact")
	}
}
