package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"whatsapp-broadcaster/internal/browser"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Timings are the fixed waits of the send flows. WhatsApp Web needs time to
// render between steps; shortening these trades reliability for speed.
type Timings struct {
	ChatLoad        time.Duration
	Poll            time.Duration
	StrategyTimeout time.Duration
	Settle          time.Duration
	BeforeSend      time.Duration
	AfterAttach     time.Duration
	AfterUpload     time.Duration
	CaptionSettle   time.Duration
	AfterSend       time.Duration
	UploadChecks    int
	VerifyAttempts  int
}

func DefaultTimings() Timings {
	return Timings{
		ChatLoad:        30 * time.Second,
		Poll:            time.Second,
		StrategyTimeout: 2 * time.Second,
		Settle:          time.Second,
		BeforeSend:      3 * time.Second,
		AfterAttach:     3 * time.Second,
		AfterUpload:     6 * time.Second,
		CaptionSettle:   4 * time.Second,
		AfterSend:       3 * time.Second,
		UploadChecks:    20,
		VerifyAttempts:  10,
	}
}

// Sender runs the text and media send flows on one page.
type Sender struct {
	page           Page
	timings        Timings
	sleep          Sleeper
	resolver       *Resolver
	injector       *Injector
	verifier       *Verifier
	diagnosticsDir string
	log            *zap.SugaredLogger
}

type Option func(*Sender)

func WithTimings(t Timings) Option { return func(s *Sender) { s.timings = t } }

func WithSleeper(sl Sleeper) Option { return func(s *Sender) { s.sleep = sl } }

// WithDiagnostics saves a screenshot and the page source of every failed or
// ambiguous send into dir.
func WithDiagnostics(dir string) Option { return func(s *Sender) { s.diagnosticsDir = dir } }

func NewSender(page Page, opts ...Option) *Sender {
	s := &Sender{
		page:    page,
		timings: DefaultTimings(),
		sleep:   Sleep,
		log:     zap.S().Named("sender"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = NewResolver(page, s.timings.StrategyTimeout)
	s.injector = NewInjector(page, s.timings.Settle, s.sleep)
	s.verifier = NewVerifier(page, s.timings.VerifyAttempts, s.timings.Poll, s.sleep)
	return s
}

func ChatURL(number string) string {
	return fmt.Sprintf("%s/send?phone=%s", browser.WebURL, number)
}

// SendText delivers message to number (E.164 digits). Per-contact problems
// come back as a failed or ambiguous Result; the error is reserved for a lost
// browser session or cancellation.
func (s *Sender) SendText(ctx context.Context, number, message string) (Result, error) {
	log := s.log.With("phone", number)

	compose, res, err := s.openChat(ctx, number)
	if err != nil || res != nil {
		return s.finish(ctx, number, res, err)
	}
	baseline := s.markerCount(ctx)

	method, err := s.injector.Inject(ctx, compose.Selector, message)
	if err != nil {
		return s.finish(ctx, number, nil, err)
	}
	log.Debugw("message entered", "method", method)

	if err := s.sleep(ctx, s.timings.BeforeSend); err != nil {
		return Result{}, err
	}
	baseline = s.rebase(ctx, baseline)
	if err := s.page.Press(ctx, browser.KeyEnter); err != nil {
		return s.finish(ctx, number, nil, err)
	}

	log.Info("Waiting for message to be sent...")
	verdict, err := s.verifier.Await(ctx, VerifyOptions{Baseline: baseline})
	if err != nil {
		return Result{}, err
	}
	verdict.Method = method
	return s.finish(ctx, number, &verdict, nil)
}

// SendMedia uploads media with caption. A caption that cannot be entered is
// dropped with a warning; the media still goes out.
func (s *Sender) SendMedia(ctx context.Context, number string, media *Media, caption string) (Result, error) {
	log := s.log.With("phone", number, "media", filepath.Base(media.Path))

	compose, res, err := s.openChat(ctx, number)
	if err != nil || res != nil {
		return s.finish(ctx, number, res, err)
	}
	baseline := s.markerCount(ctx)

	if err := s.clickTarget(ctx, AttachButton); err != nil {
		return s.finish(ctx, number, nil, err)
	}
	if err := s.sleep(ctx, s.timings.AfterAttach); err != nil {
		return Result{}, err
	}

	input, err := s.fileInput(ctx, media.Kind)
	if err != nil {
		return s.finish(ctx, number, nil, err)
	}
	log.Debugw("uploading", "kind", media.Kind, "input", input.Name)
	if err := s.page.Upload(ctx, input.Selector, []string{media.Path}); err != nil {
		if isFatal(ctx, err) {
			return Result{}, err
		}
		return s.finish(ctx, number, nil, fmt.Errorf("%w: %v", ErrUploadFailed, err))
	}
	if err := s.sleep(ctx, s.timings.AfterUpload); err != nil {
		return Result{}, err
	}

	method, err := s.addCaption(ctx, caption)
	if err != nil {
		return Result{}, err
	}

	if err := s.awaitUpload(ctx); err != nil {
		return Result{}, err
	}

	baseline = s.rebase(ctx, baseline)
	if err := s.clickSend(ctx); err != nil {
		return s.finish(ctx, number, nil, err)
	}

	log.Info("Waiting for media to be sent...")
	verdict, err := s.verifier.Await(ctx, VerifyOptions{
		Baseline:     baseline,
		Compose:      compose.Selector,
		DialogErrors: true,
	})
	if err != nil {
		return Result{}, err
	}
	verdict.Method = method
	return s.finish(ctx, number, &verdict, nil)
}

// openChat navigates to the chat and waits until its editor shows. It
// returns a failed Result when the page shows an invalid number, a
// rate-limit phrase or the login screen instead.
func (s *Sender) openChat(ctx context.Context, number string) (Strategy, *Result, error) {
	s.log.Debugw("opening chat", "phone", number)
	if err := s.page.Navigate(ctx, ChatURL(number)); err != nil {
		if isFatal(ctx, err) {
			return Strategy{}, nil, err
		}
		res := failure(fmt.Errorf("%w: %v", ErrChatLoad, err))
		return Strategy{}, &res, nil
	}

	deadline := time.Now().Add(s.timings.ChatLoad)
	loginSeen := false
	for {
		if html, err := s.page.Source(ctx); err == nil {
			if snap, err := ParseSnapshot(html); err == nil {
				if snap.InvalidNumber() {
					res := failure(ErrInvalidRecipient)
					return Strategy{}, &res, nil
				}
				if phrase, ok := snap.RateLimitPhrase(); ok {
					res := failure(&RateLimitError{Phrase: phrase})
					return Strategy{}, &res, nil
				}
				loginSeen = snap.LoginRequired()
			}
		} else if isFatal(ctx, err) {
			return Strategy{}, nil, err
		}

		compose, ok, err := s.resolver.Probe(ctx, ComposeBox)
		if err != nil {
			return Strategy{}, nil, err
		}
		if ok {
			return compose, nil, nil
		}

		if !time.Now().Before(deadline) {
			break
		}
		if err := s.sleep(ctx, s.timings.Poll); err != nil {
			return Strategy{}, nil, err
		}
	}

	if loginSeen {
		res := failure(ErrSessionExpired)
		return Strategy{}, &res, nil
	}
	res := failure(fmt.Errorf("%w (%v)", ErrChatLoad, s.timings.ChatLoad))
	return Strategy{}, &res, nil
}

// rebase recounts markers just before the send action. Chat history keeps
// rendering after the editor shows, and markers that arrive in that window
// must not be taken for the new message.
func (s *Sender) rebase(ctx context.Context, baseline int) int {
	if n := s.markerCount(ctx); n > baseline {
		s.log.Debugw("history still loading, raised marker baseline", "from", baseline, "to", n)
		return n
	}
	return baseline
}

func (s *Sender) markerCount(ctx context.Context) int {
	html, err := s.page.Source(ctx)
	if err != nil {
		return 0
	}
	snap, err := ParseSnapshot(html)
	if err != nil {
		return 0
	}
	return snap.DeliveryMarkers()
}

func (s *Sender) clickTarget(ctx context.Context, t Target) error {
	strategy, err := s.resolver.Resolve(ctx, t)
	if err != nil {
		return err
	}
	if err := s.page.Click(ctx, strategy.Selector); err != nil {
		if isFatal(ctx, err) {
			return err
		}
		s.log.Debugw("click failed, retrying with JavaScript", "target", t.Name, "error", err)
		return s.page.ClickJS(ctx, strategy.Selector)
	}
	return nil
}

func (s *Sender) fileInput(ctx context.Context, kind MediaKind) (Strategy, error) {
	if kind == Visual {
		return s.resolver.Resolve(ctx, MediaInput)
	}
	if err := s.clickTarget(ctx, DocumentMenuItem); err != nil {
		return Strategy{}, err
	}
	if err := s.sleep(ctx, s.timings.Settle); err != nil {
		return Strategy{}, err
	}
	return s.resolver.Resolve(ctx, DocumentInput)
}

// addCaption enters the caption and returns the method used, "" when the
// caption was dropped. Only fatal errors are returned.
func (s *Sender) addCaption(ctx context.Context, caption string) (string, error) {
	if strings.TrimSpace(caption) == "" {
		return "", nil
	}

	box, err := s.resolver.Resolve(ctx, CaptionBox)
	if err != nil {
		if isFatal(ctx, err) {
			return "", err
		}
		s.log.Warnw("Could not find caption box - sending without caption", "error", err)
		return "", nil
	}

	method, err := s.injector.Inject(ctx, box.Selector, caption)
	if err != nil {
		if isFatal(ctx, err) {
			return "", err
		}
		s.log.Warnw("All caption methods failed, sending without caption", "error", err)
		return "", nil
	}

	// The editor must see real input events or the caption is dropped on send
	if err := s.page.FireInputEvents(ctx, box.Selector); err != nil && isFatal(ctx, err) {
		return "", err
	}
	for _, key := range []browser.Key{browser.KeySpace, browser.KeyBackspace} {
		if err := s.page.Press(ctx, key); err != nil && isFatal(ctx, err) {
			return "", err
		}
	}
	if err := s.sleep(ctx, s.timings.CaptionSettle); err != nil {
		return "", err
	}

	if text, err := s.page.Text(ctx, box.Selector); err == nil && strings.TrimSpace(text) == "" {
		s.log.Warn("Caption disappeared before send")
	}
	return method, nil
}

// awaitUpload waits for upload progress indicators to disappear. Giving up
// is not an error; the send button check follows.
func (s *Sender) awaitUpload(ctx context.Context) error {
	for i := 0; i < s.timings.UploadChecks; i++ {
		busy, err := s.page.Visible(ctx, uploadProgress)
		if err != nil && isFatal(ctx, err) {
			return err
		}
		if err == nil && !busy {
			return nil
		}
		if err := s.sleep(ctx, s.timings.Poll); err != nil {
			return err
		}
	}
	s.log.Warn("Couldn't verify upload completion, proceeding anyway")
	return nil
}

// clickSend clicks the preview's send button, up to three times, and clicks
// once more if the preview is still open afterwards.
func (s *Sender) clickSend(ctx context.Context) error {
	button, err := s.resolver.Resolve(ctx, SendButton)
	if err != nil {
		return err
	}

	clicked := false
	for attempt := 1; attempt <= 3 && !clicked; attempt++ {
		err := s.page.Click(ctx, button.Selector)
		if err != nil && !isFatal(ctx, err) {
			err = s.page.ClickJS(ctx, button.Selector)
		}
		switch {
		case err == nil:
			clicked = true
		case isFatal(ctx, err):
			return err
		default:
			s.log.Debugw("send click failed", "attempt", attempt, "error", err)
			if err := s.sleep(ctx, s.timings.Settle); err != nil {
				return err
			}
		}
	}
	if !clicked {
		return fmt.Errorf("%w: send button did not accept 3 clicks", ErrElementNotFound)
	}

	if err := s.sleep(ctx, s.timings.AfterSend); err != nil {
		return err
	}
	if open, err := s.page.Visible(ctx, previewOverlay); err == nil && open {
		s.log.Warn("Preview overlay still open after send click, retrying")
		if err := s.page.ClickJS(ctx, button.Selector); err != nil && isFatal(ctx, err) {
			return err
		}
		if err := s.sleep(ctx, s.timings.AfterSend); err != nil {
			return err
		}
	}
	return nil
}

// finish turns a flow error into a Result, keeps fatal errors fatal and
// captures diagnostics for anything but success.
func (s *Sender) finish(ctx context.Context, number string, res *Result, err error) (Result, error) {
	if err != nil {
		if isFatal(ctx, err) {
			return Result{}, err
		}
		r := failure(classify(err))
		res = &r
	}
	if res.Status != StatusSuccess {
		s.capture(ctx, number)
	}
	return *res, nil
}

// classify maps driver errors onto the taxonomy.
func classify(err error) error {
	for _, known := range []error{
		ErrInvalidRecipient, ErrRateLimited, ErrElementNotFound, ErrUploadFailed,
		ErrAmbiguousDelivery, ErrSessionExpired, ErrInjectionFailed, ErrChatLoad,
	} {
		if errors.Is(err, known) {
			return err
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrChatLoad, err)
	}
	return fmt.Errorf("%w: %v", ErrElementNotFound, err)
}

func (s *Sender) capture(ctx context.Context, number string) {
	if s.diagnosticsDir == "" {
		return
	}
	if err := os.MkdirAll(s.diagnosticsDir, 0755); err != nil {
		s.log.Warnw("diagnostics dir unavailable", "error", err)
		return
	}
	base := filepath.Join(s.diagnosticsDir, fmt.Sprintf("%s-%s", number, time.Now().Format("20060102-150405")))

	if png, err := s.page.Screenshot(ctx); err == nil {
		if err := os.WriteFile(base+".png", png, 0644); err != nil {
			s.log.Warnw("failed to save screenshot", "error", err)
		}
	}
	if html, err := s.page.Source(ctx); err == nil {
		if err := os.WriteFile(base+".html", []byte(html), 0644); err != nil {
			s.log.Warnw("failed to save page source", "error", err)
		}
	}
}
