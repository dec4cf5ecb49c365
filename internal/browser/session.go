// Package browser drives a Chrome session on WhatsApp Web through chromedp.
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	cdpbrowser "github.com/chromedp/cdproto/browser"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const WebURL = "https://web.whatsapp.com"

type Options struct {
	UserDataDir  string
	ChromePath   string
	Headless     bool
	LoginTimeout time.Duration
}

// Session is the one browser tab the process drives. It is not safe for
// concurrent use; sends are strictly sequential.
type Session struct {
	opts        Options
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	clipboardOK bool
}

// Launch starts Chrome with the persistent profile and opens WhatsApp Web.
func Launch(opts Options) (*Session, error) {
	zap.S().Info("Initializing browser automation...")

	probeCtx, cancelProbe := context.WithTimeout(context.Background(), 5*time.Second)
	err := checkReachable(probeCtx, http.DefaultClient, WebURL)
	cancelProbe()
	if err != nil {
		zap.S().Warnw("WhatsApp Web is not reachable, continuing anyway", "error", err)
	}

	if opts.ChromePath != "" {
		if _, err := os.Stat(opts.ChromePath); err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("Chrome executable not found at %s; fix chrome_path or remove it to use auto-detection", opts.ChromePath)
			}
			return nil, fmt.Errorf("cannot access Chrome executable at %s: %w", opts.ChromePath, err)
		}
		zap.S().Infof("Using Chrome at: %s", opts.ChromePath)
	}

	if err := ensureUserDataDir(opts.UserDataDir); err != nil {
		return nil, fmt.Errorf("failed to prepare user data directory: %w", err)
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserDataDir(opts.UserDataDir),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("excludeSwitches", "enable-automation"),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-prompt-on-repost", true),
		chromedp.WindowSize(1280, 900),
	)
	if opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)
	s := &Session{opts: opts, ctx: ctx, cancel: cancel, allocCancel: allocCancel}

	zap.S().Info("Opening WhatsApp Web...")
	if err := chromedp.Run(ctx, chromedp.Navigate(WebURL)); err != nil {
		s.Close()
		if strings.Contains(err.Error(), "executable file not found") {
			return nil, fmt.Errorf("Chrome executable not found; set chrome_path or install Chrome: %w", err)
		}
		return nil, fmt.Errorf("failed to navigate to WhatsApp Web: %w", err)
	}

	s.grantClipboard()
	return s, nil
}

// Close releases the browser. It is called once at shutdown.
func (s *Session) Close() {
	if s.cancel != nil {
		zap.S().Info("Closing browser...")
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// grantClipboard lets navigator.clipboard.writeText run without a prompt.
// Without it the paste method still works when the page already has focus.
func (s *Session) grantClipboard() {
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return cdpbrowser.GrantPermissions([]cdpbrowser.PermissionType{
			cdpbrowser.PermissionTypeClipboardReadWrite,
			cdpbrowser.PermissionTypeClipboardSanitizedWrite,
		}).WithOrigin(WebURL).Do(ctx)
	}))
	if err != nil {
		zap.S().Debugf("clipboard permission not granted: %v", err)
		return
	}
	s.clipboardOK = true
}

// scoped ties a chromedp call to the caller's context: it ends when ctx is
// cancelled or hits its deadline, without tearing down the tab.
func (s *Session) scoped(ctx context.Context) (context.Context, context.CancelFunc) {
	c, cancel := context.WithCancel(s.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		c, cancelDeadline = context.WithDeadline(c, deadline)
		prev := cancel
		cancel = func() { cancelDeadline(); prev() }
	}
	stop := context.AfterFunc(ctx, cancel)
	return c, func() {
		stop()
		cancel()
	}
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	c, cancel := s.scoped(ctx)
	defer cancel()
	return s.result(ctx, chromedp.Run(c, actions...))
}

// result reports a failed call by its cause. Either the caller's context or
// the tab can end the scoped context, and chromedp's error does not say which.
func (s *Session) result(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrSessionClosed, err)
	}
	return err
}

// ErrSessionClosed means the browser tab went away under a running call.
var ErrSessionClosed = errors.New("browser session closed")

// IsSessionLost reports errors after which the tab cannot be used again.
// Cancellation is not one of them; callers check their own context for that.
func IsSessionLost(err error) bool {
	return errors.Is(err, ErrSessionClosed) ||
		errors.Is(err, chromedp.ErrInvalidContext) ||
		errors.Is(err, chromedp.ErrInvalidTarget) ||
		errors.Is(err, chromedp.ErrChannelClosed)
}

// checkReachable asks the server at url for its headers. Only transport
// failures and 5xx answers count; WhatsApp Web redirects and 4xx on HEAD
// still mean the network path is fine.
func checkReachable(ctx context.Context, client *http.Client, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", url, err)
	}
	resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%s answered %s", url, resp.Status)
	}
	return nil
}

// ensureUserDataDir creates the profile directory and checks Chrome can write to it.
func ensureUserDataDir(dirPath string) error {
	if dirPath == "" {
		return nil
	}
	zap.S().Infof("Using user data directory: %s", dirPath)

	info, err := os.Stat(dirPath)
	switch {
	case os.IsNotExist(err):
		if err := os.MkdirAll(dirPath, 0700); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dirPath, err)
		}
	case err != nil:
		return fmt.Errorf("failed to check directory: %w", err)
	case !info.IsDir():
		return fmt.Errorf("path exists but is not a directory: %s", dirPath)
	}

	testFile := filepath.Join(dirPath, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0600); err != nil {
		return fmt.Errorf("directory is not writable: %s", dirPath)
	}
	os.Remove(testFile)
	return nil
}
