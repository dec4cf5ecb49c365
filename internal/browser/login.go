package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mdp/qrterminal/v3"
	"go.uber.org/zap"
)

// ErrLoginTimeout means nobody scanned the QR code in time.
var ErrLoginTimeout = errors.New("timed out waiting for WhatsApp Web login")

// loggedInSelector is the chat list pane, only rendered for a linked session.
const loggedInSelector = `#side`

// LoggedIn reports whether the chat list is already on screen.
func (s *Session) LoggedIn(ctx context.Context) bool {
	visible, err := s.Visible(ctx, loggedInSelector)
	return err == nil && visible
}

// Login waits for the chat list. While the login page is shown, the QR code
// is mirrored to the terminal whenever it rotates.
func (s *Session) Login(ctx context.Context) error {
	return s.login(ctx, os.Stdout)
}

func (s *Session) login(ctx context.Context, out io.Writer) error {
	timeout := s.opts.LoginTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	zap.S().Info("Waiting for WhatsApp Web to load...")

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.run(waitCtx, chromedp.WaitVisible(loggedInSelector, chromedp.ByQuery))
	}()

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	start := time.Now()
	lastRef := ""
	lastNotice := start

	for {
		select {
		case err := <-done:
			if err != nil {
				if errors.Is(err, context.DeadlineExceeded) {
					return fmt.Errorf("%w: scan the QR code within %v", ErrLoginTimeout, timeout)
				}
				return fmt.Errorf("failed to load WhatsApp Web: %w", err)
			}
			zap.S().Info("WhatsApp Web loaded successfully!")
			// The chat list renders before the app finishes syncing
			time.Sleep(3 * time.Second)
			return nil
		case <-ticker.C:
			if ref := s.qrRef(waitCtx); ref != "" && ref != lastRef {
				lastRef = ref
				fmt.Fprintln(out, "Scan this QR code with WhatsApp on your phone (Linked devices):")
				qrterminal.GenerateHalfBlock(ref, qrterminal.L, out)
			}
			if time.Since(lastNotice) >= 10*time.Second {
				lastNotice = time.Now()
				remaining := timeout - time.Since(start)
				if remaining > 0 {
					zap.S().Infof("Still waiting for WhatsApp Web login... (%.0f seconds remaining)", remaining.Seconds())
				}
			}
		}
	}
}

func (s *Session) qrRef(ctx context.Context) string {
	probeCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	var ref string
	if err := s.run(probeCtx, chromedp.Evaluate(qrRefScript, &ref)); err != nil {
		return ""
	}
	return ref
}
