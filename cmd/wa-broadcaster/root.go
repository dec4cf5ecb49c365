package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"whatsapp-broadcaster/internal/browser"
	"whatsapp-broadcaster/internal/campaign"
	"whatsapp-broadcaster/internal/config"
	"whatsapp-broadcaster/internal/contacts"
	"whatsapp-broadcaster/internal/logger"
	"whatsapp-broadcaster/internal/metrics"
	"whatsapp-broadcaster/internal/tracker"
	"whatsapp-broadcaster/internal/whatsapp"
)

const version = "1.6.0"

var (
	configPath string
	dryRun     bool
	skipTest   bool
)

var rootCmd = &cobra.Command{
	Use:           "wa-broadcaster",
	Short:         "Send one message to every contact in a sheet through WhatsApp Web",
	Long:          `wa-broadcaster drives a logged-in WhatsApp Web session in Chrome and sends a personalized text, or a media file with caption, to each contact of an .xlsx or .csv sheet. Progress is kept in a campaign log so an interrupted run can be restarted safely.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.SetVersionTemplate("WhatsApp Orchestrator version {{.Version}}\n")
	rootCmd.Flags().StringVar(&configPath, "config", "config.json", "Path to configuration file (JSON or YAML)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render messages without opening a browser")
	rootCmd.Flags().BoolVar(&skipTest, "skip-test", false, "Skip the confirmation test message")
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.InitLogger(cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.CloseLogger()

	log := zap.S()
	runID := uuid.NewString()
	log.Infow("=== Starting campaign ===", "version", version, "run_id", runID, "config", configPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	message, err := campaign.LoadMessage(cfg.MessageFile)
	if err != nil {
		return err
	}
	var media *whatsapp.Media
	if cfg.SendAsMedia {
		if media, err = whatsapp.NewMedia(cfg.MediaFile); err != nil {
			return err
		}
		log.Infow("Media validated", "file", media.Path, "kind", media.Kind, "mime", media.MIME,
			"size_mb", fmt.Sprintf("%.2f", float64(media.Size)/(1<<20)))
	}

	list, err := contacts.Load(cfg.ExcelPath, cfg.DefaultRegion)
	if err != nil {
		return err
	}
	excluded, err := contacts.LoadExcluded(cfg.ExcludeFile, cfg.DefaultRegion)
	if err != nil {
		return err
	}
	log.Infof("Loaded %d contacts from %s", len(list), cfg.ExcelPath)

	t, err := tracker.New(cfg.LogFile, runID, cfg.RetryAmbiguous)
	if err != nil {
		return err
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	opts := campaign.Options{
		Message:      message,
		Media:        media,
		Excluded:     excluded,
		Cooldowns:    cfg.Cooldowns,
		DefaultDelay: time.Duration(cfg.DefaultDelay * float64(time.Second)),
		MaxPerHour:   cfg.MaxPerHour,
		DryRun:       dryRun,
	}

	if dryRun {
		runner := campaign.NewRunner(nil, t, opts)
		return execute(ctx, runner, list)
	}

	session, err := browser.Launch(browser.Options{
		UserDataDir:  cfg.ChromeUserData,
		ChromePath:   cfg.ChromePath,
		Headless:     cfg.Headless,
		LoginTimeout: time.Duration(cfg.LoginTimeout) * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	if err := session.Login(ctx); err != nil {
		return err
	}

	sender := whatsapp.NewSender(session, whatsapp.WithDiagnostics(cfg.DiagnosticsDir))
	runner := campaign.NewRunner(sender, t, opts)

	if !skipTest {
		if err := preflight(ctx, runner, message, cfg.DefaultRegion); err != nil {
			return err
		}
	}

	return execute(ctx, runner, list)
}

func execute(ctx context.Context, runner *campaign.Runner, list []contacts.Contact) error {
	log := zap.S()

	plan := runner.Plan(list)
	log.Infof("Total contacts loaded: %d", plan.Loaded)
	log.Infof("Excluded numbers: %d", plan.Excluded)
	log.Infof("Already sent: %d", plan.AlreadySent)
	log.Infof("Will process: %d messages", plan.ToProcess)

	summary, err := runner.Run(ctx, list)
	summary.Log(log)
	if err != nil {
		return err
	}
	log.Infof("COMPLETED. Total messages sent: %d", summary.Sent)
	return nil
}

// preflight sends the message to the operator's own number and waits for a
// typed YES before the bulk run starts.
func preflight(ctx context.Context, runner *campaign.Runner, message *campaign.Message, region string) error {
	in := bufio.NewReader(os.Stdin)

	raw, err := prompt(in, os.Stderr, "Enter your phone number to send test message: ")
	if err != nil {
		return err
	}
	number := contacts.Normalize(raw, region)
	if number == "" {
		return errors.New("no test number given")
	}
	nick, err := prompt(in, os.Stderr, "Enter nick_name: ")
	if err != nil {
		return err
	}

	text, err := message.Render(contacts.Contact{Name: nick, Nickname: nick, Number: number, Normalized: number})
	if err != nil {
		return err
	}
	fmt.Printf("Sending test message to %s\nMessage Preview:\n%s\n", number, text)

	res, err := runner.Send(ctx, number, text)
	if err != nil {
		return err
	}
	if res.Status != whatsapp.StatusSuccess {
		zap.S().Warnw("Test message not confirmed by the page", "status", res.Status, "reason", res.Reason())
	}

	fmt.Println("Verify the message sent to your phone number and confirm.")
	fmt.Println("Also check if your config file is correct.")
	response, err := prompt(in, os.Stderr, `Input "Yes" if message is fine, else input "No" to cancel: `)
	if err != nil {
		return err
	}
	if strings.ToUpper(response) != "YES" {
		return fmt.Errorf("cancelled by user (response: %s)", response)
	}
	zap.S().Info("Test message confirmed! Starting bulk send...")
	return nil
}

// prompt reads one answer. A last line without a newline still counts; a
// closed or broken stdin does not.
func prompt(in *bufio.Reader, out io.Writer, question string) (string, error) {
	fmt.Fprint(out, question)
	line, err := in.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", fmt.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	zap.S().Infof("Serving metrics on %s/metrics", addr)
	if err := http.ListenAndServe(addr, mux); err != nil && !errors.Is(err, http.ErrServerClosed) {
		zap.S().Errorw("metrics listener stopped", "error", err)
	}
}
