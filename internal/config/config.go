package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// Config mirrors config.json. JSON is valid YAML, so the same decoder reads both.
type Config struct {
	ChromeUserData string                 `yaml:"chrome_user_data"`
	ChromePath     string                 `yaml:"chrome_path"`
	Headless       bool                   `yaml:"headless"`
	LoginTimeout   int                    `yaml:"login_timeout"`
	MessageFile    string                 `yaml:"message_file"`
	ExcelPath      string                 `yaml:"excel_path"`
	ExcludeFile    string                 `yaml:"exclude_file"`
	LogFile        string                 `yaml:"log_file"`
	DefaultRegion  string                 `yaml:"default_region"`
	RawTimeouts    map[string]interface{} `yaml:"timeouts"`
	DefaultDelay   float64                `yaml:"default_delay"`
	MaxPerHour     int                    `yaml:"max_per_hour"`
	RetryAmbiguous bool                   `yaml:"retry_ambiguous"`
	SendAsMedia    bool                   `yaml:"send_as_media"`
	MediaFile      string                 `yaml:"media_file"`
	DiagnosticsDir string                 `yaml:"diagnostics_dir"`
	MetricsAddr    string                 `yaml:"metrics_addr"`
	Logging        LoggingConfig          `yaml:"logging"`

	// Cooldowns is RawTimeouts after coercion, sorted by interval.
	Cooldowns []Cooldown `yaml:"-"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	OutputFile string `yaml:"output_file"`
}

// Cooldown pauses the campaign for Minutes after every Every successful sends.
type Cooldown struct {
	Every   int
	Minutes float64
}

func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// A .env beside the config may override a few machine-specific keys
	envFile := filepath.Join(filepath.Dir(configPath), ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, errors.Wrapf(err, "failed to load %s", envFile)
		}
	}
	config.applyEnv()

	// Relative paths in the config are relative to the config file
	baseDir := filepath.Dir(configPath)
	for _, p := range []*string{
		&config.ChromeUserData, &config.MessageFile, &config.ExcelPath,
		&config.ExcludeFile, &config.LogFile, &config.MediaFile,
		&config.DiagnosticsDir, &config.Logging.OutputFile,
	} {
		*p = resolvePath(baseDir, *p)
	}

	if err := config.setDefaults(baseDir); err != nil {
		return nil, err
	}

	cooldowns, err := parseCooldowns(config.RawTimeouts)
	if err != nil {
		return nil, err
	}
	config.Cooldowns = cooldowns

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("WA_CHROME_USER_DATA"); v != "" {
		c.ChromeUserData = v
	}
	if v := os.Getenv("WA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("WA_HEADLESS"); v != "" {
		c.Headless = cast.ToBool(v)
	}
}

func (c *Config) setDefaults(baseDir string) error {
	if c.ChromeUserData == "" {
		c.ChromeUserData = filepath.Join(baseDir, "chrome-data")
	}
	absPath, err := filepath.Abs(c.ChromeUserData)
	if err != nil {
		return errors.Wrap(err, "failed to resolve user data directory path")
	}
	c.ChromeUserData = absPath

	if c.ChromePath == "" {
		c.ChromePath = findChromePath()
	}
	if c.LoginTimeout == 0 {
		c.LoginTimeout = 120
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(baseDir, "campaign_log.csv")
	}
	if c.DefaultRegion == "" {
		c.DefaultRegion = "IN"
	}
	if c.DefaultDelay == 0 {
		c.DefaultDelay = 10
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	return nil
}

// Validate reports configuration that would make a campaign fail later on.
func (c *Config) Validate() error {
	if c.MessageFile == "" {
		return fmt.Errorf("message_file is required")
	}
	if c.ExcelPath == "" {
		return fmt.Errorf("excel_path is required")
	}
	if c.SendAsMedia && c.MediaFile == "" {
		return fmt.Errorf("send_as_media is true but media_file not specified")
	}
	if c.DefaultDelay < 0 {
		return fmt.Errorf("default_delay must not be negative")
	}
	if c.MaxPerHour < 0 {
		return fmt.Errorf("max_per_hour must not be negative")
	}
	return nil
}

func parseCooldowns(raw map[string]interface{}) ([]Cooldown, error) {
	cooldowns := make([]Cooldown, 0, len(raw))
	for key, value := range raw {
		every, err := cast.ToIntE(strings.TrimSpace(key))
		if err != nil || every <= 0 {
			return nil, fmt.Errorf("timeouts: interval %q must be a positive integer", key)
		}
		minutes, err := cast.ToFloat64E(value)
		if err != nil || minutes < 0 {
			return nil, fmt.Errorf("timeouts: pause for interval %q must be a non-negative number", key)
		}
		cooldowns = append(cooldowns, Cooldown{Every: every, Minutes: minutes})
	}
	sort.Slice(cooldowns, func(i, j int) bool { return cooldowns[i].Every < cooldowns[j].Every })
	return cooldowns, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// chromeCandidates lists install locations for goos, most common first.
func chromeCandidates(goos string, getenv func(string) string) []string {
	switch goos {
	case "windows":
		var paths []string
		for _, root := range []string{getenv("ProgramFiles"), getenv("ProgramFiles(x86)"), getenv("LOCALAPPDATA")} {
			if root != "" {
				paths = append(paths, filepath.Join(root, "Google", "Chrome", "Application", "chrome.exe"))
			}
		}
		return paths
	case "darwin":
		return []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
			"/Applications/Chromium.app/Contents/MacOS/Chromium",
		}
	default:
		return []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser"}
	}
}

// findChromePath returns the first candidate that exists on disk or on PATH.
// Empty means chromedp picks the browser.
func findChromePath() string {
	for _, c := range chromeCandidates(runtime.GOOS, os.Getenv) {
		if filepath.IsAbs(c) {
			if _, err := os.Stat(c); err == nil {
				return c
			}
			continue
		}
		if p, err := exec.LookPath(c); err == nil {
			return p
		}
	}
	return ""
}
