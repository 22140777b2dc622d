package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"gopkg.in/yaml.v3"

	"diggdaily/internal/digg"
	"diggdaily/internal/episodes"
	"diggdaily/internal/theme"
)

// Config represents the persisted application configuration.
type Config struct {
	APIURL           string `yaml:"api_url"`
	CDNURL           string `yaml:"cdn_url"`
	CommunityURL     string `yaml:"community_url"`
	UserAgent        string `yaml:"user_agent"`
	Proxy            string `yaml:"proxy,omitempty"`
	TLSVerify        bool   `yaml:"tls_verify"`
	CacheWindowMin   int    `yaml:"cache_window_minutes"`
	PlayerCommand    string `yaml:"player_command"`
	DownloadDir      string `yaml:"download_dir"`
	ColorTheme       string `yaml:"color_theme"`
	FeedLimit        int    `yaml:"feed_limit"`
	NtfyTopic        string `yaml:"ntfy_topic,omitempty"`
	CheckIntervalMin int    `yaml:"check_interval_minutes"`
	WatchIntervalSec int    `yaml:"watch_interval_seconds"`
}

// Defaults returns the baseline configuration used on first run.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	downloadDir := filepath.Join(home, "DiggDaily")
	return Config{
		APIURL:           digg.DefaultAPIURL,
		CDNURL:           episodes.DefaultCDNURL,
		CommunityURL:     episodes.DefaultCommunityURL,
		UserAgent:        "diggdaily/dev",
		TLSVerify:        true,
		CacheWindowMin:   30,
		PlayerCommand:    "mpv",
		DownloadDir:      downloadDir,
		ColorTheme:       theme.Default,
		FeedLimit:        50,
		CheckIntervalMin: 30,
		WatchIntervalSec: 2,
	}
}

// Ensure loads configuration from the provided path, prompting the user to
// create one if it does not yet exist.
func Ensure(ctx context.Context, path string) (Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return Config{}, err
	}

	cfg = Defaults()
	if err := bootstrap(ctx, &cfg); err != nil {
		return Config{}, err
	}

	if err := Save(path, cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads configuration from disk.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if strings.TrimSpace(cfg.APIURL) == "" {
		cfg.APIURL = digg.DefaultAPIURL
	}
	if strings.TrimSpace(cfg.CDNURL) == "" {
		cfg.CDNURL = episodes.DefaultCDNURL
	}
	if strings.TrimSpace(cfg.CommunityURL) == "" {
		cfg.CommunityURL = episodes.DefaultCommunityURL
	}
	if strings.TrimSpace(cfg.ColorTheme) == "" {
		cfg.ColorTheme = theme.Default
	}
	if cfg.CacheWindowMin <= 0 {
		cfg.CacheWindowMin = Defaults().CacheWindowMin
	}
	if cfg.FeedLimit <= 0 {
		cfg.FeedLimit = Defaults().FeedLimit
	}
	if cfg.CheckIntervalMin <= 0 {
		cfg.CheckIntervalMin = Defaults().CheckIntervalMin
	}
	if cfg.WatchIntervalSec <= 0 {
		cfg.WatchIntervalSec = Defaults().WatchIntervalSec
	}
	return cfg, nil
}

// Save writes configuration back to disk, ensuring directory permissions are restrictive.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	temp := path + ".tmp"
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(temp, path)
}

func bootstrap(ctx context.Context, cfg *Config) error {
	if fromEnv := strings.TrimSpace(os.Getenv("DIGGDAILY_DOWNLOAD_DIR")); fromEnv != "" {
		resolved, err := expandPath(fromEnv)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(resolved, 0o755); err != nil {
			return fmt.Errorf("create download directory: %w", err)
		}
		cfg.DownloadDir = resolved
		return nil
	}

	prompt := &survey.Input{
		Message: "Choose a directory for saved episodes",
		Default: cfg.DownloadDir,
	}

	var answer string
	if err := survey.AskOne(prompt, &answer, survey.WithValidator(survey.Required)); err != nil {
		if errors.Is(err, terminal.InterruptErr) {
			return fmt.Errorf("initialisation interrupted")
		}
		return err
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return fmt.Errorf("download directory cannot be empty")
	}

	resolved, err := expandPath(answer)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	cfg.DownloadDir = resolved
	return nil
}

// EditableKeys returns the ordered list of configuration keys exposed via the
// interactive editor.
func EditableKeys() []string {
	return []string{
		"download_dir",
		"player_command",
		"user_agent",
		"proxy",
		"tls_verify",
		"color_theme",
		"cache_window_minutes",
		"feed_limit",
		"ntfy_topic",
		"check_interval_minutes",
	}
}

// EditInteractive opens an interactive survey session allowing the user to
// update configuration values.
func EditInteractive(ctx context.Context, cfg Config) (Config, error) {
	questions := []*survey.Question{
		{
			Name: "download_dir",
			Prompt: &survey.Input{
				Message: "Directory for saved episodes",
				Default: cfg.DownloadDir,
			},
			Validate: survey.Required,
		},
		{
			Name: "player_command",
			Prompt: &survey.Input{
				Message: "Audio player command",
				Default: cfg.PlayerCommand,
			},
			Validate: survey.Required,
		},
		{
			Name: "user_agent",
			Prompt: &survey.Input{
				Message: "User agent",
				Default: cfg.UserAgent,
			},
		},
		{
			Name: "proxy",
			Prompt: &survey.Input{
				Message: "HTTP proxy (optional)",
				Default: cfg.Proxy,
			},
		},
		{
			Name: "tls_verify",
			Prompt: &survey.Confirm{
				Message: "Verify TLS certificates",
				Default: cfg.TLSVerify,
			},
		},
		{
			Name: "color_theme",
			Prompt: &survey.Select{
				Message: "Color theme",
				Options: theme.Names(),
				Default: cfg.ColorTheme,
			},
		},
		{
			Name: "cache_window_minutes",
			Prompt: &survey.Input{
				Message: "Cache window (minutes)",
				Default: fmt.Sprintf("%d", cfg.CacheWindowMin),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "feed_limit",
			Prompt: &survey.Input{
				Message: "Maximum episodes in generated feed",
				Default: fmt.Sprintf("%d", cfg.FeedLimit),
			},
			Validate: validatePositiveInt,
		},
		{
			Name: "ntfy_topic",
			Prompt: &survey.Input{
				Message: "ntfy topic URL for new-episode pushes (optional)",
				Default: cfg.NtfyTopic,
			},
		},
		{
			Name: "check_interval_minutes",
			Prompt: &survey.Input{
				Message: "New-episode check interval (minutes)",
				Default: fmt.Sprintf("%d", cfg.CheckIntervalMin),
			},
			Validate: validatePositiveInt,
		},
	}

	answers := map[string]interface{}{}
	select {
	case <-ctx.Done():
		return Config{}, ctx.Err()
	default:
	}

	if err := survey.Ask(questions, &answers); err != nil {
		return Config{}, err
	}

	cfg.DownloadDir = strings.TrimSpace(answers["download_dir"].(string))
	cfg.PlayerCommand = strings.TrimSpace(answers["player_command"].(string))
	cfg.UserAgent = strings.TrimSpace(answers["user_agent"].(string))
	cfg.Proxy = strings.TrimSpace(answers["proxy"].(string))
	cfg.TLSVerify = answers["tls_verify"].(bool)
	if themeName, ok := answers["color_theme"].(string); ok {
		cfg.ColorTheme = themeName
	}
	cfg.CacheWindowMin = toInt(answers["cache_window_minutes"])
	cfg.FeedLimit = toInt(answers["feed_limit"])
	cfg.NtfyTopic = strings.TrimSpace(answers["ntfy_topic"].(string))
	cfg.CheckIntervalMin = toInt(answers["check_interval_minutes"])

	return cfg, nil
}

func validatePositiveInt(ans interface{}) error {
	v := strings.TrimSpace(ans.(string))
	if v == "" {
		return errors.New("value required")
	}
	i, err := parseInt(v)
	if err != nil {
		return err
	}
	if i <= 0 {
		return errors.New("must be greater than zero")
	}
	return nil
}

func parseInt(value string) (int, error) {
	var i int
	_, err := fmt.Sscanf(value, "%d", &i)
	if err != nil {
		return 0, errors.New("must be a number")
	}
	return i, nil
}

func toInt(value interface{}) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case string:
		i, _ := parseInt(v)
		return i
	default:
		return 0
	}
}

func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
	}
	return path, nil
}
