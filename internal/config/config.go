package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var ErrMissingBotToken = errors.New("telegram bot token is missing")

const defaultUpvoteThreshold = 1000

type Config struct {
	Reddit    RedditConfig    `yaml:"reddit"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	LogLevel  string          `yaml:"log_level"`
	LogFile   string          `yaml:"log_file"`
}

type RedditConfig struct {
	Mode         string `yaml:"mode"` // api, public or mock
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	UserAgent    string `yaml:"user_agent"`
}

type TelegramConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
	Command   string `yaml:"command"`
}

type PipelineConfig struct {
	Communities     []string      `yaml:"communities"`
	CommunitiesFile string        `yaml:"communities_file"`
	UpvoteThreshold int           `yaml:"upvote_threshold"`
	FetchLimit      int           `yaml:"fetch_limit"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	StateFile       string        `yaml:"state_file"`
	Schedule        string        `yaml:"schedule"`
}

type DashboardConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads .env, then the YAML file at path (optional), then environment
// overrides. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	// Zero is a valid threshold, so its default is set before decoding.
	cfg := Config{Pipeline: PipelineConfig{UpvoteThreshold: defaultUpvoteThreshold}}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config file: %w", err)
		default:
			if err := decode(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	return &cfg, nil
}

// decode parses data and expands ${VAR} references inside scalar values, so
// expanded text is never interpreted as YAML syntax.
func decode(data []byte, cfg *Config) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return err
	}
	expandEnv(&doc)
	return doc.Decode(cfg)
}

func expandEnv(n *yaml.Node) {
	if n.Kind == yaml.ScalarNode {
		if v := os.ExpandEnv(n.Value); v != n.Value {
			n.Value = v
			if n.Style&yaml.TaggedStyle == 0 {
				// re-resolve so ${N} can still fill an int field
				n.Tag = ""
			}
		}
	}
	for _, c := range n.Content {
		expandEnv(c)
	}
}

// Validate reports configuration that must stop the process from starting.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return ErrMissingBotToken
	}
	if c.Pipeline.UpvoteThreshold < 0 {
		return fmt.Errorf("upvote_threshold must not be negative: %d", c.Pipeline.UpvoteThreshold)
	}
	if c.Pipeline.FetchLimit < 0 {
		return fmt.Errorf("fetch_limit must not be negative: %d", c.Pipeline.FetchLimit)
	}
	return nil
}

func (c *Config) applyEnv() {
	override := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}

	override(&c.Reddit.Mode, "COLLECTOR_MODE")
	override(&c.Reddit.ClientID, "REDDIT_CLIENT_ID")
	override(&c.Reddit.ClientSecret, "REDDIT_CLIENT_SECRET")
	override(&c.Reddit.Username, "REDDIT_USERNAME")
	override(&c.Reddit.Password, "REDDIT_PASSWORD")
	override(&c.Reddit.UserAgent, "REDDIT_USER_AGENT")
	override(&c.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	override(&c.Telegram.ChannelID, "TELEGRAM_CHANNEL_ID")
	override(&c.Dashboard.Listen, "DASHBOARD_LISTEN")
	override(&c.LogLevel, "LOG_LEVEL")

	if v := os.Getenv("SUBREDDITS"); v != "" {
		var subs []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				subs = append(subs, s)
			}
		}
		c.Pipeline.Communities = subs
	}
}

func (c *Config) setDefaults() {
	if c.Reddit.Mode == "" {
		c.Reddit.Mode = "api"
	}
	if c.Telegram.Command == "" {
		c.Telegram.Command = "post_images"
	}
	if len(c.Pipeline.Communities) == 0 {
		c.Pipeline.Communities = []string{"EarthPorn", "spaceporn", "Art"}
	}
	if c.Pipeline.FetchLimit == 0 {
		c.Pipeline.FetchLimit = 10
	}
	if c.Pipeline.HTTPTimeout == 0 {
		c.Pipeline.HTTPTimeout = 10 * time.Second
	}
	if c.Pipeline.StateFile == "" {
		c.Pipeline.StateFile = "posted_images.json"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFile == "" {
		c.LogFile = "bot.log"
	}
}
