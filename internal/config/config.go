// Package config handles configuration loading and validation for file2link.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hamid0740/File2Link-Bot/pkg/bytesize"
)

// Default values applied when the config file omits them.
const (
	DefaultMaxKeepHours     = 24
	DefaultProgressInterval = "5s"
	DefaultTimezone         = "UTC"
)

// Environment variables recognized by WithEnvOverrides.
const (
	EnvBotToken     = "FILE2LINK_TG_BOT_TOKEN"
	EnvS3AccessKey  = "FILE2LINK_S3_ACCESS_KEY"
	EnvS3SecretKey  = "FILE2LINK_S3_SECRET_KEY"
	EnvAdmins       = "FILE2LINK_ADMINS"
	EnvVIPUsers     = "FILE2LINK_VIP_USERS"
	EnvMaxFileSize  = "FILE2LINK_MAX_FILE_SIZE"
	EnvMaxKeepHours = "FILE2LINK_MAX_KEEP_HOURS"
)

// Config holds the bot and storage configuration.
type Config struct {
	BotUsername string `yaml:"bot_username"`
	BotToken    string `yaml:"tg_bot_token"`

	S3EndpointURL string `yaml:"s3_endpoint_url"`
	S3AccessKey   string `yaml:"s3_access_key"`
	S3SecretKey   string `yaml:"s3_secret_key"`
	S3BucketName  string `yaml:"s3_bucket_name"`
	S3DLBaseURL   string `yaml:"s3_dl_base_url"`

	// UsePresignedURL switches issued links from static base-URL form to
	// time-limited presigned URLs whose expiry tracks the retention window.
	UsePresignedURL bool `yaml:"use_presigned_url"`

	// MaxFileSizeMB is the [general, privileged] tier limit pair in MiB.
	// The pair is normalized on read: privileged users always get the
	// larger of the two values.
	MaxFileSizeMB []int64 `yaml:"max_file_size"`

	MaxKeepHours  int    `yaml:"max_keep_hours"`
	Timezone      string `yaml:"timezone"`
	UseJalaliDate bool   `yaml:"use_jalali_date"`

	Admins   []int64 `yaml:"admins"`
	VIPUsers []int64 `yaml:"vip_users"`

	ProgressInterval string `yaml:"progress_interval"` // Duration string, e.g. "5s"
	MetricsListen    string `yaml:"metrics_listen"`    // Prometheus listen address (optional)
}

// Load loads configuration from a YAML file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	// Apply defaults
	if cfg.MaxKeepHours == 0 {
		cfg.MaxKeepHours = DefaultMaxKeepHours
	}
	if cfg.Timezone == "" {
		cfg.Timezone = DefaultTimezone
	}
	if cfg.ProgressInterval == "" {
		cfg.ProgressInterval = DefaultProgressInterval
	}

	return cfg, nil
}

// WithEnvOverrides returns a copy of the config with recognized environment
// values merged in. Admin and VIP sets are extended; scalar values are
// replaced. The merge is pure: it reads only through lookup and never
// mutates the receiver.
func (c Config) WithEnvOverrides(lookup func(string) (string, bool)) (Config, error) {
	c.Admins = append([]int64(nil), c.Admins...)
	c.VIPUsers = append([]int64(nil), c.VIPUsers...)
	c.MaxFileSizeMB = append([]int64(nil), c.MaxFileSizeMB...)

	if v, ok := lookup(EnvBotToken); ok {
		c.BotToken = v
	}
	if v, ok := lookup(EnvS3AccessKey); ok {
		c.S3AccessKey = v
	}
	if v, ok := lookup(EnvS3SecretKey); ok {
		c.S3SecretKey = v
	}
	if v, ok := lookup(EnvAdmins); ok {
		ids, err := parseIDList(v)
		if err != nil {
			return c, fmt.Errorf("%s: %w", EnvAdmins, err)
		}
		c.Admins = append(c.Admins, ids...)
	}
	if v, ok := lookup(EnvVIPUsers); ok {
		ids, err := parseIDList(v)
		if err != nil {
			return c, fmt.Errorf("%s: %w", EnvVIPUsers, err)
		}
		c.VIPUsers = append(c.VIPUsers, ids...)
	}
	if v, ok := lookup(EnvMaxFileSize); ok {
		pair, err := parseIDList(v)
		if err != nil || len(pair) != 2 {
			return c, fmt.Errorf("%s: expected two comma-separated MiB values", EnvMaxFileSize)
		}
		c.MaxFileSizeMB = pair
	}
	if v, ok := lookup(EnvMaxKeepHours); ok {
		hours, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || hours <= 0 {
			return c, fmt.Errorf("%s: expected a positive hour count", EnvMaxKeepHours)
		}
		c.MaxKeepHours = hours
	}

	return c, nil
}

func parseIDList(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("tg_bot_token is required")
	}
	if c.S3EndpointURL == "" {
		return fmt.Errorf("s3_endpoint_url is required")
	}
	if u, err := url.Parse(c.S3EndpointURL); err != nil || u.Host == "" {
		return fmt.Errorf("invalid s3_endpoint_url: %q", c.S3EndpointURL)
	}
	if c.S3BucketName == "" {
		return fmt.Errorf("s3_bucket_name is required")
	}
	if !c.UsePresignedURL && c.S3DLBaseURL == "" {
		return fmt.Errorf("s3_dl_base_url is required when use_presigned_url is off")
	}
	if len(c.MaxFileSizeMB) != 2 {
		return fmt.Errorf("max_file_size must be a [general, privileged] pair")
	}
	if c.MaxFileSizeMB[0] <= 0 || c.MaxFileSizeMB[1] <= 0 {
		return fmt.Errorf("max_file_size values must be positive")
	}
	if c.MaxKeepHours <= 0 {
		return fmt.Errorf("max_keep_hours must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if _, err := time.ParseDuration(c.ProgressInterval); err != nil {
		return fmt.Errorf("invalid progress_interval: %w", err)
	}
	return nil
}

// GeneralLimitBytes returns the general-tier size limit in bytes:
// the smaller of the configured pair, regardless of declaration order.
func (c *Config) GeneralLimitBytes() int64 {
	return min(c.MaxFileSizeMB[0], c.MaxFileSizeMB[1]) * bytesize.MB
}

// PrivilegedLimitBytes returns the privileged-tier size limit in bytes:
// the larger of the configured pair.
func (c *Config) PrivilegedLimitBytes() int64 {
	return max(c.MaxFileSizeMB[0], c.MaxFileSizeMB[1]) * bytesize.MB
}

// RetentionWindow returns the object retention window.
func (c *Config) RetentionWindow() time.Duration {
	return time.Duration(c.MaxKeepHours) * time.Hour
}

// NotifyInterval returns the minimum spacing between progress notifications.
// Validate guarantees the duration parses.
func (c *Config) NotifyInterval() time.Duration {
	d, _ := time.ParseDuration(c.ProgressInterval)
	return d
}

// Location returns the configured timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, _ := time.LoadLocation(c.Timezone)
	return loc
}

// IsAdmin reports whether the user is in the configured admin set.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admins {
		if id == userID {
			return true
		}
	}
	return false
}

// IsPrivileged reports whether the user gets the privileged tier limit.
// Admins and VIP users are both privileged.
func (c *Config) IsPrivileged(userID int64) bool {
	if c.IsAdmin(userID) {
		return true
	}
	for _, id := range c.VIPUsers {
		if id == userID {
			return true
		}
	}
	return false
}
