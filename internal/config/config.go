// Package config loads and persists tweetsync settings. Values come from
// config.yaml in the config directory and may be overridden by
// TWEETSYNC_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/tweetsync/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. TWEETSYNC_TWITTER_APP_KEY.
	EnvPrefix = "TWEETSYNC"
)

// Setting keys.
const (
	KeyTwitterUsername         = "twitter.username"
	KeyTwitterAppKey           = "twitter.app_key"
	KeyTwitterAppSecret        = "twitter.app_secret"
	KeyTwitterOAuthToken       = "twitter.oauth_token"
	KeyTwitterOAuthTokenSecret = "twitter.oauth_token_secret"
	KeyTwitterAPIBase          = "twitter.api_base"
	KeyTelegramToken           = "telegram.token"
	KeyTelegramChatID          = "telegram.chat_id"
	KeyDataDir                 = "data_dir"
	KeyLogLevel                = "log.level"
	KeyLogFile                 = "log.file"
)

// Keys lists every recognized setting in display order.
var Keys = []string{
	KeyTwitterUsername,
	KeyTwitterAppKey,
	KeyTwitterAppSecret,
	KeyTwitterOAuthToken,
	KeyTwitterOAuthTokenSecret,
	KeyTwitterAPIBase,
	KeyTelegramToken,
	KeyTelegramChatID,
	KeyDataDir,
	KeyLogLevel,
	KeyLogFile,
}

// secretKeys are masked by Display.
var secretKeys = []string{
	KeyTwitterAppSecret,
	KeyTwitterOAuthToken,
	KeyTwitterOAuthTokenSecret,
	KeyTelegramToken,
}

var defaults = map[string]string{
	KeyLogLevel: "info",
}

// ErrUnknownKey is returned by Set for keys outside Keys.
var ErrUnknownKey = errors.New("unknown config key")

// Store is a types.ConfigStore over config.yaml. Reads see environment
// overrides; Write persists only values from the file and from Set.
type Store struct {
	path string
	v    *viper.Viper // file, env and defaults
	file *viper.Viper // file and Set only
}

var _ types.ConfigStore = (*Store)(nil)

// defaultFile is written as config.yaml on first run.
type defaultFile struct {
	Twitter struct {
		Username string `yaml:"username"`
	} `yaml:"twitter"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Load reads config.yaml from configDir, creating the directory and a
// default file on first run.
func Load(configDir string) (*Store, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	path := filepath.Join(configDir, configFileExt)
	if err := ensureDefaultConfigFile(path); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	file := newViper(configDir)
	if err := readConfig(file); err != nil {
		return nil, err
	}

	v := newViper(configDir)
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range Keys {
		if err := v.BindEnv(k); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", k, err)
		}
	}
	if err := readConfig(v); err != nil {
		return nil, err
	}

	return &Store{path: path, v: v, file: file}, nil
}

func newViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetConfigPermissions(0o600)
	return v
}

// readConfig reads the file; a missing config.yaml is not an error.
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func ensureDefaultConfigFile(path string) error {
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	var cfg defaultFile
	cfg.Log.Level = defaults[KeyLogLevel]
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := "# tweetsync configuration. Set values with `tweetsync config set <key> <value>`.\n"
	return os.WriteFile(path, append([]byte(header), data...), 0o600)
}

// Path returns the config.yaml path.
func (s *Store) Path() string { return s.path }

// Get returns the effective value of key, empty when unset.
func (s *Store) Get(key string) string {
	return s.v.GetString(key)
}

// Set updates key in memory; call Write to persist. Unknown keys are
// dropped with a warning on the default logger and never written; use
// SetChecked to get the error instead.
func (s *Store) Set(key, value string) {
	if err := s.SetChecked(key, value); err != nil {
		slog.Warn("config set dropped", "key", key, "error", err)
	}
}

// SetChecked is Set that rejects keys outside Keys.
func (s *Store) SetChecked(key, value string) error {
	if !slices.Contains(Keys, key) {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	s.v.Set(key, value)
	s.file.Set(key, value)
	return nil
}

// Write persists file values and Set values to config.yaml.
func (s *Store) Write() error {
	if err := s.file.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Display returns the value of key for printing, masking secrets.
func (s *Store) Display(key string) string {
	val := s.Get(key)
	if val == "" || !slices.Contains(secretKeys, key) {
		return val
	}
	if len(val) <= 4 {
		return "****"
	}
	return "****" + val[len(val)-4:]
}
