package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AGENT_RECALL"

// envKeys maps canonical keys to their environment variables.
var envKeys = map[string]string{
	keyBaseURL:            EnvPrefix + "_BASE_URL",
	keyBankID:             EnvPrefix + "_BANK_ID",
	keyNamespace:          EnvPrefix + "_NAMESPACE",
	keyMission:            EnvPrefix + "_MISSION",
	keyAutoRecall:         EnvPrefix + "_AUTO_RECALL",
	keyAutoCapture:        EnvPrefix + "_AUTO_CAPTURE",
	keyRecallLimit:        EnvPrefix + "_RECALL_LIMIT",
	keyCaptureMaxMessages: EnvPrefix + "_CAPTURE_MAX_MESSAGES",
}

// Dir returns the directory searched for config.{yaml,json,toml}.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "agent-recall")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "agent-recall")
}

// Load reads the config file at path (or the first config file found in the
// working directory or Dir when path is empty), applies environment
// overrides and a best-effort .env file, then runs Parse.
//
// A missing config file is not an error when path is empty; an unreadable or
// malformed one always is.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	// Env values land under the canonical key, which sorts after every
	// separated alias of it, so Parse lets them win over file values.
	return Parse(v.AllSettings()), nil
}
