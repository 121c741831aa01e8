package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/ledgerkeeper/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "5s" or
// integer nanoseconds.
type JsonConfig struct {
	DatabaseDSN         string         `json:"database_dsn"`
	KeyEnv              string         `json:"key_env"`
	KeyPassphrase       string         `json:"key_passphrase"`
	KeySalt             string         `json:"key_salt"`
	RotationBatchSize   int            `json:"rotation_batch_size"`
	RotationLockTimeout timex.Duration `json:"rotation_lock_timeout"`
	LogLevel            string         `json:"log_level"`
}

// parseJson overlays the values present in the JSON file at path. Absent or
// zero fields keep their current value. An empty path loads nothing.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.KeyEnv, c.KeyEnv)
	setString(&config.KeyPassphrase, c.KeyPassphrase)
	setString(&config.KeySalt, c.KeySalt)
	setString(&config.LogLevel, c.LogLevel)
	if c.RotationBatchSize > 0 {
		config.RotationBatchSize = c.RotationBatchSize
	}
	if c.RotationLockTimeout.Duration > 0 {
		config.RotationLockTimeout = c.RotationLockTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
