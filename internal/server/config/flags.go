package config

import "flag"

// BindFlags registers the shared flags on fs with the current values of
// config as defaults, so parsing fs overrides whatever the JSON file set.
//
//	-d string            PostgreSQL DSN
//	-key-env string      environment variable with the field key
//	-passphrase string   derive the key from this passphrase
//	-salt string         salt for -passphrase
//	-log-level string    debug, info, warn, error
//	-c, -config string   JSON config file (read by LoadConfig)
func BindFlags(fs *flag.FlagSet, config *Config) {
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.KeyEnv, "key-env", config.KeyEnv, "environment variable holding the base64 field key")
	fs.StringVar(&config.KeyPassphrase, "passphrase", config.KeyPassphrase, "derive the field key from this passphrase")
	fs.StringVar(&config.KeySalt, "salt", config.KeySalt, "salt for -passphrase")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")

	var ignored string
	fs.StringVar(&ignored, "c", "", "JSON config file")
	fs.StringVar(&ignored, "config", "", "JSON config file")
}

// BindRotationFlags registers the key rotation tuning flags.
//
//	-batch int              rows per rotation transaction
//	-lock-timeout duration  how long a batch waits for row locks
func BindRotationFlags(fs *flag.FlagSet, config *Config) {
	fs.IntVar(&config.RotationBatchSize, "batch", config.RotationBatchSize, "rows per rotation transaction")
	fs.DurationVar(&config.RotationLockTimeout, "lock-timeout", config.RotationLockTimeout, "row lock wait per batch")
}
