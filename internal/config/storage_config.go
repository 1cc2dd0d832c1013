package config

import (
	"os"
	"path/filepath"
)

const (
	tokenStorePathEnvVar       = "COUNTERS_STORE_PATH"
	tokenStorePassphraseEnvVar = "COUNTERS_STORE_PASSPHRASE"
)

type Storage struct{}

var _ StorageConfig = Storage{}

// GetTokenStorePath defaults to <user config dir>/counters/session.json.
func (Storage) GetTokenStorePath() string {
	return GetEnv(tokenStorePathEnvVar, DefaultTokenStorePath())
}

// GetTokenStorePassphrase returns "" when tokens should be stored unsealed.
func (Storage) GetTokenStorePassphrase() string {
	return os.Getenv(tokenStorePassphraseEnvVar)
}

func DefaultTokenStorePath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "counters", "session.json")
}
