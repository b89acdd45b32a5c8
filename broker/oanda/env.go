package oanda

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

const (
	EnvToken     = "OANDA_TOKEN"
	EnvAccountID = "OANDA_ACCOUNT_ID"
)

// LoadEnv loads KEY=VALUE pairs from envFile into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnv(envFile string) error {
	if envFile == "" {
		return nil
	}
	if err := godotenv.Load(envFile); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("oanda: load %s: %w", envFile, err)
	}
	return nil
}

// Token returns the API token from the environment.
func Token() (string, error) {
	token := os.Getenv(EnvToken)
	if token == "" {
		return "", fmt.Errorf("oanda: %s is not set", EnvToken)
	}
	return token, nil
}

// Credentials returns the token and account id from the environment. A
// non-empty accountID wins over the environment.
func Credentials(accountID string) (token, account string, err error) {
	if token, err = Token(); err != nil {
		return "", "", err
	}
	account = accountID
	if account == "" {
		account = os.Getenv(EnvAccountID)
	}
	if account == "" {
		return "", "", fmt.Errorf("oanda: no account id (config broker.account_id or %s)", EnvAccountID)
	}
	return token, account, nil
}
