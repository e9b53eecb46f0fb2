// Package secrets reads the engine's credentials from the OS keyring,
// with environment fallbacks for headless machines and CI.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

// KeyringService groups this app's secrets in the OS keychain.
const KeyringService = "jobmatch"

const (
	brokerAccount = "jobmatch:broker"
	jwtAccount    = "jobmatch:jwt"
)

// BrokerPassword returns the message broker password, preferring the
// keyring over the JOBMATCH_BROKER_PASSWORD env var. Empty is fine:
// local brokers typically run without auth.
func BrokerPassword() string {
	if pw, err := keyring.Get(KeyringService, brokerAccount); err == nil && strings.TrimSpace(pw) != "" {
		return pw
	}
	return os.Getenv("JOBMATCH_BROKER_PASSWORD")
}

func SetBrokerPassword(password string) error {
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(KeyringService, brokerAccount, password)
}

// JWTSecret returns the token signing secret. Auth cannot run without
// one, so the caller treats an empty result as a startup error.
func JWTSecret() (string, error) {
	if s, err := keyring.Get(KeyringService, jwtAccount); err == nil && strings.TrimSpace(s) != "" {
		return s, nil
	}
	if s := os.Getenv("JOBMATCH_JWT_SECRET"); strings.TrimSpace(s) != "" {
		return s, nil
	}
	return "", errors.New("JWT secret not found (set it in the keychain or JOBMATCH_JWT_SECRET)")
}

func SetJWTSecret(secret string) error {
	if strings.TrimSpace(secret) == "" {
		return errors.New("secret is empty")
	}
	return keyring.Set(KeyringService, jwtAccount, secret)
}
