// Package auth stores the login credentials used when metrics require an
// authenticated browser session. Credentials live in the OS keyring, with a
// file fallback for environments where no keyring is available.
package auth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService is the service name for keyring storage.
	KeyringService = "enrich-cli"
	// credentialsKey is the keyring entry holding the credential record.
	credentialsKey = "instagram-credentials"
	// FallbackDir holds file-based credentials when the keyring is unavailable.
	FallbackDir = ".enrich"
)

// useFileBasedStorage checks whether the OS keyring is unusable and a file
// fallback must be used instead (Codespaces, CI, headless servers).
var fileBasedStorageCache *bool

func useFileBasedStorage() bool {
	if fileBasedStorageCache != nil {
		return *fileBasedStorageCache
	}

	if os.Getenv("CODESPACES") != "" || os.Getenv("CI") != "" {
		result := true
		fileBasedStorageCache = &result
		return true
	}

	testKey := "_test_keyring_access_"
	err := keyring.Set(KeyringService, testKey, "test")
	result := (err != nil)
	fileBasedStorageCache = &result

	if !result {
		keyring.Delete(KeyringService, testKey)
	}

	return result
}

func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, FallbackDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return filepath.Join(dir, "credentials.json"), nil
}

// Credentials is a username/password pair for the platform login form.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Load resolves credentials in priority order: explicit environment
// variables, then the keyring (or its file fallback). A nil result with a
// nil error means no credentials are configured, which is a valid state for
// anonymous runs.
func Load() (*Credentials, error) {
	if user := os.Getenv("ENRICH_IG_USERNAME"); user != "" {
		return &Credentials{
			Username: user,
			Password: os.Getenv("ENRICH_IG_PASSWORD"),
		}, nil
	}

	var data string
	if useFileBasedStorage() {
		path, err := credentialsPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve credentials path: %w", err)
		}
		fileData, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to read credentials file: %w", err)
		}
		data = string(fileData)
	} else {
		var err error
		data, err = keyring.Get(KeyringService, credentialsKey)
		if err != nil {
			if err == keyring.ErrNotFound {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to load from keyring: %w", err)
		}
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to deserialize credentials: %w", err)
	}
	if creds.Username == "" {
		return nil, nil
	}
	return &creds, nil
}

// Save stores credentials in the keyring or the file fallback.
func Save(creds *Credentials) error {
	if creds == nil || creds.Username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to serialize credentials: %w", err)
	}

	if useFileBasedStorage() {
		path, err := credentialsPath()
		if err != nil {
			return fmt.Errorf("failed to resolve credentials path: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to save credentials file: %w", err)
		}
		return nil
	}

	if err := keyring.Set(KeyringService, credentialsKey, string(data)); err != nil {
		return fmt.Errorf("failed to save to keyring: %w", err)
	}
	return nil
}

// Delete removes stored credentials from both backends. Missing entries are
// not an error.
func Delete() error {
	if useFileBasedStorage() {
		path, err := credentialsPath()
		if err != nil {
			return fmt.Errorf("failed to resolve credentials path: %w", err)
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete credentials file: %w", err)
		}
		return nil
	}

	if err := keyring.Delete(KeyringService, credentialsKey); err != nil && err != keyring.ErrNotFound {
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}
	return nil
}
