package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/pintyy/kaggle-sync/internal/domain"
)

// Credentials holds both API credential sets for one run. They are resolved
// exactly once at startup; no other component reads the environment.
type Credentials struct {
	KaggleUsername string
	KaggleKey      string
	GitHubToken    string
}

// ResolveCredentials loads credentials from the environment, falling back to
// the conventional Kaggle key file. Kaggle: KAGGLE_USERNAME and KAGGLE_KEY,
// else ~/.kaggle/kaggle.json. GitHub: GITHUB_TOKEN. Missing credentials are
// an authentication failure before any network call is made.
func ResolveCredentials() (*Credentials, error) {
	return resolveCredentials(os.Getenv, kaggleJSONPath())
}

func resolveCredentials(getenv func(string) string, kaggleJSON string) (*Credentials, error) {
	creds := &Credentials{
		KaggleUsername: getenv("KAGGLE_USERNAME"),
		KaggleKey:      getenv("KAGGLE_KEY"),
		GitHubToken:    getenv("GITHUB_TOKEN"),
	}

	if creds.KaggleUsername == "" || creds.KaggleKey == "" {
		if username, key, err := readKaggleJSON(kaggleJSON); err == nil {
			creds.KaggleUsername = username
			creds.KaggleKey = key
		}
	}

	if creds.KaggleUsername == "" || creds.KaggleKey == "" {
		return nil, domain.Auth(errors.New(
			"kaggle credentials not found: set KAGGLE_USERNAME and KAGGLE_KEY or create ~/.kaggle/kaggle.json"))
	}
	if creds.GitHubToken == "" {
		return nil, domain.Auth(errors.New("GITHUB_TOKEN environment variable not set"))
	}

	return creds, nil
}

func kaggleJSONPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".kaggle", "kaggle.json")
}

func readKaggleJSON(path string) (username, key string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}

	var file struct {
		Username string `json:"username"`
		Key      string `json:"key"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return "", "", err
	}
	return file.Username, file.Key, nil
}
