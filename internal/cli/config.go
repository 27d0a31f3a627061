package cli

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds CLI settings. Flags override the environment.
type Config struct {
	ServerURL string
	Token     string
	TokenFile string
	Output    string
}

func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("CHESSCTL_SERVER", "http://localhost:8080"),
		Token:     os.Getenv("CHESSCTL_TOKEN"),
		TokenFile: getEnvOrDefault("CHESSCTL_TOKEN_FILE", defaultTokenFile()),
		Output:    "text",
	}
}

// LoadToken reads the token file unless a token was already given.
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

func (c *Config) SaveToken(token string) error {
	c.Token = token

	if err := os.MkdirAll(filepath.Dir(c.TokenFile), 0700); err != nil {
		return err
	}
	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

// ClearToken removes the token file. A missing file is fine.
func (c *Config) ClearToken() error {
	c.Token = ""
	if err := os.Remove(c.TokenFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chessctl_token"
	}
	return filepath.Join(home, ".chessctl", "token")
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
