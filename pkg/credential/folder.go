// Package credential stores and retrieves hub access tokens, either in
// a dotfile under the user's home directory or through git's
// credential-store helper.
package credential

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TokenEnv overrides any token stored on disk when set.
const TokenEnv = "HUGGING_FACE_HUB_TOKEN"

// Folder reads and writes the access token file.
type Folder struct {
	path string
}

// Option configures a Folder.
type Option func(*Folder)

// WithPath overrides the token file location.
func WithPath(path string) Option {
	return func(f *Folder) {
		f.path = path
	}
}

// NewFolder creates a Folder storing the token at ~/.huggingface/token
// unless overridden.
func NewFolder(opts ...Option) *Folder {
	f := &Folder{}
	for _, opt := range opts {
		opt(f)
	}
	if f.path == "" {
		home, err := os.UserHomeDir()
		if err == nil {
			f.path = filepath.Join(home, ".huggingface", "token")
		}
	}
	return f
}

// SaveToken writes the token to the token file, creating parent
// directories as needed.
func (f *Folder) SaveToken(token string) error {
	if f.path == "" {
		return fmt.Errorf("no token path available")
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

// Token returns the stored token. The TokenEnv environment variable
// takes precedence over the file. A missing file is not an error and
// yields an empty token.
func (f *Folder) Token() (string, error) {
	if token := os.Getenv(TokenEnv); token != "" {
		return token, nil
	}
	if f.path == "" {
		return "", nil
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// DeleteToken removes the token file. Deleting a token that was never
// saved is not an error.
func (f *Folder) DeleteToken() error {
	if f.path == "" {
		return nil
	}
	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete token file: %w", err)
	}
	return nil
}
