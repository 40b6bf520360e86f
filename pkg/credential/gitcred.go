package credential

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/wzshiming/hfapi/internal/utils"
)

// UsernamePlaceholder is the username stored next to tokens in git
// credential stores. The hub authenticates by token only, so the
// username carries no meaning.
const UsernamePlaceholder = "hf_user"

// GitStore drives the git credential-store helper so tokens survive in
// the same place git itself looks for them.
type GitStore struct {
	// File, when non-empty, is passed to credential-store via
	// --file so tests can use an isolated store.
	File string
}

func (g *GitStore) helperArgs(action string) []string {
	args := []string{"credential-store"}
	if g.File != "" {
		args = append(args, "--file", g.File)
	}
	return append(args, action)
}

func credentialInput(hubURL, username, password string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "url=%s\n", hubURL)
	if username != "" {
		fmt.Fprintf(&b, "username=%s\n", username)
	}
	if password != "" {
		fmt.Fprintf(&b, "password=%s\n", password)
	}
	b.WriteString("\n")
	return b.String()
}

// Store saves the token for hubURL under the placeholder username.
func (g *GitStore) Store(ctx context.Context, hubURL, token string) error {
	cmd := utils.Command(ctx, "git", g.helperArgs("store")...)
	cmd.Stdin = strings.NewReader(credentialInput(hubURL, UsernamePlaceholder, token))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to store git credential: %w", err)
	}
	return nil
}

// Get returns the token stored for hubURL, or empty when none is
// stored.
func (g *GitStore) Get(ctx context.Context, hubURL string) (string, error) {
	cmd := utils.Command(ctx, "git", g.helperArgs("get")...)
	cmd.Stdin = strings.NewReader(credentialInput(hubURL, UsernamePlaceholder, ""))
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("failed to get git credential: %w", err)
	}
	for _, line := range strings.Split(out.String(), "\n") {
		if value, ok := strings.CutPrefix(line, "password="); ok {
			return value, nil
		}
	}
	return "", nil
}

// Erase removes the credential stored for hubURL.
func (g *GitStore) Erase(ctx context.Context, hubURL string) error {
	cmd := utils.Command(ctx, "git", g.helperArgs("erase")...)
	cmd.Stdin = strings.NewReader(credentialInput(hubURL, UsernamePlaceholder, ""))
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to erase git credential: %w", err)
	}
	return nil
}
