package app

import (
	"fmt"
	"os"
	"os/user"

	"github.com/mitchellh/go-homedir"
)

// DefaultSocketPath returns the Unix socket path for ade-app-ctld
func DefaultSocketPath() (string, error) {
	// Check environment variable first
	if socketPath := os.Getenv("ADE_APPCTLD_SOCK"); socketPath != "" {
		expanded, err := homedir.Expand(socketPath)
		if err != nil {
			return "", fmt.Errorf("failed to expand socket path: %w", err)
		}
		return expanded, nil
	}

	// Default: use user ID-based path
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to get current user: %w", err)
	}
	return fmt.Sprintf("/tmp/ade-%s/appctld", currentUser.Uid), nil
}
