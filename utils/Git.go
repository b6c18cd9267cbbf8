package utils

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	log "github.com/sirupsen/logrus"
)

func SanitizeRepoName(fullName string) string {
	return strings.ReplaceAll(fullName, "/", "_")
}

// ExtractRepoName pulls the repository name out of a clone URL.
func ExtractRepoName(repoURL string) (string, error) {
	var repoName string
	if strings.HasPrefix(repoURL, "git@") {
		parts := strings.Split(repoURL, ":")
		if len(parts) != 2 {
			return "", fmt.Errorf("unexpected repository URL format")
		}
		repoName = strings.TrimSuffix(parts[1], ".git")
	} else if strings.HasPrefix(repoURL, "https://") || strings.HasPrefix(repoURL, "http://") ||
		strings.HasPrefix(repoURL, "ssh://") {
		parts := strings.Split(repoURL, "/")
		if len(parts) < 2 {
			return "", fmt.Errorf("unexpected repository URL format")
		}
		repoName = strings.TrimSuffix(parts[len(parts)-1], ".git")
	} else {
		return "", fmt.Errorf("unsupported repository URL format")
	}
	return repoName, nil
}

// CloneRepository clones into destination unless a clone is already
// there. The context cancels an in-flight clone.
func CloneRepository(ctx context.Context, cloneURL, destination string) error {
	if _, err := os.Stat(destination); err == nil {
		log.Debugf("Repository already cloned at '%s'. Skipping clone.", destination)
		return nil
	}

	_, err := git.PlainCloneContext(ctx, destination, false, &git.CloneOptions{
		URL:      cloneURL,
		Progress: io.Discard,
	})
	if err != nil {
		return fmt.Errorf("git clone failed: %w", err)
	}

	return nil
}
