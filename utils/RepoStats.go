package utils

import (
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// RepoStats is a compact commit-history summary for a cloned repository.
type RepoStats struct {
	Commits      int
	Contributors int
	FirstCommit  time.Time
	LastCommit   time.Time
}

// CollectRepoStats walks the commit history of the repository at
// repoPath. Non-git directories return an error the caller can ignore.
func CollectRepoStats(repoPath string) (RepoStats, error) {
	var stats RepoStats

	repo, err := git.PlainOpen(repoPath)
	if err != nil {
		return stats, fmt.Errorf("failed to open git repository: %w", err)
	}

	commitIter, err := repo.Log(&git.LogOptions{All: true})
	if err != nil {
		return stats, fmt.Errorf("failed to retrieve commit history: %w", err)
	}

	authorSet := make(map[string]struct{})
	processedCommits := make(map[string]struct{})

	err = commitIter.ForEach(func(c *object.Commit) error {
		commitHash := c.Hash.String()
		if _, exists := processedCommits[commitHash]; exists {
			return nil
		}
		processedCommits[commitHash] = struct{}{}

		commitDate := c.Committer.When
		if stats.FirstCommit.IsZero() || commitDate.Before(stats.FirstCommit) {
			stats.FirstCommit = commitDate
		}
		if commitDate.After(stats.LastCommit) {
			stats.LastCommit = commitDate
		}

		authorSet[c.Author.Email] = struct{}{}
		stats.Commits++
		return nil
	})
	if err != nil {
		return stats, fmt.Errorf("error processing commits: %w", err)
	}

	stats.Contributors = len(authorSet)
	return stats, nil
}
