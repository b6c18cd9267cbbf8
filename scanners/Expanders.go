package scanners

import (
	"context"
	"fmt"

	"github.com/reaandrew/secsweep/utils"
	log "github.com/sirupsen/logrus"
)

// ExpandGithubOrg lists every repository of a GitHub organization and
// returns their clone URLs as additional raw targets.
func ExpandGithubOrg(ctx context.Context, api utils.GithubApi, org string) ([]string, error) {
	repos, err := api.ListRepositories(ctx, org)
	if err != nil {
		return nil, fmt.Errorf("failed to list repositories for organization %q: %w", org, err)
	}

	targets := make([]string, 0, len(repos))
	for _, repo := range repos {
		if repo.GetArchived() {
			continue
		}
		targets = append(targets, repo.GetCloneURL())
	}
	log.Infof("Organization %s expanded to %d repositories", org, len(targets))
	return targets, nil
}

// ExpandGitlabGroup lists every project of a GitLab group, including
// subgroups, and returns their clone URLs as additional raw targets.
func ExpandGitlabGroup(ctx context.Context, api utils.GitlabApi, group string) ([]string, error) {
	projects, err := api.ListGroupProjects(ctx, group)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects for group %q: %w", group, err)
	}

	targets := make([]string, 0, len(projects))
	for _, project := range projects {
		targets = append(targets, project.HTTPURLToRepo)
	}
	log.Infof("Group %s expanded to %d projects", group, len(targets))
	return targets, nil
}
