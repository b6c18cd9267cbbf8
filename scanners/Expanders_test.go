package scanners_test

import (
	"context"
	"testing"

	"github.com/google/go-github/v50/github"
	"github.com/reaandrew/secsweep/scanners"
	"github.com/stretchr/testify/assert"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

// DummyGithubClient implements utils.GithubApi.
type DummyGithubClient struct {
	repos []*github.Repository
}

func (d DummyGithubClient) ListRepositories(ctx context.Context, org string) ([]*github.Repository, error) {
	return d.repos, nil
}

// DummyGitlabClient implements utils.GitlabApi.
type DummyGitlabClient struct {
	projects []*gitlab.Project
}

func (d DummyGitlabClient) ListGroupProjects(ctx context.Context, group string) ([]*gitlab.Project, error) {
	return d.projects, nil
}

func TestExpandGithubOrgSkipsArchivedRepositories(t *testing.T) {
	api := DummyGithubClient{repos: []*github.Repository{
		{CloneURL: github.String("https://github.com/acme/service-a.git")},
		{CloneURL: github.String("https://github.com/acme/attic.git"), Archived: github.Bool(true)},
		{CloneURL: github.String("https://github.com/acme/service-b.git")},
	}}

	targets, err := scanners.ExpandGithubOrg(context.Background(), api, "acme")
	assert.Nil(t, err)
	assert.Equal(t, []string{
		"https://github.com/acme/service-a.git",
		"https://github.com/acme/service-b.git",
	}, targets)
}

func TestExpandGitlabGroupReturnsCloneURLs(t *testing.T) {
	api := DummyGitlabClient{projects: []*gitlab.Project{
		{HTTPURLToRepo: "https://gitlab.example.com/platform/api.git"},
		{HTTPURLToRepo: "https://gitlab.example.com/platform/worker.git"},
	}}

	targets, err := scanners.ExpandGitlabGroup(context.Background(), api, "platform")
	assert.Nil(t, err)
	assert.Equal(t, []string{
		"https://gitlab.example.com/platform/api.git",
		"https://gitlab.example.com/platform/worker.git",
	}, targets)
}
