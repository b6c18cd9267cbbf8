package utils

import (
	"context"
	"os"

	"github.com/google/go-github/v50/github"
	"golang.org/x/oauth2"
)

type GithubApi interface {
	ListRepositories(ctx context.Context, org string) ([]*github.Repository, error)
}

type GithubApiClient struct {
	client *github.Client
}

// NewGithubApiClient authenticates with GITHUB_TOKEN when present,
// otherwise falls back to anonymous access.
func NewGithubApiClient() GithubApiClient {
	token := os.Getenv("GITHUB_TOKEN")
	if token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		tc := oauth2.NewClient(context.Background(), ts)
		return GithubApiClient{client: github.NewClient(tc)}
	}
	return GithubApiClient{client: github.NewClient(nil)}
}

func (apiClient GithubApiClient) ListRepositories(ctx context.Context, org string) ([]*github.Repository, error) {
	var allRepos []*github.Repository
	opt := &github.RepositoryListByOrgOptions{ListOptions: github.ListOptions{PerPage: 100}}
	for {
		repos, resp, err := apiClient.client.Repositories.ListByOrg(ctx, org, opt)
		if err != nil {
			return nil, err
		}
		allRepos = append(allRepos, repos...)
		if resp.NextPage == 0 {
			break
		}
		opt.Page = resp.NextPage
	}
	return allRepos, nil
}
