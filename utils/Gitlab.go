package utils

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	gitlab "gitlab.com/gitlab-org/api/client-go"
	"go.etcd.io/bbolt"
)

const CacheDirName = ".secsweep_cache"
const projectsBucket = "Projects"

type GitlabApi interface {
	ListGroupProjects(ctx context.Context, group string) ([]*gitlab.Project, error)
}

type GitlabApiClient struct {
	client  *gitlab.Client
	baseUrl string
	noCache bool
}

func NewGitlabApiClient(gitlabToken string, gitlabBaseURL string, noCache bool) (*GitlabApiClient, error) {
	if gitlabToken == "" {
		return nil, fmt.Errorf("GitLab token is required (set GITLAB_TOKEN)")
	}

	opts := []gitlab.ClientOptionFunc{}
	if gitlabBaseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(gitlabBaseURL))
	}
	client, err := gitlab.NewClient(gitlabToken, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}
	return &GitlabApiClient{
		client:  client,
		baseUrl: gitlabBaseURL,
		noCache: noCache,
	}, nil
}

// ListGroupProjects returns all projects under a group, including
// subgroups. Results are cached on disk so that repeated scheduled scans
// do not hammer the API.
func (g *GitlabApiClient) ListGroupProjects(ctx context.Context, group string) ([]*gitlab.Project, error) {
	if !g.noCache {
		projects, err := g.loadProjectsFromCache(group)
		if err == nil && len(projects) > 0 {
			log.Debugf("Loaded %d GitLab projects from cache", len(projects))
			return projects, nil
		}
		if err != nil {
			log.Debugf("GitLab project cache miss: %v", err)
		}
	}

	projects, err := g.fetchGroupProjects(ctx, group)
	if err != nil {
		return nil, err
	}

	if err := g.saveProjectsToCache(group, projects); err != nil {
		log.Warnf("Failed to save GitLab projects to cache: %v", err)
	}
	return projects, nil
}

func (g *GitlabApiClient) fetchGroupProjects(ctx context.Context, group string) ([]*gitlab.Project, error) {
	var allProjects []*gitlab.Project
	includeSubGroups := true
	opts := &gitlab.ListGroupProjectsOptions{
		ListOptions: gitlab.ListOptions{
			Page:    1,
			PerPage: 100,
		},
		IncludeSubGroups: &includeSubGroups,
	}

	for {
		projects, resp, err := g.client.Groups.ListGroupProjects(group, opts, gitlab.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("failed to list projects for group %q: %w", group, err)
		}

		allProjects = append(allProjects, projects...)
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
		log.Debugf("Fetched %d projects, total so far: %d", len(projects), len(allProjects))
	}

	log.Infof("Found %d projects in GitLab group %q", len(allProjects), group)
	return allProjects, nil
}

func (g *GitlabApiClient) loadProjectsFromCache(group string) ([]*gitlab.Project, error) {
	cacheFile, err := g.getCacheFile(group)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(cacheFile); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(cacheFile, 0666, nil)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var projects []*gitlab.Project
	err = db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(projectsBucket))
		if b == nil {
			return fmt.Errorf("bucket not found")
		}

		return b.ForEach(func(k, v []byte) error {
			var project gitlab.Project
			if err := json.Unmarshal(v, &project); err != nil {
				return err
			}
			projects = append(projects, &project)
			return nil
		})
	})
	return projects, err
}

func (g *GitlabApiClient) saveProjectsToCache(group string, projects []*gitlab.Project) error {
	cacheFile, err := g.getCacheFile(group)
	if err != nil {
		return err
	}

	db, err := bbolt.Open(cacheFile, 0666, nil)
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(projectsBucket))
		if err != nil {
			return fmt.Errorf("create bucket: %w", err)
		}

		for _, project := range projects {
			data, _ := json.Marshal(project)
			if err := b.Put([]byte(project.PathWithNamespace), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (g *GitlabApiClient) getCacheFile(group string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	cacheDir := filepath.Join(homeDir, CacheDirName)
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return "", err
	}

	cacheFileName := fmt.Sprintf("%s_%s_projects_cache.db", Sanitize(g.baseUrl), Sanitize(group))
	return filepath.Join(cacheDir, cacheFileName), nil
}
