// Package github fetches release information from the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/source/internal/httpjson"
)

const defaultBaseURL = "https://api.github.com"

type release struct {
	TagName     string    `json:"tag_name"`
	Draft       bool      `json:"draft"`
	PreRelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// Source lists GitHub releases for "owner/repo" identifiers. A GITHUB_TOKEN
// environment variable, when set, raises the rate limit.
type Source struct {
	client  *http.Client
	baseURL string
	token   string
}

func New() domain.Source {
	return NewWithBaseURL(defaultBaseURL)
}

func NewWithBaseURL(baseURL string) *Source {
	return &Source{
		client:  httpjson.NewClient(),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   os.Getenv("GITHUB_TOKEN"),
	}
}

func (s *Source) Name() string { return "github" }

func (s *Source) LatestVersion(ctx context.Context, identifier string) (*domain.Version, error) {
	versions, err := s.Versions(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no releases found for %s", identifier)
	}
	return &versions[0], nil
}

func (s *Source) Versions(ctx context.Context, identifier string) ([]domain.Version, error) {
	owner, repo, err := parseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/repos/%s/%s/releases", s.baseURL, owner, repo)
	var releases []release
	if err := httpjson.Get(ctx, s.client, url, s.headers(), &releases); err != nil {
		return nil, fmt.Errorf("failed to list releases for %s: %w", identifier, err)
	}

	versions := make([]domain.Version, 0, len(releases))
	for _, r := range releases {
		if r.Draft {
			continue
		}
		published := r.PublishedAt
		versions = append(versions, domain.Version{
			Version:     domain.CleanTag(r.TagName),
			PublishedAt: &published,
			PreRelease:  r.PreRelease,
			Metadata:    map[string]string{"tag": r.TagName},
		})
	}
	return versions, nil
}

func (s *Source) CheckUpdate(
	ctx context.Context,
	identifier, currentVersion string,
) (*domain.UpdateInfo, error) {
	versions, err := s.Versions(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no releases found for %s", identifier)
	}

	latest := versions[0]
	var latestStable *domain.Version
	for i := range versions {
		if !versions[i].PreRelease {
			latestStable = &versions[i]
			break
		}
	}

	current := domain.CleanTag(currentVersion)
	return &domain.UpdateInfo{
		CurrentVersion:      currentVersion,
		LatestVersion:       latest,
		LatestStableVersion: latestStable,
		AllVersions:         versions,
		UpdateAvailable:     latest.Version != current,
	}, nil
}

func (s *Source) headers() map[string]string {
	headers := map[string]string{"Accept": "application/vnd.github.v3+json"}
	if s.token != "" {
		headers["Authorization"] = "Bearer " + s.token
	}
	return headers
}

func parseIdentifier(identifier string) (string, string, error) {
	parts := strings.Split(identifier, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid github identifier %q, want owner/repo", identifier)
	}
	return parts[0], parts[1], nil
}
