// Package crates fetches version information from the crates.io API.
package crates

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/source/internal/httpjson"
)

const defaultBaseURL = "https://crates.io/api/v1"

type crateResponse struct {
	Crate struct {
		MaxVersion string `json:"max_version"`
	} `json:"crate"`
	Versions []struct {
		Num       string    `json:"num"`
		Yanked    bool      `json:"yanked"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"versions"`
}

// Source lists crate versions; the identifier is the crate name.
type Source struct {
	client  *http.Client
	baseURL string
}

func New() domain.Source {
	return NewWithBaseURL(defaultBaseURL)
}

func NewWithBaseURL(baseURL string) *Source {
	return &Source{client: httpjson.NewClient(), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (s *Source) Name() string { return "crates" }

func (s *Source) fetch(ctx context.Context, name string) (*crateResponse, error) {
	url := fmt.Sprintf("%s/crates/%s", s.baseURL, name)
	var resp crateResponse
	if err := httpjson.Get(ctx, s.client, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch crate %s: %w", name, err)
	}
	return &resp, nil
}

func (s *Source) LatestVersion(ctx context.Context, identifier string) (*domain.Version, error) {
	versions, err := s.Versions(ctx, identifier)
	if err != nil {
		return nil, err
	}
	for i := range versions {
		if !versions[i].Yanked {
			return &versions[i], nil
		}
	}
	return nil, fmt.Errorf("no usable versions found for crate %s", identifier)
}

func (s *Source) Versions(ctx context.Context, identifier string) ([]domain.Version, error) {
	resp, err := s.fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}

	versions := make([]domain.Version, 0, len(resp.Versions))
	for _, v := range resp.Versions {
		created := v.CreatedAt
		versions = append(versions, domain.Version{
			Version:     v.Num,
			PublishedAt: &created,
			Yanked:      v.Yanked,
			PreRelease:  strings.Contains(v.Num, "-"),
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
		return nil, fmt.Errorf("no versions found for crate %s", identifier)
	}

	var latest *domain.Version
	var latestStable *domain.Version
	for i := range versions {
		if versions[i].Yanked {
			continue
		}
		if latest == nil {
			latest = &versions[i]
		}
		if latestStable == nil && !versions[i].PreRelease {
			latestStable = &versions[i]
		}
		if latest != nil && latestStable != nil {
			break
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("no usable versions found for crate %s", identifier)
	}

	return &domain.UpdateInfo{
		CurrentVersion:      currentVersion,
		LatestVersion:       *latest,
		LatestStableVersion: latestStable,
		AllVersions:         versions,
		UpdateAvailable:     latest.Version != currentVersion,
	}, nil
}
