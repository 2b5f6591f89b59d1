// Package npm fetches version information from the npm registry.
package npm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/source/internal/httpjson"
)

const defaultBaseURL = "https://registry.npmjs.org"

type packageResponse struct {
	DistTags map[string]string `json:"dist-tags"`
	Versions map[string]struct {
		Deprecated string `json:"deprecated"`
	} `json:"versions"`
}

// Source lists package versions; the identifier is the package name,
// scoped names included.
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

func (s *Source) Name() string { return "npm" }

func (s *Source) fetch(ctx context.Context, name string) (*packageResponse, error) {
	var resp packageResponse
	url := s.baseURL + "/" + name
	if err := httpjson.Get(ctx, s.client, url, nil, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch package %s: %w", name, err)
	}
	return &resp, nil
}

func (s *Source) LatestVersion(ctx context.Context, identifier string) (*domain.Version, error) {
	resp, err := s.fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}
	latest := resp.DistTags["latest"]
	if latest == "" {
		return nil, fmt.Errorf("no latest tag for package %s", identifier)
	}
	version := domain.Version{
		Version:    latest,
		PreRelease: domain.IsPreRelease(latest),
	}
	if meta, ok := resp.Versions[latest]; ok {
		version.Yanked = meta.Deprecated != ""
	}
	return &version, nil
}

// Versions returns all published versions, newest first.
func (s *Source) Versions(ctx context.Context, identifier string) ([]domain.Version, error) {
	resp, err := s.fetch(ctx, identifier)
	if err != nil {
		return nil, err
	}

	versions := make([]domain.Version, 0, len(resp.Versions))
	for num, meta := range resp.Versions {
		versions = append(versions, domain.Version{
			Version:    num,
			Yanked:     meta.Deprecated != "",
			PreRelease: domain.IsPreRelease(num),
		})
	}
	sort.Slice(versions, func(i, j int) bool {
		return domain.CompareVersions(versions[i].Version, versions[j].Version) > 0
	})
	return versions, nil
}

func (s *Source) CheckUpdate(
	ctx context.Context,
	identifier, currentVersion string,
) (*domain.UpdateInfo, error) {
	latest, err := s.LatestVersion(ctx, identifier)
	if err != nil {
		return nil, err
	}
	versions, err := s.Versions(ctx, identifier)
	if err != nil {
		return nil, err
	}

	var latestStable *domain.Version
	for i := range versions {
		if !versions[i].PreRelease && !versions[i].Yanked {
			latestStable = &versions[i]
			break
		}
	}

	// range operators in the manifest pin ("^4.17.0") are not part of the
	// version itself
	current := strings.TrimLeft(currentVersion, "^~><=")
	return &domain.UpdateInfo{
		CurrentVersion:      currentVersion,
		LatestVersion:       *latest,
		LatestStableVersion: latestStable,
		AllVersions:         versions,
		UpdateAvailable:     latest.Version != current,
	}, nil
}
