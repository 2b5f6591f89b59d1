// Package git lists versions straight from a remote repository over the git
// protocol, without cloning. The identifier is "url" or "url#branch";
// branch defaults to main.
package git

import (
	"context"
	"fmt"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/storage/memory"

	"github.com/rios0rios0/treeupdt/domain"
)

const shortSHALen = 7

type Source struct{}

func New() domain.Source { return &Source{} }

func (s *Source) Name() string { return "git" }

func splitIdentifier(identifier string) (string, string) {
	url, branch, found := strings.Cut(identifier, "#")
	if !found || branch == "" {
		branch = "main"
	}
	// flake-style scheme wrapper, go-git speaks the plain scheme
	url = strings.TrimPrefix(url, "git+")
	return url, branch
}

func listRefs(ctx context.Context, url string) ([]*plumbing.Reference, error) {
	remote := gogit.NewRemote(memory.NewStorage(), &config.RemoteConfig{
		Name: "origin",
		URLs: []string{url},
	})
	refs, err := remote.ListContext(ctx, &gogit.ListOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to list refs of %s: %w", url, err)
	}
	return refs, nil
}

// LatestVersion resolves the tip commit of the branch.
func (s *Source) LatestVersion(ctx context.Context, identifier string) (*domain.Version, error) {
	url, branch := splitIdentifier(identifier)
	refs, err := listRefs(ctx, url)
	if err != nil {
		return nil, err
	}

	want := plumbing.NewBranchReferenceName(branch)
	for _, ref := range refs {
		if ref.Name() != want {
			continue
		}
		sha := ref.Hash().String()
		return &domain.Version{
			Version: sha,
			Metadata: map[string]string{
				"short_sha": sha[:shortSHALen],
				"branch":    branch,
			},
		}, nil
	}
	return nil, fmt.Errorf("branch %s not found in %s", branch, url)
}

// Versions returns the remote's tags, newest first by version order.
func (s *Source) Versions(ctx context.Context, identifier string) ([]domain.Version, error) {
	url, _ := splitIdentifier(identifier)
	refs, err := listRefs(ctx, url)
	if err != nil {
		return nil, err
	}

	var versions []domain.Version
	for _, ref := range refs {
		if !ref.Name().IsTag() {
			continue
		}
		tag := ref.Name().Short()
		versions = append(versions, domain.Version{
			Version:    domain.CleanTag(tag),
			PreRelease: domain.IsPreRelease(domain.CleanTag(tag)),
			Metadata: map[string]string{
				"tag":    tag,
				"commit": ref.Hash().String(),
			},
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

	// the manifest may pin a short sha; treat either prefixing the other
	// as up to date
	upToDate := currentVersion != "" &&
		(strings.HasPrefix(latest.Version, currentVersion) ||
			strings.HasPrefix(currentVersion, latest.Version))

	return &domain.UpdateInfo{
		CurrentVersion:  currentVersion,
		LatestVersion:   *latest,
		UpdateAvailable: !upToDate,
	}, nil
}
