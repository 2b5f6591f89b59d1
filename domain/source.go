package domain

import (
	"context"
	"time"
)

// Version is a single upstream release as reported by a source.
type Version struct {
	Version     string            `json:"version" yaml:"version"`
	PublishedAt *time.Time        `json:"published_at,omitempty" yaml:"published_at,omitempty"`
	Yanked      bool              `json:"yanked" yaml:"yanked"`
	PreRelease  bool              `json:"pre_release" yaml:"pre_release"`
	Metadata    map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// UpdateInfo is the outcome of comparing a declaration's current version
// against everything a source knows about.
type UpdateInfo struct {
	CurrentVersion      string    `json:"current_version" yaml:"current_version"`
	LatestVersion       Version   `json:"latest_version" yaml:"latest_version"`
	LatestStableVersion *Version  `json:"latest_stable_version,omitempty" yaml:"latest_stable_version,omitempty"`
	AllVersions         []Version `json:"all_versions,omitempty" yaml:"all_versions,omitempty"`
	UpdateAvailable     bool      `json:"update_available" yaml:"update_available"`
}

// Source fetches upstream version data for an identifier. Identifier syntax
// is source-specific: "owner/repo" for GitHub, a crate or package name for
// crates.io/npm, "url#branch" for raw git.
type Source interface {
	Name() string
	LatestVersion(ctx context.Context, identifier string) (*Version, error)
	Versions(ctx context.Context, identifier string) ([]Version, error)
	CheckUpdate(ctx context.Context, identifier, currentVersion string) (*UpdateInfo, error)
}
