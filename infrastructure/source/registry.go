// Package source wires the upstream version sources behind a registry keyed
// by domain.SourceType, optionally wrapped with the file cache.
package source

import (
	"time"

	"github.com/rios0rios0/treeupdt/domain"
	"github.com/rios0rios0/treeupdt/infrastructure/cache"
	"github.com/rios0rios0/treeupdt/infrastructure/source/crates"
	"github.com/rios0rios0/treeupdt/infrastructure/source/git"
	"github.com/rios0rios0/treeupdt/infrastructure/source/github"
	"github.com/rios0rios0/treeupdt/infrastructure/source/npm"
)

// per-source cache lifetimes: registries move slower than raw branches
const (
	githubTTL   = time.Hour
	registryTTL = 30 * time.Minute
	gitTTL      = 5 * time.Minute
)

// Registry maps source types to their clients.
type Registry struct {
	sources map[domain.SourceType]domain.Source
}

// NewRegistry builds all clients. A nil store disables caching.
func NewRegistry(store *cache.Store) *Registry {
	wrap := func(s domain.Source, ttl time.Duration) domain.Source {
		if store == nil {
			return s
		}
		return cache.NewCachedSource(s, store, ttl)
	}

	return &Registry{
		sources: map[domain.SourceType]domain.Source{
			domain.SourceGitHub: wrap(github.New(), githubTTL),
			domain.SourceCrates: wrap(crates.New(), registryTTL),
			domain.SourceNpm:    wrap(npm.New(), registryTTL),
			domain.SourceGit:    wrap(git.New(), gitTTL),
		},
	}
}

// Get returns the client for a source type, or nil for types with no
// client (SourceURL declarations cannot be checked).
func (r *Registry) Get(sourceType domain.SourceType) domain.Source {
	return r.sources[sourceType]
}
