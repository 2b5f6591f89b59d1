package cache

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/treeupdt/domain"
)

// CachedSource decorates a Source with the file cache. Latest-version and
// version-list lookups are cached per identifier; CheckUpdate is not, since
// its result depends on the caller's current version.
type CachedSource struct {
	inner domain.Source
	store *Store
	ttl   time.Duration
}

func NewCachedSource(inner domain.Source, store *Store, ttl time.Duration) domain.Source {
	return &CachedSource{inner: inner, store: store, ttl: ttl}
}

func (c *CachedSource) Name() string { return c.inner.Name() }

func (c *CachedSource) LatestVersion(ctx context.Context, identifier string) (*domain.Version, error) {
	var cached domain.Version
	if c.store.Get(c.inner.Name(), identifier, "latest_version", c.ttl, &cached) {
		logger.Debugf("[cache] hit for %s %s latest_version", c.inner.Name(), identifier)
		return &cached, nil
	}

	version, err := c.inner.LatestVersion(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(c.inner.Name(), identifier, "latest_version", version); err != nil {
		logger.Debugf("[cache] failed to store latest_version: %v", err)
	}
	return version, nil
}

func (c *CachedSource) Versions(ctx context.Context, identifier string) ([]domain.Version, error) {
	var cached []domain.Version
	if c.store.Get(c.inner.Name(), identifier, "versions", c.ttl, &cached) {
		logger.Debugf("[cache] hit for %s %s versions", c.inner.Name(), identifier)
		return cached, nil
	}

	versions, err := c.inner.Versions(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(c.inner.Name(), identifier, "versions", versions); err != nil {
		logger.Debugf("[cache] failed to store versions: %v", err)
	}
	return versions, nil
}

func (c *CachedSource) CheckUpdate(
	ctx context.Context,
	identifier, currentVersion string,
) (*domain.UpdateInfo, error) {
	return c.inner.CheckUpdate(ctx, identifier, currentVersion)
}
