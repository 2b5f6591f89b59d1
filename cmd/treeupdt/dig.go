package main

import (
	"fmt"

	logger "github.com/sirupsen/logrus"
	"go.uber.org/dig"

	"github.com/rios0rios0/treeupdt/application"
	"github.com/rios0rios0/treeupdt/config"
	"github.com/rios0rios0/treeupdt/infrastructure/cache"
	"github.com/rios0rios0/treeupdt/infrastructure/manifest"
	"github.com/rios0rios0/treeupdt/infrastructure/source"
	"github.com/rios0rios0/treeupdt/internal/walker"
)

// injectService wires the full object graph for one command invocation.
// A nil cache store propagates through the source registry and turns
// caching off.
func injectService(cfgPath string, noCache bool) (*application.Service, error) {
	container := dig.New()

	constructors := []any{
		func() (*config.Config, error) {
			if cfgPath != "" {
				return config.Load(cfgPath)
			}
			return config.LoadDefault(), nil
		},
		walker.New,
		manifest.NewRegistry,
		func(cfg *config.Config) *cache.Store {
			if noCache || !cfg.CacheEnabled() {
				return nil
			}
			store, err := cache.NewStore()
			if err != nil {
				logger.Warnf("[cache] disabled: %v", err)
				return nil
			}
			return store
		},
		source.NewRegistry,
		func(
			manifests *manifest.Registry,
			sources *source.Registry,
			cfg *config.Config,
		) *application.Service {
			return application.NewService(manifests, sources, cfg)
		},
	}

	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, fmt.Errorf("failed to register constructor: %w", err)
		}
	}

	var service *application.Service
	if err := container.Invoke(func(s *application.Service) {
		service = s
	}); err != nil {
		return nil, fmt.Errorf("failed to build service: %w", err)
	}
	return service, nil
}
