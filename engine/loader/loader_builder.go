package loader

import (
	"github.com/lumen3d/assetio/engine/material_cache"
)

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithMaterialCache is an option builder that sets a shared material cache.
// Loaders sharing a cache reuse each other's compiled material templates.
//
// Parameters:
//   - cache: the material cache instance
//
// Returns:
//   - LoaderBuilderOption: a function that applies the cache option to a loader
func WithMaterialCache(cache material_cache.Cache) LoaderBuilderOption {
	return func(l *loader) {
		l.cache = cache
	}
}

// WithBaseDir is an option builder that sets the directory external URIs in
// loaded documents resolve against. Defaults to the process working directory.
//
// Parameters:
//   - dir: the base directory path
//
// Returns:
//   - LoaderBuilderOption: a function that applies the base directory option to a loader
func WithBaseDir(dir string) LoaderBuilderOption {
	return func(l *loader) {
		l.baseDir = dir
	}
}
