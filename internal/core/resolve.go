package core

import (
	"fmt"
	"os"
	"path/filepath"
)

// ResolvePackageFile finds file inside the installed npm package pkg the
// way node resolves modules: node_modules of projectRoot first, then each
// parent directory up to the filesystem root. A missing file yields a
// *MissingDependencyError.
func ResolvePackageFile(projectRoot, pkg, file string) (string, error) {
	missing := &MissingDependencyError{
		Package:     pkg,
		File:        pkg + "/" + file,
		ProjectRoot: projectRoot,
	}

	dir, err := filepath.Abs(projectRoot)
	if err != nil {
		return "", fmt.Errorf("%w: %w", missing, err)
	}

	for {
		candidate := filepath.Join(dir, "node_modules", filepath.FromSlash(pkg), filepath.FromSlash(file))
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", missing
		}
		dir = parent
	}
}

// ResolvePackageDir returns the directory of the installed npm package
// pkg, located through its package.json.
func ResolvePackageDir(projectRoot, pkg string) (string, error) {
	manifest, err := ResolvePackageFile(projectRoot, pkg, "package.json")
	if err != nil {
		return "", err
	}
	return filepath.Dir(manifest), nil
}
