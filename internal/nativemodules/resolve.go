package nativemodules

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

const defaultConcurrency = 15

// LatestVersioner looks up the newest published version of a package.
type LatestVersioner interface {
	LatestVersion(ctx context.Context, name string) (string, error)
}

// InstallSpec is one package to install and the version to request.
type InstallSpec struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"` // empty lets the package manager choose
	Bundled bool   `json:"bundled"`           // Version comes from the bundled map
}

// String formats the install spec the way package managers accept it.
func (s InstallSpec) String() string {
	if s.Version == "" {
		return s.Name
	}
	return s.Name + "@" + s.Version
}

// Resolve picks a version for every requested package: the bundled range
// when the SDK ships the package, an explicit version when the request
// carries one ("name@version"), and otherwise the registry's latest
// version (or none when no registry is configured). The result keeps the
// order of names.
func (a *Accessor) Resolve(ctx context.Context, bundled core.BundledNativeModules, names []string) ([]InstallSpec, error) {
	for _, raw := range names {
		if name, _ := splitSpec(raw); name == "" {
			return nil, fmt.Errorf("invalid package name %q", raw)
		}
	}

	specs := make([]InstallSpec, len(names))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultConcurrency)

	for i, raw := range names {
		name, version := splitSpec(raw)
		switch {
		case version != "":
			specs[i] = InstallSpec{Name: name, Version: version}
		case bundled[name] != "":
			specs[i] = InstallSpec{Name: name, Version: bundled[name], Bundled: true}
		case a.registry == nil:
			specs[i] = InstallSpec{Name: name}
		default:
			g.Go(func() error {
				latest, err := a.registry.LatestVersion(ctx, name)
				if err != nil {
					return fmt.Errorf("resolving %s: %w", name, err)
				}
				specs[i] = InstallSpec{Name: name, Version: latest}
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return specs, nil
}

// splitSpec splits "name@version", leaving the scope of "@scope/name"
// intact.
func splitSpec(raw string) (name, version string) {
	raw = strings.TrimSpace(raw)
	idx := strings.LastIndex(raw, "@")
	if idx <= 0 {
		return raw, ""
	}
	return raw[:idx], raw[idx+1:]
}
