// Package nativemodules loads the bundled native modules map of an SDK
// release: the npm version ranges of every native module an SDK ships
// with.
//
// The map is fetched from the Expo API when possible. When the API is
// unreachable, or the SDK has not been published there yet, the copy
// shipped inside the project's installed "expo" package is used instead.
package nativemodules

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/axeldelafosse/expo-cli/client"
	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/logging"
)

const (
	// PackageName is the npm package that ships the local map.
	PackageName = "expo"
	// FileName is the local map's file name inside PackageName.
	FileName = "bundledNativeModules.json"
)

// errEmptyRemote is returned when the API answers with an empty list,
// which it does for SDKs that are still being released.
var errEmptyRemote = errors.New("bundled native module list from the API is empty")

// Fetcher is the subset of *client.Client used for remote lookups.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Accessor resolves bundled native module maps.
type Accessor struct {
	fetcher  Fetcher
	urls     client.URLBuilder
	registry LatestVersioner
	logger   *zap.Logger
	offline  bool
}

// Option configures an Accessor.
type Option func(*Accessor)

// WithURLs sets the API endpoint builder.
func WithURLs(urls client.URLBuilder) Option {
	return func(a *Accessor) {
		a.urls = urls
	}
}

// WithLogger sets the logger used for fallback warnings.
func WithLogger(l *zap.Logger) Option {
	return func(a *Accessor) {
		a.logger = l
	}
}

// WithOffline disables remote lookups entirely.
func WithOffline(offline bool) Option {
	return func(a *Accessor) {
		a.offline = offline
	}
}

// WithRegistry sets the npm registry used by Resolve for packages that
// are not in the bundled map.
func WithRegistry(r LatestVersioner) Option {
	return func(a *Accessor) {
		a.registry = r
	}
}

// New creates an Accessor. A nil fetcher means client.DefaultClient().
func New(fetcher Fetcher, opts ...Option) *Accessor {
	if fetcher == nil {
		fetcher = client.DefaultClient()
	}
	a := &Accessor{
		fetcher: fetcher,
		urls:    client.APIURLs(""),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.OrNop(a.logger)
	return a
}

// Get returns the bundled native modules map for sdkVersion.
//
// For core.Unversioned the local copy is always used. Otherwise the API is
// tried first and any failure falls back to the local copy with a
// warning. Only a missing or unreadable local copy is returned as an
// error.
func (a *Accessor) Get(ctx context.Context, projectRoot, sdkVersion string) (core.BundledNativeModules, error) {
	if sdkVersion == core.Unversioned {
		return ReadLocal(projectRoot)
	}

	if a.offline {
		a.logger.Debug("offline, using local dependency map", zap.String("sdkVersion", sdkVersion))
		return ReadLocal(projectRoot)
	}

	modules, err := a.fetchRemote(ctx, sdkVersion)
	if err == nil {
		return modules, nil
	}

	a.logger.Warn("Unable to reach Expo servers. Falling back to using the cached dependency map ("+FileName+") from the package \""+PackageName+"\" installed in your project.",
		zap.String("sdkVersion", sdkVersion),
		zap.String("reason", classify(err)),
		zap.Error(err),
	)
	return ReadLocal(projectRoot)
}

type nativeModulesResponse struct {
	Data []struct {
		NpmPackage   string `json:"npmPackage"`
		VersionRange string `json:"versionRange"`
	} `json:"data"`
}

func (a *Accessor) fetchRemote(ctx context.Context, sdkVersion string) (core.BundledNativeModules, error) {
	var resp nativeModulesResponse
	if err := a.fetcher.GetJSON(ctx, a.urls.NativeModules(sdkVersion), &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, errEmptyRemote
	}

	modules := make(core.BundledNativeModules, len(resp.Data))
	for _, m := range resp.Data {
		if m.NpmPackage == "" {
			continue
		}
		modules[m.NpmPackage] = m.VersionRange
	}
	return modules, nil
}

// classify separates an SDK that is not published yet from an API that
// could not be reached.
func classify(err error) string {
	if errors.Is(err, client.ErrNotFound) || errors.Is(err, errEmptyRemote) {
		return "not-published"
	}
	return "unreachable"
}

// ReadLocal reads the map shipped with the "expo" package installed in
// projectRoot.
func ReadLocal(projectRoot string) (core.BundledNativeModules, error) {
	path, err := core.ResolvePackageFile(projectRoot, PackageName, FileName)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var modules core.BundledNativeModules
	if err := json.Unmarshal(data, &modules); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if modules == nil {
		modules = core.BundledNativeModules{}
	}
	return modules, nil
}
