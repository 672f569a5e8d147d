package webconfig

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
)

// Cache configures the bundler's persistent build cache.
type Cache struct {
	Type              string              `json:"type" yaml:"type"`
	Version           string              `json:"version" yaml:"version"`
	CacheDirectory    string              `json:"cacheDirectory" yaml:"cacheDirectory"`
	BuildDependencies map[string][]string `json:"buildDependencies,omitempty" yaml:"buildDependencies,omitempty"`
}

// EnvironmentHash is the md5 hex digest of the JSON encoding of env.
// encoding/json sorts map keys, so equal maps hash equally.
func EnvironmentHash(env map[string]string) string {
	if env == nil {
		env = map[string]string{}
	}
	data, _ := json.Marshal(env)
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func buildCache(env Environment, locs *Locations) Cache {
	var deps []string
	for _, p := range []string{locs.AppTSConfig, locs.AppJSConfig, locs.PackageJSON} {
		if _, err := os.Stat(p); err == nil {
			deps = append(deps, p)
		}
	}

	c := Cache{
		Type:           "filesystem",
		Version:        EnvironmentHash(env.ProcessEnv),
		CacheDirectory: filepath.Join(locs.AppWebpackCache, string(env.Platform)),
	}
	if len(deps) > 0 {
		c.BuildDependencies = map[string][]string{"config": deps}
	}
	return c
}
