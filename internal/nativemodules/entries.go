package nativemodules

import (
	"fmt"
	"sort"

	"github.com/git-pkgs/purl"

	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/npm"
)

// Entry is one row of a bundled map.
type Entry struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	PURL    string `json:"purl"`
}

// Entries lists the map sorted by package name, with a package URL for
// every entry.
func Entries(bundled core.BundledNativeModules) ([]Entry, error) {
	names := make([]string, 0, len(bundled))
	for name := range bundled {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]Entry, 0, len(names))
	for _, name := range names {
		p := npm.PURL(name, bundled[name])
		if _, err := purl.Parse(p); err != nil {
			return nil, fmt.Errorf("invalid package URL for %s: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Version: bundled[name], PURL: p})
	}
	return entries, nil
}
