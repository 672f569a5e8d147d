package nativemodules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

// Mismatch is an installed package whose version falls outside the range
// the SDK was tested with.
type Mismatch struct {
	Name      string `json:"name"`
	Installed string `json:"installed"`
	Expected  string `json:"expected"`
	Reason    string `json:"reason"`
}

// Check compares installed package versions against the bundled ranges.
// Packages the SDK does not bundle are ignored. Results are sorted by
// name.
func Check(bundled core.BundledNativeModules, installed map[string]string) []Mismatch {
	var mismatches []Mismatch

	for name, version := range installed {
		expected, ok := bundled[name]
		if !ok {
			continue
		}

		constraint, err := semver.NewConstraint(expected)
		if err != nil {
			mismatches = append(mismatches, Mismatch{name, version, expected, "invalid bundled range"})
			continue
		}
		v, err := semver.NewVersion(version)
		if err != nil {
			mismatches = append(mismatches, Mismatch{name, version, expected, "invalid installed version"})
			continue
		}
		if !constraint.Check(v) {
			mismatches = append(mismatches, Mismatch{name, version, expected, "out of range"})
		}
	}

	sort.Slice(mismatches, func(i, j int) bool {
		return mismatches[i].Name < mismatches[j].Name
	})
	return mismatches
}

// InstalledVersions reads the version of every package in names that is
// installed for projectRoot. Packages that are not installed are left
// out.
func InstalledVersions(projectRoot string, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	for _, name := range names {
		path, err := core.ResolvePackageFile(projectRoot, name, "package.json")
		if errors.Is(err, core.ErrMissingDependency) {
			continue
		}
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		var pkg struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &pkg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if pkg.Version != "" {
			out[name] = pkg.Version
		}
	}
	return out, nil
}
