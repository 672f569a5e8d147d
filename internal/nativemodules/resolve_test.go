package nativemodules

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

type fakeRegistry struct {
	mu       sync.Mutex
	versions map[string]string
	asked    []string
}

func (r *fakeRegistry) LatestVersion(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.asked = append(r.asked, name)
	v, ok := r.versions[name]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func TestResolve(t *testing.T) {
	bundled := core.BundledNativeModules{
		"expo-av":                         "~13.10.4",
		"@react-native-community/netinfo": "11.1.0",
	}
	reg := &fakeRegistry{versions: map[string]string{"lodash": "4.17.21"}}
	a := New(&countingFetcher{}, WithRegistry(reg))

	specs, err := a.Resolve(context.Background(), bundled, []string{
		"expo-av",
		"lodash",
		"react@18.2.0",
		"@react-native-community/netinfo",
	})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	want := []InstallSpec{
		{Name: "expo-av", Version: "~13.10.4", Bundled: true},
		{Name: "lodash", Version: "4.17.21"},
		{Name: "react", Version: "18.2.0"},
		{Name: "@react-native-community/netinfo", Version: "11.1.0", Bundled: true},
	}
	if len(specs) != len(want) {
		t.Fatalf("got %d specs, want %d", len(specs), len(want))
	}
	for i := range want {
		if specs[i] != want[i] {
			t.Errorf("spec[%d] = %+v, want %+v", i, specs[i], want[i])
		}
	}
	if len(reg.asked) != 1 || reg.asked[0] != "lodash" {
		t.Errorf("registry asked for %v, want only lodash", reg.asked)
	}
}

func TestResolveWithoutRegistry(t *testing.T) {
	specs, err := New(&countingFetcher{}).Resolve(context.Background(), nil, []string{"left-pad"})
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if specs[0].String() != "left-pad" {
		t.Errorf("spec = %q, want left-pad", specs[0].String())
	}
}

func TestResolveRegistryError(t *testing.T) {
	a := New(&countingFetcher{}, WithRegistry(&fakeRegistry{}))
	if _, err := a.Resolve(context.Background(), nil, []string{"missing-pkg"}); err == nil {
		t.Error("expected error for unknown package")
	}
}

func TestResolveInvalidName(t *testing.T) {
	if _, err := New(&countingFetcher{}).Resolve(context.Background(), nil, []string{"  "}); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestSplitSpec(t *testing.T) {
	tests := []struct {
		raw, name, version string
	}{
		{"react", "react", ""},
		{"react@18", "react", "18"},
		{"@expo/vector-icons", "@expo/vector-icons", ""},
		{"@expo/vector-icons@^14.0.0", "@expo/vector-icons", "^14.0.0"},
	}
	for _, tt := range tests {
		name, version := splitSpec(tt.raw)
		if name != tt.name || version != tt.version {
			t.Errorf("splitSpec(%q) = %q, %q; want %q, %q", tt.raw, name, version, tt.name, tt.version)
		}
	}
}

func TestInstallSpecString(t *testing.T) {
	s := InstallSpec{Name: "expo-av", Version: "~13.10.4"}
	if s.String() != "expo-av@~13.10.4" {
		t.Errorf("String() = %q", s.String())
	}
}
