package nativemodules

import (
	"testing"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

func TestEntries(t *testing.T) {
	entries, err := Entries(core.BundledNativeModules{
		"react-native":       "0.73.4",
		"@expo/vector-icons": "^14.0.0",
		"expo-av":            "~13.10.4",
	})
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}

	wantNames := []string{"@expo/vector-icons", "expo-av", "react-native"}
	if len(entries) != len(wantNames) {
		t.Fatalf("got %d entries, want %d", len(entries), len(wantNames))
	}
	for i, name := range wantNames {
		if entries[i].Name != name {
			t.Errorf("entries[%d].Name = %q, want %q", i, entries[i].Name, name)
		}
	}
	if entries[2].PURL != "pkg:npm/react-native@0.73.4" {
		t.Errorf("PURL = %q", entries[2].PURL)
	}
}
