package expo_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	expo "github.com/axeldelafosse/expo-cli"
)

func TestGetBundledNativeModulesUnversioned(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "node_modules", "expo")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bundledNativeModules.json"), []byte(`{"expo-av":"~13.10.4"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	modules, err := expo.GetBundledNativeModules(context.Background(), root, expo.Unversioned, nil)
	if err != nil {
		t.Fatalf("GetBundledNativeModules failed: %v", err)
	}
	if modules["expo-av"] != "~13.10.4" {
		t.Errorf("expo-av = %q", modules["expo-av"])
	}
}

func TestGetBundledNativeModulesMissing(t *testing.T) {
	_, err := expo.GetBundledNativeModules(context.Background(), t.TempDir(), expo.Unversioned, nil)
	if !errors.Is(err, expo.ErrMissingDependency) {
		t.Fatalf("expected ErrMissingDependency, got %v", err)
	}
	var missing *expo.MissingDependencyError
	if !errors.As(err, &missing) {
		t.Fatalf("expected *MissingDependencyError, got %T", err)
	}
}

func TestAssembleBuildConfig(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "web"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "web", "index.html"), []byte("<html></html>"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := expo.AssembleBuildConfig(expo.Environment{
		ProjectRoot: root,
		Platform:    expo.PlatformWeb,
		Mode:        expo.ModeDevelopment,
	}, expo.Arguments{})
	if err != nil {
		t.Fatalf("AssembleBuildConfig failed: %v", err)
	}
	if cfg.Output.Filename != "static/js/bundle.js" {
		t.Errorf("Filename = %q", cfg.Output.Filename)
	}
}

func TestHeartbeatSignedOut(t *testing.T) {
	hb := expo.NewHeartbeat(t.TempDir(), nil, expo.WithHeartbeatInterval(time.Millisecond))
	sess := expo.NewSession(t.TempDir(), expo.AppDescriptor{Name: "App"}, expo.RuntimeNative)

	hb.Start(context.Background(), sess, false)
	defer hb.Stop(sess)

	if sess.Active() {
		t.Error("session should not run without a signed-in user")
	}
}
