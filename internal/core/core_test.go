package core

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestPlatformIsNative(t *testing.T) {
	tests := []struct {
		platform Platform
		want     bool
	}{
		{PlatformIOS, true},
		{PlatformAndroid, true},
		{PlatformWeb, false},
		{PlatformElectron, false},
		{Platform(""), false},
	}
	for _, tt := range tests {
		if got := tt.platform.IsNative(); got != tt.want {
			t.Errorf("%q.IsNative() = %v, want %v", tt.platform, got, tt.want)
		}
	}
}

func TestMissingDependencyError(t *testing.T) {
	err := fmt.Errorf("loading: %w", &MissingDependencyError{
		Package:     "expo",
		File:        "expo/bundledNativeModules.json",
		ProjectRoot: "/app",
	})

	if !errors.Is(err, ErrMissingDependency) {
		t.Error("expected errors.Is(err, ErrMissingDependency)")
	}
	if !strings.Contains(err.Error(), "expo/bundledNativeModules.json") {
		t.Errorf("message %q does not name the missing file", err.Error())
	}
	if CodeOf(err) != EMissingDependency {
		t.Errorf("CodeOf = %s, want %s", CodeOf(err), EMissingDependency)
	}
}

func TestCommandError(t *testing.T) {
	cause := errors.New("boom")
	err := WrapCommandError(EDevServerDown, "dev server is not running", cause)

	if err.Error() != "E_DEV_SERVER_NOT_RUNNING: dev server is not running" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected cause to be unwrapped")
	}
	if CodeOf(err) != EDevServerDown {
		t.Errorf("CodeOf = %s", CodeOf(err))
	}
	if CodeOf(errors.New("plain")) != EInternal {
		t.Error("plain errors should map to EInternal")
	}
}
