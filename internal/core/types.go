// Package core provides the types shared by the dependency-map, build
// configuration and dev session packages.
package core

import "slices"

// Unversioned is the SDK version of an unpublished, in-development
// dependency set. It is never looked up remotely.
const Unversioned = "UNVERSIONED"

// BundledNativeModules maps an npm package name to the version range
// shipped with an SDK release.
type BundledNativeModules map[string]string

// Platform is the build target of a bundle.
type Platform string

const (
	PlatformWeb      Platform = "web"
	PlatformIOS      Platform = "ios"
	PlatformAndroid  Platform = "android"
	PlatformElectron Platform = "electron"
)

var nativePlatforms = []Platform{PlatformIOS, PlatformAndroid}

// IsNative reports whether p is a mobile platform.
func (p Platform) IsNative() bool {
	return slices.Contains(nativePlatforms, p)
}

// Mode selects production or development build behavior.
type Mode string

const (
	ModeProduction  Mode = "production"
	ModeDevelopment Mode = "development"
	ModeNone        Mode = "none"
)

// Runtime is the client a dev session is serving.
type Runtime string

const (
	RuntimeNative Runtime = "native"
	RuntimeWeb    Runtime = "web"
)

// AppDescriptor is the subset of the app config sent with dev session
// notifications.
type AppDescriptor struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Slug         string `json:"slug"`
	PrimaryColor string `json:"primaryColor,omitempty"`
}
