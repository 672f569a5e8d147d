// Package expo provides the project tooling behind the expo CLI: the
// native module versions bundled with an SDK, the bundler configuration
// of a project, and dev session liveness notifications.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/axeldelafosse/expo-cli"
//	)
//
//	modules, err := expo.GetBundledNativeModules(context.Background(), ".", "50.0.0", nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(modules["react-native"])
//
//	cfg, err := expo.AssembleBuildConfig(expo.Environment{
//		ProjectRoot: ".",
//		Platform:    expo.PlatformWeb,
//		Mode:        expo.ModeProduction,
//	}, expo.Arguments{})
package expo

import (
	"context"

	"github.com/axeldelafosse/expo-cli/client"
	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/devsession"
	"github.com/axeldelafosse/expo-cli/internal/nativemodules"
	"github.com/axeldelafosse/expo-cli/internal/user"
	"github.com/axeldelafosse/expo-cli/internal/webconfig"
)

// Re-export types from internal/core
type (
	// BundledNativeModules maps an npm package name to the version range
	// shipped with an SDK release.
	BundledNativeModules = core.BundledNativeModules

	// Platform is the build target of a bundle.
	Platform = core.Platform

	// Mode selects production or development build behavior.
	Mode = core.Mode

	// Runtime is the client a dev session is serving.
	Runtime = core.Runtime

	// AppDescriptor is sent with dev session notifications.
	AppDescriptor = core.AppDescriptor
)

// Re-export types from the component packages
type (
	Accessor    = nativemodules.Accessor
	Environment = webconfig.Environment
	Arguments   = webconfig.Arguments
	AppConfig   = webconfig.AppConfig
	BuildConfig = webconfig.Config
	Session     = devsession.Session
	Heartbeat   = devsession.Heartbeat

	// HeartbeatOption configures a Heartbeat.
	HeartbeatOption = devsession.Option
)

// Re-export types from client
type (
	// Client is an HTTP client with retry logic for JSON APIs.
	Client = client.Client

	// URLBuilder constructs Expo API endpoint URLs.
	URLBuilder = client.URLBuilder
)

// Re-export constants
const (
	Unversioned = core.Unversioned

	PlatformWeb      = core.PlatformWeb
	PlatformIOS      = core.PlatformIOS
	PlatformAndroid  = core.PlatformAndroid
	PlatformElectron = core.PlatformElectron

	ModeProduction  = core.ModeProduction
	ModeDevelopment = core.ModeDevelopment
	ModeNone        = core.ModeNone

	RuntimeNative = core.RuntimeNative
	RuntimeWeb    = core.RuntimeWeb
)

// Re-export errors
var (
	ErrNotFound          = client.ErrNotFound
	ErrMissingDependency = core.ErrMissingDependency
)

// Error types
type (
	HTTPError              = client.HTTPError
	MissingDependencyError = core.MissingDependencyError
	CommandError           = core.CommandError
)

// Heartbeat options
var (
	WithHeartbeatInterval = devsession.WithInterval
	WithHeartbeatOffline  = devsession.WithOffline
	WithHeartbeatLogger   = devsession.WithLogger
)

// DefaultClient returns a client with sensible defaults:
// - 30s timeout
// - 3 retries with exponential backoff
// - Retry on 429 and 5xx responses
func DefaultClient() *Client {
	return client.DefaultClient()
}

// GetBundledNativeModules returns the bundled native modules map for
// sdkVersion, falling back to the copy installed in projectRoot when the
// API cannot serve it. If c is nil, DefaultClient() is used.
func GetBundledNativeModules(ctx context.Context, projectRoot, sdkVersion string, c *Client) (BundledNativeModules, error) {
	if c == nil {
		c = DefaultClient()
	}
	return nativemodules.New(c).Get(ctx, projectRoot, sdkVersion)
}

// AssembleBuildConfig builds the bundler configuration for env.
func AssembleBuildConfig(env Environment, argv Arguments) (*BuildConfig, error) {
	return webconfig.Assemble(env, argv)
}

// NewSession returns a dev session for the project served to runtime.
func NewSession(projectRoot string, exp AppDescriptor, runtime Runtime) *Session {
	return devsession.NewSession(projectRoot, exp, runtime)
}

// NewHeartbeat returns a Heartbeat acting as the user signed in under
// stateDir. If c is nil, DefaultClient() is used.
func NewHeartbeat(stateDir string, c *Client, opts ...HeartbeatOption) *Heartbeat {
	if c == nil {
		c = DefaultClient()
	}
	users := user.NewManager(stateDir, c)
	return devsession.NewHeartbeat(users, users, opts...)
}
