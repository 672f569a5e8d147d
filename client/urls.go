package client

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultAPIURL is the production Expo API origin.
const DefaultAPIURL = "https://exp.host"

// URLBuilder constructs endpoint URLs for the Expo API.
type URLBuilder interface {
	NativeModules(sdkVersion string) string
	NotifyAlive() string
}

// BaseURLs provides a default URLBuilder implementation. Any nil function
// falls back to the standard path under Origin.
type BaseURLs struct {
	Origin          string
	NativeModulesFn func(sdkVersion string) string
	NotifyAliveFn   func() string
}

// APIURLs returns a URLBuilder rooted at origin. An empty origin means
// DefaultAPIURL.
func APIURLs(origin string) *BaseURLs {
	if origin == "" {
		origin = DefaultAPIURL
	}
	return &BaseURLs{Origin: strings.TrimSuffix(origin, "/")}
}

func (b *BaseURLs) NativeModules(sdkVersion string) string {
	if b.NativeModulesFn != nil {
		return b.NativeModulesFn(sdkVersion)
	}
	return fmt.Sprintf("%s/--/api/v2/sdks/%s/native-modules", b.Origin, url.PathEscape(sdkVersion))
}

func (b *BaseURLs) NotifyAlive() string {
	if b.NotifyAliveFn != nil {
		return b.NotifyAliveFn()
	}
	return b.Origin + "/--/api/v2/development-sessions/notify-alive"
}
