package devsession

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"slices"
	"strconv"
	"sync"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

// URLResolver returns the URL clients of a runtime open for the project.
type URLResolver func(ctx context.Context, projectRoot string) (string, error)

var (
	resolvers = make(map[core.Runtime]URLResolver)
	mu        sync.RWMutex
)

func init() {
	RegisterRuntime(core.RuntimeNative, DeepLink)
	RegisterRuntime(core.RuntimeWeb, WebAppURL)
}

// RegisterRuntime adds or replaces the URL resolver for runtime.
func RegisterRuntime(runtime core.Runtime, resolver URLResolver) {
	mu.Lock()
	defer mu.Unlock()
	resolvers[runtime] = resolver
}

// RuntimeURL resolves the URL for runtime. Unregistered runtimes are an
// EUnsupported error.
func RuntimeURL(ctx context.Context, projectRoot string, runtime core.Runtime) (string, error) {
	mu.RLock()
	resolve, ok := resolvers[runtime]
	mu.RUnlock()

	if !ok {
		return "", core.NewCommandError(core.EUnsupported, fmt.Sprintf("unsupported runtime: %s", runtime))
	}
	return resolve(ctx, projectRoot)
}

// SupportedRuntimes returns all registered runtimes, sorted.
func SupportedRuntimes() []core.Runtime {
	mu.RLock()
	defer mu.RUnlock()

	out := make([]core.Runtime, 0, len(resolvers))
	for r := range resolvers {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// DeepLink builds the URL native clients open for the project, e.g.
// exp://192.168.1.5:19000. Tunnel sessions use the tunnel host.
func DeepLink(ctx context.Context, projectRoot string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := ReadPackagerInfo(projectRoot)
	if err != nil {
		return "", err
	}
	settings, err := ReadSettings(projectRoot)
	if err != nil {
		return "", err
	}

	scheme := settings.Scheme
	if scheme == "" {
		scheme = "exp"
	}

	if settings.HostType == HostTypeTunnel {
		if info.PackagerNgrokURL == "" {
			return "", core.NewCommandError(core.EDevServerDown,
				fmt.Sprintf("tunnel is not running for project at: %s", projectRoot))
		}
		u, err := url.Parse(info.PackagerNgrokURL)
		if err != nil {
			return "", fmt.Errorf("parsing tunnel url: %w", err)
		}
		return scheme + "://" + u.Host, nil
	}

	if info.PackagerPort == 0 {
		return "", core.NewCommandError(core.EDevServerDown,
			fmt.Sprintf("packager is not running for project at: %s", projectRoot))
	}
	return scheme + "://" + hostPort(settings.HostType, info.PackagerPort), nil
}

// WebAppURL returns the URL of the running web dev server. It is an
// EDevServerDown error when no web dev server is running.
func WebAppURL(ctx context.Context, projectRoot string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	info, err := ReadPackagerInfo(projectRoot)
	if err != nil {
		return "", err
	}
	if info.WebpackServerPort == 0 {
		return "", core.NewCommandError(core.EDevServerDown,
			fmt.Sprintf("Webpack dev server is not running for project at: %s", projectRoot))
	}
	settings, err := ReadSettings(projectRoot)
	if err != nil {
		return "", err
	}

	protocol := "http"
	if settings.HTTPS {
		protocol = "https"
	}
	return protocol + "://" + hostPort(settings.HostType, info.WebpackServerPort), nil
}

func hostPort(hostType string, port int) string {
	host := "127.0.0.1"
	if hostType != HostTypeLocalhost {
		host = lanAddress()
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}
