// Package npm provides a minimal npm registry client used to resolve
// packages that are not part of an SDK's bundled dependency map.
package npm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/axeldelafosse/expo-cli/client"
)

const DefaultURL = "https://registry.npmjs.org"

// ErrNoLatest is returned when a package has no "latest" dist-tag.
var ErrNoLatest = errors.New("no latest version")

// NotFoundError is returned for packages the registry does not know.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("npm: package %s not found", e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return client.ErrNotFound
}

// Package is the registry metadata the CLI cares about.
type Package struct {
	Name        string
	Description string
	Namespace   string // scope without the leading @
	DistTags    map[string]string
	Deprecated  bool
}

// Latest returns the version tagged "latest".
func (p *Package) Latest() (string, error) {
	if v := p.DistTags["latest"]; v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", p.Name, ErrNoLatest)
}

type Registry struct {
	baseURL string
	client  *client.Client
}

func New(baseURL string, c *client.Client) *Registry {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if c == nil {
		c = client.DefaultClient()
	}
	return &Registry{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  c,
	}
}

type packageResponse struct {
	ID          string                 `json:"_id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	DistTags    map[string]string      `json:"dist-tags"`
	Versions    map[string]versionInfo `json:"versions"`
}

type versionInfo struct {
	Version    string `json:"version"`
	Deprecated string `json:"deprecated"`
}

func (r *Registry) FetchPackage(ctx context.Context, name string) (*Package, error) {
	u := fmt.Sprintf("%s/%s", r.baseURL, escapeName(name))

	var resp packageResponse
	if err := r.client.GetJSON(ctx, u, &resp); err != nil {
		var httpErr *client.HTTPError
		if errors.As(err, &httpErr) && httpErr.IsNotFound() {
			return nil, &NotFoundError{Name: name}
		}
		return nil, err
	}

	pkg := &Package{
		Name:        coalesceString(resp.ID, resp.Name, name),
		Description: resp.Description,
		Namespace:   extractNamespace(coalesceString(resp.ID, name)),
		DistTags:    resp.DistTags,
	}
	if latest, ok := resp.Versions[resp.DistTags["latest"]]; ok {
		pkg.Deprecated = latest.Deprecated != ""
	}
	return pkg, nil
}

// LatestVersion returns the "latest" dist-tag of name.
func (r *Registry) LatestVersion(ctx context.Context, name string) (string, error) {
	pkg, err := r.FetchPackage(ctx, name)
	if err != nil {
		return "", err
	}
	return pkg.Latest()
}

// escapeName keeps the scope separator readable, which the registry
// accepts in either form.
func escapeName(name string) string {
	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		parts := strings.SplitN(name, "/", 2)
		return url.PathEscape(parts[0]) + "%2F" + url.PathEscape(parts[1])
	}
	return url.PathEscape(name)
}

func extractNamespace(id string) string {
	if strings.HasPrefix(id, "@") && strings.Contains(id, "/") {
		parts := strings.SplitN(id, "/", 2)
		return strings.TrimPrefix(parts[0], "@")
	}
	return ""
}

func coalesceString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// PURL returns the package URL for name at version.
func PURL(name, version string) string {
	namespace := ""
	pkgName := name
	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		parts := strings.SplitN(name, "/", 2)
		namespace = "%40" + strings.TrimPrefix(parts[0], "@")
		pkgName = parts[1]
	}

	base := "pkg:npm/" + pkgName
	if namespace != "" {
		base = fmt.Sprintf("pkg:npm/%s/%s", namespace, pkgName)
	}
	if version != "" {
		return base + "@" + url.PathEscape(version)
	}
	return base
}
