// Package webconfig assembles a bundler-agnostic build configuration for
// an app project from a description of the build environment.
package webconfig

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

// DefaultPort is the packager port native bundles are served from.
const DefaultPort = 8081

// Environment describes one build.
type Environment struct {
	ProjectRoot string
	Platform    core.Platform
	// Mode is derived from ProcessEnv["NODE_ENV"] when empty.
	Mode core.Mode
	// Locations defaults to DefaultLocations(ProjectRoot).
	Locations *Locations

	Port  int
	HTTPS bool
	// PWA overrides asset generation for non-development web builds.
	PWA *bool

	// PublicPath is where assets are served from. Production builds
	// derive it from Homepage (or the package.json homepage) when empty.
	PublicPath string
	Homepage   string

	App        AppConfig
	ProcessEnv map[string]string

	Debug             bool
	CI                bool
	NativeCodeLoading bool
	// DisableSourceMaps turns off production source maps.
	DisableSourceMaps bool
	FastRefresh       bool
	ProgressBar       bool

	// NewUpdateID generates the update id carried by the define step.
	// Defaults to a random UUID.
	NewUpdateID func() string
}

// Arguments are the dev server options passed on the command line.
type Arguments struct {
	Host        string
	AllowedHost string
	Proxy       map[string]string
}

// AppConfig is the part of the app manifest the build reads.
type AppConfig struct {
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	Slug         string `json:"slug"`
	SDKVersion   string `json:"sdkVersion,omitempty"`
	PrimaryColor string `json:"primaryColor,omitempty"`
	Icon         string `json:"icon,omitempty"`
	Splash       string `json:"splash,omitempty"`
	Web          Web    `json:"web"`
}

// Descriptor returns the fields sent with dev session notifications.
func (a AppConfig) Descriptor() core.AppDescriptor {
	return core.AppDescriptor{
		Name:         a.Name,
		Description:  a.Description,
		Slug:         a.Slug,
		PrimaryColor: a.PrimaryColor,
	}
}

// ReadAppConfig reads {projectRoot}/app.json. The manifest may nest its
// fields under an "expo" key. A missing file yields the zero value.
func ReadAppConfig(projectRoot string) (AppConfig, error) {
	var app AppConfig
	path := filepath.Join(projectRoot, "app.json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return app, nil
	}
	if err != nil {
		return app, fmt.Errorf("reading app.json: %w", err)
	}

	var wrapped struct {
		Expo *AppConfig `json:"expo"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return app, fmt.Errorf("parsing %s: %w", path, err)
	}
	if wrapped.Expo != nil {
		return *wrapped.Expo, nil
	}
	if err := json.Unmarshal(data, &app); err != nil {
		return app, fmt.Errorf("parsing %s: %w", path, err)
	}
	return app, nil
}

// Web holds the web section of the app manifest.
type Web struct {
	ShortName       string    `json:"shortName,omitempty"`
	Lang            string    `json:"lang,omitempty"`
	ThemeColor      string    `json:"themeColor,omitempty"`
	BackgroundColor string    `json:"backgroundColor,omitempty"`
	Favicon         string    `json:"favicon,omitempty"`
	Build           WebBuild  `json:"build"`
	Meta            AppleMeta `json:"meta"`
}

// WebBuild overrides production build settings. An empty, non-nil
// Devtool disables source maps.
type WebBuild struct {
	Devtool *string `json:"devtool,omitempty"`
}

// AppleMeta configures the apple-mobile-web-app meta tags.
type AppleMeta struct {
	TouchFullscreen     bool   `json:"touchFullscreen,omitempty"`
	MobileWebAppCapable bool   `json:"mobileWebAppCapable,omitempty"`
	BarStyle            string `json:"barStyle,omitempty"`
}

// Locations are the absolute paths a build reads from and writes to.
type Locations struct {
	Root            string
	AppMain         string
	PackageJSON     string
	Modules         string
	AppWebpackCache string
	AppTSConfig     string
	AppJSConfig     string
	Template        TemplateLocations
	Production      ProductionLocations
}

// TemplateLocations are the files of the web template folder.
type TemplateLocations struct {
	Folder    string
	IndexHTML string
	Manifest  string
	ServeJSON string
	Favicon   string
}

// ProductionLocations are the files of the production output folder.
type ProductionLocations struct {
	Folder    string
	IndexHTML string
	Manifest  string
	ServeJSON string
}

var entryCandidates = []string{
	"index.ts", "index.tsx", "index.js", "index.jsx",
	"App.ts", "App.tsx", "App.js", "App.jsx",
}

// DefaultLocations lays out the standard project structure under
// projectRoot. The template folder is {root}/web; the production folder
// is {root}/web-build.
func DefaultLocations(projectRoot string) (*Locations, error) {
	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	template := filepath.Join(root, "web")
	production := filepath.Join(root, "web-build")
	locs := &Locations{
		Root:            root,
		PackageJSON:     filepath.Join(root, "package.json"),
		Modules:         filepath.Join(root, "node_modules"),
		AppWebpackCache: filepath.Join(root, ".expo", "web", "cache"),
		AppTSConfig:     filepath.Join(root, "tsconfig.json"),
		AppJSConfig:     filepath.Join(root, "jsconfig.json"),
		Template: TemplateLocations{
			Folder:    template,
			IndexHTML: filepath.Join(template, "index.html"),
			Manifest:  filepath.Join(template, "manifest.json"),
			ServeJSON: filepath.Join(template, "serve.json"),
			Favicon:   filepath.Join(template, "favicon.ico"),
		},
		Production: ProductionLocations{
			Folder:    production,
			IndexHTML: filepath.Join(production, "index.html"),
			Manifest:  filepath.Join(production, "manifest.json"),
			ServeJSON: filepath.Join(production, "serve.json"),
		},
	}

	main, err := appMain(root)
	if err != nil {
		return nil, err
	}
	locs.AppMain = main
	return locs, nil
}

// TemplateFile resolves rel inside the template folder. A leading "/" is
// ignored.
func (l *Locations) TemplateFile(rel string) string {
	return filepath.Join(l.Template.Folder, filepath.FromSlash(strings.TrimPrefix(rel, "/")))
}

// Absolute resolves p against the project root unless it already is
// absolute.
func (l *Locations) Absolute(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(l.Root, filepath.FromSlash(p))
}

type packageJSON struct {
	Main     string `json:"main"`
	Homepage string `json:"homepage"`
}

// readPackageJSON reads the project manifest. A missing file yields the
// zero value.
func readPackageJSON(path string) (packageJSON, error) {
	var pkg packageJSON
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return pkg, nil
	}
	if err != nil {
		return pkg, fmt.Errorf("reading package.json: %w", err)
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return pkg, fmt.Errorf("parsing package.json: %w", err)
	}
	return pkg, nil
}

// appMain returns the "main" field of package.json, or the first
// conventional entry file that exists. Projects with neither have no
// app entry.
func appMain(root string) (string, error) {
	pkg, err := readPackageJSON(filepath.Join(root, "package.json"))
	if err != nil {
		return "", err
	}
	if pkg.Main != "" {
		return filepath.Join(root, filepath.FromSlash(pkg.Main)), nil
	}

	for _, name := range entryCandidates {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// resolveMode picks the build mode: the explicit mode first, then
// NODE_ENV, then development.
func resolveMode(env Environment) (core.Mode, error) {
	mode := env.Mode
	if mode == "" {
		mode = core.Mode(env.ProcessEnv["NODE_ENV"])
	}
	switch mode {
	case "":
		return core.ModeDevelopment, nil
	case core.ModeProduction, core.ModeDevelopment, core.ModeNone:
		return mode, nil
	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}

// publicPaths returns the public path assets are requested from and the
// public URL interpolated into the template (the path without its
// trailing slash).
func publicPaths(env Environment, mode core.Mode) (publicPath, publicURL string) {
	switch {
	case env.PublicPath != "":
		publicPath = env.PublicPath
	case mode == core.ModeProduction && env.Homepage != "":
		publicPath = servedPath(env.Homepage)
	default:
		publicPath = "/"
	}
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	if mode != core.ModeProduction {
		return publicPath, ""
	}
	return publicPath, strings.TrimSuffix(publicPath, "/")
}

// servedPath extracts the path component of a homepage URL. Relative
// homepages ("." or "./") serve from "./".
func servedPath(homepage string) string {
	if homepage == "." || homepage == "./" {
		return "./"
	}
	u, err := url.Parse(homepage)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}
