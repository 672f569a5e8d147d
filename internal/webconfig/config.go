package webconfig

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

// Config is an assembled build configuration.
type Config struct {
	Name                  string                `json:"name" yaml:"name"`
	Mode                  core.Mode             `json:"mode" yaml:"mode"`
	Platform              core.Platform         `json:"platform" yaml:"platform"`
	Target                string                `json:"target,omitempty" yaml:"target,omitempty"`
	Context               string                `json:"context" yaml:"context"`
	Entry                 []string              `json:"entry" yaml:"entry"`
	Bail                  bool                  `json:"bail" yaml:"bail"`
	Devtool               string                `json:"devtool,omitempty" yaml:"devtool,omitempty"`
	Output                Output                `json:"output" yaml:"output"`
	Resolve               Resolve               `json:"resolve" yaml:"resolve"`
	Module                Module                `json:"module" yaml:"module"`
	Optimization          Optimization          `json:"optimization" yaml:"optimization"`
	Cache                 Cache                 `json:"cache" yaml:"cache"`
	Watch                 WatchOptions          `json:"watchOptions" yaml:"watchOptions"`
	Stats                 string                `json:"stats" yaml:"stats"`
	InfrastructureLogging InfrastructureLogging `json:"infrastructureLogging" yaml:"infrastructureLogging"`
	Performance           *Performance          `json:"performance,omitempty" yaml:"performance,omitempty"`
	DevServer             *DevServer            `json:"devServer,omitempty" yaml:"devServer,omitempty"`
	Plugins               []Step                `json:"plugins" yaml:"plugins"`

	// Template is the scanned index.html, nil for builds that emit no
	// HTML.
	Template *Template `json:"-" yaml:"-"`
	// SkippedSteps names each step left out and the predicate that
	// excluded it.
	SkippedSteps []string `json:"-" yaml:"-"`
}

// Resolve configures module resolution.
type Resolve struct {
	MainFields  []string          `json:"mainFields" yaml:"mainFields"`
	AliasFields []string          `json:"aliasFields" yaml:"aliasFields"`
	Extensions  []string          `json:"extensions" yaml:"extensions"`
	Alias       map[string]string `json:"alias" yaml:"alias"`
	Symlinks    bool              `json:"symlinks" yaml:"symlinks"`
}

// Module configures how modules are processed.
type Module struct {
	StrictExportPresence bool `json:"strictExportPresence" yaml:"strictExportPresence"`
	SourceMapLoader      bool `json:"sourceMapLoader" yaml:"sourceMapLoader"`
}

// Optimization controls minification and code splitting. MaxChunks 0
// means unlimited.
type Optimization struct {
	Minimize     bool `json:"minimize" yaml:"minimize"`
	SplitChunks  bool `json:"splitChunks" yaml:"splitChunks"`
	RuntimeChunk bool `json:"runtimeChunk" yaml:"runtimeChunk"`
	MaxChunks    int  `json:"maxChunks,omitempty" yaml:"maxChunks,omitempty"`
}

// WatchOptions configures rebuilds on file changes.
type WatchOptions struct {
	AggregateTimeoutMS int      `json:"aggregateTimeout" yaml:"aggregateTimeout"`
	Ignored            []string `json:"ignored" yaml:"ignored"`
}

// InfrastructureLogging configures the bundler's own log output.
type InfrastructureLogging struct {
	Debug bool   `json:"debug" yaml:"debug"`
	Level string `json:"level" yaml:"level"`
}

// Performance configures asset size hints.
type Performance struct {
	MaxAssetSize      int `json:"maxAssetSize" yaml:"maxAssetSize"`
	MaxEntrypointSize int `json:"maxEntrypointSize" yaml:"maxEntrypointSize"`
}

// DevServer configures the development server.
type DevServer struct {
	Host               string            `json:"host" yaml:"host"`
	Port               int               `json:"port" yaml:"port"`
	HTTPS              bool              `json:"https" yaml:"https"`
	AllowedHosts       []string          `json:"allowedHosts,omitempty" yaml:"allowedHosts,omitempty"`
	Proxy              map[string]string `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Hot                bool              `json:"hot" yaml:"hot"`
	Compress           bool              `json:"compress" yaml:"compress"`
	HistoryAPIFallback string            `json:"historyApiFallback" yaml:"historyApiFallback"`
	Static             string            `json:"static" yaml:"static"`
}

// WatchIgnored are the globs never watched for rebuilds.
var WatchIgnored = []string{
	"**/.git/**",
	"**/node_modules/**",
	"**/.expo/**",
	"**/.expo-shared/**",
	"**/web-build/**",
	"**/.#*",
}

const assetSizeLimit = 600000

// buildContext holds the facts derived once per Assemble call. Every
// step predicate and option builder reads from it.
type buildContext struct {
	env      Environment
	argv     Arguments
	locs     *Locations
	mode     core.Mode
	isNative bool
	isDev    bool
	isProd   bool
	port     int
	devtool  string
	updateID string

	publicPath string
	publicURL  string

	template         *Template
	hasManifestLink  bool
	manifestTemplate string
	pwa              bool
	generatePWA      bool
}

// Assemble builds the configuration for env. It reads the HTML template
// of builds that emit HTML and fails if the template is missing. Native
// builds fail if react or react-native is not installed.
func Assemble(env Environment, argv Arguments) (*Config, error) {
	if env.Platform == "" {
		return nil, fmt.Errorf("platform is required")
	}
	b, err := newBuildContext(env, argv)
	if err != nil {
		return nil, err
	}

	alias, err := aliases(b)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Name:     string(env.Platform),
		Mode:     b.mode,
		Platform: env.Platform,
		Context:  b.locs.Root,
		Entry:    entries(b),
		Bail:     b.isProd,
		Devtool:  b.devtool,
		Output:   buildOutput(b),
		Resolve: Resolve{
			MainFields:  mainFields(b.isNative),
			AliasFields: mainFields(b.isNative),
			Extensions:  Extensions(env.Platform),
			Alias:       alias,
			Symlinks:    false,
		},
		Module: Module{
			StrictExportPresence: false,
			SourceMapLoader:      b.devtool != "",
		},
		Cache: buildCache(env, b.locs),
		Watch: WatchOptions{
			AggregateTimeoutMS: 5,
			Ignored:            append([]string(nil), WatchIgnored...),
		},
		Stats:                 "errors-warnings",
		InfrastructureLogging: InfrastructureLogging{Level: "none"},
		Template:              b.template,
	}

	if !b.isNative {
		cfg.Target = "web"
	}
	if env.Debug {
		cfg.Stats = "detailed"
		cfg.InfrastructureLogging = InfrastructureLogging{Debug: true, Level: "verbose"}
	}
	if !env.CI {
		cfg.Performance = &Performance{MaxAssetSize: assetSizeLimit, MaxEntrypointSize: assetSizeLimit}
	}

	switch {
	case b.isNative:
		// Native runtimes load a single bundle.
		cfg.Optimization = Optimization{Minimize: b.isProd, MaxChunks: 1}
	case b.isProd:
		cfg.Optimization = Optimization{Minimize: true, SplitChunks: true, RuntimeChunk: true}
	}

	if b.isDev {
		cfg.DevServer = devServer(b)
	}

	cfg.Plugins, cfg.SkippedSteps = buildSteps(b)
	if nativeSourceMap.fn(b) {
		// Source maps are emitted as files by the source-map-devtool step.
		cfg.Devtool = ""
	}
	return cfg, nil
}

func newBuildContext(env Environment, argv Arguments) (*buildContext, error) {
	mode, err := resolveMode(env)
	if err != nil {
		return nil, err
	}

	locs := env.Locations
	if locs == nil {
		if locs, err = DefaultLocations(env.ProjectRoot); err != nil {
			return nil, err
		}
	}
	if env.Homepage == "" && env.PublicPath == "" {
		pkg, err := readPackageJSON(locs.PackageJSON)
		if err != nil {
			return nil, err
		}
		env.Homepage = pkg.Homepage
	}

	b := &buildContext{
		env:      env,
		argv:     argv,
		locs:     locs,
		mode:     mode,
		isNative: env.Platform.IsNative(),
		isDev:    mode == core.ModeDevelopment,
		isProd:   mode == core.ModeProduction,
		port:     env.Port,
		devtool:  devtool(env, mode),
	}
	if b.port == 0 {
		b.port = DefaultPort
	}
	b.publicPath, b.publicURL = publicPaths(env, mode)

	newID := env.NewUpdateID
	if newID == nil {
		newID = uuid.NewString
	}
	b.updateID = newID()

	b.generatePWA = generatePWAAssets(env, mode)
	b.pwa = !b.isNative && (env.PWA == nil || *env.PWA)
	b.manifestTemplate = locs.Template.Manifest

	if producesHTML.fn(b) {
		t, err := ReadTemplate(locs.Template.IndexHTML)
		if err != nil {
			return nil, err
		}
		b.template = t
		if link, ok := t.ManifestLink(); ok {
			b.hasManifestLink = true
			if link.Href != "" {
				b.manifestTemplate = locs.TemplateFile(link.Href)
			}
		}
	}
	return b, nil
}

func devServer(b *buildContext) *DevServer {
	host := b.argv.Host
	if host == "" {
		host = "0.0.0.0"
	}
	ds := &DevServer{
		Host:               host,
		Port:               b.port,
		HTTPS:              b.env.HTTPS,
		Proxy:              b.argv.Proxy,
		Hot:                true,
		Compress:           true,
		HistoryAPIFallback: b.publicPath,
		Static:             b.locs.Template.Folder,
	}
	if b.argv.AllowedHost != "" {
		ds.AllowedHosts = []string{b.argv.AllowedHost}
	}
	return ds
}
