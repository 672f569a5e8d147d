package webconfig

import (
	"github.com/axeldelafosse/expo-cli/internal/core"
)

// Step names, in the order they are considered.
const (
	StepClean               = "clean"
	StepCopy                = "copy"
	StepHTML                = "html"
	StepInterpolateHTML     = "interpolate-html"
	StepNativeAssets        = "native-assets"
	StepPWAManifest         = "pwa-manifest"
	StepFavicon             = "favicon"
	StepApplePWA            = "apple-pwa"
	StepChromeIcons         = "chrome-icons"
	StepModuleNotFound      = "module-not-found"
	StepDefine              = "define"
	StepLimitChunkCount     = "limit-chunk-count"
	StepReplaceHotClient    = "replace-hot-client"
	StepReplaceLazyCompile  = "replace-lazy-compilation"
	StepReplaceRefreshSetup = "replace-refresh-setup"
	StepCSSExtract          = "css-extract"
	StepAssetManifest       = "asset-manifest"
	StepReplaceErrorOverlay = "replace-error-overlay"
	StepReplaceLoadScript   = "replace-load-script"
	StepHMR                 = "hmr"
	StepExpectedErrors      = "expected-errors"
	StepProgressBar         = "progress-bar"
	StepSourceMapDevTool    = "source-map-devtool"
)

// Step is one plugin descriptor: a name and its options.
type Step struct {
	Name    string         `json:"name" yaml:"name"`
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// predicate decides whether a step applies to a build.
type predicate struct {
	name string
	fn   func(*buildContext) bool
}

var (
	always         = predicate{"always", func(*buildContext) bool { return true }}
	isProduction   = predicate{"production", func(b *buildContext) bool { return b.isProd }}
	isNative       = predicate{"native", func(b *buildContext) bool { return b.isNative }}
	isWeb          = predicate{"web", func(b *buildContext) bool { return !b.isNative }}
	webProduction  = predicate{"web-production", func(b *buildContext) bool { return !b.isNative && b.isProd }}
	nativeProd     = predicate{"native-production", func(b *buildContext) bool { return b.isNative && b.isProd }}
	nativeDev      = predicate{"native-development", func(b *buildContext) bool { return b.isNative && b.isDev }}
	producesHTML   = predicate{"produces-html", func(b *buildContext) bool { return !b.isNative || b.env.NativeCodeLoading }}
	pwaEnabled     = predicate{"pwa", func(b *buildContext) bool { return b.pwa }}
	generatesPWA   = predicate{"generates-pwa-assets", func(b *buildContext) bool { return b.generatePWA }}
	hasProgressBar = predicate{"progress-bar", func(b *buildContext) bool { return b.env.ProgressBar }}
)

// nativeSourceMap moves native source maps out of the bundle into
// separate files.
var nativeSourceMap = predicate{"native-source-maps", func(b *buildContext) bool {
	return b.isNative && !b.env.NativeCodeLoading && b.devtool != ""
}}

// stepBuilder appends steps whose predicate holds, preserving the order
// of add calls.
type stepBuilder struct {
	ctx     *buildContext
	steps   []Step
	skipped []string
}

func (s *stepBuilder) add(name string, when predicate, options func(*buildContext) map[string]any) {
	if !when.fn(s.ctx) {
		s.skipped = append(s.skipped, name+" ("+when.name+")")
		return
	}
	step := Step{Name: name}
	if options != nil {
		step.Options = options(s.ctx)
	}
	s.steps = append(s.steps, step)
}

func replacement(pattern, request string) func(*buildContext) map[string]any {
	return func(*buildContext) map[string]any {
		return map[string]any{"pattern": pattern, "request": request}
	}
}

func buildSteps(b *buildContext) ([]Step, []string) {
	s := &stepBuilder{ctx: b}

	s.add(StepClean, isProduction, func(b *buildContext) map[string]any {
		return map[string]any{"dry": false, "verbose": false, "path": b.locs.Production.Folder}
	})
	s.add(StepCopy, webProduction, func(b *buildContext) map[string]any {
		return map[string]any{"patterns": copyPatterns(b.locs)}
	})
	s.add(StepHTML, producesHTML, func(b *buildContext) map[string]any {
		return map[string]any{
			"template": b.locs.Template.IndexHTML,
			"filename": b.locs.Production.IndexHTML,
			"minify":   b.isProd,
		}
	})
	s.add(StepInterpolateHTML, producesHTML, func(b *buildContext) map[string]any {
		return map[string]any{
			"WEB_PUBLIC_URL": b.publicURL,
			"WEB_TITLE":      webTitle(b.env.App),
			"LANG_ISO_CODE":  orDefault(b.env.App.Web.Lang, "en"),
			"NO_SCRIPT":      "Oh no! It looks like JavaScript is not enabled in your browser.",
			"ROOT_ID":        "root",
		}
	})
	s.add(StepNativeAssets, isNative, func(b *buildContext) map[string]any {
		return map[string]any{
			"platforms":  extensionPlatforms(b.env.Platform),
			"persist":    b.isProd,
			"assetsPath": "assets",
		}
	})
	s.add(StepPWAManifest, pwaEnabled, func(b *buildContext) map[string]any {
		return map[string]any{
			"template":   b.manifestTemplate,
			"path":       "manifest.json",
			"publicPath": b.publicPath,
			"inject":     !b.hasManifestLink,
		}
	})
	s.add(StepFavicon, isWeb, func(b *buildContext) map[string]any {
		return map[string]any{
			"src":        b.locs.Absolute(orDefault(b.env.App.Web.Favicon, b.env.App.Icon)),
			"publicPath": b.publicPath,
		}
	})
	s.add(StepApplePWA, generatesPWA, func(b *buildContext) map[string]any {
		meta := b.env.App.Web.Meta
		return map[string]any{
			"name":            webTitle(b.env.App),
			"isFullScreen":    meta.TouchFullscreen,
			"isWebAppCapable": meta.MobileWebAppCapable,
			"barStyle":        orDefault(meta.BarStyle, "default"),
			"icon":            b.locs.Absolute(b.env.App.Icon),
			"startupImage":    b.locs.Absolute(b.env.App.Splash),
		}
	})
	s.add(StepChromeIcons, generatesPWA, func(b *buildContext) map[string]any {
		return map[string]any{"icon": b.locs.Absolute(b.env.App.Icon)}
	})
	s.add(StepModuleNotFound, always, func(b *buildContext) map[string]any {
		return map[string]any{"root": b.locs.Root, "platform": string(b.env.Platform)}
	})
	s.add(StepDefine, always, func(b *buildContext) map[string]any {
		return map[string]any{
			"mode":      string(b.mode),
			"publicUrl": b.publicURL,
			"platform":  string(b.env.Platform),
			"updateId":  b.updateID,
			"appName":   b.env.App.Name,
			"slug":      b.env.App.Slug,
		}
	})
	s.add(StepLimitChunkCount, nativeProd, func(*buildContext) map[string]any {
		return map[string]any{"maxChunks": 1}
	})
	s.add(StepReplaceHotClient, isNative,
		replacement(`react-native/Libraries/Utilities/HMRClient\.js$`, "@expo/webpack-config/webpack/runtime/metro-runtime-shim"))
	s.add(StepReplaceLazyCompile, isNative,
		replacement(`lazy-compilation-web\.js$`, "@expo/webpack-config/webpack/runtime/lazy-compilation-native"))
	s.add(StepReplaceRefreshSetup, isNative,
		replacement(`react-native/Libraries/Core/setUpReactRefresh\.js$`, "@expo/webpack-config/webpack/runtime/setUpReactRefresh-shim"))
	s.add(StepCSSExtract, webProduction, func(*buildContext) map[string]any {
		return map[string]any{
			"filename":      "static/css/[name].[contenthash:8].css",
			"chunkFilename": "static/css/[name].[contenthash:8].chunk.css",
		}
	})
	s.add(StepAssetManifest, isWeb, func(b *buildContext) map[string]any {
		return map[string]any{"fileName": "asset-manifest.json", "publicPath": b.publicPath}
	})
	s.add(StepReplaceErrorOverlay, nativeDev,
		replacement(`react-error-overlay`, "@expo/webpack-config/webpack/runtime/errorOverlay"))
	s.add(StepReplaceLoadScript, nativeDev,
		replacement(`webpack/lib/runtime/LoadScriptRuntimeModule\.js`, "@expo/webpack-config/webpack/runtime/LoadScriptRuntimeModule"))
	s.add(StepHMR, always, func(b *buildContext) map[string]any {
		return map[string]any{
			"enabled":     b.isDev,
			"fastRefresh": b.isDev && b.env.FastRefresh,
			"overlay":     !b.isNative,
		}
	})
	s.add(StepExpectedErrors, always, nil)
	s.add(StepProgressBar, hasProgressBar, func(b *buildContext) map[string]any {
		return map[string]any{
			"nonInteractive": b.env.CI,
			"platform":       string(b.env.Platform),
			"entryFile":      b.locs.AppMain,
			"dev":            b.isDev,
			"minify":         b.isProd,
		}
	})
	s.add(StepSourceMapDevTool, nativeSourceMap, func(b *buildContext) map[string]any {
		return map[string]any{
			"filename":         "[file].map",
			"sourceMapPaths":   buildOutput(b).SourceMapPaths,
			"noSources":        false,
			"columns":          b.isProd,
			"moduleSourceMaps": b.devtool != "cheap-module-source-map",
		}
	})

	return s.steps, s.skipped
}

// copyPatterns copies the template folder into the production folder,
// minus files other steps generate, and serve.json.
func copyPatterns(locs *Locations) []map[string]any {
	return []map[string]any{
		{
			"from": locs.Template.Folder,
			"to":   locs.Production.Folder,
			"globOptions": map[string]any{
				"dot":    true,
				"ignore": []string{"**/index.html", "**/icon.png"},
			},
			"noErrorOnMissing": true,
		},
		{
			"from":             locs.Template.ServeJSON,
			"to":               locs.Production.ServeJSON,
			"noErrorOnMissing": true,
		},
	}
}

func webTitle(app AppConfig) string {
	return orDefault(app.Web.ShortName, app.Name)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// generatePWAAssets reports whether PWA images are generated: web builds
// outside development, unless an explicit override says otherwise. An
// override never enables generation in development.
func generatePWAAssets(env Environment, mode core.Mode) bool {
	if env.Platform.IsNative() || mode == core.ModeDevelopment {
		return false
	}
	if env.PWA != nil {
		return *env.PWA
	}
	return true
}
