package webconfig

import (
	"fmt"

	"github.com/axeldelafosse/expo-cli/internal/core"
)

// Output describes where and how bundles are emitted.
type Output struct {
	Path                string `json:"path" yaml:"path"`
	PublicPath          string `json:"publicPath" yaml:"publicPath"`
	Filename            string `json:"filename" yaml:"filename"`
	ChunkFilename       string `json:"chunkFilename" yaml:"chunkFilename"`
	AssetModuleFilename string `json:"assetModuleFilename" yaml:"assetModuleFilename"`
	UniqueName          string `json:"uniqueName" yaml:"uniqueName"`
	Pathinfo            bool   `json:"pathinfo,omitempty" yaml:"pathinfo,omitempty"`

	// SourceMapPaths is "relative" in production (paths relative to the
	// source root) and "absolute" otherwise.
	SourceMapPaths     string `json:"sourceMapPaths" yaml:"sourceMapPaths"`
	ChunkLoading       string `json:"chunkLoading,omitempty" yaml:"chunkLoading,omitempty"`
	ChunkFormat        string `json:"chunkFormat,omitempty" yaml:"chunkFormat,omitempty"`
	GlobalObject       string `json:"globalObject,omitempty" yaml:"globalObject,omitempty"`
	ChunkLoadingGlobal string `json:"chunkLoadingGlobal,omitempty" yaml:"chunkLoadingGlobal,omitempty"`
}

const assetModuleFilename = "static/media/[name].[hash][ext]"

func buildOutput(b *buildContext) Output {
	out := Output{
		Path:                b.locs.Production.Folder,
		PublicPath:          b.publicPath,
		AssetModuleFilename: assetModuleFilename,
		UniqueName:          string(b.env.Platform),
		SourceMapPaths:      "absolute",
	}

	if b.isProd {
		out.Filename = "static/js/[name].[contenthash:8].js"
		out.ChunkFilename = "static/js/[name].[contenthash:8].chunk.js"
		out.SourceMapPaths = "relative"
	} else {
		out.Filename = "static/js/bundle.js"
		out.ChunkFilename = "static/js/[name].chunk.js"
		out.Pathinfo = b.isDev
	}

	if b.isNative {
		out.ChunkLoading = "jsonp"
		out.ChunkFormat = "array-push"
		out.GlobalObject = "this"
		out.ChunkLoadingGlobal = "exLoadChunk"
		if !b.env.NativeCodeLoading {
			if b.isProd {
				out.Filename = "main.jsbundle"
			} else {
				out.Filename = "index.bundle"
			}
			out.PublicPath = fmt.Sprintf("http://localhost:%d/", b.port)
		}
	}
	return out
}

// devtool picks the source map style. An empty result disables source
// maps.
func devtool(env Environment, mode core.Mode) string {
	switch mode {
	case core.ModeProduction:
		if d := env.App.Web.Build.Devtool; d != nil {
			return *d
		}
		if env.DisableSourceMaps {
			return ""
		}
		return "source-map"
	case core.ModeDevelopment:
		return "cheap-module-source-map"
	default:
		return ""
	}
}

var baseExtensions = []string{"ts", "tsx", "mjs", "js", "jsx", "json", "wasm"}

// extensionPlatforms lists the platform prefixes tried before plain
// extensions.
func extensionPlatforms(p core.Platform) []string {
	if p.IsNative() {
		return []string{string(p), "native"}
	}
	return []string{string(p)}
}

// Extensions returns the module file extensions resolved for platform,
// most specific first: every platform-prefixed extension, then the plain
// ones. Each carries a leading dot.
func Extensions(p core.Platform) []string {
	var out []string
	for _, prefix := range extensionPlatforms(p) {
		for _, ext := range baseExtensions {
			out = append(out, "."+prefix+"."+ext)
		}
	}
	for _, ext := range baseExtensions {
		out = append(out, "."+ext)
	}
	return out
}

func mainFields(native bool) []string {
	if native {
		return []string{"react-native", "browser", "main"}
	}
	return []string{"browser", "module", "main"}
}

var webAliases = map[string]string{
	"react-native$": "react-native-web",

	"react-native/Libraries/Components/View/ViewStylePropTypes$":     "react-native-web/dist/exports/View/ViewStylePropTypes",
	"react-native/Libraries/EventEmitter/RCTDeviceEventEmitter$":     "react-native-web/dist/vendor/react-native/NativeEventEmitter/RCTDeviceEventEmitter",
	"react-native/Libraries/vendor/emitter/EventEmitter$":            "react-native-web/dist/vendor/react-native/emitter/EventEmitter",
	"react-native/Libraries/vendor/emitter/EventSubscriptionVendor$": "react-native-web/dist/vendor/react-native/emitter/EventSubscriptionVendor",
	"react-native/Libraries/EventEmitter/NativeEventEmitter$":        "react-native-web/dist/vendor/react-native/NativeEventEmitter",
}

// aliases maps module requests to their replacements. Native builds pin
// react and react-native to the copies installed in the project, so both
// must be resolvable.
func aliases(b *buildContext) (map[string]string, error) {
	if !b.isNative {
		out := make(map[string]string, len(webAliases))
		for k, v := range webAliases {
			out[k] = v
		}
		return out, nil
	}

	rn, err := core.ResolvePackageDir(b.locs.Root, "react-native")
	if err != nil {
		return nil, err
	}
	react, err := core.ResolvePackageDir(b.locs.Root, "react")
	if err != nil {
		return nil, err
	}
	out := map[string]string{
		"react-native$": rn,
		"react-native":  rn,
		"react$":        react,
	}
	out["react-native/Libraries/Network/RCTNetworking"] = fmt.Sprintf("%s/Libraries/Network/RCTNetworking.%s.js", rn, b.env.Platform)
	if reactIs, err := core.ResolvePackageDir(b.locs.Root, "react-is"); err == nil {
		out["react-is$"] = reactIs
	}
	return out, nil
}

const (
	hotDevClientEntry     = "@expo/webpack-config/webpack/runtime/webpackHotDevClient"
	locationPolyfillEntry = "@expo/webpack-config/webpack/runtime/location-polyfill"
	loadScriptEntry       = "@expo/webpack-config/webpack/runtime/__webpack_require__.l"
)

// entries lists the bundle entry modules in load order.
func entries(b *buildContext) []string {
	var out []string
	if b.locs.AppMain != "" {
		out = append(out, b.locs.AppMain)
	}

	if !b.isNative {
		if p, err := core.ResolvePackageFile(b.locs.Root, "resize-observer-polyfill", "dist/ResizeObserver.global.js"); err == nil {
			out = append([]string{p}, out...)
		}
		return out
	}

	var prefix []string
	if b.isDev {
		prefix = append(prefix, hotDevClientEntry)
	}
	// aliases already proved react-native is installed.
	rn, _ := core.ResolvePackageDir(b.locs.Root, "react-native")
	if p, err := core.ResolvePackageFile(b.locs.Root, "react-native", "rn-get-polyfills.js"); err == nil {
		prefix = append(prefix, p, rn+"/Libraries/Core/InitializeCore.js")
	}

	out = append(prefix, out...)
	return append(out, locationPolyfillEntry, loadScriptEntry)
}
