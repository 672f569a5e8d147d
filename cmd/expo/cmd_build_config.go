package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/webconfig"
)

var (
	buildPlatform string
	buildMode     string
	buildFormat   string
	buildPort     int
	buildHTTPS    bool
	buildWatch    bool
	buildNoPWA    bool
)

var buildConfigCmd = &cobra.Command{
	Use:   "build-config",
	Short: "Print the bundler configuration for a platform",
	Long: `Assembles the build configuration for the project and prints it.

Examples:
  expo build-config --platform web --mode production
  expo build-config --platform ios --format yaml
  expo build-config --platform web --watch`,
	RunE: runBuildConfig,
}

func init() {
	buildConfigCmd.Flags().StringVar(&buildPlatform, "platform", "web", "Target platform: web, ios, android or electron")
	buildConfigCmd.Flags().StringVar(&buildMode, "mode", "", "Build mode: production, development or none (default: NODE_ENV)")
	buildConfigCmd.Flags().StringVar(&buildFormat, "format", "json", "Output format: json or yaml")
	buildConfigCmd.Flags().IntVar(&buildPort, "port", webconfig.DefaultPort, "Dev server port")
	buildConfigCmd.Flags().BoolVar(&buildHTTPS, "https", false, "Serve over HTTPS")
	buildConfigCmd.Flags().BoolVar(&buildWatch, "watch", false, "Print a new configuration whenever the web template changes")
	buildConfigCmd.Flags().BoolVar(&buildNoPWA, "no-pwa", false, "Skip PWA asset generation")
}

func processEnv() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

func buildEnvironment(cmd *cobra.Command) (webconfig.Environment, error) {
	platform := core.Platform(buildPlatform)
	switch platform {
	case core.PlatformWeb, core.PlatformIOS, core.PlatformAndroid, core.PlatformElectron:
	default:
		return webconfig.Environment{}, core.NewCommandError(core.EUsage, fmt.Sprintf("unknown platform %q", buildPlatform))
	}

	app, err := webconfig.ReadAppConfig(projectRoot)
	if err != nil {
		return webconfig.Environment{}, err
	}

	env := webconfig.Environment{
		ProjectRoot: projectRoot,
		Platform:    platform,
		Mode:        core.Mode(buildMode),
		Port:        buildPort,
		HTTPS:       buildHTTPS,
		App:         app,
		ProcessEnv:  processEnv(),
		Debug:       settings.Debug || verbose,
		CI:          settings.CI,
		FastRefresh: true,
	}
	if cmd.Flags().Changed("no-pwa") {
		pwa := !buildNoPWA
		env.PWA = &pwa
	}
	return env, nil
}

func runBuildConfig(cmd *cobra.Command, args []string) error {
	if buildFormat != "json" && buildFormat != "yaml" {
		return core.NewCommandError(core.EUsage, fmt.Sprintf("unknown format %q", buildFormat))
	}
	env, err := buildEnvironment(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !buildWatch {
		cfg, err := webconfig.Assemble(env, webconfig.Arguments{})
		if err != nil {
			return err
		}
		logSkipped(cfg)
		return printConfig(out, cfg)
	}

	return webconfig.Watch(cmd.Context(), env, webconfig.Arguments{}, func(cfg *webconfig.Config, err error) {
		if err != nil {
			logger.Error("Failed to assemble build config", zap.Error(err))
			return
		}
		logSkipped(cfg)
		if err := printConfig(out, cfg); err != nil {
			logger.Error("Failed to print build config", zap.Error(err))
		}
	})
}

func logSkipped(cfg *webconfig.Config) {
	logger.Debug("Assembled build config",
		zap.String("platform", string(cfg.Platform)),
		zap.String("mode", string(cfg.Mode)),
		zap.Int("plugins", len(cfg.Plugins)),
		zap.Strings("skipped", cfg.SkippedSteps),
	)
}

func printConfig(w io.Writer, cfg *webconfig.Config) error {
	if buildFormat == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(cfg); err != nil {
			return err
		}
		return enc.Close()
	}
	return writeJSON(w, cfg)
}
