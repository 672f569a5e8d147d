package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axeldelafosse/expo-cli/client"
	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/nativemodules"
	"github.com/axeldelafosse/expo-cli/internal/npm"
	"github.com/axeldelafosse/expo-cli/internal/webconfig"
)

var (
	sdkVersion string
	showPURLs  bool
	checkDeps  bool
	jsonOutput bool
)

var nativeModulesCmd = &cobra.Command{
	Use:   "native-modules [package...]",
	Short: "Show the native module versions bundled with an SDK",
	Long: `Prints the bundled native modules map for the project's SDK version.

With package arguments, resolves the version each would be installed at:
the bundled range when the SDK ships it, the npm "latest" tag otherwise.

Examples:
  expo native-modules --sdk-version 50.0.0
  expo native-modules --check
  expo native-modules expo-camera lodash@4`,
	RunE: runNativeModules,
}

func init() {
	nativeModulesCmd.Flags().StringVar(&sdkVersion, "sdk-version", "", "SDK version (default: app.json sdkVersion)")
	nativeModulesCmd.Flags().BoolVar(&showPURLs, "purl", false, "Print package URLs")
	nativeModulesCmd.Flags().BoolVar(&checkDeps, "check", false, "Report installed packages outside the bundled ranges")
	nativeModulesCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
}

func newAccessor() *nativemodules.Accessor {
	return nativemodules.New(httpClient,
		nativemodules.WithURLs(client.APIURLs(settings.APIURL)),
		nativemodules.WithLogger(logger),
		nativemodules.WithOffline(settings.Offline),
		nativemodules.WithRegistry(npm.New(settings.NpmRegistryURL, httpClient)),
	)
}

func runNativeModules(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	version := sdkVersion
	if version == "" {
		app, err := webconfig.ReadAppConfig(projectRoot)
		if err != nil {
			return err
		}
		version = app.SDKVersion
	}
	if version == "" {
		return core.NewCommandError(core.EUsage, "no SDK version: pass --sdk-version or set sdkVersion in app.json")
	}

	accessor := newAccessor()
	bundled, err := accessor.Get(ctx, projectRoot, version)
	if err != nil {
		return err
	}
	logger.Debug("Loaded bundled native modules", zap.String("sdkVersion", version), zap.Int("count", len(bundled)))

	switch {
	case len(args) > 0:
		specs, err := accessor.Resolve(ctx, bundled, args)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, specs)
		}
		for _, s := range specs {
			fmt.Fprintln(out, s.String())
		}
		return nil

	case checkDeps:
		names := make([]string, 0, len(bundled))
		for name := range bundled {
			names = append(names, name)
		}
		slices.Sort(names)
		installed, err := nativemodules.InstalledVersions(projectRoot, names)
		if err != nil {
			return err
		}
		mismatches := nativemodules.Check(bundled, installed)
		if jsonOutput {
			return writeJSON(out, mismatches)
		}
		if len(mismatches) == 0 {
			fmt.Fprintln(out, "All installed native modules match the SDK.")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "PACKAGE\tINSTALLED\tEXPECTED\tREASON")
		for _, m := range mismatches {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", m.Name, m.Installed, m.Expected, m.Reason)
		}
		return w.Flush()

	default:
		entries, err := nativemodules.Entries(bundled)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, entries)
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		for _, e := range entries {
			if showPURLs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Name, e.Version, e.PURL)
			} else {
				fmt.Fprintf(w, "%s\t%s\n", e.Name, e.Version)
			}
		}
		return w.Flush()
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
