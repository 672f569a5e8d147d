package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/axeldelafosse/expo-cli/client"
	"github.com/axeldelafosse/expo-cli/internal/core"
	"github.com/axeldelafosse/expo-cli/internal/devsession"
	"github.com/axeldelafosse/expo-cli/internal/user"
	"github.com/axeldelafosse/expo-cli/internal/webconfig"
)

var sessionRuntime string

var devSessionCmd = &cobra.Command{
	Use:   "dev-session",
	Short: "Report a running development session until interrupted",
	Long: `Notifies the API that the project is being served, immediately and
then periodically, until the command is interrupted. Requires a signed-in
user; without one the command exits quietly.`,
	RunE: runDevSession,
}

func init() {
	devSessionCmd.Flags().StringVar(&sessionRuntime, "runtime", string(core.RuntimeNative), "Runtime being served: "+runtimeList())
}

func runDevSession(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	app, err := webconfig.ReadAppConfig(projectRoot)
	if err != nil {
		return err
	}

	runtime := core.Runtime(sessionRuntime)
	if _, err := devsession.RuntimeURL(ctx, projectRoot, runtime); core.CodeOf(err) == core.EUnsupported {
		return err
	}

	users := user.NewManager(settings.StateDir, httpClient, user.WithURLs(client.APIURLs(settings.APIURL)))
	heartbeat := devsession.NewHeartbeat(users, users,
		devsession.WithInterval(settings.HeartbeatInterval),
		devsession.WithOffline(settings.Offline),
		devsession.WithLogger(logger),
	)

	sess := devsession.NewSession(projectRoot, app.Descriptor(), runtime)
	heartbeat.Start(ctx, sess, true)
	defer heartbeat.Stop(sess)

	if !sess.Active() {
		logger.Debug("Dev session not started", zap.Bool("offline", settings.Offline))
		return nil
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Reporting %s dev session for %s. Press Ctrl+C to stop.\n", runtime, app.Name)
	<-ctx.Done()
	return nil
}

func runtimeList() string {
	runtimes := devsession.SupportedRuntimes()
	names := make([]string, len(runtimes))
	for i, r := range runtimes {
		names[i] = string(r)
	}
	return strings.Join(names, ", ")
}
