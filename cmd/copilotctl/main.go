package main

// Operations CLI for the copilot backend:
//   go run ./cmd/copilotctl migrate
//   go run ./cmd/copilotctl seed --env DEV --target mongo
//   go run ./cmd/copilotctl intents rank --copilot doors < scores.json

import (
	"os"

	"github.com/spf13/cobra"

	"warranty-copilot/internal/shared/config"
	"warranty-copilot/internal/shared/telemetry"
)

func newRootCmd(load func() config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "copilotctl",
		Short:         "Maintenance tasks for the warranty copilot backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(load),
		newSeedCmd(load),
		newIntentsCmd(load),
	)
	return root
}

func main() {
	defer telemetry.Sync()
	if err := newRootCmd(config.Load).Execute(); err != nil {
		telemetry.Error("copilotctl.failed", map[string]any{"error": err})
		os.Exit(1)
	}
}
