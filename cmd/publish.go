package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/linkwatch/internal/config"
	"github.com/conneroisu/linkwatch/internal/publish"
)

// publishCmd represents the publish command
var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Copy the build output directory to the publish destination",
	Long: `Publish performs one emission's publish step outside of a watch session:
the configured build output directory is recursively copied into the publish
destination, overwriting same-named entries. The first publish of a process
resets a pre-existing destination; later publishes leave stray entries alone.`,
	RunE: runPublishCommand,
}

func init() {
	rootCmd.AddCommand(publishCmd)
}

func runPublishCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	publisher := publish.NewPublisher(cfg.Publish.BuildDir, cfg.Publish.Destination, newLogger(cfg))
	if !publisher.Enabled() {
		return fmt.Errorf("no publish destination configured; set publish.destination in .linkwatch.yml")
	}

	return publisher.Publish(cmd.Context())
}
