package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/linkwatch/internal/config"
)

var initForce bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:     "init",
	Aliases: []string{"i"},
	Short:   "Write a default .linkwatch.yml in the current directory",
	RunE:    runInitCommand,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing .linkwatch.yml")
}

func runInitCommand(cmd *cobra.Command, args []string) error {
	const configPath = ".linkwatch.yml"

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	defaults := config.Config{
		Packages: []config.PackageConfig{
			{
				Name:   "my-package",
				Root:   "./node_modules/my-package",
				Source: "../my-package",
			},
		},
		Watch: config.WatchConfig{
			PollIntervalMs: config.DefaultPollIntervalMs,
			ExcludeMarker:  config.DefaultExcludeMarker,
		},
		Publish: config.PublishConfig{
			BuildDir:    "./build",
			Destination: "",
		},
		Reload: config.ReloadConfig{
			Enabled: false,
			Host:    "localhost",
			Port:    7332,
		},
		Log: config.LogConfig{
			Level:  "info",
			Format: "text",
		},
	}

	data, err := yaml.Marshal(&defaults)
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}

	header := []byte("# linkwatch configuration\n# Packages are scanned in declaration order; the first containing root wins.\n")
	if err := os.WriteFile(configPath, append(header, data...), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Wrote", configPath)

	return nil
}
