// Package cmd provides the command-line interface for linkwatch.
//
// Configuration is loaded from multiple sources with clear precedence:
//  1. Command-line flags (--config, --log-level, etc.) - highest priority
//  2. LINKWATCH_CONFIG_FILE environment variable - custom config file path
//  3. Individual environment variables (LINKWATCH_WATCH_POLL_INTERVAL_MS, etc.)
//  4. Configuration files (.linkwatch.yml) - lowest priority
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "linkwatch",
	Short: "Watch filtering and mirror synchronization for linked packages",
	Long: `Linkwatch sits between a build pipeline's file watcher and the OS
file-change mechanism. It restricts live change detection to a whitelisted
set of package roots, reports every other path as present-and-unchanged, and
keeps locally watched files synchronized from their canonical source
directories by polling.

Quick Start:
  linkwatch init                  Write a default .linkwatch.yml
  linkwatch watch                 Start a filtered watch session
  linkwatch publish               Copy build output to the publish destination`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept underscores in flag names so flags line up with config keys.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .linkwatch.yml, can also use LINKWATCH_CONFIG_FILE env var)")
	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// initConfig initializes the configuration system. Missing or malformed
// config files fall back to defaults without failing; configuration errors
// surface later through config.Load validation.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if envConfigFile := os.Getenv("LINKWATCH_CONFIG_FILE"); envConfigFile != "" {
		viper.SetConfigFile(envConfigFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".linkwatch")
	}

	viper.SetEnvPrefix("LINKWATCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
