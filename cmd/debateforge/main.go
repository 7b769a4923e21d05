// Package main is the entry point for the debateforge CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the debateforge CLI.
var rootCmd = &cobra.Command{
	Use:   "debateforge",
	Short: "Adversarial product debate engine",
	Long: `debateforge runs adversarial product debates over a known-product corpus.
An Opportunity Seeker proposes bounded deviations from the corpus, a
Skeptical Builder attacks their feasibility, and a convergence engine
ranks survivors round by round until a candidate clears the composite
and margin thresholds or the round budget runs out.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./debateforge.yaml or ~/.config/debateforge/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("debateforge")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "debateforge"))
		}
	}

	viper.SetEnvPrefix("DEBATEFORGE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
