// internal/cli/root.go
package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/logger"
)

var (
	configFile  string
	verbose     bool
	metricsAddr string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "alexa-smapi",
	Short: "Drive Alexa skills through the Skill Management API for conversational testing",
	Long: `Connector tooling for testing Alexa skills through the Skill Management API.

The connector drives skill turns through the cloud simulation or direct
invocation endpoints and harvests interaction-model utterances as test
fixtures.

Quick Start:
  alexa-smapi init                    # Interactive credential and skill setup
  alexa-smapi import --buildconvos    # Harvest utterance and convo files
  alexa-smapi export                  # Merge utterance files back into the model`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if metricsAddr != "" {
			go func() {
				http.Handle("/metrics", promhttp.Handler())
				_ = http.ListenAndServe(metricsAddr, nil)
			}()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Connector settings file (default "+config.DefaultConfigFile+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
}

// loadCapabilities resolves the capability set for a command run.
func loadCapabilities() (*config.Capabilities, logger.Logger, error) {
	caps, err := config.Load(configFile)
	if err != nil {
		return nil, nil, err
	}
	level := caps.Logging.Level
	if verbose {
		level = "debug"
	}
	return caps, logger.NewStructured(level, caps.Logging.Format), nil
}
