// internal/cli/init.go
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/wizard"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactive connector setup",
	Long: `Walks through credential setup: creating an Amazon security profile,
obtaining a refresh token, and selecting vendor id and skill. The result is
persisted into the connector settings file, keeping existing entries.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logger.NewStructured("warn", "console")
		target := configFile
		if target == "" {
			target = config.DefaultConfigFile
		}
		return wizard.New(os.Stdin, os.Stdout, log).Run(cmd.Context(), target)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
