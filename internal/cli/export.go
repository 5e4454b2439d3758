// internal/cli/export.go
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"alexa-smapi-connector/internal/intents"
	"alexa-smapi-connector/internal/models"
	"alexa-smapi-connector/internal/smapi"
)

var (
	exportInput            string
	exportOutput           string
	exportGetJSON          bool
	exportInteractionModel string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Merge utterance files back into the interaction model",
	Long: `Reads the utterance files from the input directory and merges their
utterances into the skill's interaction model: new utterances are appended
to existing intents, unknown intents are created. The merged model is
uploaded, written to a file, or printed as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportGetJSON && exportOutput != "" {
			return fmt.Errorf("--getjson and --output are mutually exclusive")
		}

		caps, log, err := loadCapabilities()
		if err != nil {
			return err
		}

		sets, err := intents.ReadUtterancesDir(exportInput, log)
		if err != nil {
			return err
		}
		if len(sets) == 0 {
			return fmt.Errorf("no utterance files found in %s", exportInput)
		}

		client := smapi.NewClient(caps, log)
		exporter := intents.NewExporter(caps, client, log)

		model, err := exporter.Export(cmd.Context(), intents.ExportOptions{
			GetJSON:              exportGetJSON,
			OutputFile:           exportOutput,
			InteractionModelFile: exportInteractionModel,
		}, sets)
		if err != nil {
			return err
		}

		if exportGetJSON {
			data, err := json.MarshalIndent(&models.InteractionModelFile{InteractionModel: model}, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportInput, "input", "i", ".", "Directory holding the utterance files to merge")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write the merged interaction model to this file instead of uploading")
	exportCmd.Flags().BoolVar(&exportGetJSON, "getjson", false, "Print the merged interaction model as JSON instead of uploading")
	exportCmd.Flags().StringVar(&exportInteractionModel, "interactionmodel", "", "Merge into this local interaction model file instead of downloading it")
	rootCmd.AddCommand(exportCmd)
}
