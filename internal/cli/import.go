// internal/cli/import.go
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"alexa-smapi-connector/internal/intents"
	"alexa-smapi-connector/internal/slottypes"
	"alexa-smapi-connector/internal/smapi"
)

var (
	importOutput           string
	importBuildConvos      bool
	importExpandCustom     bool
	importExpandBuiltin    bool
	importExpandBuiltinID  string
	importSlotSamples      []string
	importInteractionModel string
	importInvocation       string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Harvest interaction-model utterances as test fixtures",
	Long: `Downloads the skill's interaction model (or reads a local file) and writes
one utterances file per intent, optionally expanding slot placeholders with
sample values and emitting a convo fixture per intent.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		caps, log, err := loadCapabilities()
		if err != nil {
			return err
		}

		slotSamples, err := parseSlotSamples(importSlotSamples)
		if err != nil {
			return err
		}

		client := smapi.NewClient(caps, log)
		catalog := slottypes.NewCatalog(log)
		importer := intents.NewImporter(caps, client, catalog, log)

		result, err := importer.Import(cmd.Context(), intents.ImportOptions{
			BuildConvos:          importBuildConvos,
			ExpandCustomSlots:    importExpandCustom,
			ExpandBuiltinSlots:   importExpandBuiltin,
			ExpandBuiltinSlotsID: importExpandBuiltinID,
			SlotSamples:          slotSamples,
			InteractionModelFile: importInteractionModel,
			Invocation:           importInvocation,
		})
		if err != nil {
			return err
		}

		intents.NewScriptWriter(importOutput, log).WriteAll(result)
		return nil
	},
}

// parseSlotSamples parses repeated "slotName=value1|value2" flags.
func parseSlotSamples(flags []string) (map[string][]string, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	samples := make(map[string][]string, len(flags))
	for _, flag := range flags {
		name, values, found := strings.Cut(flag, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("invalid slot samples %q, expected \"slotName=value1|value2\"", flag)
		}
		samples[name] = strings.Split(values, "|")
	}
	return samples, nil
}

func init() {
	importCmd.Flags().StringVarP(&importOutput, "output", "o", ".", "Directory to write utterance and convo files to")
	importCmd.Flags().BoolVar(&importBuildConvos, "buildconvos", false, "Write a convo fixture per intent in addition to utterance files")
	importCmd.Flags().BoolVar(&importExpandCustom, "expandcustomslots", true, "Expand slot placeholders with custom slot type values from the model")
	importCmd.Flags().BoolVar(&importExpandBuiltin, "expandbuiltinslots", true, "Expand slot placeholders with built-in slot type sample values")
	importCmd.Flags().StringVar(&importExpandBuiltinID, "expandbuiltinslotsid", "en-us", "Language id for built-in slot type samples")
	importCmd.Flags().StringArrayVar(&importSlotSamples, "slotsamples", nil, `Slot samples to use for expansion ("slotName=value1|value2", repeatable)`)
	importCmd.Flags().StringVar(&importInteractionModel, "interactionmodel", "", "Read the interaction model from this file instead of downloading it")
	importCmd.Flags().StringVar(&importInvocation, "invocation", "", "Prefix every utterance with this invocation phrase")
	rootCmd.AddCommand(importCmd)
}
