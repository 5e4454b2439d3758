// internal/intents/importer.go
package intents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/models"
	"alexa-smapi-connector/internal/slottypes"
)

// BuiltinIntentPrefix marks the vendor's reserved built-in intents, which
// are never imported.
const BuiltinIntentPrefix = "AMAZON."

// ModelClient is the subset of the SMAPI client used for model transfer.
type ModelClient interface {
	Authenticate(ctx context.Context) error
	GetInteractionModel(ctx context.Context, skillID, stage, locale string) (*models.InteractionModel, error)
	SetInteractionModel(ctx context.Context, skillID, stage, locale string, model *models.InteractionModel) error
}

// ImportOptions mirror the import command's flags.
type ImportOptions struct {
	BuildConvos          bool
	ExpandCustomSlots    bool
	ExpandBuiltinSlots   bool
	ExpandBuiltinSlotsID string
	SlotSamples          map[string][]string
	InteractionModelFile string
	Invocation           string
}

// UtteranceSet is the utterance list harvested for one intent.
type UtteranceSet struct {
	Name       string
	Utterances []string
}

// Convo is a minimal conversational-test fixture: one user turn equal to
// the intent name, asserting the bot recognizes that intent.
type Convo struct {
	Name  string
	Steps []ConvoStep
}

type ConvoStep struct {
	Sender      string
	MessageText string
	Asserters   []Asserter
}

type Asserter struct {
	Name string
	Args []string
}

// ImportResult bundles the harvested fixtures.
type ImportResult struct {
	Convos     []Convo
	Utterances []UtteranceSet
}

// Importer drives interaction-model harvesting: model fetch-or-file,
// intent traversal, slot expansion, fixture production.
type Importer struct {
	caps    *config.Capabilities
	client  ModelClient
	catalog *slottypes.Catalog
	logger  logger.Logger
}

func NewImporter(caps *config.Capabilities, client ModelClient, catalog *slottypes.Catalog, log logger.Logger) *Importer {
	return &Importer{
		caps:    caps,
		client:  client,
		catalog: catalog,
		logger:  log.WithFields(map[string]interface{}{"component": "importer"}),
	}
}

// Import harvests utterance sets (and optionally convo fixtures) for every
// non-built-in intent of the interaction model.
func (im *Importer) Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	builtinTypes := map[string][]string{}
	if opts.ExpandBuiltinSlots {
		languageID := opts.ExpandBuiltinSlotsID
		if languageID == "" {
			languageID = "en-us"
		}
		loaded, err := im.catalog.Load(ctx, languageID)
		if err != nil {
			// Built-in expansion is best effort during import, the harvest
			// itself still proceeds.
			im.logger.Warn("failed to load built-in slot types, skipping built-in expansion", map[string]interface{}{
				"language": languageID,
				"error":    err.Error(),
			})
		} else {
			builtinTypes = loaded
			im.logger.Info("loaded built-in slot types", map[string]interface{}{
				"language": languageID,
				"count":    len(builtinTypes),
			})
		}
	}

	model, err := im.loadModel(ctx, opts.InteractionModelFile)
	if err != nil {
		return nil, err
	}
	im.logger.Info("got interaction model", map[string]interface{}{
		"intents": len(model.LanguageModel.Intents),
	})

	customTypes := map[string][]string{}
	if opts.ExpandCustomSlots {
		for _, slotType := range model.LanguageModel.Types {
			customTypes[slotType.Name] = slotType.SampleValues()
		}
	}

	result := &ImportResult{}
	for _, intent := range model.LanguageModel.Intents {
		if strings.HasPrefix(intent.Name, BuiltinIntentPrefix) {
			im.logger.Debug("ignoring built-in intent", map[string]interface{}{"intent": intent.Name})
			continue
		}

		samples := append([]string{}, intent.Samples...)
		for _, slot := range intent.Slots {
			samples = append(samples, slot.Samples...)
		}

		if opts.ExpandCustomSlots || opts.ExpandBuiltinSlots {
			expander := slottypes.NewExpander(im.logger)
			expander.UserSamples = opts.SlotSamples
			if opts.ExpandBuiltinSlots {
				expander.Builtin = builtinTypes
			}
			if opts.ExpandCustomSlots {
				expander.Custom = customTypes
			}
			samples = expander.ExpandAll(samples, intent)
		} else {
			samples = dedupStrings(samples)
		}

		if opts.Invocation != "" {
			for i, sample := range samples {
				samples[i] = opts.Invocation + " " + sample
			}
		}

		result.Utterances = append(result.Utterances, UtteranceSet{
			Name:       intent.Name,
			Utterances: samples,
		})

		if opts.BuildConvos {
			result.Convos = append(result.Convos, Convo{
				Name: intent.Name,
				Steps: []ConvoStep{
					{Sender: "me", MessageText: intent.Name},
					{Sender: "bot", Asserters: []Asserter{
						{Name: "INTENT", Args: []string{intent.Name}},
					}},
				},
			})
		}
	}

	return result, nil
}

// loadModel obtains the interaction model from a local file verbatim, or
// fetched live from the development stage.
func (im *Importer) loadModel(ctx context.Context, file string) (*models.InteractionModel, error) {
	if file != "" {
		im.logger.Debug("reading interaction model from file", map[string]interface{}{"file": file})
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.NewModelLoadError(fmt.Sprintf("cannot read interaction model file %s", file), err)
		}
		var parsed models.InteractionModelFile
		if err := json.Unmarshal(data, &parsed); err != nil {
			return nil, errors.NewModelLoadError(fmt.Sprintf("unparseable interaction model file %s", file), err)
		}
		if parsed.InteractionModel == nil || parsed.InteractionModel.LanguageModel == nil {
			return nil, errors.NewModelLoadError(fmt.Sprintf("interaction model file %s missing languageModel", file), nil)
		}
		return parsed.InteractionModel, nil
	}

	im.logger.Debug("loading interaction model from skill-management API", nil)
	if err := im.client.Authenticate(ctx); err != nil {
		return nil, errors.NewModelLoadError("authentication failed", err)
	}
	model, err := im.client.GetInteractionModel(ctx, im.caps.SkillID, "development", im.caps.Locale)
	if err != nil {
		return nil, errors.NewModelLoadError("downloading interaction model failed", err)
	}
	return model, nil
}

func dedupStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
