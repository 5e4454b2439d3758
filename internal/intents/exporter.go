// internal/intents/exporter.go
package intents

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/models"
)

// ExportOptions mirror the export command's flags. Exactly one of GetJSON,
// OutputFile, or the implicit live upload takes effect.
type ExportOptions struct {
	GetJSON              bool
	OutputFile           string
	InteractionModelFile string
}

// Exporter merges harvested utterance sets back into an interaction model.
type Exporter struct {
	caps   *config.Capabilities
	client ModelClient
	logger logger.Logger
}

func NewExporter(caps *config.Capabilities, client ModelClient, log logger.Logger) *Exporter {
	return &Exporter{
		caps:   caps,
		client: client,
		logger: log.WithFields(map[string]interface{}{"component": "exporter"}),
	}
}

// Export loads the current model, merges the utterance sets into it, and
// delivers the result to the selected target. The merged model is returned
// for all targets.
//
// Merging is additive by exact string match: samples already present on an
// intent are left alone, new ones are appended, existing samples are never
// removed. Utterance sets naming an unknown intent create that intent.
func (ex *Exporter) Export(ctx context.Context, opts ExportOptions, sets []UtteranceSet) (*models.InteractionModel, error) {
	model, err := ex.loadModel(ctx, opts.InteractionModelFile)
	if err != nil {
		return nil, err
	}

	for _, set := range sets {
		intent := model.LanguageModel.FindIntent(set.Name)
		if intent == nil {
			intent = &models.Intent{Name: set.Name}
			model.LanguageModel.Intents = append(model.LanguageModel.Intents, intent)
			ex.logger.Info("creating new intent", map[string]interface{}{"intent": set.Name})
		}
		added := 0
		for _, utterance := range set.Utterances {
			if containsString(intent.Samples, utterance) {
				continue
			}
			intent.Samples = append(intent.Samples, utterance)
			added++
		}
		ex.logger.Debug("merged utterances", map[string]interface{}{
			"intent": set.Name,
			"added":  added,
		})
	}

	switch {
	case opts.GetJSON:
		return model, nil
	case opts.OutputFile != "":
		if err := ex.writeModelFile(opts.OutputFile, model); err != nil {
			return nil, err
		}
		ex.logger.Info("wrote interaction model", map[string]interface{}{"file": opts.OutputFile})
		return model, nil
	default:
		if err := ex.upload(ctx, model); err != nil {
			return nil, err
		}
		return model, nil
	}
}

func (ex *Exporter) loadModel(ctx context.Context, file string) (*models.InteractionModel, error) {
	if file != "" {
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

	if err := ex.client.Authenticate(ctx); err != nil {
		return nil, errors.NewModelLoadError("authentication failed", err)
	}
	model, err := ex.client.GetInteractionModel(ctx, ex.caps.SkillID, "development", ex.caps.Locale)
	if err != nil {
		return nil, errors.NewModelLoadError("downloading interaction model failed", err)
	}
	return model, nil
}

func (ex *Exporter) upload(ctx context.Context, model *models.InteractionModel) error {
	if err := ex.client.Authenticate(ctx); err != nil {
		return errors.NewModelLoadError("authentication failed", err)
	}
	if err := ex.client.SetInteractionModel(ctx, ex.caps.SkillID, "development", ex.caps.Locale, model); err != nil {
		return err
	}
	ex.logger.Info("uploaded interaction model", map[string]interface{}{
		"skill_id": ex.caps.SkillID,
		"locale":   ex.caps.Locale,
	})
	return nil
}

func (ex *Exporter) writeModelFile(path string, model *models.InteractionModel) error {
	data, err := json.MarshalIndent(&models.InteractionModelFile{InteractionModel: model}, "", "  ")
	if err != nil {
		return errors.NewModelLoadError("serializing interaction model failed", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.NewModelLoadError(fmt.Sprintf("cannot write interaction model file %s", path), err)
	}
	return nil
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
