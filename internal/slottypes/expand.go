// internal/slottypes/expand.go
package slottypes

import (
	"regexp"
	"strings"

	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/models"
)

var slotPlaceholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// cardinalityWarnThreshold is the expanded-set size above which the
// combinatorial blow-up is logged.
const cardinalityWarnThreshold = 1000

// ExtractSlotNames returns the slot placeholder names of an utterance in
// left-to-right order. Duplicates are preserved, they expand independently.
func ExtractSlotNames(utterance string) []string {
	matches := slotPlaceholderRe.FindAllStringSubmatch(utterance, -1)
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, m[1])
	}
	return names
}

// ExpandSlot substitutes the leftmost occurrence of the literal {slotName}
// placeholder with each sample, one output string per sample.
func ExpandSlot(utterance, slotName string, samples []string) []string {
	placeholder := "{" + slotName + "}"
	out := make([]string, 0, len(samples))
	for _, sample := range samples {
		out = append(out, strings.Replace(utterance, placeholder, sample, 1))
	}
	return out
}

// Expander produces the fully expanded utterance set for sample utterance
// templates. Sample sources per slot, in precedence order: user-supplied
// samples by slot name, built-in catalog samples by slot type, custom-model
// samples by slot type. A slot with no applicable source stays untouched.
type Expander struct {
	logger logger.Logger

	UserSamples map[string][]string
	Builtin     map[string][]string
	Custom      map[string][]string
}

func NewExpander(log logger.Logger) *Expander {
	return &Expander{
		logger: log.WithFields(map[string]interface{}{"component": "expander"}),
	}
}

// samplesFor resolves the sample list for one placeholder, or nil when no
// source applies.
func (e *Expander) samplesFor(slotName string, slot *models.Slot) []string {
	if samples, ok := e.UserSamples[slotName]; ok && len(samples) > 0 {
		return samples
	}
	if slot == nil {
		return nil
	}
	if samples, ok := e.Builtin[slot.Type]; ok && len(samples) > 0 {
		return samples
	}
	if samples, ok := e.Custom[slot.Type]; ok && len(samples) > 0 {
		return samples
	}
	return nil
}

// Expand expands one utterance template against the intent's slot
// declarations. The result is a deduplicated set, first-seen order.
func (e *Expander) Expand(utterance string, intent *models.Intent) []string {
	expanded := []string{utterance}

	for _, slotName := range ExtractSlotNames(utterance) {
		var slot *models.Slot
		if intent != nil {
			slot = intent.FindSlot(slotName)
		}

		samples := e.samplesFor(slotName, slot)
		if len(samples) == 0 {
			slotType := ""
			if slot != nil {
				slotType = slot.Type
			}
			e.logger.Warn("slot has no sample source, placeholder left untouched", map[string]interface{}{
				"utterance": utterance,
				"slot":      slotName,
				"slotType":  slotType,
			})
			continue
		}

		next := make([]string, 0, len(expanded)*len(samples))
		for _, partial := range expanded {
			next = append(next, ExpandSlot(partial, slotName, samples)...)
		}
		expanded = next

		if len(expanded) > cardinalityWarnThreshold {
			e.logger.Warn("utterance expansion is combinatorial", map[string]interface{}{
				"utterance": utterance,
				"size":      len(expanded),
			})
		}
	}

	return dedup(expanded)
}

// ExpandAll expands every sample of an intent and returns the deduplicated
// union.
func (e *Expander) ExpandAll(samples []string, intent *models.Intent) []string {
	var all []string
	for _, sample := range samples {
		all = append(all, e.Expand(sample, intent)...)
	}
	return dedup(all)
}

func dedup(in []string) []string {
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
