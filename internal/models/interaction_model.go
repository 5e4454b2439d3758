// internal/models/interaction_model.go
package models

// InteractionModelFile is the top-level JSON document as stored on disk and
// returned by the skill-management API.
type InteractionModelFile struct {
	InteractionModel *InteractionModel `json:"interactionModel"`
}

// InteractionModel is the vendor's description of a skill's intents, slots
// and slot types.
type InteractionModel struct {
	LanguageModel *LanguageModel `json:"languageModel"`
}

type LanguageModel struct {
	InvocationName string      `json:"invocationName,omitempty"`
	Intents        []*Intent   `json:"intents"`
	Types          []*SlotType `json:"types,omitempty"`
}

// Intent is a named user-goal category with sample utterances and slots.
type Intent struct {
	Name    string   `json:"name"`
	Samples []string `json:"samples"`
	Slots   []*Slot  `json:"slots,omitempty"`
}

// Slot is a typed named placeholder within an utterance.
type Slot struct {
	Name    string   `json:"name"`
	Type    string   `json:"type"`
	Samples []string `json:"samples,omitempty"`
}

// SlotType is a custom type definition with its enumerated values.
type SlotType struct {
	Name   string           `json:"name"`
	Values []*SlotTypeValue `json:"values"`
}

type SlotTypeValue struct {
	ID   string        `json:"id,omitempty"`
	Name *SlotTypeName `json:"name"`
}

type SlotTypeName struct {
	Value    string   `json:"value"`
	Synonyms []string `json:"synonyms,omitempty"`
}

// SampleValues flattens a custom slot type into the list of value names and
// synonyms usable for utterance expansion.
func (t *SlotType) SampleValues() []string {
	var samples []string
	for _, v := range t.Values {
		if v == nil || v.Name == nil {
			continue
		}
		samples = append(samples, v.Name.Value)
		samples = append(samples, v.Name.Synonyms...)
	}
	return samples
}

// FindIntent returns the intent with the given name, or nil.
func (m *LanguageModel) FindIntent(name string) *Intent {
	for _, intent := range m.Intents {
		if intent.Name == name {
			return intent
		}
	}
	return nil
}

// FindSlot returns the slot declaration with the given name, or nil.
func (i *Intent) FindSlot(name string) *Slot {
	for _, slot := range i.Slots {
		if slot.Name == name {
			return slot
		}
	}
	return nil
}
