// internal/models/message.go
package models

// Message is a user turn delivered by the test harness. MessageText carries
// the free-text input; SourceData optionally carries a structured payload
// that the invocation transport merges verbatim into the outgoing request.
type Message struct {
	Sender      string                 `json:"sender"`
	MessageText string                 `json:"messageText"`
	SourceData  map[string]interface{} `json:"sourceData,omitempty"`
}

// BotMessage is the normalized reply delivered back to the harness through
// the queue callback. SourceData retains the raw vendor payload for
// diagnostics.
type BotMessage struct {
	Sender      string            `json:"sender"`
	MessageText string            `json:"messageText"`
	Media       []*Media          `json:"media,omitempty"`
	Cards       []*Card           `json:"cards,omitempty"`
	Intent      *RecognizedIntent `json:"intent,omitempty"`
	SourceData  interface{}       `json:"sourceData,omitempty"`
}

// Media references audio surfaced by the skill (audio-player directives).
type Media struct {
	MediaURI string `json:"mediaUri"`
	MimeType string `json:"mimeType,omitempty"`
}

// Card is a structured card attached to a skill response.
type Card struct {
	Text     string `json:"text,omitempty"`
	Subtext  string `json:"subtext,omitempty"`
	Content  string `json:"content,omitempty"`
	ImageURI string `json:"imageUri,omitempty"`
}

// RecognizedIntent is the skill's recognized intent annotation.
type RecognizedIntent struct {
	Name  string            `json:"name"`
	Slots map[string]string `json:"slots,omitempty"`
}
