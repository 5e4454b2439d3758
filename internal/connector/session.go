// internal/connector/session.go
package connector

import (
	"github.com/google/uuid"

	"alexa-smapi-connector/internal/common/config"
)

// Audio player activities tracked across invocation turns.
const (
	playerActivityIdle    = "IDLE"
	playerActivityPlaying = "PLAYING"
	playerActivityStopped = "STOPPED"
)

// audioPlayerState is the in-memory audio sub-state of one invocation
// session. It is only consulted to populate the token field of outgoing
// audio-player event requests.
type audioPlayerState struct {
	activity string
	token    string
	offsetMs float64
}

// invocationSession is the mutable per-session state owned exclusively by
// the connector. All mutation goes through the transition methods below,
// never ad hoc field writes.
type invocationSession struct {
	sessionID     string
	isNew         bool
	applicationID string
	locale        string
	attributes    map[string]interface{}
	userID        string
	deviceID      string
	audio         audioPlayerState
}

// newInvocationSession constructs a fresh session for the given
// capabilities. The defaultUserID is reused across resets unless user-id
// rotation is enabled.
func newInvocationSession(caps *config.Capabilities, defaultUserID string) *invocationSession {
	userID := defaultUserID
	if caps.RefreshUserID {
		userID = "amzn1.ask.account." + uuid.NewString()
	}
	return &invocationSession{
		sessionID:     "SessionId." + uuid.NewString(),
		isNew:         true,
		applicationID: caps.SkillID,
		locale:        caps.Locale,
		attributes:    map[string]interface{}{},
		userID:        userID,
		deviceID:      "amzn1.ask.device." + uuid.NewString(),
		audio:         audioPlayerState{activity: playerActivityIdle},
	}
}

// clone returns an independent copy. Turn goroutines work on a copy, so a
// turn abandoned by the timeout cannot reach the connector's session.
func (s *invocationSession) clone() *invocationSession {
	out := *s
	out.attributes = make(map[string]interface{}, len(s.attributes))
	for k, v := range s.attributes {
		out.attributes[k] = v
	}
	return &out
}

// applyResponse transitions the session after a successful invocation turn.
// An end-of-session signal resets the whole session; otherwise the session
// stops being new and returned attributes are merged into the stored ones,
// never replacing unrelated keys.
func (s *invocationSession) applyResponse(caps *config.Capabilities, defaultUserID string, body map[string]interface{}) *invocationSession {
	response := digMap(body, "response")
	if response != nil {
		if end, ok := response["shouldEndSession"].(bool); ok && end {
			return newInvocationSession(caps, defaultUserID)
		}
	}

	s.isNew = false
	if attrs := digMap(body, "sessionAttributes"); attrs != nil {
		for k, v := range attrs {
			s.attributes[k] = v
		}
	}

	if caps.KeepAudioPlayerState && response != nil {
		s.applyAudioDirectives(response)
	}
	return s
}

// applyAudioDirectives folds any audio-player directives of a response into
// the audio sub-state: a play directive sets activity PLAYING and updates
// token/offset when provided, a stop directive sets activity STOPPED and
// resets the offset to 0.
func (s *invocationSession) applyAudioDirectives(response map[string]interface{}) {
	directives, _ := response["directives"].([]interface{})
	for _, raw := range directives {
		directive, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		switch directive["type"] {
		case "AudioPlayer.Play":
			s.audio.activity = playerActivityPlaying
			if token := digString(directive, "audioItem", "stream", "token"); token != "" {
				s.audio.token = token
			}
			if offset, ok := digValue(directive, "audioItem", "stream", "offsetInMilliseconds").(float64); ok {
				s.audio.offsetMs = offset
			}
		case "AudioPlayer.Stop":
			s.audio.activity = playerActivityStopped
			s.audio.offsetMs = 0
		}
	}
}
