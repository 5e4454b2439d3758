// internal/connector/invocation.go
package connector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/models"
)

// Request types of the direct invocation transport.
const (
	requestTypeLaunch                 = "LaunchRequest"
	requestTypeIntent                 = "IntentRequest"
	requestTypeSessionEnded           = "SessionEndedRequest"
	requestTypePlaybackNearlyFinished = "AudioPlayer.PlaybackNearlyFinished"
	requestTypePlaybackFailed         = "AudioPlayer.PlaybackFailed"
)

// invocationTurn sends one concrete skill request to the direct invocation
// endpoint and folds the response into a new session state. The connector is
// never mutated here; the resulting session travels in the result.
func (c *Connector) invocationTurn(ctx context.Context, msg *models.Message) turnResult {
	session := c.session.clone()
	request, session, err := c.buildInvocationRequest(session, msg)
	if err != nil {
		return turnResult{err: err, session: session}
	}

	response, err := c.client.Invoke(ctx, c.caps.SkillID, c.caps.EndpointRegion, request)
	if err != nil {
		return turnResult{err: err, session: session}
	}

	status := digString(response, "status")
	if status != simulationSuccessful {
		return turnResult{err: errors.NewInvocationFailure(digString(response, "result", "error", "message")), session: session}
	}
	if errMsg := digString(response, "result", "error", "message"); errMsg != "" {
		return turnResult{err: errors.NewInvocationFailure(errMsg), session: session}
	}

	body := digMap(response, "result", "skillExecutionInfo", "invocationResponse", "body")
	if body == nil {
		return turnResult{err: errors.NewProtocolError("invocation response missing skill response body"), session: session}
	}

	botMsg := normalizeResponseBody(body)
	session = session.applyResponse(c.caps, c.defaultUserID, body)
	return turnResult{botMsg: botMsg, session: session}
}

// buildInvocationRequest constructs the outgoing request from the given
// session and the template, returning the possibly replaced session. The
// request shape comes from one of three sources, in order: caller-supplied
// structured data merged verbatim, the configured text-intent/text-slot
// synthesis, or the "TYPE [INTENT]" message grammar.
func (c *Connector) buildInvocationRequest(session *invocationSession, msg *models.Message) (map[string]interface{}, *invocationSession, error) {
	shape, err := c.resolveRequestShape(msg)
	if err != nil {
		return nil, session, err
	}

	// A launch request starts over: reset the session before populating.
	if shape.requestType == requestTypeLaunch {
		session = newInvocationSession(c.caps, c.defaultUserID)
	}

	request := deepCopyMap(c.template)
	c.stampSession(request, session)
	c.stampRequest(request, session, shape)
	applyAudioEvent(request, session, shape.requestType)

	// Caller-supplied structured data wins over everything stamped above.
	if len(msg.SourceData) > 0 {
		deepMerge(request, msg.SourceData)
	}
	return request, session, nil
}

// requestShape is the resolved (type, intent) pair of one outgoing request.
type requestShape struct {
	requestType string
	intentName  string
	slotValue   string
	slotName    string
}

func (c *Connector) resolveRequestShape(msg *models.Message) (requestShape, error) {
	if len(msg.SourceData) > 0 {
		requestType := digString(msg.SourceData, "request", "type")
		if requestType == "" {
			requestType = requestTypeIntent
		}
		return requestShape{
			requestType: normalizeRequestType(requestType),
			intentName:  digString(msg.SourceData, "request", "intent", "name"),
		}, nil
	}

	if c.caps.InvocationTextIntent != "" {
		return requestShape{
			requestType: requestTypeIntent,
			intentName:  c.caps.InvocationTextIntent,
			slotName:    c.caps.InvocationTextSlot,
			slotValue:   msg.MessageText,
		}, nil
	}

	return parseRequestGrammar(msg.MessageText)
}

// parseRequestGrammar parses the message-text micro-format: a request type
// token, optionally followed by exactly one intent name token. A type token
// starting with "Launch" denotes a launch request. An intent request
// requires the intent token; all other types forbid it.
func parseRequestGrammar(text string) (requestShape, error) {
	fields := strings.Fields(text)
	switch {
	case len(fields) == 0:
		return requestShape{}, errors.NewProtocolError("empty message text, expected \"REQUEST_TYPE [INTENT_NAME]\"")
	case len(fields) > 2:
		return requestShape{}, errors.NewProtocolError(fmt.Sprintf(
			"cannot parse message text %q, expected \"REQUEST_TYPE [INTENT_NAME]\"", text))
	}

	requestType := normalizeRequestType(fields[0])
	var intentName string
	if len(fields) == 2 {
		intentName = fields[1]
	}

	if requestType == requestTypeIntent && intentName == "" {
		return requestShape{}, errors.NewProtocolError(fmt.Sprintf(
			"message text %q names an intent request without an intent name", text))
	}
	if requestType != requestTypeIntent && intentName != "" {
		return requestShape{}, errors.NewProtocolError(fmt.Sprintf(
			"message text %q supplies an intent name for request type %q", text, requestType))
	}
	return requestShape{requestType: requestType, intentName: intentName}, nil
}

// normalizeRequestType maps any launch-flavored token to the canonical
// launch request type.
func normalizeRequestType(token string) string {
	if strings.HasPrefix(token, "Launch") {
		return requestTypeLaunch
	}
	return token
}

// stampSession populates the session and context blocks from the given
// invocation session.
func (c *Connector) stampSession(request map[string]interface{}, session *invocationSession) {
	supportedInterfaces := map[string]interface{}{}
	if c.caps.AudioCapability {
		supportedInterfaces["AudioPlayer"] = map[string]interface{}{}
	}
	if c.caps.DisplayCapability {
		supportedInterfaces["Display"] = map[string]interface{}{}
	}

	attributes := make(map[string]interface{}, len(session.attributes))
	for k, v := range session.attributes {
		attributes[k] = v
	}

	request["session"] = map[string]interface{}{
		"new":         session.isNew,
		"sessionId":   session.sessionID,
		"application": map[string]interface{}{"applicationId": session.applicationID},
		"attributes":  attributes,
		"user":        map[string]interface{}{"userId": session.userID},
	}
	request["context"] = map[string]interface{}{
		"System": map[string]interface{}{
			"application": map[string]interface{}{"applicationId": session.applicationID},
			"user":        map[string]interface{}{"userId": session.userID},
			"device": map[string]interface{}{
				"deviceId":            session.deviceID,
				"supportedInterfaces": supportedInterfaces,
			},
		},
		"AudioPlayer": map[string]interface{}{
			"playerActivity":       session.audio.activity,
			"token":                session.audio.token,
			"offsetInMilliseconds": session.audio.offsetMs,
		},
	}
}

// stampRequest fills the request block: type, intent, a fresh unique
// request id and the current timestamp.
func (c *Connector) stampRequest(request map[string]interface{}, session *invocationSession, shape requestShape) {
	requestBlock, ok := request["request"].(map[string]interface{})
	if !ok {
		requestBlock = map[string]interface{}{}
		request["request"] = requestBlock
	}

	requestBlock["type"] = shape.requestType
	requestBlock["requestId"] = "amzn1.echo-api.request." + uuid.NewString()
	requestBlock["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	requestBlock["locale"] = session.locale

	if shape.requestType == requestTypeIntent {
		intent := map[string]interface{}{"name": shape.intentName}
		if shape.slotName != "" {
			intent["slots"] = map[string]interface{}{
				shape.slotName: map[string]interface{}{
					"name":  shape.slotName,
					"value": shape.slotValue,
				},
			}
		}
		requestBlock["intent"] = intent
	} else {
		delete(requestBlock, "intent")
	}
}

// applyAudioEvent attaches the last known stream token to audio-player
// event requests. Playback-failed events additionally carry a synthetic
// error payload and the current playback state. Any other request type has
// stale token and error fields stripped.
func applyAudioEvent(request map[string]interface{}, session *invocationSession, requestType string) {
	requestBlock, ok := request["request"].(map[string]interface{})
	if !ok {
		return
	}

	switch requestType {
	case requestTypePlaybackNearlyFinished:
		requestBlock["token"] = session.audio.token
		requestBlock["offsetInMilliseconds"] = session.audio.offsetMs
	case requestTypePlaybackFailed:
		requestBlock["token"] = session.audio.token
		requestBlock["error"] = map[string]interface{}{
			"type":    "MEDIA_ERROR_UNKNOWN",
			"message": "playback failed",
		}
		requestBlock["currentPlaybackState"] = map[string]interface{}{
			"token":                session.audio.token,
			"offsetInMilliseconds": session.audio.offsetMs,
			"playerActivity":       session.audio.activity,
		}
	default:
		delete(requestBlock, "token")
		delete(requestBlock, "offsetInMilliseconds")
		delete(requestBlock, "error")
		delete(requestBlock, "currentPlaybackState")
	}
}
