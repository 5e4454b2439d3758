// internal/connector/normalize.go
package connector

import (
	"alexa-smapi-connector/internal/models"
)

// normalizeResponseBody converts a skill response body (the vendor JSON
// under "response") into the generic bot-message shape: spoken or displayed
// text, cards, and audio directives surfaced as media.
func normalizeResponseBody(body map[string]interface{}) *models.BotMessage {
	botMsg := &models.BotMessage{
		Sender:     "bot",
		SourceData: body,
	}

	response := digMap(body, "response")
	if response == nil {
		return botMsg
	}

	if text := digString(response, "outputSpeech", "text"); text != "" {
		botMsg.MessageText = text
	} else if ssml := digString(response, "outputSpeech", "ssml"); ssml != "" {
		botMsg.MessageText = ssml
	}

	if card := digMap(response, "card"); card != nil {
		botMsg.Cards = append(botMsg.Cards, &models.Card{
			Text:     digString(card, "title"),
			Subtext:  digString(card, "subtitle"),
			Content:  cardContent(card),
			ImageURI: cardImage(card),
		})
	}

	directives, _ := response["directives"].([]interface{})
	for _, raw := range directives {
		directive, ok := raw.(map[string]interface{})
		if !ok || directive["type"] != "AudioPlayer.Play" {
			continue
		}
		if streamURL := digString(directive, "audioItem", "stream", "url"); streamURL != "" {
			botMsg.Media = append(botMsg.Media, &models.Media{
				MediaURI: streamURL,
				MimeType: "audio/mpeg",
			})
		}
	}

	return botMsg
}

func cardContent(card map[string]interface{}) string {
	if content := digString(card, "content"); content != "" {
		return content
	}
	return digString(card, "text")
}

func cardImage(card map[string]interface{}) string {
	if large := digString(card, "image", "largeImageUrl"); large != "" {
		return large
	}
	return digString(card, "image", "smallImageUrl")
}

// extractConsideredIntent surfaces the skill's recognized intent from a
// simulation result's execution info, if reported.
func extractConsideredIntent(alexaExecutionInfo map[string]interface{}) *models.RecognizedIntent {
	considered, _ := alexaExecutionInfo["consideredIntents"].([]interface{})
	if len(considered) == 0 {
		return nil
	}
	first, ok := considered[0].(map[string]interface{})
	if !ok {
		return nil
	}

	intent := &models.RecognizedIntent{Name: digString(first, "name")}
	if slots := digMap(first, "slots"); len(slots) > 0 {
		intent.Slots = make(map[string]string, len(slots))
		for name, raw := range slots {
			if slot, ok := raw.(map[string]interface{}); ok {
				intent.Slots[name] = digString(slot, "value")
			}
		}
	}
	return intent
}
