// internal/connector/simulation.go
package connector

import (
	"context"
	"fmt"
	"time"

	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/common/metrics"
	"alexa-smapi-connector/internal/models"
)

// Simulation statuses reported by the poll endpoint.
const (
	simulationInProgress = "IN_PROGRESS"
	simulationSuccessful = "SUCCESSFUL"
	simulationFailed     = "FAILED"
)

// simulationTurn submits one free-text turn to the cloud simulation
// endpoint and polls until the simulation leaves IN_PROGRESS. Session
// continuity is managed server-side; only the first turn after Start forces
// a new session. The connector is never mutated here; the next
// forceNewSession value travels in the result.
func (c *Connector) simulationTurn(ctx context.Context, msg *models.Message) turnResult {
	forceNew := c.forceNewSession
	submitted, err := c.client.Simulate(ctx, c.caps.SkillID, c.caps.Locale, msg.MessageText, forceNew)
	if err != nil {
		return turnResult{err: err, forceNewSession: forceNew}
	}
	// The submit went through, so the next turn continues the session even
	// if this one fails further down.
	forceNew = false

	simulationID := digString(submitted, "id")
	if simulationID == "" {
		return turnResult{err: errors.NewProtocolError("simulation submit response missing id")}
	}
	c.logger.Debug("simulation created, polling for result", map[string]interface{}{
		"simulation_id": simulationID,
	})

	interval := c.caps.SimulationPollInterval()
	for {
		status, result, err := c.pollSimulation(ctx, simulationID)
		if err != nil {
			return turnResult{err: err}
		}

		switch status {
		case simulationInProgress:
			metrics.SimulationPolls.Inc()
			select {
			case <-ctx.Done():
				return turnResult{err: ctx.Err()}
			case <-time.After(interval):
			}
		case simulationSuccessful:
			botMsg, err := c.normalizeSimulationResult(simulationID, result)
			return turnResult{botMsg: botMsg, err: err}
		case simulationFailed:
			return turnResult{err: errors.NewSimulationFailure(simulationID, digString(result, "error", "message"))}
		default:
			return turnResult{err: errors.NewProtocolError(fmt.Sprintf(
				"simulation %s reported unrecognized status %q", simulationID, status))}
		}
	}
}

func (c *Connector) pollSimulation(ctx context.Context, simulationID string) (string, map[string]interface{}, error) {
	response, err := c.client.SimulationStatus(ctx, c.caps.SkillID, simulationID)
	if err != nil {
		return "", nil, err
	}
	status := digString(response, "status")
	if status == "" {
		return "", nil, errors.NewProtocolError(fmt.Sprintf(
			"simulation %s poll response missing status field", simulationID))
	}
	result := digMap(response, "result")
	return status, result, nil
}

func (c *Connector) normalizeSimulationResult(simulationID string, result map[string]interface{}) (*models.BotMessage, error) {
	body := digMap(result, "skillExecutionInfo", "invocationResponse", "body")
	if body == nil {
		return nil, errors.NewProtocolError(fmt.Sprintf(
			"simulation %s result missing invocation response body", simulationID))
	}

	botMsg := normalizeResponseBody(body)
	if execInfo := digMap(result, "alexaExecutionInfo"); execInfo != nil {
		botMsg.Intent = extractConsideredIntent(execInfo)
	}
	return botMsg, nil
}
