// internal/connector/connector.go
//
// Connector bridging a conversational test harness to the skill-management
// service. One connector owns one logical test session; turns are strictly
// sequential.
package connector

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/common/metrics"
	"alexa-smapi-connector/internal/models"
)

// Lifecycle states.
type state int

const (
	stateIdle state = iota
	stateBuilt
	stateStarted
)

// SkillClient is the remote API surface the connector drives turns through.
// *smapi.Client satisfies it.
type SkillClient interface {
	Authenticate(ctx context.Context) error
	Simulate(ctx context.Context, skillID, locale, content string, forceNewSession bool) (map[string]interface{}, error)
	SimulationStatus(ctx context.Context, skillID, simulationID string) (map[string]interface{}, error)
	Invoke(ctx context.Context, skillID, endpointRegion string, invocationRequest map[string]interface{}) (map[string]interface{}, error)
}

// QueueBotSays delivers a normalized bot message back to the harness.
type QueueBotSays func(msg *models.BotMessage)

// turnResult carries the outcome of one turn goroutine together with the
// connector state transition it produced. The transition is applied only
// when the turn wins the race against the budget, so a goroutine abandoned
// by the timeout can never mutate the connector.
type turnResult struct {
	botMsg *models.BotMessage
	err    error

	// simulation transport: the forceNewSession value after this turn.
	forceNewSession bool
	// invocation transport: the session after this turn.
	session *invocationSession
}

// Connector is the session state machine. It is not safe for concurrent
// turns; the harness drives one turn at a time.
type Connector struct {
	caps         *config.Capabilities
	client       SkillClient
	queueBotSays QueueBotSays
	logger       logger.Logger

	state state

	// simulation transport: only the first turn after Start forces a new
	// server-side session.
	forceNewSession bool

	// invocation transport
	template      map[string]interface{}
	session       *invocationSession
	defaultUserID string
}

// New creates an idle connector. queueBotSays receives every normalized bot
// reply; it must not be nil.
func New(caps *config.Capabilities, client SkillClient, queueBotSays QueueBotSays, log logger.Logger) *Connector {
	return &Connector{
		caps:          caps,
		client:        client,
		queueBotSays:  queueBotSays,
		logger:        log.WithFields(map[string]interface{}{"component": "connector"}),
		defaultUserID: "amzn1.ask.account." + uuid.NewString(),
	}
}

// Validate checks the capability set. Failures are fatal ConfigErrors
// surfaced before any network call.
func (c *Connector) Validate() error {
	return c.caps.Validate()
}

// Build authenticates against the token endpoint and, for the invocation
// transport, resolves the request template.
func (c *Connector) Build(ctx context.Context) error {
	if err := c.Validate(); err != nil {
		return err
	}

	if c.caps.HasTokenCredentials() {
		if err := c.client.Authenticate(ctx); err != nil {
			return err
		}
	} else {
		c.logger.Warn("no token credentials configured, relying on local credential profile", map[string]interface{}{
			"profile": c.caps.AWSProfile,
		})
	}

	if c.caps.API == config.APIInvocation {
		template, err := loadRequestTemplate(c.caps)
		if err != nil {
			return err
		}
		c.template = template
	}

	c.state = stateBuilt
	c.logger.Info("connector built", map[string]interface{}{"api": c.caps.API})
	return nil
}

// Start begins a fresh test session: the simulation transport forces a new
// server-side session on the next turn, the invocation transport constructs
// a fresh local session object.
func (c *Connector) Start(ctx context.Context) error {
	if c.state == stateIdle {
		return errors.NewConfigError("connector not built")
	}

	switch c.caps.API {
	case config.APISimulation:
		c.forceNewSession = true
	case config.APIInvocation:
		c.session = newInvocationSession(c.caps, c.defaultUserID)
	}

	c.state = stateStarted
	return nil
}

// UserSays drives one turn: it dispatches the message to the active
// transport and delivers the normalized bot reply through the queue
// callback. The whole exchange races against the per-turn budget; when the
// timer wins the turn fails with a TimeoutError and any late reply is
// discarded, never delivered.
func (c *Connector) UserSays(ctx context.Context, msg *models.Message) error {
	if c.state != stateStarted {
		return errors.NewConfigError("connector not started")
	}

	start := time.Now()
	turnCtx, cancel := context.WithTimeout(ctx, c.caps.APITimeout())
	defer cancel()

	// One-slot buffer: a late completion parks here instead of blocking the
	// abandoned goroutine.
	done := make(chan turnResult, 1)

	go func() {
		switch c.caps.API {
		case config.APISimulation:
			done <- c.simulationTurn(turnCtx, msg)
		default:
			done <- c.invocationTurn(turnCtx, msg)
		}
	}()

	select {
	case <-turnCtx.Done():
		metrics.TurnsFailed.WithLabelValues(c.caps.API, string(errors.ErrCodeTimeout)).Inc()
		return errors.NewTimeoutError("user turn", c.caps.APITimeout())
	case result := <-done:
		if result.err != nil {
			if turnCtx.Err() != nil {
				metrics.TurnsFailed.WithLabelValues(c.caps.API, string(errors.ErrCodeTimeout)).Inc()
				return errors.NewTimeoutError("user turn", c.caps.APITimeout())
			}
			c.applyTurnResult(result)
			metrics.TurnsFailed.WithLabelValues(c.caps.API, string(errors.CodeOf(result.err))).Inc()
			return result.err
		}

		c.applyTurnResult(result)
		metrics.TurnsCompleted.WithLabelValues(c.caps.API).Inc()
		metrics.TurnDuration.WithLabelValues(c.caps.API).Observe(time.Since(start).Seconds())
		if result.botMsg != nil {
			c.queueBotSays(result.botMsg)
		}
		return nil
	}
}

// applyTurnResult folds the winning turn's state transition back into the
// connector. Runs only on the UserSays goroutine, never on a turn goroutine.
func (c *Connector) applyTurnResult(result turnResult) {
	switch c.caps.API {
	case config.APISimulation:
		c.forceNewSession = result.forceNewSession
	case config.APIInvocation:
		if result.session != nil {
			c.session = result.session
		}
	}
}

// Stop ends the active session. Idempotent, no persisted side effects.
func (c *Connector) Stop() error {
	if c.state == stateStarted {
		c.state = stateBuilt
	}
	c.session = nil
	c.forceNewSession = false
	return nil
}

// Clean releases the connector entirely. Idempotent.
func (c *Connector) Clean() error {
	if err := c.Stop(); err != nil {
		return err
	}
	c.state = stateIdle
	c.template = nil
	return nil
}

// String identifies the connector for log output.
func (c *Connector) String() string {
	return fmt.Sprintf("alexa-smapi(%s)", c.caps.API)
}
