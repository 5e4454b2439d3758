// internal/smapi/client.go
package smapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/common/httpclient"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/common/metrics"
	"alexa-smapi-connector/internal/models"
)

const (
	// Login with Amazon token endpoint, refresh-token grant.
	DefaultTokenURL = "https://api.amazon.com/auth/o2/token"

	apiVersion = "v1"

	stageDevelopment = "development"
)

// Client is a thin authenticated HTTP client for the skill-management
// service. Authenticate must be called before any other operation unless a
// ready-made access token was configured. No retry logic, callers decide.
type Client struct {
	caps       *config.Capabilities
	httpClient *httpclient.Client
	logger     logger.Logger

	tokenURL    string
	accessToken string
	tokenExpiry time.Time
}

// tokenResponse holds the response from the LWA token endpoint.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Error       string `json:"error"`
	ErrorDesc   string `json:"error_description"`
}

// NewClient creates a new skill-management API client.
func NewClient(caps *config.Capabilities, log logger.Logger) *Client {
	return &Client{
		caps:       caps,
		httpClient: httpclient.New(30 * time.Second),
		logger:     log.WithFields(map[string]interface{}{"component": "smapi"}),
		tokenURL:   DefaultTokenURL,
	}
}

// SetTokenURL overrides the LWA token endpoint. Used by tests.
func (c *Client) SetTokenURL(u string) {
	c.tokenURL = u
}

// Authenticate exchanges the stored refresh credential for a short-lived
// access token. A directly configured access token is used as-is. A still
// valid cached token is reused.
func (c *Client) Authenticate(ctx context.Context) error {
	if c.caps.AccessToken != "" {
		c.accessToken = c.caps.AccessToken
		return nil
	}
	if c.accessToken != "" && c.tokenExpiry.After(time.Now()) {
		return nil
	}
	if c.caps.RefreshToken == "" {
		return errors.NewAuthError("no refresh token or access token configured", nil)
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", c.caps.RefreshToken)
	data.Set("client_id", c.caps.ClientID)
	data.Set("client_secret", c.caps.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return errors.NewAuthError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewAuthError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewAuthError("failed to read token response", err)
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return errors.NewAuthError(fmt.Sprintf("unparseable token response: %s", string(body)), err)
	}
	if resp.StatusCode != http.StatusOK || token.AccessToken == "" {
		return errors.NewAuthError(fmt.Sprintf("token endpoint returned status %d: %s %s",
			resp.StatusCode, token.Error, token.ErrorDesc), nil)
	}

	c.accessToken = token.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	c.logger.Debug("access token refreshed", map[string]interface{}{
		"expiresIn": token.ExpiresIn,
	})
	return nil
}

// Get issues an authenticated GET against a versioned API path. The operation
// name labels the call metric and must come from a fixed set, never from
// request data.
func (c *Client) Get(ctx context.Context, operation, api string, query url.Values) (map[string]interface{}, error) {
	return c.call(ctx, http.MethodGet, operation, api, query, nil)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, operation, api string, query url.Values, body interface{}) (map[string]interface{}, error) {
	return c.call(ctx, http.MethodPost, operation, api, query, body)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, operation, api string, query url.Values, body interface{}) (map[string]interface{}, error) {
	return c.call(ctx, http.MethodPut, operation, api, query, body)
}

func (c *Client) call(ctx context.Context, method, operation, api string, query url.Values, body interface{}) (map[string]interface{}, error) {
	start := time.Now()
	defer func() {
		metrics.APICallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	uri := fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(c.caps.BaseURL, "/"), apiVersion, api)
	if len(query) > 0 {
		uri = uri + "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, uri, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewNetworkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.NewTransportError(resp.StatusCode, string(respBody))
	}

	if len(respBody) == 0 {
		return map[string]interface{}{}, nil
	}
	var result map[string]interface{}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, errors.NewProtocolError(fmt.Sprintf("unparseable JSON response from %s: %v", api, err))
	}
	return result, nil
}

// ==========================
// Endpoint helpers
// ==========================

// Vendor is one entry of the vendor listing.
type Vendor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SkillSummary is one entry of the skill listing.
type SkillSummary struct {
	SkillID      string            `json:"skillId"`
	NameByLocale map[string]string `json:"nameByLocale"`
}

// Vendors lists the vendor ids attached to the authenticated account.
func (c *Client) Vendors(ctx context.Context) ([]Vendor, error) {
	result, err := c.Get(ctx, "vendors", "vendors", nil)
	if err != nil {
		return nil, err
	}
	return decodeListField[Vendor](result, "vendors")
}

// ListSkills lists the skills of the configured vendor.
func (c *Client) ListSkills(ctx context.Context) ([]SkillSummary, error) {
	query := url.Values{}
	query.Set("vendorId", c.caps.VendorID)
	result, err := c.Get(ctx, "list_skills", "skills", query)
	if err != nil {
		return nil, err
	}
	return decodeListField[SkillSummary](result, "skills")
}

// GetInteractionModel fetches the interaction model for a skill stage and locale.
func (c *Client) GetInteractionModel(ctx context.Context, skillID, stage, locale string) (*models.InteractionModel, error) {
	if stage == "" {
		stage = stageDevelopment
	}
	result, err := c.Get(ctx, "get_interaction_model",
		fmt.Sprintf("skills/%s/stages/%s/interactionModel/locales/%s", skillID, stage, locale), nil)
	if err != nil {
		return nil, err
	}

	var file models.InteractionModelFile
	if err := remarshal(result, &file); err != nil {
		return nil, errors.NewProtocolError(fmt.Sprintf("unparseable interaction model: %v", err))
	}
	if file.InteractionModel == nil || file.InteractionModel.LanguageModel == nil {
		return nil, errors.NewProtocolError("interaction model response missing languageModel")
	}
	return file.InteractionModel, nil
}

// SetInteractionModel uploads a changed interaction model.
func (c *Client) SetInteractionModel(ctx context.Context, skillID, stage, locale string, model *models.InteractionModel) error {
	if stage == "" {
		stage = stageDevelopment
	}
	_, err := c.Put(ctx, "set_interaction_model",
		fmt.Sprintf("skills/%s/stages/%s/interactionModel/locales/%s", skillID, stage, locale),
		nil,
		models.InteractionModelFile{InteractionModel: model})
	return err
}

// Simulate submits free-text input to the cloud simulation endpoint and
// returns the raw response (carrying the simulation id).
func (c *Client) Simulate(ctx context.Context, skillID, locale, content string, forceNewSession bool) (map[string]interface{}, error) {
	mode := "DEFAULT"
	if forceNewSession {
		mode = "FORCE_NEW_SESSION"
	}
	return c.Post(ctx, "simulate", fmt.Sprintf("skills/%s/simulations", skillID), nil, map[string]interface{}{
		"session": map[string]interface{}{
			"mode": mode,
		},
		"input": map[string]interface{}{
			"content": content,
		},
		"device": map[string]interface{}{
			"locale": locale,
		},
	})
}

// SimulationStatus polls the status of a running simulation.
func (c *Client) SimulationStatus(ctx context.Context, skillID, simulationID string) (map[string]interface{}, error) {
	return c.Get(ctx, "simulation_status", fmt.Sprintf("skills/%s/simulations/%s", skillID, simulationID), nil)
}

// Invoke submits a concrete skill request to the direct invocation endpoint.
func (c *Client) Invoke(ctx context.Context, skillID, endpointRegion string, invocationRequest map[string]interface{}) (map[string]interface{}, error) {
	return c.Post(ctx, "invoke", fmt.Sprintf("skills/%s/invocations", skillID), nil, map[string]interface{}{
		"endpointRegion": endpointRegion,
		"skillRequest": map[string]interface{}{
			"body": invocationRequest,
		},
	})
}

func decodeListField[T any](result map[string]interface{}, field string) ([]T, error) {
	raw, ok := result[field]
	if !ok {
		return nil, errors.NewProtocolError(fmt.Sprintf("response missing %q field", field))
	}
	var out []T
	if err := remarshal(raw, &out); err != nil {
		return nil, errors.NewProtocolError(fmt.Sprintf("unparseable %q field: %v", field, err))
	}
	return out, nil
}

func remarshal(in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
