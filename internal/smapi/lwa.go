// internal/smapi/lwa.go
package smapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/common/httpclient"
)

// Login with Amazon constants for the authorization-code flow used by the
// setup wizard.
const (
	LWAAuthorizeURL      = "https://www.amazon.com/ap/oa"
	LWAResponseParserURL = "https://s3.amazonaws.com/ask-cli/response_parser.html"
	LWADefaultScopes     = "alexa::ask:skills:readwrite alexa::ask:models:readwrite alexa::ask:skills:test"
	lwaDefaultState      = "Ask-SkillModel-ReadWrite"
)

// AuthorizeURL builds the browser URL the user visits to obtain an
// authorization code.
func AuthorizeURL(clientID string) string {
	query := url.Values{}
	query.Set("client_id", clientID)
	query.Set("response_type", "code")
	query.Set("redirect_uri", LWAResponseParserURL)
	query.Set("scope", LWADefaultScopes)
	query.Set("state", lwaDefaultState)
	return LWAAuthorizeURL + "?" + query.Encode()
}

// ExchangeAuthorizationCode trades a pasted authorization code for a
// refresh token at the LWA token endpoint.
func ExchangeAuthorizationCode(ctx context.Context, tokenURL, clientID, clientSecret, code string) (string, error) {
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}

	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("client_id", clientID)
	data.Set("client_secret", clientSecret)
	data.Set("redirect_uri", LWAResponseParserURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return "", errors.NewAuthError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := httpclient.New(30 * time.Second)
	resp, err := client.Do(req)
	if err != nil {
		return "", errors.NewAuthError("token request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewAuthError("failed to read token response", err)
	}

	var token struct {
		RefreshToken string `json:"refresh_token"`
		Error        string `json:"error"`
		ErrorDesc    string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &token); err != nil {
		return "", errors.NewAuthError(fmt.Sprintf("unparseable token response: %s", string(body)), err)
	}
	if resp.StatusCode != http.StatusOK || token.RefreshToken == "" {
		return "", errors.NewAuthError(fmt.Sprintf("token endpoint returned status %d: %s %s",
			resp.StatusCode, token.Error, token.ErrorDesc), nil)
	}
	return token.RefreshToken, nil
}
