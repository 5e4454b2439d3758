// internal/wizard/wizard_test.go
package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/smapi"
)

// ==========================
// Test Helpers
// ==========================

type fakeAccountClient struct {
	vendors []smapi.Vendor
	skills  []smapi.SkillSummary
	authErr error
}

func (f *fakeAccountClient) Authenticate(ctx context.Context) error {
	return f.authErr
}

func (f *fakeAccountClient) Vendors(ctx context.Context) ([]smapi.Vendor, error) {
	return f.vendors, nil
}

func (f *fakeAccountClient) ListSkills(ctx context.Context) ([]smapi.SkillSummary, error) {
	return f.skills, nil
}

func newTestWizard(t *testing.T, input string, client *fakeAccountClient) (*Wizard, *bytes.Buffer) {
	t.Helper()
	out := &bytes.Buffer{}
	w := New(strings.NewReader(input), out, logger.NewTestLogger(t))
	w.newClient = func(caps *config.Capabilities) AccountClient { return client }
	w.exchangeCode = func(ctx context.Context, clientID, clientSecret, code string) (string, error) {
		return "refresh-token-" + code, nil
	}
	return w, out
}

func readSettings(t *testing.T, path string) map[string]interface{} {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var settings map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &settings))
	return settings
}

// ==========================
// Wizard Tests
// ==========================

func TestWizard_SingleVendorFlow(t *testing.T) {
	client := &fakeAccountClient{
		vendors: []smapi.Vendor{{ID: "V1", Name: "Test Vendor"}},
		skills: []smapi.SkillSummary{
			{SkillID: "amzn1.ask.skill.one", NameByLocale: map[string]string{"en-US": "Weather Bot"}},
		},
	}
	// client id, client secret, auth code, skill selection
	w, out := newTestWizard(t, "my-client-id\nmy-secret\nauth-code\n1\n", client)
	configFile := filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, w.Run(context.Background(), configFile))

	settings := readSettings(t, configFile)
	assert.Equal(t, "my-client-id", settings["ALEXA_SMAPI_CLIENTID"])
	assert.Equal(t, "my-secret", settings["ALEXA_SMAPI_CLIENTSECRET"])
	assert.Equal(t, "refresh-token-auth-code", settings["ALEXA_SMAPI_REFRESHTOKEN"])
	assert.Equal(t, "V1", settings["ALEXA_SMAPI_VENDORID"])
	assert.Equal(t, "amzn1.ask.skill.one", settings["ALEXA_SMAPI_SKILLID"])
	assert.Contains(t, out.String(), "Test Vendor")
}

func TestWizard_MultiVendorSelectionRejectsOutOfRange(t *testing.T) {
	client := &fakeAccountClient{
		vendors: []smapi.Vendor{{ID: "V1", Name: "One"}, {ID: "V2", Name: "Two"}},
		skills: []smapi.SkillSummary{
			{SkillID: "amzn1.ask.skill.one", NameByLocale: map[string]string{"en-US": "Bot"}},
		},
	}
	// "5" and "x" are invalid vendor selections, "2" is accepted.
	w, _ := newTestWizard(t, "id\nsecret\ncode\n5\nx\n2\n1\n", client)
	configFile := filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, w.Run(context.Background(), configFile))

	settings := readSettings(t, configFile)
	assert.Equal(t, "V2", settings["ALEXA_SMAPI_VENDORID"])
}

func TestWizard_BlankPromptAnswersRejected(t *testing.T) {
	client := &fakeAccountClient{
		vendors: []smapi.Vendor{{ID: "V1", Name: "One"}},
		skills: []smapi.SkillSummary{
			{SkillID: "amzn1.ask.skill.one", NameByLocale: map[string]string{"en-US": "Bot"}},
		},
	}
	// Blank lines before the client id are skipped.
	w, _ := newTestWizard(t, "\n   \nid\nsecret\ncode\n1\n", client)
	configFile := filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, w.Run(context.Background(), configFile))
	assert.Equal(t, "id", readSettings(t, configFile)["ALEXA_SMAPI_CLIENTID"])
}

func TestWizard_ExhaustedInputAborts(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "input ends before first answer", input: ""},
		{name: "input ends during vendor selection", input: "id\nsecret\ncode\n5\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeAccountClient{
				vendors: []smapi.Vendor{{ID: "V1", Name: "One"}, {ID: "V2", Name: "Two"}},
			}
			w, _ := newTestWizard(t, tt.input, client)
			configFile := filepath.Join(t.TempDir(), "settings.json")

			done := make(chan error, 1)
			go func() {
				done <- w.Run(context.Background(), configFile)
			}()

			select {
			case err := <-done:
				require.Error(t, err)
				assert.ErrorIs(t, err, errInputClosed)
			case <-time.After(2 * time.Second):
				t.Fatal("wizard did not return after input was exhausted")
			}
		})
	}
}

func TestWizard_PreservesExistingSettings(t *testing.T) {
	client := &fakeAccountClient{
		vendors: []smapi.Vendor{{ID: "V1", Name: "One"}},
		skills: []smapi.SkillSummary{
			{SkillID: "amzn1.ask.skill.one", NameByLocale: map[string]string{"en-US": "Bot"}},
		},
	}
	w, _ := newTestWizard(t, "id\nsecret\ncode\n1\n", client)
	configFile := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(configFile, []byte(`{"ALEXA_SMAPI_LOCALE":"de-DE","ALEXA_SMAPI_CLIENTID":"stale"}`), 0o600))

	require.NoError(t, w.Run(context.Background(), configFile))

	settings := readSettings(t, configFile)
	assert.Equal(t, "de-DE", settings["ALEXA_SMAPI_LOCALE"])
	assert.Equal(t, "id", settings["ALEXA_SMAPI_CLIENTID"])
}

func TestWizard_NoVendorsSkipsSkillSelection(t *testing.T) {
	client := &fakeAccountClient{}
	w, out := newTestWizard(t, "id\nsecret\ncode\n", client)
	configFile := filepath.Join(t.TempDir(), "settings.json")

	require.NoError(t, w.Run(context.Background(), configFile))

	settings := readSettings(t, configFile)
	_, hasVendor := settings["ALEXA_SMAPI_VENDORID"]
	assert.False(t, hasVendor)
	assert.Contains(t, out.String(), "no vendor id")
}
