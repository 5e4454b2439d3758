// internal/intents/importer_test.go
package intents

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/errors"
	"alexa-smapi-connector/internal/common/logger"
	"alexa-smapi-connector/internal/models"
	"alexa-smapi-connector/internal/slottypes"
)

// ==========================
// Test Helpers
// ==========================

type fakeModelClient struct {
	model       *models.InteractionModel
	authErr     error
	getErr      error
	setErr      error
	uploaded    *models.InteractionModel
	authCalls   int
	getCalls    int
	uploadCalls int
}

func (f *fakeModelClient) Authenticate(ctx context.Context) error {
	f.authCalls++
	return f.authErr
}

func (f *fakeModelClient) GetInteractionModel(ctx context.Context, skillID, stage, locale string) (*models.InteractionModel, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.model, nil
}

func (f *fakeModelClient) SetInteractionModel(ctx context.Context, skillID, stage, locale string, model *models.InteractionModel) error {
	f.uploadCalls++
	if f.setErr != nil {
		return f.setErr
	}
	f.uploaded = model
	return nil
}

func testModel() *models.InteractionModel {
	return &models.InteractionModel{
		LanguageModel: &models.LanguageModel{
			InvocationName: "weather bot",
			Intents: []*models.Intent{
				{
					Name:    "GetWeatherIntent",
					Samples: []string{"what is the weather", "weather in {City}"},
					Slots: []*models.Slot{
						{Name: "City", Type: "CITY_TYPE", Samples: []string{"tell me about {City}"}},
					},
				},
				{Name: "AMAZON.HelpIntent", Samples: []string{"help"}},
				{Name: "ByeIntent", Samples: []string{"bye", "bye"}},
			},
			Types: []*models.SlotType{
				{Name: "CITY_TYPE", Values: []*models.SlotTypeValue{
					{Name: &models.SlotTypeName{Value: "berlin"}},
					{Name: &models.SlotTypeName{Value: "tokyo"}},
				}},
			},
		},
	}
}

func newTestImporter(t *testing.T, client ModelClient) *Importer {
	t.Helper()
	caps := &config.Capabilities{SkillID: "amzn1.ask.skill.test", Locale: "en-US"}
	return NewImporter(caps, client, slottypes.NewCatalog(logger.NewTestLogger(t)), logger.NewTestLogger(t))
}

func writeModelFile(t *testing.T, model *models.InteractionModel) string {
	t.Helper()
	data, err := json.Marshal(&models.InteractionModelFile{InteractionModel: model})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

// ==========================
// Importer Tests
// ==========================

func TestImport_SkipsBuiltinIntents(t *testing.T) {
	client := &fakeModelClient{model: testModel()}
	im := newTestImporter(t, client)

	result, err := im.Import(context.Background(), ImportOptions{})
	require.NoError(t, err)

	names := make([]string, 0, len(result.Utterances))
	for _, set := range result.Utterances {
		names = append(names, set.Name)
	}
	assert.Equal(t, []string{"GetWeatherIntent", "ByeIntent"}, names)
	assert.Equal(t, 1, client.authCalls)
	assert.Equal(t, 1, client.getCalls)
}

func TestImport_GathersIntentAndSlotSamples(t *testing.T) {
	im := newTestImporter(t, &fakeModelClient{model: testModel()})

	result, err := im.Import(context.Background(), ImportOptions{})
	require.NoError(t, err)

	require.NotEmpty(t, result.Utterances)
	assert.Equal(t, []string{
		"what is the weather",
		"weather in {City}",
		"tell me about {City}",
	}, result.Utterances[0].Utterances)
}

func TestImport_DeduplicatesWithoutExpansion(t *testing.T) {
	im := newTestImporter(t, &fakeModelClient{model: testModel()})

	result, err := im.Import(context.Background(), ImportOptions{})
	require.NoError(t, err)

	bye := result.Utterances[1]
	assert.Equal(t, "ByeIntent", bye.Name)
	assert.Equal(t, []string{"bye"}, bye.Utterances)
}

func TestImport_ExpandsCustomSlots(t *testing.T) {
	im := newTestImporter(t, &fakeModelClient{model: testModel()})

	result, err := im.Import(context.Background(), ImportOptions{ExpandCustomSlots: true})
	require.NoError(t, err)

	utterances := result.Utterances[0].Utterances
	assert.Contains(t, utterances, "weather in berlin")
	assert.Contains(t, utterances, "weather in tokyo")
	assert.Contains(t, utterances, "tell me about berlin")
	for _, u := range utterances {
		assert.NotContains(t, u, "{")
	}
}

func TestImport_UserSamplesWinOverCustom(t *testing.T) {
	im := newTestImporter(t, &fakeModelClient{model: testModel()})

	result, err := im.Import(context.Background(), ImportOptions{
		ExpandCustomSlots: true,
		SlotSamples:       map[string][]string{"City": {"oslo"}},
	})
	require.NoError(t, err)

	utterances := result.Utterances[0].Utterances
	assert.Contains(t, utterances, "weather in oslo")
	assert.NotContains(t, utterances, "weather in berlin")
}

func TestImport_InvocationPrefix(t *testing.T) {
	im := newTestImporter(t, &fakeModelClient{model: testModel()})

	result, err := im.Import(context.Background(), ImportOptions{Invocation: "ask weather bot"})
	require.NoError(t, err)

	for _, set := range result.Utterances {
		for _, u := range set.Utterances {
			assert.True(t, len(u) > len("ask weather bot "))
			assert.Equal(t, "ask weather bot ", u[:len("ask weather bot ")])
		}
	}
}

func TestImport_BuildConvos(t *testing.T) {
	im := newTestImporter(t, &fakeModelClient{model: testModel()})

	result, err := im.Import(context.Background(), ImportOptions{BuildConvos: true})
	require.NoError(t, err)

	require.Len(t, result.Convos, 2)
	convo := result.Convos[0]
	assert.Equal(t, "GetWeatherIntent", convo.Name)
	require.Len(t, convo.Steps, 2)
	assert.Equal(t, "me", convo.Steps[0].Sender)
	assert.Equal(t, "GetWeatherIntent", convo.Steps[0].MessageText)
	assert.Equal(t, "bot", convo.Steps[1].Sender)
	require.Len(t, convo.Steps[1].Asserters, 1)
	assert.Equal(t, "INTENT", convo.Steps[1].Asserters[0].Name)
	assert.Equal(t, []string{"GetWeatherIntent"}, convo.Steps[1].Asserters[0].Args)
}

func TestImport_FromFileSkipsRemoteFetch(t *testing.T) {
	client := &fakeModelClient{}
	im := newTestImporter(t, client)
	path := writeModelFile(t, testModel())

	result, err := im.Import(context.Background(), ImportOptions{InteractionModelFile: path})
	require.NoError(t, err)
	assert.Len(t, result.Utterances, 2)
	assert.Zero(t, client.authCalls)
	assert.Zero(t, client.getCalls)
}

func TestImport_ModelLoadFailures(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeModelClient
		opts   ImportOptions
	}{
		{
			name:   "auth failure",
			client: &fakeModelClient{authErr: errors.NewAuthError("bad refresh token", nil)},
		},
		{
			name:   "download failure",
			client: &fakeModelClient{getErr: errors.NewTransportError(500, "boom")},
		},
		{
			name:   "missing file",
			client: &fakeModelClient{},
			opts:   ImportOptions{InteractionModelFile: "/nonexistent/model.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			im := newTestImporter(t, tt.client)
			_, err := im.Import(context.Background(), tt.opts)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeModelLoad, errors.CodeOf(err))
		})
	}
}

func TestImport_BuiltinCatalogFailureIsNonFatal(t *testing.T) {
	im := newTestImporter(t, &fakeModelClient{model: testModel()})

	// An unsupported language makes the catalog load fail before any network
	// access; the import logs a warning and proceeds without built-ins.
	result, err := im.Import(context.Background(), ImportOptions{
		ExpandBuiltinSlots:   true,
		ExpandBuiltinSlotsID: "xx-unsupported",
	})
	require.NoError(t, err)
	assert.Len(t, result.Utterances, 2)
}
