// internal/intents/exporter_test.go
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
)

func newTestExporter(t *testing.T, client ModelClient) *Exporter {
	t.Helper()
	caps := &config.Capabilities{SkillID: "amzn1.ask.skill.test", Locale: "en-US"}
	return NewExporter(caps, client, logger.NewTestLogger(t))
}

// ==========================
// Exporter Tests
// ==========================

func TestExport_MergesByExactString(t *testing.T) {
	client := &fakeModelClient{model: testModel()}
	ex := newTestExporter(t, client)

	model, err := ex.Export(context.Background(), ExportOptions{GetJSON: true}, []UtteranceSet{
		{Name: "GetWeatherIntent", Utterances: []string{
			"what is the weather", // already present, not duplicated
			"is it raining",
		}},
	})
	require.NoError(t, err)

	intent := model.LanguageModel.FindIntent("GetWeatherIntent")
	require.NotNil(t, intent)
	assert.Equal(t, []string{
		"what is the weather",
		"weather in {City}",
		"is it raining",
	}, intent.Samples)
}

func TestExport_CreatesMissingIntent(t *testing.T) {
	ex := newTestExporter(t, &fakeModelClient{model: testModel()})

	model, err := ex.Export(context.Background(), ExportOptions{GetJSON: true}, []UtteranceSet{
		{Name: "BrandNewIntent", Utterances: []string{"something new"}},
	})
	require.NoError(t, err)

	intent := model.LanguageModel.FindIntent("BrandNewIntent")
	require.NotNil(t, intent)
	assert.Equal(t, []string{"something new"}, intent.Samples)
}

func TestExport_GetJSONDoesNotUpload(t *testing.T) {
	client := &fakeModelClient{model: testModel()}
	ex := newTestExporter(t, client)

	_, err := ex.Export(context.Background(), ExportOptions{GetJSON: true}, nil)
	require.NoError(t, err)
	assert.Zero(t, client.uploadCalls)
}

func TestExport_WritesOutputFile(t *testing.T) {
	client := &fakeModelClient{model: testModel()}
	ex := newTestExporter(t, client)
	out := filepath.Join(t.TempDir(), "merged.json")

	_, err := ex.Export(context.Background(), ExportOptions{OutputFile: out}, []UtteranceSet{
		{Name: "ByeIntent", Utterances: []string{"see you"}},
	})
	require.NoError(t, err)
	assert.Zero(t, client.uploadCalls)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var parsed models.InteractionModelFile
	require.NoError(t, json.Unmarshal(data, &parsed))
	intent := parsed.InteractionModel.LanguageModel.FindIntent("ByeIntent")
	require.NotNil(t, intent)
	assert.Contains(t, intent.Samples, "see you")
}

func TestExport_UploadsByDefault(t *testing.T) {
	client := &fakeModelClient{model: testModel()}
	ex := newTestExporter(t, client)

	_, err := ex.Export(context.Background(), ExportOptions{}, []UtteranceSet{
		{Name: "ByeIntent", Utterances: []string{"see you"}},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, client.uploadCalls)
	require.NotNil(t, client.uploaded)
	assert.Contains(t, client.uploaded.LanguageModel.FindIntent("ByeIntent").Samples, "see you")
}

func TestExport_ModelFromFile(t *testing.T) {
	client := &fakeModelClient{}
	ex := newTestExporter(t, client)
	path := writeModelFile(t, testModel())

	model, err := ex.Export(context.Background(), ExportOptions{GetJSON: true, InteractionModelFile: path}, nil)
	require.NoError(t, err)
	assert.NotNil(t, model.LanguageModel.FindIntent("GetWeatherIntent"))
	assert.Zero(t, client.getCalls)
}

func TestExport_AuthFailure(t *testing.T) {
	ex := newTestExporter(t, &fakeModelClient{authErr: errors.NewAuthError("expired", nil)})

	_, err := ex.Export(context.Background(), ExportOptions{}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeModelLoad, errors.CodeOf(err))
}
