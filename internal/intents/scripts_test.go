// internal/intents/scripts_test.go
package intents

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alexa-smapi-connector/internal/common/logger"
)

// ==========================
// Slugify Tests
// ==========================

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GetWeatherIntent", "getweatherintent"},
		{"Get Weather Intent", "get-weather-intent"},
		{"What's up?", "what-s-up"},
		{"  spaced  ", "spaced"},
		{"--already--", "already"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

// ==========================
// Script Writer Tests
// ==========================

func TestWriteUtterances_Format(t *testing.T) {
	dir := t.TempDir()
	w := NewScriptWriter(dir, logger.NewTestLogger(t))

	err := w.WriteUtterances(UtteranceSet{
		Name:       "GetWeatherIntent",
		Utterances: []string{"what is the weather", "is it raining"},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "getweatherintent.utterances.txt"))
	require.NoError(t, err)
	assert.Equal(t, "GetWeatherIntent\nwhat is the weather\nis it raining\n", string(data))
}

func TestWriteConvo_Format(t *testing.T) {
	dir := t.TempDir()
	w := NewScriptWriter(dir, logger.NewTestLogger(t))

	err := w.WriteConvo(Convo{
		Name: "GetWeatherIntent",
		Steps: []ConvoStep{
			{Sender: "me", MessageText: "GetWeatherIntent"},
			{Sender: "bot", Asserters: []Asserter{{Name: "INTENT", Args: []string{"GetWeatherIntent"}}}},
		},
	})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "getweatherintent.convo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "GetWeatherIntent\n\n#me\nGetWeatherIntent\n\n#bot\nINTENT GetWeatherIntent\n", string(data))
}

func TestWriteAll_ContinuesPastFailures(t *testing.T) {
	dir := t.TempDir()
	w := NewScriptWriter(dir, logger.NewTestLogger(t))

	// Pointing the writer at a missing subdirectory forces a write failure.
	w.dir = filepath.Join(dir, "missing")
	w.WriteAll(&ImportResult{
		Utterances: []UtteranceSet{{Name: "A", Utterances: []string{"a"}}},
	})

	w.dir = dir
	w.WriteAll(&ImportResult{
		Utterances: []UtteranceSet{{Name: "B", Utterances: []string{"b"}}},
	})
	_, err := os.Stat(filepath.Join(dir, "b.utterances.txt"))
	assert.NoError(t, err)
}

// ==========================
// Script Reader Tests
// ==========================

func TestReadUtterancesDir_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	w := NewScriptWriter(dir, logger.NewTestLogger(t))
	require.NoError(t, w.WriteUtterances(UtteranceSet{
		Name:       "GetWeatherIntent",
		Utterances: []string{"what is the weather"},
	}))
	require.NoError(t, w.WriteUtterances(UtteranceSet{
		Name:       "ByeIntent",
		Utterances: []string{"bye", "see you"},
	}))
	// Unrelated files are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	sets, err := ReadUtterancesDir(dir, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.Len(t, sets, 2)

	byName := map[string][]string{}
	for _, set := range sets {
		byName[set.Name] = set.Utterances
	}
	assert.Equal(t, []string{"what is the weather"}, byName["GetWeatherIntent"])
	assert.Equal(t, []string{"bye", "see you"}, byName["ByeIntent"])
}

func TestReadUtterancesDir_SkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	content := "MyIntent\n\n  hello there  \n\nbye\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "myintent.utterances.txt"), []byte(content), 0o644))

	sets, err := ReadUtterancesDir(dir, logger.NewTestLogger(t))
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, "MyIntent", sets[0].Name)
	assert.Equal(t, []string{"hello there", "bye"}, sets[0].Utterances)
}
