// internal/intents/scripts.go
package intents

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"alexa-smapi-connector/internal/common/logger"
)

const (
	utterancesExt = ".utterances.txt"
	convoExt      = ".convo.txt"
)

// ScriptWriter persists harvested fixtures as line-oriented script files in
// a target directory.
type ScriptWriter struct {
	dir    string
	logger logger.Logger
}

func NewScriptWriter(dir string, log logger.Logger) *ScriptWriter {
	return &ScriptWriter{dir: dir, logger: log}
}

// WriteAll writes every fixture in the result. A failing file is logged and
// skipped so one bad entry does not lose the rest of the batch.
func (w *ScriptWriter) WriteAll(result *ImportResult) {
	for _, set := range result.Utterances {
		if err := w.WriteUtterances(set); err != nil {
			w.logger.Error("failed to write utterances file", map[string]interface{}{
				"intent": set.Name,
				"error":  err.Error(),
			})
			continue
		}
	}
	for _, convo := range result.Convos {
		if err := w.WriteConvo(convo); err != nil {
			w.logger.Error("failed to write convo file", map[string]interface{}{
				"convo": convo.Name,
				"error": err.Error(),
			})
			continue
		}
	}
}

// WriteUtterances writes one utterance set: first line the intent name,
// then one utterance per line.
func (w *ScriptWriter) WriteUtterances(set UtteranceSet) error {
	path := filepath.Join(w.dir, Slugify(set.Name)+utterancesExt)
	lines := append([]string{set.Name}, set.Utterances...)
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return err
	}
	w.logger.Info("wrote utterances file", map[string]interface{}{
		"file":  path,
		"count": len(set.Utterances),
	})
	return nil
}

// WriteConvo writes one convo fixture: the convo name, then blank-line
// separated #me / #bot sections.
func (w *ScriptWriter) WriteConvo(convo Convo) error {
	path := filepath.Join(w.dir, Slugify(convo.Name)+convoExt)

	var b strings.Builder
	b.WriteString(convo.Name)
	b.WriteString("\n")
	for _, step := range convo.Steps {
		b.WriteString("\n#")
		b.WriteString(step.Sender)
		b.WriteString("\n")
		if step.MessageText != "" {
			b.WriteString(step.MessageText)
			b.WriteString("\n")
		}
		for _, asserter := range step.Asserters {
			b.WriteString(asserter.Name)
			if len(asserter.Args) > 0 {
				b.WriteString(" ")
				b.WriteString(strings.Join(asserter.Args, "|"))
			}
			b.WriteString("\n")
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return err
	}
	w.logger.Info("wrote convo file", map[string]interface{}{"file": path})
	return nil
}

// ReadUtterancesDir loads every *.utterances.txt file from dir back into
// utterance sets, for feeding the exporter.
func ReadUtterancesDir(dir string, log logger.Logger) ([]UtteranceSet, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading script directory %s: %w", dir, err)
	}

	var sets []UtteranceSet
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), utterancesExt) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		set, err := readUtterancesFile(path)
		if err != nil {
			log.Error("failed to read utterances file", map[string]interface{}{
				"file":  path,
				"error": err.Error(),
			})
			continue
		}
		if set != nil {
			sets = append(sets, *set)
		}
	}
	return sets, nil
}

func readUtterancesFile(path string) (*UtteranceSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var set *UtteranceSet
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if set == nil {
			set = &UtteranceSet{Name: line}
			continue
		}
		set.Utterances = append(set.Utterances, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

// Slugify lowercases a fixture name and collapses every non-alphanumeric
// run into a single dash, producing a safe file name.
func Slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteRune('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
