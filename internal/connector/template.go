// internal/connector/template.go
package connector

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"alexa-smapi-connector/internal/common/config"
	"alexa-smapi-connector/internal/common/errors"
)

//go:embed invocation_request_template.json
var defaultRequestTemplate []byte

//go:embed invocation_request_schema.json
var requestTemplateSchema []byte

// loadRequestTemplate resolves the invocation request template: an inline
// JSON override, a template file, or the bundled default. Overrides are
// validated against the request schema before use.
func loadRequestTemplate(caps *config.Capabilities) (map[string]interface{}, error) {
	raw := defaultRequestTemplate
	source := "bundled default"

	switch {
	case caps.InvocationRequestTemplate != "":
		raw = []byte(caps.InvocationRequestTemplate)
		source = "inline capability"
	case caps.InvocationRequestTemplateFile != "":
		data, err := os.ReadFile(caps.InvocationRequestTemplateFile)
		if err != nil {
			return nil, errors.NewConfigError(fmt.Sprintf(
				"cannot read invocation request template file %s: %v",
				caps.InvocationRequestTemplateFile, err))
		}
		raw = data
		source = caps.InvocationRequestTemplateFile
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(requestTemplateSchema),
		gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf(
			"invocation request template from %s is not valid JSON: %v", source, err))
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, errors.NewConfigError(fmt.Sprintf(
			"invocation request template from %s failed schema validation: %s",
			source, strings.Join(details, "; ")))
	}

	var template map[string]interface{}
	if err := json.Unmarshal(raw, &template); err != nil {
		return nil, errors.NewConfigError(fmt.Sprintf(
			"invocation request template from %s is not valid JSON: %v", source, err))
	}
	return template, nil
}
