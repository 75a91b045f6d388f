package generator

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/xeipuuv/gojsonschema"
)

// workflowShapeSchema is a coarse gate applied before decoding: it rejects
// responses that are valid JSON but not even workflow-shaped, which keeps
// the decode error messages meaningful.
const workflowShapeSchema = `{
	"type": "object",
	"properties": {
		"name": {"type": "string"},
		"nodes": {"type": "array", "items": {"type": "object"}},
		"connections": {"type": "object"}
	}
}`

var shapeSchema = gojsonschema.NewStringLoader(workflowShapeSchema)

// parseWorkflowJSON runs the response through the parser pipeline: strip
// markdown fences and control characters, decode, and on failure retry once
// against a normalized extraction of the outermost JSON object.
func parseWorkflowJSON(text string) (*models.WorkflowGraph, error) {
	cleaned := stripNoise(text)

	graph, err := decodeWorkflow(cleaned)
	if err == nil {
		return graph, nil
	}

	normalized, ok := extractObject(cleaned)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGenerationParse, err)
	}

	graph, retryErr := decodeWorkflow(normalized)
	if retryErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrGenerationParse, retryErr)
	}

	return graph, nil
}

func decodeWorkflow(text string) (*models.WorkflowGraph, error) {
	result, err := gojsonschema.Validate(shapeSchema, gojsonschema.NewStringLoader(text))
	if err != nil {
		return nil, fmt.Errorf("response is not JSON: %w", err)
	}

	if !result.Valid() {
		issues := make([]string, 0, len(result.Errors()))
		for _, issue := range result.Errors() {
			issues = append(issues, issue.String())
		}

		return nil, fmt.Errorf("response is not workflow-shaped: %s", strings.Join(issues, "; "))
	}

	var graph models.WorkflowGraph
	if err := json.Unmarshal([]byte(text), &graph); err != nil {
		return nil, fmt.Errorf("decoding workflow: %w", err)
	}

	return &graph, nil
}

// stripNoise removes markdown code fences and non-printable control
// characters that providers occasionally emit around JSON.
func stripNoise(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")

	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			return -1
		}

		return r
	}, cleaned)

	return strings.TrimSpace(cleaned)
}

// extractObject returns the substring spanning the first '{' through the
// last '}', the usual shape of a JSON object wrapped in prose.
func extractObject(text string) (string, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start == -1 || end <= start {
		return "", false
	}

	return text[start : end+1], true
}
