package models

import "encoding/json"

// PlatformN8N is the only automation platform currently emitted.
const PlatformN8N = "n8n"

// AutomationArtifact is the deliverable handed to the persistence sink once
// a graph has passed validation.
type AutomationArtifact struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Platform     string          `json:"platform"`
	WorkflowJSON json.RawMessage `json:"workflow_json"`
	Instructions string          `json:"instructions"`
	Metadata     map[string]any  `json:"metadata,omitempty"`
}
