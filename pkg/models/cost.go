package models

import "time"

// CostRecord is one entry of the in-session cost ledger. The ledger is a
// bounded in-memory buffer used for reporting, never a billing system of
// record.
type CostRecord struct {
	Model        string     `json:"model"`
	InputTokens  int        `json:"input_tokens"`
	OutputTokens int        `json:"output_tokens"`
	InputCost    float64    `json:"input_cost"`
	OutputCost   float64    `json:"output_cost"`
	TotalCost    float64    `json:"total_cost"`
	Timestamp    time.Time  `json:"timestamp"`
	Tier         PlanTier   `json:"tier,omitempty"`
	Complexity   Complexity `json:"complexity,omitempty"`
	JobID        string     `json:"job_id,omitempty"`
	Success      bool       `json:"success"`
}

// ContextConfig bounds how much reference documentation is embedded in a
// generation prompt. Computed per attempt and discarded after use.
type ContextConfig struct {
	WorkflowType   string     `json:"workflow_type"`
	Complexity     Complexity `json:"complexity"`
	NodeCount      int        `json:"node_count"`
	CharsPerDoc    int        `json:"chars_per_doc"`
	FocusNodeTypes []string   `json:"focus_node_types"`
	FocusAreas     []string   `json:"focus_areas"`
}
