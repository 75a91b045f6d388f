package models

import "time"

// Node type identifiers for the n8n platform.
const (
	NodeTypeWebhook     = "n8n-nodes-base.webhook"
	NodeTypeSchedule    = "n8n-nodes-base.scheduleTrigger"
	NodeTypeHTTPRequest = "n8n-nodes-base.httpRequest"
	NodeTypeEmailSend   = "n8n-nodes-base.emailSend"
	NodeTypeSheets      = "n8n-nodes-base.googleSheets"
	NodeTypeAirtable    = "n8n-nodes-base.airtable"
	NodeTypeSet         = "n8n-nodes-base.set"
	NodeTypeIf          = "n8n-nodes-base.if"
	NodeTypeSwitch      = "n8n-nodes-base.switch"
	NodeTypeCode        = "n8n-nodes-base.code"
	NodeTypeNoOp        = "n8n-nodes-base.noOp"
	NodeTypeOpenAI      = "n8n-nodes-base.openAi"
	NodeTypeSlack       = "n8n-nodes-base.slack"
)

// GraphNode is a single node of the emitted workflow graph. Parameters and
// credentials are opaque to this core except for policy and secret scanning.
type GraphNode struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"        validate:"required"`
	Type        string         `json:"type"        validate:"required"`
	TypeVersion float64        `json:"typeVersion"`
	Position    [2]float64     `json:"position"`
	Parameters  map[string]any `json:"parameters"`
	Credentials map[string]any `json:"credentials,omitempty"`
}

// ConnectionTarget is one endpoint of an outgoing connection.
type ConnectionTarget struct {
	Node  string `json:"node"`
	Type  string `json:"type"`
	Index int    `json:"index"`
}

// NodeConnections holds the outgoing connections of a node, grouped by
// output slot (n8n "main" ports).
type NodeConnections struct {
	Main [][]ConnectionTarget `json:"main"`
}

// GraphMeta records provenance of a generated graph.
type GraphMeta struct {
	GeneratedAt time.Time `json:"generatedAt"`
	GeneratedBy string    `json:"generatedBy"`
	Version     string    `json:"version"`
	PlanHash    string    `json:"planHash"`
}

// WorkflowGraph is the final node/edge document consumable by the automation
// platform. Connections are keyed by source node display name.
type WorkflowGraph struct {
	Name        string                      `json:"name"     validate:"required"`
	Description string                      `json:"description,omitempty"`
	Nodes       []*GraphNode                `json:"nodes"    validate:"required"`
	Connections map[string]*NodeConnections `json:"connections"`
	Active      bool                        `json:"active"`
	Settings    map[string]any              `json:"settings,omitempty"`
	Tags        []string                    `json:"tags,omitempty"`
	Meta        *GraphMeta                  `json:"meta,omitempty"`
}

// NodeByName returns the node with the given display name.
func (g *WorkflowGraph) NodeByName(name string) (*GraphNode, bool) {
	for _, node := range g.Nodes {
		if node.Name == name {
			return node, true
		}
	}

	return nil, false
}

// IsConnectionSource reports whether the named node has at least one
// outgoing connection.
func (g *WorkflowGraph) IsConnectionSource(name string) bool {
	conns, ok := g.Connections[name]
	if !ok || conns == nil {
		return false
	}

	for _, slot := range conns.Main {
		if len(slot) > 0 {
			return true
		}
	}

	return false
}

// ValidationResult is the transient outcome of validating a graph. It is
// recomputed on demand and never persisted independently of its graph.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}
