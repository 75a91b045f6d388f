package discovery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/flowforge/flowforge/pkg/models"
)

// maxEssentialProperties bounds the property subset returned per node type.
// Full node schemas run to hundreds of fields and would dominate prompt size.
const maxEssentialProperties = 15

// PropertySummary is one field of a node's essential configuration.
type PropertySummary struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// NodeEssentials is the bounded schema excerpt for one node type.
type NodeEssentials struct {
	NodeType    string            `json:"nodeType"`
	DisplayName string            `json:"displayName"`
	Description string            `json:"description"`
	Properties  []PropertySummary `json:"properties"`
}

// NodeSummary is a catalog search hit.
type NodeSummary struct {
	NodeType    string `json:"nodeType"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	AITool      bool   `json:"aiTool,omitempty"`
}

// TaskNode is a preconfigured node suggested for a named task.
type TaskNode struct {
	NodeType   string         `json:"nodeType"`
	Parameters map[string]any `json:"parameters"`
}

// ConfigValidation is the remote judgement of one node configuration.
type ConfigValidation struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// GetNodeEssentials fetches the essential property subset for a node type.
func (c *Client) GetNodeEssentials(ctx context.Context, nodeType string) (*NodeEssentials, error) {
	raw, err := c.CallTool(ctx, "get_node_essentials", map[string]any{"nodeType": nodeType})
	if err != nil {
		return nil, err
	}

	var essentials NodeEssentials
	if err := json.Unmarshal(raw, &essentials); err != nil {
		return nil, fmt.Errorf("failed to parse node essentials for %s: %w", nodeType, err)
	}

	if len(essentials.Properties) > maxEssentialProperties {
		essentials.Properties = essentials.Properties[:maxEssentialProperties]
	}

	return &essentials, nil
}

// SearchNodes performs a free-text capability search.
func (c *Client) SearchNodes(ctx context.Context, query string, limit int) ([]NodeSummary, error) {
	raw, err := c.CallTool(ctx, "search_nodes", map[string]any{"query": query, "limit": limit})
	if err != nil {
		return nil, err
	}

	var result struct {
		Results []NodeSummary `json:"results"`
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse node search results: %w", err)
	}

	return result.Results, nil
}

// GetNodeForTask resolves a named task to a preconfigured node.
func (c *Client) GetNodeForTask(ctx context.Context, task string) (*TaskNode, error) {
	raw, err := c.CallTool(ctx, "get_node_for_task", map[string]any{"task": task})
	if err != nil {
		return nil, err
	}

	var node TaskNode
	if err := json.Unmarshal(raw, &node); err != nil {
		return nil, fmt.Errorf("failed to parse task node for %q: %w", task, err)
	}

	return &node, nil
}

// ValidateNodeConfig validates one node configuration remotely. Profile is
// "full" or "minimal".
func (c *Client) ValidateNodeConfig(
	ctx context.Context,
	nodeType string,
	config map[string]any,
	profile string,
) (*ConfigValidation, error) {
	raw, err := c.CallTool(ctx, "validate_node_operation", map[string]any{
		"nodeType": nodeType,
		"config":   config,
		"profile":  profile,
	})
	if err != nil {
		return nil, err
	}

	var validation ConfigValidation
	if err := json.Unmarshal(raw, &validation); err != nil {
		return nil, fmt.Errorf("failed to parse node config validation: %w", err)
	}

	return &validation, nil
}

// ListAICapableNodes enumerates nodes usable as AI tools.
func (c *Client) ListAICapableNodes(ctx context.Context) ([]NodeSummary, error) {
	raw, err := c.CallTool(ctx, "list_ai_tools", map[string]any{})
	if err != nil {
		return nil, err
	}

	var result struct {
		Tools []NodeSummary `json:"tools"`
	}

	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to parse AI tool list: %w", err)
	}

	return result.Tools, nil
}

// ValidateWorkflow delegates whole-graph validation to the catalog.
func (c *Client) ValidateWorkflow(ctx context.Context, graph *models.WorkflowGraph) (*ConfigValidation, error) {
	raw, err := c.CallTool(ctx, "validate_workflow", map[string]any{"workflow": graph})
	if err != nil {
		return nil, err
	}

	var validation ConfigValidation
	if err := json.Unmarshal(raw, &validation); err != nil {
		return nil, fmt.Errorf("failed to parse workflow validation: %w", err)
	}

	return &validation, nil
}
