package validation

import (
	"fmt"
	"sort"

	"github.com/flowforge/flowforge/pkg/models"
)

// Validate runs the structural, policy, and security checks over a graph.
// Pure function: the graph is never mutated and the result is recomputed on
// every call.
func Validate(graph *models.WorkflowGraph) models.ValidationResult {
	var errs []string

	if graph == nil {
		return models.ValidationResult{Valid: false, Errors: []string{"workflow graph is nil"}}
	}

	if graph.Name == "" {
		errs = append(errs, "workflow name must not be empty")
	}

	if len(graph.Nodes) == 0 {
		errs = append(errs, "workflow must contain at least one node")
	}

	errs = append(errs, structuralErrors(graph)...)
	errs = append(errs, policyErrors(graph)...)
	errs = append(errs, securityErrors(graph)...)

	return models.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

func structuralErrors(graph *models.WorkflowGraph) []string {
	var errs []string

	seen := make(map[string]bool, len(graph.Nodes))

	for _, node := range graph.Nodes {
		if seen[node.Name] {
			errs = append(errs, fmt.Sprintf("duplicate node name %q", node.Name))
		}

		seen[node.Name] = true
	}

	sources := make([]string, 0, len(graph.Connections))
	for source := range graph.Connections {
		sources = append(sources, source)
	}

	sort.Strings(sources) // deterministic error ordering

	for _, source := range sources {
		if !seen[source] {
			errs = append(errs, fmt.Sprintf("connection source %q does not resolve to a node", source))
		}

		conns := graph.Connections[source]
		if conns == nil {
			continue
		}

		for _, slot := range conns.Main {
			for _, target := range slot {
				if !seen[target.Node] {
					errs = append(errs, fmt.Sprintf(
						"connection target %q (from %q) does not resolve to a node", target.Node, source))
				}
			}
		}
	}

	return errs
}

func policyErrors(graph *models.WorkflowGraph) []string {
	var errs []string

	for _, node := range graph.Nodes {
		switch node.Type {
		case models.NodeTypeHTTPRequest:
			errs = append(errs, httpPolicyErrors(graph, node)...)
		case models.NodeTypeEmailSend:
			errs = append(errs, emailPolicyErrors(graph, node)...)
		}
	}

	return errs
}

func httpPolicyErrors(graph *models.WorkflowGraph, node *models.GraphNode) []string {
	var errs []string

	if !graph.IsConnectionSource(node.Name) && !isMarkedTerminal(node) {
		errs = append(errs, fmt.Sprintf("HTTP node %q is terminal: it must have an outgoing connection", node.Name))
	}

	// The retry rule only fires when an options block is declared. A node
	// with no options block slips past it; see the repair pass.
	if _, hasOptions := node.Parameters["options"]; hasOptions {
		if !boolParam(node, "retryOnFail") {
			errs = append(errs, fmt.Sprintf("HTTP node %q declares options but retryOnFail is not true", node.Name))
		}

		if intParam(node, "maxRetries") < 1 {
			errs = append(errs, fmt.Sprintf("HTTP node %q declares options but maxRetries is below 1", node.Name))
		}
	}

	return errs
}

func emailPolicyErrors(graph *models.WorkflowGraph, node *models.GraphNode) []string {
	var errs []string

	for _, field := range []string{"to", "subject", "text"} {
		if stringParam(node, field) == "" {
			errs = append(errs, fmt.Sprintf("email node %q is missing required field %q", node.Name, field))
		}
	}

	if !graph.IsConnectionSource(node.Name) && !isMarkedTerminal(node) {
		errs = append(errs, fmt.Sprintf("email node %q is terminal without terminal=true", node.Name))
	}

	return errs
}

func securityErrors(graph *models.WorkflowGraph) []string {
	var errs []string

	for _, node := range graph.Nodes {
		for _, path := range scanForSecrets("parameters", node.Parameters) {
			errs = append(errs, fmt.Sprintf("node %q contains a literal secret at %s", node.Name, path))
		}

		for _, path := range scanForSecrets("credentials", node.Credentials) {
			errs = append(errs, fmt.Sprintf("node %q contains a literal secret at %s", node.Name, path))
		}
	}

	return errs
}

func isMarkedTerminal(node *models.GraphNode) bool {
	return boolParam(node, "terminal")
}

func boolParam(node *models.GraphNode, key string) bool {
	value, ok := node.Parameters[key].(bool)

	return ok && value
}

func intParam(node *models.GraphNode, key string) int {
	switch value := node.Parameters[key].(type) {
	case int:
		return value
	case float64:
		return int(value)
	default:
		return 0
	}
}

func stringParam(node *models.GraphNode, key string) string {
	value, _ := node.Parameters[key].(string)

	return value
}
