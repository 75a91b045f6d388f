package validation

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/flowforge/flowforge/pkg/models"
)

// Default retry policy injected on HTTP nodes during repair.
const (
	defaultMaxRetries    = 2
	passThroughSuffix    = " Pass-Through"
	repairedEmailTo      = "{{recipient_email}}"
	repairedEmailSubject = "Automated workflow notification"
	repairedEmailText    = "{{message_body}}"
)

// Repair mutates the graph in place, fixing mechanically correctable
// violations. It is designed to be idempotent: running it on its own output
// is a no-op. Callers run it at most once per generation attempt.
func Repair(graph *models.WorkflowGraph, logger *slog.Logger) {
	if graph == nil {
		return
	}

	rewriteConnections(graph, logger)
	pruneConnections(graph, logger)
	synthesizeChainIfEmpty(graph, logger)
	backfillPolicies(graph)
	resolveTerminalViolations(graph, logger)
}

// rewriteConnections replaces connection endpoints that reference node ids
// (or stale identifiers fixable via id lookup) with current display names.
func rewriteConnections(graph *models.WorkflowGraph, logger *slog.Logger) {
	idToName := make(map[string]string, len(graph.Nodes))
	names := make(map[string]bool, len(graph.Nodes))

	for _, node := range graph.Nodes {
		names[node.Name] = true

		if node.ID != "" {
			idToName[node.ID] = node.Name
		}
	}

	resolve := func(ref string) (string, bool) {
		if names[ref] {
			return ref, true
		}

		if name, ok := idToName[ref]; ok {
			return name, true
		}

		return ref, false
	}

	sources := make([]string, 0, len(graph.Connections))
	for source := range graph.Connections {
		sources = append(sources, source)
	}

	sort.Strings(sources)

	rewritten := make(map[string]*models.NodeConnections, len(graph.Connections))

	for _, source := range sources {
		conns := graph.Connections[source]

		resolved, ok := resolve(source)
		if ok && resolved != source {
			logger.Debug("Rewrote connection source", "from", source, "to", resolved)
		}

		if conns != nil {
			for _, slot := range conns.Main {
				for i := range slot {
					if target, ok := resolve(slot[i].Node); ok && target != slot[i].Node {
						logger.Debug("Rewrote connection target", "from", slot[i].Node, "to", target)
						slot[i].Node = target
					}
				}
			}
		}

		// An id key and a name key can resolve to the same node; merge the
		// output slots so no edge depends on map order.
		if existing, exists := rewritten[resolved]; exists {
			if conns != nil {
				if existing == nil {
					rewritten[resolved] = conns
				} else {
					existing.Main = append(existing.Main, conns.Main...)
				}
			}

			continue
		}

		rewritten[resolved] = conns
	}

	graph.Connections = rewritten
}

// pruneConnections drops endpoints that still fail to resolve after rewrite.
func pruneConnections(graph *models.WorkflowGraph, logger *slog.Logger) {
	names := make(map[string]bool, len(graph.Nodes))
	for _, node := range graph.Nodes {
		names[node.Name] = true
	}

	for source, conns := range graph.Connections {
		if !names[source] {
			logger.Warn("Pruned connection with unresolved source", "source", source)
			delete(graph.Connections, source)

			continue
		}

		if conns == nil {
			delete(graph.Connections, source)

			continue
		}

		kept := make([][]models.ConnectionTarget, 0, len(conns.Main))

		for _, slot := range conns.Main {
			keptSlot := make([]models.ConnectionTarget, 0, len(slot))

			for _, target := range slot {
				if names[target.Node] {
					keptSlot = append(keptSlot, target)
				} else {
					logger.Warn("Pruned connection with unresolved target", "source", source, "target", target.Node)
				}
			}

			kept = append(kept, keptSlot)
		}

		conns.Main = kept

		if !graph.IsConnectionSource(source) {
			delete(graph.Connections, source)
		}
	}
}

// synthesizeChainIfEmpty rebuilds a linear chain when pruning removed every
// connection but at least two nodes remain.
func synthesizeChainIfEmpty(graph *models.WorkflowGraph, logger *slog.Logger) {
	if len(graph.Nodes) < 2 {
		return
	}

	for source := range graph.Connections {
		if graph.IsConnectionSource(source) {
			return
		}
	}

	logger.Warn("All connections pruned, synthesizing linear chain", "nodes", len(graph.Nodes))

	graph.Connections = make(map[string]*models.NodeConnections, len(graph.Nodes)-1)

	for i := 0; i < len(graph.Nodes)-1; i++ {
		graph.Connections[graph.Nodes[i].Name] = &models.NodeConnections{
			Main: [][]models.ConnectionTarget{{
				{Node: graph.Nodes[i+1].Name, Type: "main", Index: 0},
			}},
		}
	}
}

// backfillPolicies injects default retry settings on HTTP nodes and neutral
// placeholders on email nodes missing required fields.
func backfillPolicies(graph *models.WorkflowGraph) {
	for _, node := range graph.Nodes {
		if node.Parameters == nil {
			node.Parameters = make(map[string]any)
		}

		switch node.Type {
		case models.NodeTypeHTTPRequest:
			if _, ok := node.Parameters["options"]; !ok {
				node.Parameters["options"] = map[string]any{}
			}

			if !boolParam(node, "retryOnFail") {
				node.Parameters["retryOnFail"] = true
			}

			if intParam(node, "maxRetries") < 1 {
				node.Parameters["maxRetries"] = defaultMaxRetries
			}
		case models.NodeTypeEmailSend:
			if stringParam(node, "to") == "" {
				node.Parameters["to"] = repairedEmailTo
			}

			if stringParam(node, "subject") == "" {
				node.Parameters["subject"] = repairedEmailSubject
			}

			if stringParam(node, "text") == "" {
				node.Parameters["text"] = repairedEmailText
			}
		}
	}
}

// resolveTerminalViolations appends a pass-through successor after terminal
// HTTP nodes and flags terminal email nodes explicitly.
func resolveTerminalViolations(graph *models.WorkflowGraph, logger *slog.Logger) {
	// Snapshot: appending successors must not re-trigger checks this pass.
	current := make([]*models.GraphNode, len(graph.Nodes))
	copy(current, graph.Nodes)

	for _, node := range current {
		if graph.IsConnectionSource(node.Name) || isMarkedTerminal(node) {
			continue
		}

		switch node.Type {
		case models.NodeTypeHTTPRequest:
			successor := appendPassThrough(graph, node)
			logger.Info("Appended pass-through after terminal HTTP node",
				"node", node.Name, "successor", successor.Name)
		case models.NodeTypeEmailSend:
			node.Parameters["terminal"] = true
			logger.Info("Marked terminal email node", "node", node.Name)
		}
	}
}

func appendPassThrough(graph *models.WorkflowGraph, node *models.GraphNode) *models.GraphNode {
	name := node.Name + passThroughSuffix
	for i := 2; ; i++ {
		if _, exists := graph.NodeByName(name); !exists {
			break
		}

		name = fmt.Sprintf("%s%s %d", node.Name, passThroughSuffix, i)
	}

	successor := &models.GraphNode{
		ID:          name,
		Name:        name,
		Type:        models.NodeTypeNoOp,
		TypeVersion: 1,
		Position:    [2]float64{node.Position[0] + 200, node.Position[1]},
		Parameters:  map[string]any{},
	}

	graph.Nodes = append(graph.Nodes, successor)

	if graph.Connections == nil {
		graph.Connections = make(map[string]*models.NodeConnections)
	}

	graph.Connections[node.Name] = &models.NodeConnections{
		Main: [][]models.ConnectionTarget{{
			{Node: name, Type: "main", Index: 0},
		}},
	}

	return successor
}
