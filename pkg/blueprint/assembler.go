package blueprint

import (
	"fmt"

	"github.com/flowforge/flowforge/pkg/models"
)

// ConnectLinear wires an ordered node list into a single chain keyed by
// display name.
func ConnectLinear(nodes []*models.GraphNode) map[string]*models.NodeConnections {
	connections := make(map[string]*models.NodeConnections, len(nodes))

	for i := 0; i+1 < len(nodes); i++ {
		connections[nodes[i].Name] = &models.NodeConnections{
			Main: [][]models.ConnectionTarget{{
				{Node: nodes[i+1].Name, Type: "main", Index: 0},
			}},
		}
	}

	return connections
}

// Assembly is the result of assembling blocks into a workflow.
type Assembly struct {
	Graph *models.WorkflowGraph
	Env   map[string]string
}

// AssembleWorkflow concatenates blocks in order, merges their environment
// maps, derives a linear connection chain, and positions nodes on a row.
func AssembleWorkflow(name string, blocks []Block) (*Assembly, error) {
	if name == "" {
		return nil, fmt.Errorf("workflow name must not be empty")
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("workflow %q has no blocks", name)
	}

	var nodes []*models.GraphNode

	env := make(map[string]string)
	seen := make(map[string]bool)

	for _, block := range blocks {
		for _, node := range block.Nodes {
			if seen[node.Name] {
				return nil, fmt.Errorf("duplicate node name %q across blocks", node.Name)
			}

			seen[node.Name] = true
			node.Position = [2]float64{250 + float64(len(nodes))*220, 300}
			nodes = append(nodes, node)
		}

		for key, description := range block.Env {
			env[key] = description
		}
	}

	// The chain's last node legitimately has no successor; flag it so the
	// non-terminal policy checks do not reject the assembly.
	last := nodes[len(nodes)-1]
	if last.Type == models.NodeTypeEmailSend || last.Type == models.NodeTypeHTTPRequest {
		last.Parameters["terminal"] = true
	}

	graph := &models.WorkflowGraph{
		Name:        name,
		Nodes:       nodes,
		Connections: ConnectLinear(nodes),
		Settings:    map[string]any{"executionOrder": "v1"},
	}

	return &Assembly{Graph: graph, Env: env}, nil
}
