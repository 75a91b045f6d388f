// Package orchestrator turns an automation job into an orchestration plan.
// It combines node discovery, a capability heuristic, and one AI call; when
// the AI result is unusable it substitutes a deterministic fallback plan so
// the pipeline always has something to generate from.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/flowforge/flowforge/pkg/contextopt"
	"github.com/flowforge/flowforge/pkg/discovery"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/providers"
)

// State is the lifecycle state of the orchestrator.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitialized   State = "initialized"
	// StateDegraded means node discovery is unreachable; planning continues
	// on the static capability table alone.
	StateDegraded State = "degraded"
)

const (
	maxCandidateTypes    = 8
	maxDescriptionChars  = 400
	maxGoals             = 3
	planTemperature      = 0.2
	planMaxTokens        = 2048
	discoverySearchLimit = 5
)

// Requirements are the capability flags extracted from a job before any
// node type is chosen.
type Requirements struct {
	NeedsEmail        bool
	NeedsDataStore    bool
	NeedsAI           bool
	NeedsConditional  bool
	NeedsNotification bool

	Complexity models.Complexity
	Reasons    []string
}

// NodeCandidate is one ranked node-type suggestion with the capability that
// justified it.
type NodeCandidate struct {
	NodeType      string
	Justification string
}

// Orchestrator builds orchestration plans. Construct with New, then call
// Initialize once before planning.
type Orchestrator struct {
	discovery *discovery.Client
	router    *providers.Router
	logger    *slog.Logger

	mu    sync.Mutex
	state State
}

// New returns an uninitialized orchestrator. The discovery client may be nil,
// in which case Initialize moves straight to degraded.
func New(discoveryClient *discovery.Client, router *providers.Router, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		discovery: discoveryClient,
		router:    router,
		logger:    logger.With("module", "orchestrator"),
		state:     StateUninitialized,
	}
}

// Initialize connects to node discovery. A connection failure is not an
// error: the orchestrator degrades to static planning and the caller
// proceeds.
func (o *Orchestrator) Initialize(ctx context.Context) State {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state != StateUninitialized {
		return o.state
	}

	if o.discovery == nil {
		o.state = StateDegraded
		o.logger.Warn("No discovery client configured, planning in degraded mode")

		return o.state
	}

	if err := o.discovery.Connect(ctx); err != nil {
		o.state = StateDegraded
		o.logger.Warn("Node discovery unreachable, planning in degraded mode", "error", err)

		return o.state
	}

	o.state = StateInitialized
	o.logger.Info("Orchestrator initialized with node discovery")

	return o.state
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.state
}

// Cleanup tears down the discovery session. Best effort.
func (o *Orchestrator) Cleanup(ctx context.Context) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.discovery != nil && o.discovery.Connected() {
		o.discovery.Disconnect(ctx)
	}

	o.state = StateUninitialized
}

// AnalyzeRequirements scans a job for required capabilities and an overall
// complexity class.
func (o *Orchestrator) AnalyzeRequirements(job *models.AutomationJob) Requirements {
	analysis := contextopt.AnalyzeComplexity(nil, job)

	req := Requirements{
		NeedsEmail:       analysis.NeedsEmail,
		NeedsDataStore:   analysis.NeedsDataStore,
		NeedsAI:          analysis.NeedsAI,
		NeedsConditional: analysis.NeedsConditional,
		Complexity:       analysis.Complexity,
		Reasons:          analysis.Reasons,
	}

	corpus := strings.ToLower(job.ProcessData.Description)
	for _, opp := range job.AutomationOpportunities {
		corpus += " " + strings.ToLower(opp.AutomationSolution)
	}

	for _, keyword := range []string{"notify", "notification", "alert", "slack", "message"} {
		if strings.Contains(corpus, keyword) {
			req.NeedsNotification = true
			req.Reasons = append(req.Reasons, "notification keywords present")

			break
		}
	}

	return req
}

// capabilityTable maps each capability flag to its candidate node types, in
// preference order.
var capabilityTable = []struct {
	need          func(Requirements) bool
	justification string
	nodeTypes     []string
}{
	{
		need:          func(r Requirements) bool { return r.NeedsEmail },
		justification: "email capability required",
		nodeTypes:     []string{models.NodeTypeEmailSend},
	},
	{
		need:          func(r Requirements) bool { return r.NeedsDataStore },
		justification: "data storage capability required",
		nodeTypes:     []string{models.NodeTypeSheets, models.NodeTypeAirtable},
	},
	{
		need:          func(r Requirements) bool { return r.NeedsAI },
		justification: "AI processing capability required",
		nodeTypes:     []string{models.NodeTypeOpenAI},
	},
	{
		need:          func(r Requirements) bool { return r.NeedsConditional },
		justification: "conditional routing capability required",
		nodeTypes:     []string{models.NodeTypeIf, models.NodeTypeSwitch},
	},
	{
		need:          func(r Requirements) bool { return r.NeedsNotification },
		justification: "notification capability required",
		nodeTypes:     []string{models.NodeTypeSlack},
	},
}

// DiscoverRelevantNodes maps requirement flags to a ranked, deduplicated
// candidate list. When discovery is connected the static table is augmented
// with live catalog search hits; discovery failures degrade silently to the
// static result.
func (o *Orchestrator) DiscoverRelevantNodes(ctx context.Context, req Requirements) []NodeCandidate {
	seen := make(map[string]bool)

	candidates := []NodeCandidate{
		{NodeType: models.NodeTypeWebhook, Justification: "default entry point"},
		{NodeType: models.NodeTypeHTTPRequest, Justification: "general integration capability"},
		{NodeType: models.NodeTypeSet, Justification: "data shaping between steps"},
	}
	for _, c := range candidates {
		seen[c.NodeType] = true
	}

	for _, entry := range capabilityTable {
		if !entry.need(req) {
			continue
		}

		for _, nodeType := range entry.nodeTypes {
			if seen[nodeType] {
				continue
			}

			seen[nodeType] = true
			candidates = append(candidates, NodeCandidate{
				NodeType:      nodeType,
				Justification: entry.justification,
			})
		}
	}

	if o.State() == StateInitialized {
		for _, entry := range capabilityTable {
			if !entry.need(req) {
				continue
			}

			hits, err := o.discovery.SearchNodes(ctx, entry.justification, discoverySearchLimit)
			if err != nil {
				o.logger.Warn("Catalog search failed, keeping static candidates", "error", err)

				continue
			}

			for _, hit := range hits {
				if seen[hit.NodeType] {
					continue
				}

				seen[hit.NodeType] = true
				candidates = append(candidates, NodeCandidate{
					NodeType:      hit.NodeType,
					Justification: "catalog match: " + hit.DisplayName,
				})
			}
		}
	}

	return candidates
}

// CreatePlan builds an orchestration plan for the job. The AI call may fail
// to produce usable JSON; that case is absorbed by substituting the
// deterministic fallback plan. Only provider exhaustion is returned as an
// error.
func (o *Orchestrator) CreatePlan(ctx context.Context, job *models.AutomationJob) (*models.OrchestrationPlan, error) {
	req := o.AnalyzeRequirements(job)
	candidates := o.DiscoverRelevantNodes(ctx, req)

	prompt := buildPlanPrompt(job, req, candidates)

	text, err := o.router.Call(ctx, providers.Request{
		Prompt:       prompt,
		Tier:         job.Plan(),
		Complexity:   req.Complexity,
		JobID:        job.ID,
		MaxTokens:    planMaxTokens,
		Temperature:  planTemperature,
		Organization: job.OrganizationContext,
	})
	if err != nil {
		return nil, fmt.Errorf("plan creation call failed: %w", err)
	}

	plan, parseErr := parsePlan(text)
	if parseErr != nil {
		o.logger.Warn("Plan response unusable, substituting fallback plan",
			"job_id", job.ID,
			"error", parseErr,
		)

		return FallbackPlan(job), nil
	}

	if plan.Complexity == "" {
		plan.Complexity = req.Complexity
	}

	o.logger.Info("Orchestration plan created",
		"job_id", job.ID,
		"workflow_name", plan.WorkflowName,
		"steps", len(plan.Steps),
	)

	return plan, nil
}

func buildPlanPrompt(job *models.AutomationJob, req Requirements, candidates []NodeCandidate) string {
	description := truncate(job.ProcessData.Description, maxDescriptionChars)

	types := make([]string, 0, maxCandidateTypes)
	for _, c := range candidates {
		if len(types) == maxCandidateTypes {
			break
		}

		types = append(types, c.NodeType)
	}

	var b strings.Builder

	b.WriteString("Design an automation workflow plan as JSON.\n\n")
	fmt.Fprintf(&b, "Process: %s\n", description)
	fmt.Fprintf(&b, "Complexity: %s\n", req.Complexity)
	fmt.Fprintf(&b, "Available node types: %s\n", strings.Join(types, ", "))

	goals := job.AutomationOpportunities
	if len(goals) > maxGoals {
		goals = goals[:maxGoals]
	}

	if len(goals) > 0 {
		b.WriteString("Goals:\n")

		for _, goal := range goals {
			fmt.Fprintf(&b, "- %s\n", goal.StepDescription)
		}
	}

	b.WriteString("\nRespond with only a JSON object: " +
		`{"workflowName": string, "description": string, ` +
		`"triggers": [{"type": string, "configuration": object}], ` +
		`"steps": [{"id": string, "name": string, "type": string, "configuration": object}], ` +
		`"connections": [{"from": string, "to": string}], ` +
		`"errorHandling": string}`)

	return b.String()
}

// parsePlan decodes the AI response into a plan, tolerating markdown fences,
// and rejects plans missing the required skeleton.
func parsePlan(text string) (*models.OrchestrationPlan, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var plan models.OrchestrationPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return nil, fmt.Errorf("decoding plan response: %w", err)
	}

	if plan.WorkflowName == "" {
		return nil, fmt.Errorf("plan has no workflow name")
	}

	if len(plan.Triggers) == 0 {
		return nil, fmt.Errorf("plan has no triggers")
	}

	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("plan has no steps")
	}

	return &plan, nil
}
