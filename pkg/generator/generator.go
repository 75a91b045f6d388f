// Package generator implements the AI-backed workflow generation strategy.
// It composes the structured prompt, calls the model router, parses and
// post-processes the response, then validates with a single bounded repair
// pass. The deterministic alternative lives in pkg/blueprint.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/flowforge/flowforge/pkg/contextopt"
	"github.com/flowforge/flowforge/pkg/discovery"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/flowforge/flowforge/pkg/prompts"
	"github.com/flowforge/flowforge/pkg/providers"
	"github.com/flowforge/flowforge/pkg/validation"
)

const generationTemperature = 0.4

// AIGenerator produces workflow graphs through an AI completion. It
// implements protocol.Generator.
type AIGenerator struct {
	router    *providers.Router
	discovery *discovery.Client
	logger    *slog.Logger
}

// New builds an AI generator. The discovery client is optional; without it
// no documentation excerpts are embedded in the prompt.
func New(router *providers.Router, discoveryClient *discovery.Client, logger *slog.Logger) *AIGenerator {
	return &AIGenerator{
		router:    router,
		discovery: discoveryClient,
		logger:    logger.With("module", "generator"),
	}
}

// Generate turns the plan into a validated workflow graph. The returned
// graph always carries provenance metadata including the plan hash.
func (g *AIGenerator) Generate(
	ctx context.Context,
	plan *models.OrchestrationPlan,
	job *models.AutomationJob,
) (*models.WorkflowGraph, error) {
	contextConfig := contextopt.GetOptimizedContext(plan, job)

	prompt, err := g.composePrompt(ctx, plan, job, contextConfig)
	if err != nil {
		return nil, err
	}

	text, err := g.router.Call(ctx, providers.Request{
		Prompt:       prompt,
		Tier:         job.Plan(),
		Complexity:   contextConfig.Complexity,
		JobID:        job.ID,
		MaxTokens:    contextopt.GetContextBudget(contextConfig.Complexity, job.Plan()),
		Temperature:  generationTemperature,
		Organization: job.OrganizationContext,
	})
	if err != nil {
		return nil, fmt.Errorf("generation call failed: %w", err)
	}

	graph, err := parseWorkflowJSON(text)
	if err != nil {
		return nil, err
	}

	g.postProcess(graph, plan, job)

	if result := validation.Validate(graph); !result.Valid {
		g.logger.Info("Generated workflow invalid, attempting repair",
			"job_id", job.ID,
			"violations", len(result.Errors),
		)

		validation.Repair(graph, g.logger)

		if result = validation.Validate(graph); !result.Valid {
			return nil, &ValidationError{Violations: result.Errors}
		}
	}

	g.logger.Info("Workflow generated",
		"job_id", job.ID,
		"workflow_name", graph.Name,
		"nodes", len(graph.Nodes),
	)

	return graph, nil
}

// composePrompt assembles the full generation prompt: the structured base
// prompt, the optimized context directives, and bounded documentation
// excerpts for the focus node types.
func (g *AIGenerator) composePrompt(
	ctx context.Context,
	plan *models.OrchestrationPlan,
	job *models.AutomationJob,
	contextConfig models.ContextConfig,
) (string, error) {
	base, err := prompts.BuildIntelligentPrompt(plan, job.ProcessData.BusinessContext, job.OrganizationContext)
	if err != nil {
		return "", fmt.Errorf("composing generation prompt: %w", err)
	}

	var b strings.Builder

	b.WriteString(base)
	b.WriteString("\n\nWorkflow type: ")
	b.WriteString(contextConfig.WorkflowType)
	fmt.Fprintf(&b, "\nUse at most %d nodes.\n", contextConfig.NodeCount)

	if len(contextConfig.FocusNodeTypes) > 0 {
		fmt.Fprintf(&b, "Preferred node types: %s\n", strings.Join(contextConfig.FocusNodeTypes, ", "))
	}

	if len(contextConfig.FocusAreas) > 0 {
		fmt.Fprintf(&b, "Focus areas: %s\n", strings.Join(contextConfig.FocusAreas, ", "))
	}

	for _, excerpt := range g.docExcerpts(ctx, contextConfig) {
		b.WriteString("\n")
		b.WriteString(excerpt)
	}

	return b.String(), nil
}

// docExcerpts fetches essential-property documentation for the focus node
// types, bounded by the context budget. Discovery failures degrade to an
// excerpt-free prompt.
func (g *AIGenerator) docExcerpts(ctx context.Context, contextConfig models.ContextConfig) []string {
	if g.discovery == nil || !g.discovery.Connected() {
		return nil
	}

	excerpts := make([]string, 0, len(contextConfig.FocusNodeTypes))

	for _, nodeType := range contextConfig.FocusNodeTypes {
		essentials, err := g.discovery.GetNodeEssentials(ctx, nodeType)
		if err != nil {
			g.logger.Warn("Skipping documentation excerpt", "node_type", nodeType, "error", err)

			continue
		}

		excerpt := truncate(formatExcerpt(essentials), contextConfig.CharsPerDoc)

		excerpts = append(excerpts, excerpt)
	}

	return excerpts
}

// truncate bounds s to limit bytes without splitting a multi-byte rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}

	return s[:limit]
}

func formatExcerpt(essentials *discovery.NodeEssentials) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Node %s:", essentials.NodeType)

	for _, prop := range essentials.Properties {
		fmt.Fprintf(&b, " %s(%s)", prop.Name, prop.Type)

		if prop.Required {
			b.WriteString("!")
		}
	}

	return b.String()
}
