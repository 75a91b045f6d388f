package models

// PlanTrigger describes how the generated workflow should be started.
type PlanTrigger struct {
	Type          string         `json:"type"          validate:"required"`
	Configuration map[string]any `json:"configuration"`
}

// PlanStep is a single platform-agnostic step of an orchestration plan.
type PlanStep struct {
	ID            string         `json:"id"            validate:"required"`
	Name          string         `json:"name"          validate:"required"`
	Type          string         `json:"type"          validate:"required"`
	Configuration map[string]any `json:"configuration"`
}

// PlanConnection links two plan steps (or a trigger to a step) by id.
type PlanConnection struct {
	From string `json:"from" validate:"required"`
	To   string `json:"to"   validate:"required"`
}

// OrchestrationPlan is the platform-agnostic trigger/step/connection
// description produced by the orchestrator before workflow synthesis.
// It is produced once per job and immutable thereafter.
type OrchestrationPlan struct {
	WorkflowName  string           `json:"workflowName"  validate:"required"`
	Description   string           `json:"description"`
	Triggers      []PlanTrigger    `json:"triggers"      validate:"min=1,dive"`
	Steps         []PlanStep       `json:"steps"         validate:"min=1,dive"`
	Connections   []PlanConnection `json:"connections"   validate:"dive"`
	ErrorHandling string           `json:"errorHandling"`
	Complexity    Complexity       `json:"complexity"`
}

// StepByID returns the plan step with the given id.
func (p *OrchestrationPlan) StepByID(id string) (PlanStep, bool) {
	for _, step := range p.Steps {
		if step.ID == id {
			return step, true
		}
	}

	return PlanStep{}, false
}
