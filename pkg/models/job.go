// Package models defines the core domain models for AI-driven workflow generation.
package models

// PlanTier represents the subscription plan of the tenant that owns a job.
type PlanTier string

const (
	PlanTierFree         PlanTier = "free"
	PlanTierStarter      PlanTier = "starter"
	PlanTierProfessional PlanTier = "professional"
	PlanTierEnterprise   PlanTier = "enterprise"
)

// Complexity is the coarse classification used to size prompts and budgets.
type Complexity string

const (
	ComplexitySimple Complexity = "simple"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// BusinessContext describes the environment the automated process runs in.
type BusinessContext struct {
	Industry   string `json:"industry"`
	Department string `json:"department"`
	Volume     string `json:"volume"`
	Complexity string `json:"complexity"`
}

// ProcessData carries the business-process description submitted with a job.
type ProcessData struct {
	Description     string          `json:"description"      validate:"required"`
	BusinessContext BusinessContext `json:"business_context"`
}

// AutomationOpportunity is a single automatable step identified upstream.
type AutomationOpportunity struct {
	StepDescription    string `json:"step_description"    validate:"required"`
	AutomationSolution string `json:"automation_solution"`
	Priority           string `json:"priority"`
}

// OrganizationContext identifies the tenant a job belongs to. Plan tier drives
// provider routing and prompt constraints.
type OrganizationContext struct {
	OrganizationID   string   `json:"organization_id,omitempty"`
	OrganizationName string   `json:"organization_name,omitempty"`
	OrganizationPlan PlanTier `json:"organization_plan"`
	WorkspaceType    string   `json:"workspace_type"`
}

// AutomationJob is the unit of work consumed by the generation pipeline.
// It is created by the intake API and read-only inside this core.
type AutomationJob struct {
	ID                      string                  `json:"id"                       validate:"required"`
	ProcessData             ProcessData             `json:"process_data"             validate:"required"`
	AutomationOpportunities []AutomationOpportunity `json:"automation_opportunities" validate:"dive"`
	OrganizationContext     *OrganizationContext    `json:"organization_context,omitempty"`
}

// Plan returns the tenant plan tier, defaulting to free when the job carries
// no organization context.
func (j *AutomationJob) Plan() PlanTier {
	if j.OrganizationContext == nil || j.OrganizationContext.OrganizationPlan == "" {
		return PlanTierFree
	}

	return j.OrganizationContext.OrganizationPlan
}
