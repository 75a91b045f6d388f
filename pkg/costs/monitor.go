package costs

import (
	"log/slog"
	"sync"
	"time"

	"github.com/flowforge/flowforge/pkg/models"
	"github.com/robfig/cron/v3"
)

const defaultLedgerSize = 100

// Config holds the soft budget thresholds for a monitor. Thresholds of zero
// disable the corresponding check.
type Config struct {
	MaxCallCost  float64 // warn when a single call exceeds this, USD
	MaxDailyCost float64 // warn when the daily total exceeds this, USD
	LedgerSize   int
}

// Monitor is an explicitly owned cost accumulator. One instance is injected
// into the model router; there is no package-global ledger. All methods are
// safe for concurrent use.
type Monitor struct {
	mu         sync.Mutex
	config     Config
	logger     *slog.Logger
	records    []models.CostRecord // ring buffer, newest at (next-1)
	next       int
	filled     bool
	dailyTotal float64
	cron       *cron.Cron
}

// NewMonitor creates a cost monitor and schedules the daily budget-window
// rollover at midnight UTC.
func NewMonitor(config Config, logger *slog.Logger) *Monitor {
	if config.LedgerSize <= 0 {
		config.LedgerSize = defaultLedgerSize
	}

	m := &Monitor{
		config:  config,
		logger:  logger,
		records: make([]models.CostRecord, config.LedgerSize),
		cron:    cron.New(cron.WithLocation(time.UTC)),
	}

	_, err := m.cron.AddFunc("0 0 * * *", m.rolloverDaily)
	if err != nil {
		logger.Error("Failed to schedule daily cost rollover", "error", err)
	}

	m.cron.Start()

	return m
}

// Close stops the rollover scheduler.
func (m *Monitor) Close() {
	if m.cron != nil {
		m.cron.Stop()
	}
}

// LogCost appends a record to the ledger. Oldest entries are evicted once the
// ledger is full.
func (m *Monitor) LogCost(record models.CostRecord) {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[m.next] = record
	m.next = (m.next + 1) % len(m.records)

	if m.next == 0 {
		m.filled = true
	}

	m.dailyTotal += record.TotalCost
}

// BudgetWarning describes a soft budget violation.
type BudgetWarning struct {
	Kind    string  `json:"kind"` // "call" or "daily"
	Message string  `json:"message"`
	Amount  float64 `json:"amount"`
	Limit   float64 `json:"limit"`
}

// CheckBudget compares a call cost and the running daily total against the
// configured thresholds. The daily total already includes the call when
// LogCost ran first. It only warns; execution is never blocked.
func (m *Monitor) CheckBudget(callCost float64) []BudgetWarning {
	m.mu.Lock()
	daily := m.dailyTotal
	m.mu.Unlock()

	var warnings []BudgetWarning

	if m.config.MaxCallCost > 0 && callCost > m.config.MaxCallCost {
		warnings = append(warnings, BudgetWarning{
			Kind:    "call",
			Message: "single call cost exceeds threshold",
			Amount:  callCost,
			Limit:   m.config.MaxCallCost,
		})
	}

	if m.config.MaxDailyCost > 0 && daily > m.config.MaxDailyCost {
		warnings = append(warnings, BudgetWarning{
			Kind:    "daily",
			Message: "daily spend exceeds threshold",
			Amount:  daily,
			Limit:   m.config.MaxDailyCost,
		})
	}

	for _, w := range warnings {
		m.logger.Warn("Cost budget warning",
			"kind", w.Kind,
			"amount", w.Amount,
			"limit", w.Limit,
		)
	}

	return warnings
}

// ModelSummary aggregates ledger entries for one model.
type ModelSummary struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	TotalCost    float64 `json:"total_cost"`
}

// Summary is an in-session snapshot of the ledger.
type Summary struct {
	TotalCalls   int                                `json:"total_calls"`
	TotalCost    float64                            `json:"total_cost"`
	DailyTotal   float64                            `json:"daily_total"`
	ByModel      map[string]ModelSummary            `json:"by_model"`
	ByComplexity map[models.Complexity]ModelSummary `json:"by_complexity"`
}

// GetSummary aggregates the current ledger by model and complexity class.
func (m *Monitor) GetSummary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	summary := Summary{
		DailyTotal:   m.dailyTotal,
		ByModel:      make(map[string]ModelSummary),
		ByComplexity: make(map[models.Complexity]ModelSummary),
	}

	for _, record := range m.entriesLocked() {
		summary.TotalCalls++
		summary.TotalCost = roundCost(summary.TotalCost + record.TotalCost)

		byModel := summary.ByModel[record.Model]
		byModel.Calls++
		byModel.InputTokens += record.InputTokens
		byModel.OutputTokens += record.OutputTokens
		byModel.TotalCost = roundCost(byModel.TotalCost + record.TotalCost)
		summary.ByModel[record.Model] = byModel

		if record.Complexity != "" {
			byComplexity := summary.ByComplexity[record.Complexity]
			byComplexity.Calls++
			byComplexity.InputTokens += record.InputTokens
			byComplexity.OutputTokens += record.OutputTokens
			byComplexity.TotalCost = roundCost(byComplexity.TotalCost + record.TotalCost)
			summary.ByComplexity[record.Complexity] = byComplexity
		}
	}

	return summary
}

// entriesLocked returns the populated ledger entries. Caller holds the lock.
func (m *Monitor) entriesLocked() []models.CostRecord {
	if !m.filled {
		return m.records[:m.next]
	}

	return m.records
}

func (m *Monitor) rolloverDaily() {
	m.mu.Lock()
	previous := m.dailyTotal
	m.dailyTotal = 0
	m.mu.Unlock()

	m.logger.Info("Daily cost window rolled over", "previous_total", previous)
}
