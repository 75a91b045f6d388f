package providers

import (
	"context"
	"errors"
	"testing"

	"github.com/flowforge/flowforge/pkg/costs"
	"github.com/flowforge/flowforge/pkg/log"
	"github.com/flowforge/flowforge/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	name  string
	model string
	text  string
	err   error
	calls int
}

func (s *stubClient) Name() string  { return s.name }
func (s *stubClient) Model() string { return s.model }

func (s *stubClient) Complete(_ context.Context, req Request) (*Response, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}

	return &Response{
		Text:         s.text,
		Model:        s.model,
		InputTokens:  100,
		OutputTokens: 50,
	}, nil
}

func newTestRouter(t *testing.T, clients ...Client) (*Router, *costs.Monitor) {
	t.Helper()

	monitor := costs.NewMonitor(costs.Config{}, log.WithModule("router-test"))
	t.Cleanup(monitor.Close)

	return NewRouter(monitor, log.WithModule("router-test"), clients...), monitor
}

func TestRouterPrefersEconomyProviderForEntryTiers(t *testing.T) {
	economy := &stubClient{name: "openai", model: "gpt-4o-mini", text: "ok"}
	premium := &stubClient{name: "anthropic", model: "claude-sonnet-4-5", text: "ok"}

	router, _ := newTestRouter(t, economy, premium)

	_, err := router.Call(context.Background(), Request{
		Tier:       models.PlanTierFree,
		Complexity: models.ComplexitySimple,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, economy.calls)
	assert.Equal(t, 0, premium.calls)
}

func TestRouterPrefersPremiumProviderForHighTiersAndComplexity(t *testing.T) {
	economy := &stubClient{name: "openai", model: "gpt-4o-mini", text: "ok"}
	premium := &stubClient{name: "anthropic", model: "claude-sonnet-4-5", text: "ok"}

	router, _ := newTestRouter(t, economy, premium)

	_, err := router.Call(context.Background(), Request{
		Tier:       models.PlanTierEnterprise,
		Complexity: models.ComplexitySimple,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, premium.calls)
	assert.Equal(t, 0, economy.calls)

	// High complexity overrides a cost-sensitive tier.
	_, err = router.Call(context.Background(), Request{
		Tier:       models.PlanTierFree,
		Complexity: models.ComplexityHigh,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, premium.calls)
}

func TestRouterFallsBackOnceAndLogsBothAttempts(t *testing.T) {
	economy := &stubClient{name: "openai", model: "gpt-4o-mini", err: errors.New("rate limited")}
	premium := &stubClient{name: "anthropic", model: "claude-sonnet-4-5", text: `{"name":"wf"}`}

	router, monitor := newTestRouter(t, economy, premium)

	text, err := router.Call(context.Background(), Request{
		Tier:   models.PlanTierStarter,
		Prompt: "generate",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"name":"wf"}`, text)
	assert.Equal(t, 1, economy.calls)
	assert.Equal(t, 1, premium.calls)

	summary := monitor.GetSummary()
	assert.Equal(t, 2, summary.TotalCalls)
	assert.Equal(t, 1, summary.ByModel["gpt-4o-mini"].Calls)
	assert.Equal(t, 1, summary.ByModel["claude-sonnet-4-5"].Calls)
}

func TestRouterReturnsProviderExhausted(t *testing.T) {
	economy := &stubClient{name: "openai", model: "gpt-4o-mini", err: errors.New("boom")}
	premium := &stubClient{name: "anthropic", model: "claude-sonnet-4-5", err: errors.New("also boom")}

	router, _ := newTestRouter(t, economy, premium)

	_, err := router.Call(context.Background(), Request{Tier: models.PlanTierFree})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderExhausted)
	assert.Contains(t, err.Error(), "also boom")
}

func TestRouterWithoutClients(t *testing.T) {
	router, _ := newTestRouter(t)

	_, err := router.Call(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrProviderExhausted)
}
