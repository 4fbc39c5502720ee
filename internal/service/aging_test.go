package service

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"citysense/internal/config"
	"citysense/internal/models"
)

func agingCfg() config.AgingConfig {
	return config.AgingConfig{
		PendingAfter:    time.Hour,
		InProgressAfter: 2 * time.Hour,
		AdvanceProb:     0.6,
		ResolveProb:     0.4,
		RejectProb:      0.1,
	}
}

func TestStochasticAging_YoungReportsUntouched(t *testing.T) {
	policy := NewStochasticAgingWithSource(agingCfg(), rand.NewSource(1))

	assert.Nil(t, policy.Decide(models.ReportPending, 30*time.Minute))
	assert.Nil(t, policy.Decide(models.ReportInProgress, 90*time.Minute))
}

func TestStochasticAging_TerminalStatesUntouched(t *testing.T) {
	policy := NewStochasticAgingWithSource(agingCfg(), rand.NewSource(1))

	assert.Nil(t, policy.Decide(models.ReportResolved, 100*time.Hour))
	assert.Nil(t, policy.Decide(models.ReportRejected, 100*time.Hour))
}

func TestStochasticAging_PendingAdvancesToInProgress(t *testing.T) {
	cfg := agingCfg()
	cfg.AdvanceProb = 1.0
	policy := NewStochasticAgingWithSource(cfg, rand.NewSource(1))

	decision := policy.Decide(models.ReportPending, 2*time.Hour)
	if assert.NotNil(t, decision) {
		assert.Equal(t, models.ReportInProgress, decision.Status)
		assert.NotEmpty(t, decision.Notes)
	}
}

func TestStochasticAging_PendingStaysWithZeroProb(t *testing.T) {
	cfg := agingCfg()
	cfg.AdvanceProb = 0
	policy := NewStochasticAgingWithSource(cfg, rand.NewSource(1))

	assert.Nil(t, policy.Decide(models.ReportPending, 2*time.Hour))
}

func TestStochasticAging_InProgressResolves(t *testing.T) {
	cfg := agingCfg()
	cfg.ResolveProb = 1.0
	cfg.RejectProb = 0
	policy := NewStochasticAgingWithSource(cfg, rand.NewSource(1))

	decision := policy.Decide(models.ReportInProgress, 3*time.Hour)
	if assert.NotNil(t, decision) {
		assert.Equal(t, models.ReportResolved, decision.Status)
	}
}

func TestStochasticAging_InProgressRejects(t *testing.T) {
	cfg := agingCfg()
	cfg.ResolveProb = 0
	cfg.RejectProb = 1.0
	policy := NewStochasticAgingWithSource(cfg, rand.NewSource(1))

	decision := policy.Decide(models.ReportInProgress, 3*time.Hour)
	if assert.NotNil(t, decision) {
		assert.Equal(t, models.ReportRejected, decision.Status)
	}
}

func TestStochasticAging_Distribution(t *testing.T) {
	policy := NewStochasticAgingWithSource(agingCfg(), rand.NewSource(42))

	resolved, rejected, untouched := 0, 0, 0
	for i := 0; i < 10000; i++ {
		decision := policy.Decide(models.ReportInProgress, 3*time.Hour)
		switch {
		case decision == nil:
			untouched++
		case decision.Status == models.ReportResolved:
			resolved++
		case decision.Status == models.ReportRejected:
			rejected++
		}
	}

	// 40% resolve / 10% reject / 50% untouched, with slack
	assert.InDelta(t, 4000, resolved, 300)
	assert.InDelta(t, 1000, rejected, 300)
	assert.InDelta(t, 5000, untouched, 300)
}
