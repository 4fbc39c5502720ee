package service

import (
	"math/rand"
	"sync"
	"time"

	"citysense/internal/config"
	"citysense/internal/models"
)

// AgingDecision is what an AgingPolicy wants done with one report.
type AgingDecision struct {
	Status models.ReportStatus
	Notes  string
}

// AgingPolicy decides whether a report should advance to a new status
// given how long it has been sitting in its current one. A nil return
// means leave the report alone. The stochastic default below models a
// simulated city; a real deployment plugs in a policy driven by actual
// operator actions.
type AgingPolicy interface {
	Decide(status models.ReportStatus, age time.Duration) *AgingDecision
}

// StochasticAging advances reports probabilistically after configured
// elapsed-time cutoffs: pending reports may move to in_progress, and
// in_progress reports may resolve or be rejected.
type StochasticAging struct {
	cfg config.AgingConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewStochasticAging seeds from the clock. Tests pass a fixed source
// via NewStochasticAgingWithSource.
func NewStochasticAging(cfg config.AgingConfig) *StochasticAging {
	return NewStochasticAgingWithSource(cfg, rand.NewSource(time.Now().UnixNano()))
}

func NewStochasticAgingWithSource(cfg config.AgingConfig, src rand.Source) *StochasticAging {
	return &StochasticAging{cfg: cfg, rng: rand.New(src)}
}

func (p *StochasticAging) roll() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *StochasticAging) Decide(status models.ReportStatus, age time.Duration) *AgingDecision {
	switch status {
	case models.ReportPending:
		if age <= p.cfg.PendingAfter {
			return nil
		}
		if p.roll() < p.cfg.AdvanceProb {
			return &AgingDecision{
				Status: models.ReportInProgress,
				Notes:  "Reporte em análise pela equipe responsável",
			}
		}
	case models.ReportInProgress:
		if age <= p.cfg.InProgressAfter {
			return nil
		}
		r := p.roll()
		if r < p.cfg.ResolveProb {
			return &AgingDecision{
				Status: models.ReportResolved,
				Notes:  "Problema solucionado pela equipe de manutenção",
			}
		}
		if r < p.cfg.ResolveProb+p.cfg.RejectProb {
			return &AgingDecision{
				Status: models.ReportRejected,
				Notes:  "Reporte não procede após verificação",
			}
		}
	}
	return nil
}
