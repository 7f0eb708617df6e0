package app

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/example/railctl/internal/config"
	"github.com/example/railctl/internal/core/aggregate"
	"github.com/example/railctl/internal/core/kpi"
	"github.com/example/railctl/internal/core/rules"
	"github.com/example/railctl/internal/models"
)

// CycleView is the immutable result of one aggregation cycle. Queries read
// it without locking; a new cycle publishes a new view.
type CycleView struct {
	Cycle      uint64
	Snapshot   models.Snapshot // includes derived and external KPIs
	Aggregates aggregate.Aggregates
	Conditions []rules.Condition
}

// EngineStats counts cycles since start.
type EngineStats struct {
	Cycles     uint64    `json:"cycles"`
	Skipped    uint64    `json:"skipped"`
	Raised     uint64    `json:"raised"`
	LastCycle  time.Time `json:"last_cycle"`
	LastErrors int       `json:"last_errors"`
}

// Engine runs the aggregation cycle: snapshot, aggregate, derive KPIs,
// evaluate rules, reconcile advisories and publish the view.
type Engine struct {
	store    *EntityStore
	advisory *AdvisoryServiceImpl
	config   *config.Store
	now      func() time.Time

	// Held for the duration of a cycle. A tick that cannot take it is skipped.
	cycleMu  sync.Mutex
	samples  []aggregate.Sample
	prevKPIs map[string]models.KPI

	view atomic.Pointer[CycleView]

	statsMu sync.Mutex
	stats   EngineStats
}

// NewEngine creates an engine over the store and advisory service.
func NewEngine(store *EntityStore, advisory *AdvisoryServiceImpl, cfg *config.Store) *Engine {
	return &Engine{
		store:    store,
		advisory: advisory,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
		prevKPIs: make(map[string]models.KPI),
	}
}

// View returns the latest published cycle, or nil before the first one.
func (e *Engine) View() *CycleView {
	return e.view.Load()
}

// Stats returns the cycle counters.
func (e *Engine) Stats() EngineStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// RunCycle runs one aggregation cycle. It reports false when another cycle
// was still running and this one was skipped.
func (e *Engine) RunCycle(ctx context.Context) (bool, error) {
	if !e.cycleMu.TryLock() {
		e.statsMu.Lock()
		e.stats.Skipped++
		e.statsMu.Unlock()
		return false, nil
	}
	defer e.cycleMu.Unlock()

	if changed, err := e.config.ReloadIfChanged(); err != nil {
		log.Printf("[engine] config reload rejected, keeping previous: %v", err)
	} else if changed {
		log.Printf("[engine] config reloaded from %s", e.config.Path())
	}
	cfg := e.config.Current()
	e.store.SetBands(cfg.Bands())

	now := e.now()
	snap := e.store.Snapshot()
	agg := aggregate.Compute(snap, cfg.AggregateConfig())

	sample := aggregate.SampleOf(agg)
	sample.At = now
	e.samples = append(e.samples, sample)
	if limit := cfg.Engine.SampleRetention; limit > 0 && len(e.samples) > limit {
		e.samples = append([]aggregate.Sample(nil), e.samples[len(e.samples)-limit:]...)
	}
	agg.Trends = aggregate.Trends(e.samples, now, cfg.Engine.TrendBucket, cfg.Engine.TrendWindow)

	derived := kpi.Derive(agg, e.prevKPIs, cfg.KPITargets)
	for _, k := range derived {
		e.prevKPIs[k.Name] = k
	}

	conds := rules.Evaluate(snap, cfg.Policy())
	result, err := e.advisory.Reconcile(ctx, conds, cfg.Advisory.AutoConfidenceThreshold)

	view := &CycleView{
		Snapshot:   snap,
		Aggregates: agg,
		Conditions: conds,
	}
	view.Snapshot.KPIs = append(derived, snap.KPIs...)

	e.statsMu.Lock()
	e.stats.Cycles++
	e.stats.LastCycle = now
	e.stats.LastErrors = 0
	view.Cycle = e.stats.Cycles
	if result != nil {
		e.stats.Raised += uint64(len(result.Raised))
		e.stats.LastErrors = len(result.Errors)
	}
	e.statsMu.Unlock()

	e.view.Store(view)

	if err != nil {
		return true, err
	}
	for _, rerr := range result.Errors {
		log.Printf("[engine] advisory: %v", rerr)
	}
	for _, rec := range result.Raised {
		log.Printf("[engine] raised %s (%s/%s) for %s", rec.ID, rec.Category, rec.Priority, rec.EntityID)
	}
	return true, nil
}

// Run ticks at the configured cycle interval until ctx is done. Ticks run
// the cycle in the background so an overrunning cycle causes later ticks to
// be skipped rather than queued. A changed interval takes effect on the next
// tick.
func (e *Engine) Run(ctx context.Context) error {
	interval := e.config.Current().Engine.CycleInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	tick := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := e.RunCycle(ctx); err != nil {
				log.Printf("[engine] cycle failed: %v", err)
			}
		}()
	}

	tick()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tick()
			if next := e.config.Current().Engine.CycleInterval; next != interval {
				interval = next
				ticker.Reset(interval)
				log.Printf("[engine] cycle interval now %s", interval)
			}
		}
	}
}
