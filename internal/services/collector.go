package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sanops/asbuilt/internal/models"
	"github.com/sanops/asbuilt/internal/report"
	"github.com/sanops/asbuilt/internal/store"
	srvErrors "github.com/sanops/asbuilt/pkg/errors"
	"github.com/sanops/asbuilt/pkg/scheduler"
)

// Collector owns the run state machine: ready → connecting → collecting →
// collected or error, then back to accepting work. At most one collection
// runs at a time; concurrent triggers get CollectionInProgressError.
type Collector struct {
	pipeline  Pipeline
	store     *store.Store
	reports   *report.Assembler
	scheduler *scheduler.Scheduler
	keep      int
	log       *zap.SugaredLogger

	mu     sync.Mutex
	busy   bool
	status models.CollectorStatus
}

func NewCollectorService(pipeline Pipeline, st *store.Store, reports *report.Assembler, s *scheduler.Scheduler, keep int) *Collector {
	return &Collector{
		pipeline:  pipeline,
		store:     st,
		reports:   reports,
		scheduler: s,
		keep:      keep,
		log:       zap.S().Named("collector_service"),
		status:    models.CollectorStatus{State: models.CollectorStateReady},
	}
}

// Status returns a snapshot of the current state.
func (c *Collector) Status() models.CollectorStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// RunOnce performs one full synchronous run: connect, collect, persist,
// render artifacts. Used by the one-shot CLI path.
func (c *Collector) RunOnce(ctx context.Context) (*models.Run, error) {
	runID, err := c.begin()
	if err != nil {
		return nil, err
	}

	run, err := c.execute(ctx, runID)
	c.finish(run, err)
	return run, err
}

// Trigger starts a run off the caller's request path and returns its ID
// immediately. Used by serve mode.
func (c *Collector) Trigger() (string, error) {
	runID, err := c.begin()
	if err != nil {
		return "", err
	}

	c.scheduler.AddWork(func(ctx context.Context) (any, error) {
		run, err := c.execute(ctx, runID)
		c.finish(run, err)
		if err != nil {
			c.log.Errorw("triggered collection failed", "run_id", runID, "error", err)
		}
		return nil, nil
	})
	return runID, nil
}

func (c *Collector) begin() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.busy {
		return "", srvErrors.NewCollectionInProgressError()
	}
	c.busy = true
	c.status.State = models.CollectorStateConnecting
	c.status.Error = ""
	return uuid.NewString(), nil
}

func (c *Collector) setState(state models.CollectorState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status.State = state
}

func (c *Collector) finish(run *models.Run, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.busy = false
	if err != nil {
		c.status.State = models.CollectorStateError
		c.status.Error = err.Error()
		return
	}
	c.status.State = models.CollectorStateCollected
	c.status.LastRunID = run.ID
	c.status.Completeness = run.Completeness
}

func (c *Collector) execute(ctx context.Context, runID string) (*models.Run, error) {
	cap, err := c.pipeline.Connect(ctx)
	if err != nil {
		return nil, err
	}

	c.setState(models.CollectorStateCollecting)
	inv, err := c.pipeline.Collect(ctx, cap)
	if err != nil {
		return nil, err
	}

	blob, err := json.Marshal(inv)
	if err != nil {
		return nil, fmt.Errorf("encode inventory: %w", err)
	}

	run := &models.Run{
		ID:           runID,
		Cluster:      inv.Cluster.Name,
		Revision:     cap.Revision,
		Firmware:     cap.Firmware,
		Completeness: inv.Completeness(),
		Inventory:    blob,
		CreatedAt:    inv.CollectedAt,
	}
	if err := c.store.Runs().Save(ctx, run); err != nil {
		return nil, fmt.Errorf("persist run: %w", err)
	}
	if err := c.store.Runs().Prune(ctx, c.keep); err != nil {
		c.log.Warnw("run history prune failed", "error", err)
	}

	if c.reports != nil {
		if _, err := c.reports.Write(ctx, inv); err != nil {
			return nil, err
		}
	}

	c.log.Infow("collection run finished",
		"run_id", run.ID,
		"cluster", run.Cluster,
		"completeness", fmt.Sprintf("%.2f", run.Completeness))
	return run, nil
}
