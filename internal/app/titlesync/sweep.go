package titlesync

import (
	"context"
	"fmt"
	"time"

	"github.com/EVE-University/unistudent/internal/app/system/timeouts"
	"github.com/EVE-University/unistudent/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report summarizes one sweep.
type Report struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Owners     int
	Unresolved int // owners skipped because their corporation is unknown
	Outcomes   []Outcome
	Canceled   int // corporations not started because the sweep was canceled
}

// Run converts the report to its stored form.
func (r Report) Run() models.SyncRun {
	run := models.SyncRun{
		RunID:      r.RunID,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Owners:     r.Owners,
		Unresolved: r.Unresolved,
	}
	for _, o := range r.Outcomes {
		co := models.CorporationOutcome{
			CorporationID:     o.CorporationID,
			Candidates:        o.Candidates,
			TitlesSynced:      o.TitlesSynced,
			MappingConfigured: o.MappingConfigured,
			MembersSynced:     o.MembersSynced,
			Added:             o.Added,
			Removed:           o.Removed,
		}
		if o.Err != nil {
			co.Error = o.Err.Error()
		}
		run.Corporations = append(run.Corporations, co)
	}
	return run
}

// corporationGroup is the ordered set of owners serving one corporation.
type corporationGroup struct {
	corporationID int64
	candidates    []primitive.ObjectID
}

// Sweep runs one pass over every corporation that has at least one owner.
//
// Owners are grouped by the corporation of their user's main character, in
// the order the owner store lists them, which is also the failover order.
// Corporations are independent: one failing never stops the others.
// Canceling ctx stops new corporations from starting, including those
// already queued for a worker; passes already running finish without seeing
// the cancellation. Every store call in a pass has its own deadline.
//
// The only errors returned are a failure to read the owners and
// ErrSweepInProgress.
func (e *Engine) Sweep(ctx context.Context) (Report, error) {
	select {
	case e.sweeping <- struct{}{}:
		defer func() { <-e.sweeping }()
	default:
		return Report{}, ErrSweepInProgress
	}

	report := Report{RunID: uuid.NewString(), StartedAt: e.now().UTC()}
	log := e.log.With(zap.String("run_id", report.RunID))

	lctx, cancel := e.bound(ctx, timeouts.Medium, "owner list")
	owners, err := e.Owners.List(lctx)
	cancel()
	if err != nil {
		e.metrics.sweep(report, err)
		return report, fmt.Errorf("list owners: %w", err)
	}
	report.Owners = len(owners)

	groups, unresolved := e.groupByCorporation(ctx, log, owners)
	report.Unresolved = unresolved
	log.Info("found corporations to sync", zap.Int("corporations", len(groups)), zap.Int("owners", len(owners)))

	outcomes := make([]Outcome, len(groups))
	started := make([]bool, len(groups))
	passCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, grp := range groups {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The slot may have been freed after a cancel.
			if ctx.Err() != nil {
				return nil
			}
			started[i] = true
			outcomes[i] = e.SyncCorporation(passCtx, grp.corporationID, grp.candidates)
			return nil
		})
	}
	_ = g.Wait()

	for i, ok := range started {
		if ok {
			report.Outcomes = append(report.Outcomes, outcomes[i])
		} else {
			report.Canceled++
		}
	}
	report.FinishedAt = e.now().UTC()

	if report.Canceled > 0 {
		log.Warn("sweep canceled before all corporations started", zap.Int("not_started", report.Canceled))
	}
	log.Info("sync complete",
		zap.Int("corporations", len(report.Outcomes)),
		zap.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt)))

	if e.runs != nil {
		ictx, cancel := e.bound(passCtx, timeouts.Short, "sync run insert")
		if err := e.runs.Insert(ictx, report.Run()); err != nil {
			log.Error("failed to store sync run", zap.Error(err))
		}
		cancel()
	}
	e.metrics.sweep(report, nil)
	return report, nil
}

// groupByCorporation builds the per-corporation candidate lists from a
// snapshot of owners. Owners whose corporation cannot be resolved are
// skipped with a warning and counted.
func (e *Engine) groupByCorporation(ctx context.Context, log *zap.Logger, owners []models.Owner) ([]corporationGroup, int) {
	var groups []corporationGroup
	index := make(map[int64]int)
	unresolved := 0

	for _, o := range owners {
		pctx, cancel := e.bound(ctx, timeouts.Short, "owner corporation lookup")
		corpID, ok, err := e.Identity.PrimaryCorporation(pctx, o.UserID)
		cancel()
		if err != nil {
			log.Warn("failed to resolve owner corporation, skipping",
				zap.String("user_id", o.UserID.Hex()), zap.Error(err))
			unresolved++
			continue
		}
		if !ok {
			log.Warn("owner has no corporation, skipping", zap.String("user_id", o.UserID.Hex()))
			unresolved++
			continue
		}
		i, seen := index[corpID]
		if !seen {
			i = len(groups)
			index[corpID] = i
			groups = append(groups, corporationGroup{corporationID: corpID})
		}
		groups[i].candidates = append(groups[i].candidates, o.UserID)
	}
	return groups, unresolved
}
