package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dojoware/collect/internal/timeutil"
)

// Executor runs one collection for a schedule and returns the finished
// execution. Injected so the trigger never reaches into the orchestrator's
// internals.
type Executor interface {
	Execute(ctx context.Context, sched *Schedule) (*Execution, error)
}

// Store is the slice of Service the trigger needs. Satisfied by Service;
// narrowed so the claim and skip branches are testable without a database.
type Store interface {
	Due(ctx context.Context, now time.Time) ([]*Schedule, error)
	ClaimRun(ctx context.Context, id uuid.UUID, now timeutil.DateTime) (bool, error)
	Schedule(ctx context.Context, id, orgID string) (*Schedule, error)
	FinishRun(ctx context.Context, sched *Schedule, exec *Execution) error
}

type Trigger struct {
	store    Store
	executor Executor
}

func NewTrigger(store Store, executor Executor) Trigger {
	return Trigger{store: store, executor: executor}
}

// Tick processes every schedule due at the given instant. Matches run
// sequentially to bound gateway load and keep batch ordering
// deterministic. Each schedule fires at most once per calendar day: the
// claim is an atomic conditional update, so a second tick today (or a
// second trigger process) is a no-op.
func (t Trigger) Tick(ctx context.Context, now time.Time) error {
	due, err := t.store.Due(ctx, now)
	if err != nil {
		return fmt.Errorf("could not load due schedules: %w", err)
	}

	for _, sched := range due {
		claimed, err := t.store.ClaimRun(ctx, sched.ID, timeutil.NewDateTime(now))
		if err != nil {
			slog.ErrorContext(ctx, "could not claim schedule run", "schedule_id", sched.ID, "error", err)
			continue
		}
		if !claimed {
			slog.DebugContext(ctx, "schedule already ran today", "schedule_id", sched.ID)
			continue
		}

		t.run(ctx, sched)
	}
	return nil
}

// RunNow fires a schedule immediately, bypassing the once-per-day guard.
// Used by the manual execute endpoint; the run still produces a regular
// execution record.
func (t Trigger) RunNow(ctx context.Context, id, orgID string) (*Execution, error) {
	sched, err := t.store.Schedule(ctx, id, orgID)
	if err != nil {
		return nil, err
	}

	exec := t.run(ctx, sched)
	return exec, nil
}

// run invokes the executor and always stamps the outcome on the schedule,
// so a failing run is not retried within the same day.
func (t Trigger) run(ctx context.Context, sched *Schedule) *Execution {
	slog.InfoContext(ctx, "running schedule", "schedule_id", sched.ID, "org_id", sched.OrgID, "name", sched.Name)

	exec, err := t.executor.Execute(ctx, sched)
	if err != nil {
		slog.ErrorContext(ctx, "schedule execution failed", "schedule_id", sched.ID, "error", err)
		if exec == nil {
			detail := err.Error()
			exec = &Execution{
				ScheduleID:  sched.ID,
				Status:      ExecutionStatusFailed,
				ErrorDetail: &detail,
				StartedAt:   timeutil.DateTimeNow(),
				OrgID:       sched.OrgID,
			}
		}
	}

	if err := t.store.FinishRun(ctx, sched, exec); err != nil {
		slog.ErrorContext(ctx, "could not record schedule run", "schedule_id", sched.ID, "error", err)
	}

	slog.InfoContext(ctx, "schedule run finished",
		"schedule_id", sched.ID,
		"status", exec.Status,
		"processed", exec.ProcessedCount,
		"succeeded", exec.SucceededCount,
		"failed", exec.FailedCount,
		"total", exec.TotalAmount,
	)
	return exec
}
