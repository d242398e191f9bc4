package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dojoware/collect/internal/timeutil"
)

type fakeStore struct {
	schedules []*Schedule
	// lastClaimDay records the last claimed day per schedule, mirroring the
	// conditional update the real store runs.
	lastClaimDay map[uuid.UUID]string
	claimErr     map[uuid.UUID]error
	claimCalls   int
	finished     []*Execution
}

func newFakeStore(schedules ...*Schedule) *fakeStore {
	return &fakeStore{
		schedules:    schedules,
		lastClaimDay: map[uuid.UUID]string{},
		claimErr:     map[uuid.UUID]error{},
	}
}

func (f *fakeStore) Due(_ context.Context, _ time.Time) ([]*Schedule, error) {
	return f.schedules, nil
}

func (f *fakeStore) ClaimRun(_ context.Context, id uuid.UUID, now timeutil.DateTime) (bool, error) {
	f.claimCalls++
	if err := f.claimErr[id]; err != nil {
		return false, err
	}
	day := now.ToDate().String()
	if f.lastClaimDay[id] == day {
		return false, nil
	}
	f.lastClaimDay[id] = day
	return true, nil
}

func (f *fakeStore) Schedule(_ context.Context, id, orgID string) (*Schedule, error) {
	for _, sched := range f.schedules {
		if sched.ID.String() == id && sched.OrgID == orgID {
			return sched, nil
		}
	}
	return nil, ErrNotFound
}

func (f *fakeStore) FinishRun(_ context.Context, _ *Schedule, exec *Execution) error {
	f.finished = append(f.finished, exec)
	return nil
}

type fakeExecutor struct {
	executed []uuid.UUID
	err      error
}

func (f *fakeExecutor) Execute(_ context.Context, sched *Schedule) (*Execution, error) {
	f.executed = append(f.executed, sched.ID)
	if f.err != nil {
		return nil, f.err
	}
	return &Execution{
		ScheduleID: sched.ID,
		Status:     ExecutionStatusSuccess,
		OrgID:      sched.OrgID,
	}, nil
}

func TestTickRunsEachScheduleOncePerDay(t *testing.T) {
	sched := &Schedule{ID: uuid.New(), Name: "monthly dues", OrgID: uuid.NewString()}
	store := newFakeStore(sched)
	executor := &fakeExecutor{}
	trigger := NewTrigger(store, executor)

	now := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	if err := trigger.Tick(context.Background(), now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.executed) != 1 {
		t.Fatalf("want 1 execution, got %d", len(executor.executed))
	}
	if len(store.finished) != 1 {
		t.Fatalf("want 1 finished run, got %d", len(store.finished))
	}

	// A later tick the same day must lose the claim and not run again.
	if err := trigger.Tick(context.Background(), now.Add(time.Minute)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.executed) != 1 {
		t.Fatalf("schedule ran twice on the same day")
	}

	// The next day the claim is free again.
	if err := trigger.Tick(context.Background(), now.AddDate(0, 0, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.executed) != 2 {
		t.Fatalf("want 2 executions across two days, got %d", len(executor.executed))
	}
}

func TestTickClaimErrorSkipsOnlyThatSchedule(t *testing.T) {
	broken := &Schedule{ID: uuid.New(), Name: "broken", OrgID: uuid.NewString()}
	healthy := &Schedule{ID: uuid.New(), Name: "healthy", OrgID: uuid.NewString()}
	store := newFakeStore(broken, healthy)
	store.claimErr[broken.ID] = errors.New("connection reset")
	executor := &fakeExecutor{}
	trigger := NewTrigger(store, executor)

	if err := trigger.Tick(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(executor.executed) != 1 || executor.executed[0] != healthy.ID {
		t.Fatalf("want only the healthy schedule executed, got %v", executor.executed)
	}
}

func TestTickRecordsFailedExecution(t *testing.T) {
	sched := &Schedule{ID: uuid.New(), Name: "monthly dues", OrgID: uuid.NewString()}
	store := newFakeStore(sched)
	executor := &fakeExecutor{err: errors.New("org gone")}
	trigger := NewTrigger(store, executor)

	if err := trigger.Tick(context.Background(), time.Now().UTC()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(store.finished) != 1 {
		t.Fatalf("failed run was not recorded")
	}
	exec := store.finished[0]
	if exec.Status != ExecutionStatusFailed {
		t.Fatalf("want status %s, got %s", ExecutionStatusFailed, exec.Status)
	}
	if exec.ErrorDetail == nil || *exec.ErrorDetail != "org gone" {
		t.Fatalf("want error detail recorded, got %v", exec.ErrorDetail)
	}
}

func TestRunNowBypassesDailyGuard(t *testing.T) {
	sched := &Schedule{ID: uuid.New(), Name: "monthly dues", OrgID: uuid.NewString()}
	store := newFakeStore(sched)
	executor := &fakeExecutor{}
	trigger := NewTrigger(store, executor)

	exec, err := trigger.RunNow(context.Background(), sched.ID.String(), sched.OrgID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exec.Status != ExecutionStatusSuccess {
		t.Fatalf("want status %s, got %s", ExecutionStatusSuccess, exec.Status)
	}
	if store.claimCalls != 0 {
		t.Fatalf("manual run must not consume the daily claim")
	}
	if len(store.finished) != 1 {
		t.Fatalf("manual run was not recorded")
	}

	if _, err := trigger.RunNow(context.Background(), sched.ID.String(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound for foreign org, got %v", err)
	}
}
