package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/dojoware/collect/internal/errorutil"
	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/timeutil"
)

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) Service {
	return Service{db: db}
}

func (s Service) Schedule(ctx context.Context, id, orgID string) (*Schedule, error) {
	sched := &Schedule{}
	if err := s.db.WithContext(ctx).First(sched, "id = ? AND org_id = ?", id, orgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sched, nil
}

func (s Service) Schedules(ctx context.Context, orgID string) ([]*Schedule, error) {
	var schedules []*Schedule
	if err := s.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("name ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (s Service) Save(ctx context.Context, sched *Schedule) error {
	if err := validate(sched); err != nil {
		return err
	}
	sched.UpdatedAt = timeutil.DateTimeNow()
	return s.db.WithContext(ctx).Omit("CreatedAt").Save(sched).Error
}

// Delete removes a schedule unless executions reference it, in which case
// the caller must deactivate instead to keep the history intact.
func (s Service) Delete(ctx context.Context, id, orgID string) error {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Execution{}).
		Where("schedule_id = ? AND org_id = ?", id, orgID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrHasExecutions
	}

	return s.db.WithContext(ctx).Where("id = ? AND org_id = ?", id, orgID).Delete(&Schedule{}).Error
}

// Due returns active schedules whose configured day and time match the
// given instant, minute granularity.
func (s Service) Due(ctx context.Context, now time.Time) ([]*Schedule, error) {
	now = now.UTC()
	var schedules []*Schedule
	if err := s.db.WithContext(ctx).
		Where("active = true AND day_of_month = ? AND time_of_day = ?", now.Day(), now.Format("15:04")).
		Order("id ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// ClaimRun atomically stamps today's run. The WHERE clause carries the
// at-most-once-per-day guard, so concurrent trigger processes cannot both
// win the same schedule.
func (s Service) ClaimRun(ctx context.Context, id uuid.UUID, now timeutil.DateTime) (bool, error) {
	today := now.ToDate()
	result := s.db.WithContext(ctx).
		Model(&Schedule{}).
		Where("id = ? AND active = true AND (last_run_at IS NULL OR last_run_at < ?)", id, today.Time).
		Updates(map[string]any{
			"last_run_at":     now.Time,
			"last_run_status": ExecutionStatusStarted,
			"updated_at":      timeutil.DateTimeNow().Time,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// FinishRun records the outcome of the run on the schedule row. It runs
// even when the execution failed, so the schedule is not retried within the
// same day.
func (s Service) FinishRun(ctx context.Context, sched *Schedule, exec *Execution) error {
	updates := map[string]any{
		"last_run_at":     timeutil.DateTimeNow().Time,
		"last_run_status": exec.Status,
		"last_run_count":  exec.ProcessedCount,
		"last_run_total":  exec.TotalAmount,
		"updated_at":      timeutil.DateTimeNow().Time,
	}
	return s.db.WithContext(ctx).
		Model(&Schedule{}).
		Where("id = ? AND org_id = ?", sched.ID, sched.OrgID).
		Updates(updates).Error
}

func (s Service) CreateExecution(ctx context.Context, exec *Execution) error {
	exec.CreatedAt = timeutil.DateTimeNow()
	return s.db.WithContext(ctx).Create(exec).Error
}

// FinishExecution writes the terminal state. Executions are append-only
// history afterward.
func (s Service) FinishExecution(ctx context.Context, exec *Execution) error {
	finishedAt := timeutil.DateTimeNow()
	exec.FinishedAt = &finishedAt
	return s.db.WithContext(ctx).
		Model(&Execution{}).
		Where("id = ? AND org_id = ?", exec.ID, exec.OrgID).
		Updates(map[string]any{
			"status":            exec.Status,
			"processed_count":   exec.ProcessedCount,
			"succeeded_count":   exec.SucceededCount,
			"failed_count":      exec.FailedCount,
			"total_amount":      exec.TotalAmount,
			"gateway_batch_ref": exec.GatewayBatchRef,
			"error_detail":      exec.ErrorDetail,
			"finished_at":       finishedAt.Time,
		}).Error
}

func (s Service) Executions(ctx context.Context, scheduleID, orgID string, limit int) ([]*Execution, error) {
	if limit <= 0 || limit > 100 {
		limit = 25
	}

	var executions []*Execution
	if err := s.db.WithContext(ctx).
		Where("schedule_id = ? AND org_id = ?", scheduleID, orgID).
		Order("started_at DESC").
		Limit(limit).
		Find(&executions).Error; err != nil {
		return nil, err
	}
	return executions, nil
}

func validate(sched *Schedule) error {
	if sched.Name == "" {
		return errorutil.Format("%w: name is required", ErrInvalidSchedule)
	}
	if sched.DayOfMonth < 1 || sched.DayOfMonth > 28 {
		return errorutil.Format("%w: day of month must be between 1 and 28", ErrInvalidSchedule)
	}
	if _, err := time.Parse("15:04", sched.TimeOfDay); err != nil {
		return errorutil.Format("%w: time of day must use 24h HH:MM notation", ErrInvalidSchedule)
	}
	if len(sched.Categories) == 0 {
		return errorutil.Format("%w: at least one category is required", ErrInvalidSchedule)
	}
	seen := map[string]bool{}
	for _, category := range sched.Categories {
		if _, ok := ledger.ParseCategory(string(category)); !ok {
			return errorutil.Format("%w: unknown category %q", ErrInvalidSchedule, category)
		}
		if seen[string(category)] {
			return errorutil.Format("%w: duplicate category %q", ErrInvalidSchedule, category)
		}
		seen[string(category)] = true
	}
	return nil
}
