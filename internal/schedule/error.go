package schedule

import "github.com/dojoware/collect/internal/errorutil"

var (
	ErrNotFound        = errorutil.New("schedule not found")
	ErrInvalidSchedule = errorutil.New("invalid schedule")
	ErrHasExecutions   = errorutil.New("schedule has executions and can only be deactivated")
)
