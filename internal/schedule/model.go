package schedule

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/timeutil"
)

// Schedule is a tenant's recurring collection trigger. DayOfMonth is capped
// at 28 so the schedule exists in every month.
type Schedule struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name       string
	DayOfMonth int
	// TimeOfDay is the firing time in "15:04" notation, UTC.
	TimeOfDay  string
	Categories Categories `gorm:"type:text[]"`
	Active     bool

	LastRunAt     *timeutil.DateTime
	LastRunStatus *ExecutionStatus
	LastRunCount  int
	LastRunTotal  decimal.Decimal `gorm:"type:numeric(12,2)"`

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Schedule) TableName() string {
	return "schedules"
}

// Categories is the bounded set of ledger categories a schedule collects,
// stored as a Postgres text array.
type Categories []ledger.Category

func (c Categories) Value() (driver.Value, error) {
	values := make([]string, len(c))
	for i, category := range c {
		values[i] = string(category)
	}
	return pq.StringArray(values).Value()
}

func (c *Categories) Scan(value any) error {
	var values pq.StringArray
	if err := values.Scan(value); err != nil {
		return err
	}

	categories := make(Categories, 0, len(values))
	for _, v := range values {
		category, ok := ledger.ParseCategory(v)
		if !ok {
			return fmt.Errorf("unknown category %q", v)
		}
		categories = append(categories, category)
	}
	*c = categories
	return nil
}

func (Categories) GormDataType() string {
	return "text[]"
}

// Execution is one firing of a schedule, append-only once finished.
type Execution struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ScheduleID uuid.UUID

	Status         ExecutionStatus
	ProcessedCount int
	SucceededCount int
	FailedCount    int
	TotalAmount    decimal.Decimal `gorm:"type:numeric(12,2)"`

	// GatewayBatchRef is the external reference of the batch created for
	// this run, when one was created.
	GatewayBatchRef *string
	ErrorDetail     *string

	StartedAt  timeutil.DateTime
	FinishedAt *timeutil.DateTime

	OrgID     string
	CreatedAt timeutil.DateTime
}

func (Execution) TableName() string {
	return "executions"
}

type ExecutionStatus string

const (
	ExecutionStatusStarted ExecutionStatus = "STARTED"
	ExecutionStatusSuccess ExecutionStatus = "SUCCESS"
	ExecutionStatusPartial ExecutionStatus = "PARTIAL"
	ExecutionStatusFailed  ExecutionStatus = "FAILED"
)
