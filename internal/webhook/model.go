package webhook

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/timeutil"
)

// Event is a persisted inbound gateway event. The gateway's own event id is
// the primary key, so redelivery of the same event cannot create a second
// row.
type Event struct {
	ID      string `gorm:"primaryKey"`
	Type    string
	Payload json.RawMessage `gorm:"type:jsonb"`

	ReceivedAt  timeutil.DateTime
	ProcessedAt *timeutil.DateTime
	// Error holds the last processing failure, cleared on success.
	Error *string
}

func (Event) TableName() string {
	return "webhook_events"
}

// InboundEvent is the wire shape the gateway posts.
type InboundEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// eventData is the union of the fields the supported event types carry.
type eventData struct {
	ChargeID       string          `json:"charge_id"`
	FailureCode    string          `json:"failure_code"`
	FailureMessage string          `json:"failure_message"`
	DisputeID      string          `json:"dispute_id"`
	Status         string          `json:"status"`
	Reason         string          `json:"reason"`
	Amount         decimal.Decimal `json:"amount"`
}

// Dispute tracks a chargeback from creation to its terminal outcome.
type Dispute struct {
	ID               uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayDisputeID string    `gorm:"uniqueIndex"`
	TransactionID    uuid.UUID
	MemberID         uuid.UUID

	Amount decimal.Decimal `gorm:"type:numeric(12,2)"`
	Status DisputeStatus
	Reason string

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Dispute) TableName() string {
	return "disputes"
}

type DisputeStatus string

const (
	DisputeStatusCreated DisputeStatus = "CREATED"
	DisputeStatusUpdated DisputeStatus = "UPDATED"
	DisputeStatusWon     DisputeStatus = "WON"
	DisputeStatusLost    DisputeStatus = "LOST"
)

// Terminal reports whether the dispute reached its final outcome.
func (s DisputeStatus) Terminal() bool {
	return s == DisputeStatusWon || s == DisputeStatusLost
}

const (
	EventTypeChargeSucceeded = "charge.succeeded"
	EventTypeChargeFailed    = "charge.failed"
	EventTypeDisputeCreated  = "dispute.created"
	EventTypeDisputeUpdated  = "dispute.updated"
	EventTypeDisputeClosed   = "dispute.closed"
)
