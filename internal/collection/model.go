package collection

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/ledger"
	"github.com/dojoware/collect/internal/timeutil"
)

// Batch groups the transactions of one settlement run. Automatically
// triggered batches belong to an execution; manually created ones exist
// only for SEPA file export.
type Batch struct {
	ID uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	// Reference is the externally visible batch id, quoted as the SEPA
	// message id and on gateway calls.
	Reference   string
	ExecutionID *uuid.UUID

	Period         string
	CollectionDate timeutil.Date

	TransactionCount int
	TotalAmount      decimal.Decimal `gorm:"type:numeric(12,2)"`
	Status           BatchStatus

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Batch) TableName() string {
	return "batches"
}

type BatchStatus string

const (
	BatchStatusCreated    BatchStatus = "CREATED"
	BatchStatusProcessing BatchStatus = "PROCESSING"
	BatchStatusCompleted  BatchStatus = "COMPLETED"
	BatchStatusPartial    BatchStatus = "PARTIAL"
	BatchStatusFailed     BatchStatus = "FAILED"
	BatchStatusExported   BatchStatus = "EXPORTED"
)

// Transaction is one charge attempt against one mandate within a batch.
type Transaction struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	BatchID   uuid.UUID
	MandateID uuid.UUID
	MemberID  uuid.UUID

	Amount decimal.Decimal `gorm:"type:numeric(12,2)"`
	// EndToEndID is globally unique and travels with the collection through
	// the banking chain.
	EndToEndID string
	// GatewayRef is the gateway's charge id; asynchronous events locate the
	// transaction through it.
	GatewayRef *string

	Status        TransactionStatus
	FailureReason *string

	// SourceRefs are the ledger rows this transaction settles.
	SourceRefs []ledger.SourceRef `gorm:"serializer:json"`

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Transaction) TableName() string {
	return "transactions"
}

type TransactionStatus string

const (
	TransactionStatusPlanned    TransactionStatus = "PLANNED"
	TransactionStatusProcessing TransactionStatus = "PROCESSING"
	TransactionStatusSucceeded  TransactionStatus = "SUCCEEDED"
	TransactionStatusFailed     TransactionStatus = "FAILED"
)

// NewBatchReference builds a batch reference that fits the 35 character
// SEPA message id limit.
func NewBatchReference(period string) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	reference := fmt.Sprintf("COLL-%s-%s", period, strings.ToUpper(hex.EncodeToString(suffix)))
	if len(reference) > 35 {
		reference = reference[:35]
	}
	return reference
}

// NewEndToEndID builds a unique end-to-end id within the SEPA 35 character
// limit.
func NewEndToEndID() string {
	return "E2E" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
}
