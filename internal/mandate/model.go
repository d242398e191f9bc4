package mandate

import (
	"github.com/google/uuid"

	"github.com/dojoware/collect/internal/timeutil"
)

// Mandate is a member's standing authorization for recurring direct-debit
// collections, bound to one bank account.
type Mandate struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID uuid.UUID

	IBAN          string
	BIC           string
	AccountHolder string
	// Reference is the unique mandate reference quoted on every collection.
	Reference string
	SignedAt  timeutil.Date

	Status        Status
	RevokedReason *string

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Mandate) TableName() string {
	return "mandates"
}

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusRevoked Status = "REVOKED"
)

// Eligible is a mandate joined with the gateway identity of its member,
// which is what the debtor aggregation and the manual batch path need.
type Eligible struct {
	Mandate
	MemberName        string
	GatewayCustomerID *string
}
