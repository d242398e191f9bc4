package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dojoware/collect/internal/timeutil"
)

// Category identifies a source of outstanding balance that a collection
// schedule may cover.
type Category string

const (
	CategoryDues     Category = "DUES"
	CategoryInvoices Category = "INVOICES"
	CategorySales    Category = "SALES"
)

func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryDues, CategoryInvoices, CategorySales:
		return Category(s), true
	}
	return "", false
}

// SourceRef points at the ledger row a transaction settles.
type SourceRef struct {
	Category Category  `json:"category"`
	ID       uuid.UUID `json:"id"`
}

// Due is one period of a member's recurring membership fee.
type Due struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID uuid.UUID
	Period   string
	Amount   decimal.Decimal `gorm:"type:numeric(12,2)"`
	DueAt    timeutil.Date
	PaidAt   *timeutil.DateTime

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Due) TableName() string {
	return "dues"
}

// Invoice is an open receivable issued to a member.
type Invoice struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID uuid.UUID
	Number   string
	Amount   decimal.Decimal `gorm:"type:numeric(12,2)"`
	IssuedAt timeutil.Date
	DueAt    timeutil.Date
	PaidAt   *timeutil.DateTime

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Invoice) TableName() string {
	return "invoices"
}

// Sale is an unpaid point-of-sale purchase put on the member's tab.
type Sale struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID    uuid.UUID
	Description string
	Amount      decimal.Decimal `gorm:"type:numeric(12,2)"`
	SoldAt      timeutil.Date
	PaidAt      *timeutil.DateTime

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Sale) TableName() string {
	return "sales"
}

// OpenPayment is a remediation row created when a collection fails or is
// charged back. It stays visible until an admin resolves it.
type OpenPayment struct {
	ID       uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	MemberID uuid.UUID
	Amount   decimal.Decimal `gorm:"type:numeric(12,2)"`
	Type     OpenPaymentType
	Status   OpenPaymentStatus
	// Reference dedups retried events: the originating dispute or
	// transaction id. Unique per tenant.
	Reference string

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (OpenPayment) TableName() string {
	return "open_payments"
}

type OpenPaymentType string

const (
	OpenPaymentTypeFailedCharge OpenPaymentType = "FAILED_CHARGE"
	OpenPaymentTypeChargeback   OpenPaymentType = "CHARGEBACK"
)

type OpenPaymentStatus string

const (
	OpenPaymentStatusOpen     OpenPaymentStatus = "OPEN"
	OpenPaymentStatusResolved OpenPaymentStatus = "RESOLVED"
)

// Outstanding is one member's unpaid balance in a single category.
type Outstanding struct {
	MemberID  uuid.UUID
	Category  Category
	Amount    decimal.Decimal
	SourceIDs []uuid.UUID
}
