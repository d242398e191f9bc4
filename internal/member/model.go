package member

import (
	"github.com/google/uuid"

	"github.com/dojoware/collect/internal/timeutil"
)

type Member struct {
	ID    uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name  string
	Email string

	// GatewayCustomerID links the member to the payment gateway. Members
	// without it are not eligible for automated charging.
	GatewayCustomerID *string

	// PaymentProblem is set when a charge fails or is charged back, so the
	// tenant can follow up before the next collection run.
	PaymentProblem       bool
	PaymentProblemReason *string

	OrgID     string
	CreatedAt timeutil.DateTime
	UpdatedAt timeutil.DateTime
}

func (Member) TableName() string {
	return "members"
}
