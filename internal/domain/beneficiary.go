package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Beneficiary is a registered transfer target owned by a user. TransferLimit
// caps a single transfer; UpdatedAt drives the cooling window that keeps a
// just-added or just-raised beneficiary out of the eligible-for-transfer view.
type Beneficiary struct {
	ID                uuid.UUID       `json:"id"`
	OwnerID           uuid.UUID       `json:"owner_id"`
	BeneficiaryUserID uuid.UUID       `json:"beneficiary_user_id"`
	Name              string          `json:"name"`
	Bank              string          `json:"bank"`
	AccountNumber     string          `json:"account_number"`
	IFSCCode          string          `json:"ifsc_code"`
	TransferLimit     decimal.Decimal `json:"transfer_limit"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}
