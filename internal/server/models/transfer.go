package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer moves Value from OriginID to DestinationID. Once Confirmed it owns
// exactly one Expense (Value+Fee on the origin) and one Revenue (Value on the
// destination), both pointing back at it through TransferID.
type Transfer struct {
	ID            string
	OwnerID       string
	Description   string
	OriginID      string
	DestinationID string
	Value         decimal.Decimal
	Fee           decimal.Decimal
	Date          time.Time
	Confirmed     bool
}

// OriginAmount is what leaves the origin account.
func (t *Transfer) OriginAmount() decimal.Decimal {
	return t.Value.Add(t.Fee)
}
