package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Deposit struct {
	ConsumerID         ConsumerID      `json:"consumerID"`
	DepositAmount      decimal.Decimal `json:"depositAmount"`
	BrandID            int64           `json:"brandID"`
	ConsumerCurrencyID int64           `json:"consumerCurrencyID"`
	Timestamp          Timestamp       `json:"timestamp"`
}

// DepositFilter selects the deposits of the given consumers made in the
// closed interval [From, To].
type DepositFilter struct {
	ConsumerIDs []ConsumerID
	From        time.Time
	To          time.Time
}
