package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BtagStatisticsRequest is the body of POST /btag_statistics. From and To
// accept the same layouts as upstream timestamps.
type BtagStatisticsRequest struct {
	Btag string    `json:"btag" binding:"required"`
	From Timestamp `json:"from_"`
	To   Timestamp `json:"to"`
}

type BtagStatistics struct {
	Btag               string               `json:"btag"`
	From               time.Time            `json:"from_"`
	To                 time.Time            `json:"to"`
	RegistrationsCount int                  `json:"registrations_count"`
	FTDsCount          int                  `json:"ftds_count"`
	FTDsSummary        decimal.Decimal      `json:"ftds_summary"`
	DepositsCount      int                  `json:"deposits_count"`
	DepositsSummary    decimal.Decimal      `json:"deposits_summary"`
	Currencies         []CurrencyStatistics `json:"currencies"`
}

// CurrencyStatistics breaks the deposit figures down per consumer currency.
type CurrencyStatistics struct {
	CurrencyID      int64           `json:"currency_id"`
	FTDsCount       int             `json:"ftds_count"`
	FTDsSummary     decimal.Decimal `json:"ftds_summary"`
	DepositsCount   int             `json:"deposits_count"`
	DepositsSummary decimal.Decimal `json:"deposits_summary"`
}
