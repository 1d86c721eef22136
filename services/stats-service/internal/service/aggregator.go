package service

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/models"
)

// amountScale is the number of decimal places kept in money sums.
const amountScale = 2

// Aggregate reduces the players of a btag and their deposits to the
// statistics for [from, to]. Every distinct player with a known
// registration timestamp counts as a registration. Deposits of other
// consumers or outside the window are ignored. A consumer's earliest
// deposit is its FTD.
func Aggregate(btag string, from, to time.Time, players []models.Player, deposits []models.Deposit) *models.BtagStatistics {
	stats := &models.BtagStatistics{
		Btag:            btag,
		From:            from,
		To:              to,
		FTDsSummary:     decimal.Zero,
		DepositsSummary: decimal.Zero,
		Currencies:      []models.CurrencyStatistics{},
	}

	consumers := make(map[models.ConsumerID]struct{}, len(players))
	for _, p := range players {
		if _, seen := consumers[p.ConsumerID]; seen {
			continue
		}
		consumers[p.ConsumerID] = struct{}{}

		if !p.RegisteredAt().IsZero() {
			stats.RegistrationsCount++
		}
	}

	window := make([]models.Deposit, 0, len(deposits))
	for _, d := range deposits {
		if _, ok := consumers[d.ConsumerID]; !ok {
			continue
		}
		if d.Timestamp.Within(from, to) {
			window = append(window, d)
		}
	}
	sort.SliceStable(window, func(i, j int) bool {
		return window[i].Timestamp.Before(window[j].Timestamp.Time)
	})

	byCurrency := make(map[int64]*models.CurrencyStatistics)
	hasFTD := make(map[models.ConsumerID]struct{})

	for _, d := range window {
		cur, ok := byCurrency[d.ConsumerCurrencyID]
		if !ok {
			cur = &models.CurrencyStatistics{
				CurrencyID:      d.ConsumerCurrencyID,
				FTDsSummary:     decimal.Zero,
				DepositsSummary: decimal.Zero,
			}
			byCurrency[d.ConsumerCurrencyID] = cur
		}

		stats.DepositsCount++
		stats.DepositsSummary = stats.DepositsSummary.Add(d.DepositAmount)
		cur.DepositsCount++
		cur.DepositsSummary = cur.DepositsSummary.Add(d.DepositAmount)

		if _, done := hasFTD[d.ConsumerID]; done {
			continue
		}
		hasFTD[d.ConsumerID] = struct{}{}

		stats.FTDsCount++
		stats.FTDsSummary = stats.FTDsSummary.Add(d.DepositAmount)
		cur.FTDsCount++
		cur.FTDsSummary = cur.FTDsSummary.Add(d.DepositAmount)
	}

	stats.FTDsSummary = stats.FTDsSummary.Round(amountScale)
	stats.DepositsSummary = stats.DepositsSummary.Round(amountScale)

	for _, cur := range byCurrency {
		cur.FTDsSummary = cur.FTDsSummary.Round(amountScale)
		cur.DepositsSummary = cur.DepositsSummary.Round(amountScale)
		stats.Currencies = append(stats.Currencies, *cur)
	}
	sort.Slice(stats.Currencies, func(i, j int) bool {
		return stats.Currencies[i].CurrencyID < stats.Currencies[j].CurrencyID
	})

	return stats
}
