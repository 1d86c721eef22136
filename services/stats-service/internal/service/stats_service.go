package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tenessy0570/netrefer-api-interface/pkg/logger"
	pkgmodels "github.com/tenessy0570/netrefer-api-interface/pkg/models"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/models"
)

// NetreferAPI is the part of the upstream client the statistics need.
type NetreferAPI interface {
	PlayersByBtag(ctx context.Context, btag string) ([]models.Player, error)
	Deposits(ctx context.Context, filter models.DepositFilter) ([]models.Deposit, error)
}

type StatsService struct {
	api       NetreferAPI
	batchSize int
	logger    logger.Logger
}

// NewStatsService queries deposits for at most batchSize consumers at a time.
func NewStatsService(api NetreferAPI, batchSize int, log logger.Logger) *StatsService {
	if batchSize <= 0 {
		batchSize = 200
	}
	return &StatsService{
		api:       api,
		batchSize: batchSize,
		logger:    log,
	}
}

func (s *StatsService) GetBtagStatistics(ctx context.Context, req models.BtagStatisticsRequest) (*models.BtagStatistics, error) {
	stats, err := s.getBtagStatistics(ctx, req)
	statisticsComputed.WithLabelValues(resultLabel(err)).Inc()
	return stats, err
}

func (s *StatsService) getBtagStatistics(ctx context.Context, req models.BtagStatisticsRequest) (*models.BtagStatistics, error) {
	btag := strings.TrimSpace(req.Btag)
	if btag == "" {
		return nil, fmt.Errorf("%w: btag is required", pkgmodels.ErrInvalidInput)
	}
	if req.From.IsZero() || req.To.IsZero() {
		return nil, fmt.Errorf("%w: from_ and to are required", pkgmodels.ErrInvalidInput)
	}
	from, to := req.From.Time, req.To.Time
	if from.After(to) {
		return nil, fmt.Errorf("%w: from_ must not be after to", pkgmodels.ErrInvalidInput)
	}

	start := time.Now()
	log := s.logger.WithFields(logger.Fields{"btag": btag})

	players, err := s.api.PlayersByBtag(ctx, btag)
	if err != nil {
		return nil, fmt.Errorf("fetch players: %w", err)
	}
	players = withBtag(players, btag)
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: player with btag %s not found", pkgmodels.ErrNotFound, btag)
	}

	var deposits []models.Deposit
	for _, batch := range chunk(uniqueConsumerIDs(players), s.batchSize) {
		page, err := s.api.Deposits(ctx, models.DepositFilter{
			ConsumerIDs: batch,
			From:        from,
			To:          to,
		})
		if err != nil {
			return nil, fmt.Errorf("fetch deposits: %w", err)
		}
		deposits = append(deposits, page...)
	}

	stats := Aggregate(btag, from, to, players, deposits)

	log.Info("Btag statistics computed",
		logger.Field{Key: "players", Value: len(players)},
		logger.Field{Key: "registrations", Value: stats.RegistrationsCount},
		logger.Field{Key: "ftds", Value: stats.FTDsCount},
		logger.Field{Key: "deposits", Value: stats.DepositsCount},
		logger.Field{Key: "duration", Value: time.Since(start).Seconds()},
	)

	return stats, nil
}

// withBtag drops players the upstream returned for another tag.
func withBtag(players []models.Player, btag string) []models.Player {
	out := players[:0:0]
	for _, p := range players {
		if p.BTag == btag {
			out = append(out, p)
		}
	}
	return out
}

func uniqueConsumerIDs(players []models.Player) []models.ConsumerID {
	seen := make(map[models.ConsumerID]struct{}, len(players))
	ids := make([]models.ConsumerID, 0, len(players))
	for _, p := range players {
		if _, ok := seen[p.ConsumerID]; ok {
			continue
		}
		seen[p.ConsumerID] = struct{}{}
		ids = append(ids, p.ConsumerID)
	}
	return ids
}

func chunk[T any](items []T, size int) [][]T {
	var chunks [][]T
	for size < len(items) {
		items, chunks = items[size:], append(chunks, items[:size:size])
	}
	if len(items) > 0 {
		chunks = append(chunks, items)
	}
	return chunks
}
