package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/machinebox/graphql"

	"github.com/tenessy0570/netrefer-api-interface/pkg/logger"
	"github.com/tenessy0570/netrefer-api-interface/services/stats-service/internal/models"
)

const (
	playersQueryName  = "players"
	depositsQueryName = "deposits"

	subscriptionKeyHeader = "Ocp-Apim-Subscription-Key"
)

const playersQuery = `
query playersQuery($skip: Int, $take: Int, $where: PlayerFilterInput, $order: [PlayerSortInput!]) {
  PlayerCollectionSegment: player(skip: $skip, take: $take, where: $where, order: $order) {
    items {
      consumerID
      bTag
      registrationTimestamp
    }
    pageInfo {
      hasNextPage
    }
    totalCount
  }
}`

const depositsQuery = `
query depositsQuery($skip: Int, $take: Int, $where: DepositFilterInput, $order: [DepositSortInput!]) {
  DepositCollectionSegment: deposit(skip: $skip, take: $take, where: $where, order: $order) {
    items {
      consumerID
      depositAmount
      brandID
      consumerCurrencyID
      timestamp
    }
    pageInfo {
      hasNextPage
    }
    totalCount
  }
}`

type playersResponse struct {
	Segment *collectionSegment[models.Player] `json:"PlayerCollectionSegment"`
}

type depositsResponse struct {
	Segment *collectionSegment[models.Deposit] `json:"DepositCollectionSegment"`
}

type NetreferClientConfig struct {
	Endpoint        string
	SubscriptionKey string
	PageSize        int
	MaxPages        int
	HTTPClient      *http.Client
}

// NetreferClient queries the NetRefer List API (GraphQL, offset paging).
type NetreferClient struct {
	gql             *graphql.Client
	tokens          TokenSource
	subscriptionKey string
	pageSize        int
	maxPages        int
	logger          logger.Logger
}

func NewNetreferClient(cfg NetreferClientConfig, tokens TokenSource, log logger.Logger) *NetreferClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	gql := graphql.NewClient(cfg.Endpoint, graphql.WithHTTPClient(httpClient))
	gql.Log = func(s string) {
		// request headers carry the bearer token
		if strings.HasPrefix(s, ">> headers") {
			return
		}
		log.Debug(s, logger.Field{Key: "component", Value: "graphql"})
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 800
	}

	return &NetreferClient{
		gql:             gql,
		tokens:          tokens,
		subscriptionKey: cfg.SubscriptionKey,
		pageSize:        pageSize,
		maxPages:        cfg.MaxPages,
		logger:          log,
	}
}

// PlayersByBtag returns every player registered under btag.
func (c *NetreferClient) PlayersByBtag(ctx context.Context, btag string) ([]models.Player, error) {
	where := map[string]interface{}{
		"bTag": map[string]interface{}{"eq": btag},
	}
	order := []map[string]string{{"consumerID": "ASC"}}

	players, err := fetchAll(ctx, playersQueryName, c.pageSize, c.maxPages,
		func(ctx context.Context, skip, take int) (*collectionSegment[models.Player], error) {
			var resp playersResponse
			err := c.run(ctx, playersQueryName, playersQuery, pageVariables(skip, take, where, order), &resp)
			return resp.Segment, err
		})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched players",
		logger.Field{Key: "btag", Value: btag},
		logger.Field{Key: "count", Value: len(players)},
	)
	return players, nil
}

// Deposits returns the deposits matching filter, oldest first.
func (c *NetreferClient) Deposits(ctx context.Context, filter models.DepositFilter) ([]models.Deposit, error) {
	if len(filter.ConsumerIDs) == 0 {
		return nil, nil
	}

	where := map[string]interface{}{
		"and": []map[string]interface{}{
			{"consumerID": map[string]interface{}{"in": filter.ConsumerIDs}},
			{"timestamp": map[string]interface{}{"gte": filter.From.UTC().Format(time.RFC3339Nano)}},
			{"timestamp": map[string]interface{}{"lte": filter.To.UTC().Format(time.RFC3339Nano)}},
		},
	}
	order := []map[string]string{{"timestamp": "ASC"}}

	deposits, err := fetchAll(ctx, depositsQueryName, c.pageSize, c.maxPages,
		func(ctx context.Context, skip, take int) (*collectionSegment[models.Deposit], error) {
			var resp depositsResponse
			err := c.run(ctx, depositsQueryName, depositsQuery, pageVariables(skip, take, where, order), &resp)
			return resp.Segment, err
		})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Fetched deposits",
		logger.Field{Key: "consumers", Value: len(filter.ConsumerIDs)},
		logger.Field{Key: "count", Value: len(deposits)},
	)
	return deposits, nil
}

func pageVariables(skip, take int, where interface{}, order interface{}) map[string]interface{} {
	return map[string]interface{}{
		"skip":  skip,
		"take":  take,
		"where": where,
		"order": order,
	}
}

func (c *NetreferClient) run(ctx context.Context, name, query string, vars map[string]interface{}, resp interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	req := graphql.NewRequest(query)
	for key, value := range vars {
		req.Var(key, value)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if c.subscriptionKey != "" {
		req.Header.Set(subscriptionKeyHeader, c.subscriptionKey)
	}

	start := time.Now()
	err = c.gql.Run(ctx, req, resp)
	observeUpstreamRequest(name, time.Since(start), err)

	return err
}
