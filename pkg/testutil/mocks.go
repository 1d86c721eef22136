package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

const (
	TokenPath   = "/token"
	GraphQLPath = "/graphql"
)

// MockNetreferServer is a mock of the NetRefer List API: a GraphQL
// endpoint with offset paging plus an OAuth2 password grant endpoint.
type MockNetreferServer struct {
	Server *httptest.Server

	Players  []MockPlayer
	Deposits []MockDeposit

	Username    string
	Password    string
	AccessToken string
	ExpiresIn   int

	// SubscriptionKey, when set, must be sent in Ocp-Apim-Subscription-Key.
	SubscriptionKey string

	// IgnoreFilters returns every record regardless of the where argument.
	IgnoreFilters bool
	// OmitSegment drops the collection segment from successful responses.
	OmitSegment bool
	// GraphQLError, when set, is returned in the errors array.
	GraphQLError string
	// FailStatus, when non-zero, is returned as a bare HTTP status.
	FailStatus int
	// Delay is slept before every GraphQL response.
	Delay time.Duration

	mu            sync.RWMutex
	RequestLog    []MockGraphQLRequest
	TokenRequests int
}

type MockPlayer struct {
	ConsumerID            int64
	BTag                  string
	RegistrationTimestamp string
}

type MockDeposit struct {
	ConsumerID int64
	Amount     string
	BrandID    int64
	CurrencyID int64
	Timestamp  string
}

// MockGraphQLRequest logs an incoming GraphQL request
type MockGraphQLRequest struct {
	Segment         string
	Skip            int
	Take            int
	Where           map[string]interface{}
	Authorization   string
	SubscriptionKey string
	Timestamp       time.Time
}

func NewMockNetreferServer() *MockNetreferServer {
	mock := &MockNetreferServer{
		Username:    "affiliate",
		Password:    "secret",
		AccessToken: "mock-access-token",
		ExpiresIn:   3600,
	}

	mux := http.NewServeMux()
	mux.HandleFunc(TokenPath, mock.handleToken)
	mux.HandleFunc(GraphQLPath, mock.handleGraphQL)
	mock.Server = httptest.NewServer(mux)
	return mock
}

func (m *MockNetreferServer) handleToken(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	m.TokenRequests++
	username, password := m.Username, m.Password
	token, expiresIn := m.AccessToken, m.ExpiresIn
	m.mu.Unlock()

	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if r.PostForm.Get("grant_type") != "password" ||
		r.PostForm.Get("username") != username ||
		r.PostForm.Get("password") != password {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid_grant"})
		return
	}

	body := map[string]interface{}{
		"access_token": token,
		"token_type":   "Bearer",
	}
	if expiresIn > 0 {
		body["expires_in"] = expiresIn
	}
	json.NewEncoder(w).Encode(body)
}

type graphQLBody struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

func (m *MockNetreferServer) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	var body graphQLBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request body", http.StatusBadRequest)
		return
	}

	segment := "PlayerCollectionSegment"
	if strings.Contains(body.Query, "DepositCollectionSegment") {
		segment = "DepositCollectionSegment"
	}

	skip := intVar(body.Variables["skip"])
	take := intVar(body.Variables["take"])
	where, _ := body.Variables["where"].(map[string]interface{})

	m.mu.Lock()
	m.RequestLog = append(m.RequestLog, MockGraphQLRequest{
		Segment:         segment,
		Skip:            skip,
		Take:            take,
		Where:           where,
		Authorization:   r.Header.Get("Authorization"),
		SubscriptionKey: r.Header.Get("Ocp-Apim-Subscription-Key"),
		Timestamp:       time.Now(),
	})
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-r.Context().Done():
			return
		}
	}

	if m.FailStatus != 0 {
		w.WriteHeader(m.FailStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if r.Header.Get("Authorization") != "Bearer "+m.AccessToken ||
		(m.SubscriptionKey != "" && r.Header.Get("Ocp-Apim-Subscription-Key") != m.SubscriptionKey) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]string{{"message": "The current user is not authorized to access this resource."}},
		})
		return
	}

	if m.GraphQLError != "" {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"errors": []map[string]string{{"message": m.GraphQLError}},
		})
		return
	}

	var items []map[string]interface{}
	if segment == "PlayerCollectionSegment" {
		items = m.players(where)
	} else {
		items = m.deposits(where)
	}

	total := len(items)
	if skip > total {
		skip = total
	}
	end := total
	if take > 0 && skip+take < total {
		end = skip + take
	}

	data := map[string]interface{}{}
	if !m.OmitSegment {
		data[segment] = map[string]interface{}{
			"items":      items[skip:end],
			"pageInfo":   map[string]bool{"hasNextPage": end < total},
			"totalCount": total,
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{"data": data})
}

func (m *MockNetreferServer) players(where map[string]interface{}) []map[string]interface{} {
	btag := ""
	if cond, ok := where["bTag"].(map[string]interface{}); ok {
		btag, _ = cond["eq"].(string)
	}

	items := []map[string]interface{}{}
	for _, p := range m.Players {
		if !m.IgnoreFilters && btag != "" && p.BTag != btag {
			continue
		}
		var registered interface{}
		if p.RegistrationTimestamp != "" {
			registered = p.RegistrationTimestamp
		}
		items = append(items, map[string]interface{}{
			"consumerID":            p.ConsumerID,
			"bTag":                  p.BTag,
			"registrationTimestamp": registered,
		})
	}
	return items
}

func (m *MockNetreferServer) deposits(where map[string]interface{}) []map[string]interface{} {
	filter := parseDepositWhere(where)

	items := []map[string]interface{}{}
	for _, d := range m.Deposits {
		if !m.IgnoreFilters && !filter.matches(d) {
			continue
		}
		items = append(items, map[string]interface{}{
			"consumerID":         d.ConsumerID,
			"depositAmount":      json.Number(d.Amount),
			"brandID":            d.BrandID,
			"consumerCurrencyID": d.CurrencyID,
			"timestamp":          d.Timestamp,
		})
	}
	return items
}

type depositWhere struct {
	consumers map[int64]bool
	gte       time.Time
	lte       time.Time
}

func parseDepositWhere(where map[string]interface{}) depositWhere {
	filter := depositWhere{}
	clauses, _ := where["and"].([]interface{})
	for _, raw := range clauses {
		clause, _ := raw.(map[string]interface{})
		if cond, ok := clause["consumerID"].(map[string]interface{}); ok {
			ids, _ := cond["in"].([]interface{})
			filter.consumers = make(map[int64]bool, len(ids))
			for _, id := range ids {
				filter.consumers[int64(intVar(id))] = true
			}
		}
		if cond, ok := clause["timestamp"].(map[string]interface{}); ok {
			if v, ok := cond["gte"].(string); ok {
				filter.gte, _ = time.Parse(time.RFC3339, v)
			}
			if v, ok := cond["lte"].(string); ok {
				filter.lte, _ = time.Parse(time.RFC3339, v)
			}
		}
	}
	return filter
}

func (f depositWhere) matches(d MockDeposit) bool {
	if f.consumers != nil && !f.consumers[d.ConsumerID] {
		return false
	}
	ts, err := time.Parse(time.RFC3339, d.Timestamp)
	if err != nil {
		return true
	}
	if !f.gte.IsZero() && ts.Before(f.gte) {
		return false
	}
	if !f.lte.IsZero() && ts.After(f.lte) {
		return false
	}
	return true
}

func intVar(v interface{}) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

// Update changes the mock configuration under its lock.
func (m *MockNetreferServer) Update(fn func(m *MockNetreferServer)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m)
}

// GetRequestLog returns all logged GraphQL requests
func (m *MockNetreferServer) GetRequestLog() []MockGraphQLRequest {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]MockGraphQLRequest{}, m.RequestLog...)
}

func (m *MockNetreferServer) GetTokenRequests() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.TokenRequests
}

// Close closes the mock server
func (m *MockNetreferServer) Close() {
	m.Server.Close()
}

func (m *MockNetreferServer) GraphQLURL() string {
	return m.Server.URL + GraphQLPath
}

func (m *MockNetreferServer) TokenURL() string {
	return m.Server.URL + TokenPath
}
