package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"

	"github.com/tenessy0570/netrefer-api-interface/pkg/logger"
)

// TokenSource supplies the bearer token sent with every upstream query.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource returns a pre-issued API token.
type StaticTokenSource string

func (s StaticTokenSource) Token(context.Context) (string, error) {
	if s == "" {
		return "", &UpstreamError{Query: "token", Err: errors.New("api token is empty")}
	}
	return string(s), nil
}

type PasswordCredentials struct {
	TokenURL string
	ClientID string
	Username string
	Password string
	Scopes   []string
}

// PasswordTokenSource obtains tokens with the OAuth2 resource owner
// password grant and reuses a token until leeway before it expires.
// A token whose expiry is unknown is used for a single request only.
type PasswordTokenSource struct {
	oauth      *oauth2.Config
	username   string
	password   string
	httpClient *http.Client
	leeway     time.Duration
	logger     logger.Logger
	now        func() time.Time

	mu      sync.Mutex
	current *oauth2.Token
}

func NewPasswordTokenSource(creds PasswordCredentials, httpClient *http.Client, leeway time.Duration, log logger.Logger) *PasswordTokenSource {
	return &PasswordTokenSource{
		oauth: &oauth2.Config{
			ClientID: creds.ClientID,
			Scopes:   creds.Scopes,
			Endpoint: oauth2.Endpoint{
				TokenURL:  creds.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		username:   creds.Username,
		password:   creds.Password,
		httpClient: httpClient,
		leeway:     leeway,
		logger:     log,
		now:        time.Now,
	}
}

func (s *PasswordTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.usable(s.current) {
		return s.current.AccessToken, nil
	}

	if s.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.httpClient)
	}

	tok, err := s.oauth.PasswordCredentialsToken(ctx, s.username, s.password)
	tokenFetches.WithLabelValues(resultLabel(err)).Inc()
	if err != nil {
		s.current = nil
		return "", &UpstreamError{Query: "token", Err: err}
	}

	if tok.Expiry.IsZero() {
		if exp, ok := expiryFromJWT(tok.AccessToken); ok {
			tok.Expiry = exp
		}
	}

	s.current = tok
	s.logger.Debug("Obtained NetRefer access token",
		logger.Field{Key: "expires_at", Value: tok.Expiry},
	)

	return tok.AccessToken, nil
}

func (s *PasswordTokenSource) usable(tok *oauth2.Token) bool {
	if tok == nil || tok.AccessToken == "" || tok.Expiry.IsZero() {
		return false
	}
	return s.now().Add(s.leeway).Before(tok.Expiry)
}

// expiryFromJWT reads the exp claim without verifying the signature; the
// token is only inspected to schedule the next fetch.
func expiryFromJWT(raw string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
