// Package auth produces the credentials attached to every backend call: a
// service identity token (Google-signed OIDC or a locally signed HS256
// token, per configuration) and a per-request session assertion.
package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/idtoken"
)

// TokenProvider yields a service credential for the backend.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// expiryMargin is how long before expiry a cached token is refreshed.
const expiryMargin = 30 * time.Second

// OIDCProvider fetches Google-signed identity tokens scoped to the backend
// audience. Tokens are cached until shortly before expiry; concurrent
// refreshes collapse into a single fetch.
type OIDCProvider struct {
	audience  string
	newSource func(ctx context.Context, audience string) (oauth2.TokenSource, error)

	mu     sync.Mutex
	source oauth2.TokenSource
	cached *oauth2.Token

	group singleflight.Group
}

// NewOIDCProvider creates an OIDCProvider for the given audience. The token
// source is created lazily on the first Token call.
func NewOIDCProvider(audience string) (*OIDCProvider, error) {
	if audience == "" {
		return nil, fmt.Errorf("oidc token provider requires a backend audience")
	}
	return &OIDCProvider{
		audience: audience,
		newSource: func(ctx context.Context, audience string) (oauth2.TokenSource, error) {
			return idtoken.NewTokenSource(ctx, audience)
		},
	}, nil
}

func (p *OIDCProvider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	if tok := p.cached; tok != nil && tok.Valid() && time.Until(tok.Expiry) > expiryMargin {
		p.mu.Unlock()
		return tok.AccessToken, nil
	}
	p.mu.Unlock()

	v, err, _ := p.group.Do("token", func() (interface{}, error) {
		p.mu.Lock()
		source := p.source
		p.mu.Unlock()

		if source == nil {
			created, err := p.newSource(ctx, p.audience)
			if err != nil {
				return nil, fmt.Errorf("creating identity token source: %w", err)
			}
			p.mu.Lock()
			p.source = created
			p.mu.Unlock()
			source = created
		}

		tok, err := source.Token()
		if err != nil {
			return nil, fmt.Errorf("fetching identity token: %w", err)
		}

		p.mu.Lock()
		p.cached = tok
		p.mu.Unlock()
		return tok.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// HS256Provider signs service tokens locally with a shared secret. It stands
// in for the OIDC provider where no metadata server is available.
type HS256Provider struct {
	secret   []byte
	issuer   string
	audience string
	ttl      time.Duration
	now      func() time.Time

	mu     sync.Mutex
	cached string
	expiry time.Time
}

func NewHS256Provider(secret, issuer, audience string, ttl time.Duration) (*HS256Provider, error) {
	if secret == "" {
		return nil, fmt.Errorf("hs256 token provider requires a signing secret")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &HS256Provider{
		secret:   []byte(secret),
		issuer:   issuer,
		audience: audience,
		ttl:      ttl,
		now:      time.Now,
	}, nil
}

func (p *HS256Provider) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if p.cached != "" && p.expiry.Sub(now) > expiryMargin {
		return p.cached, nil
	}

	expiry := now.Add(p.ttl)
	claims := jwt.MapClaims{
		"iss": p.issuer,
		"aud": p.audience,
		"iat": now.Unix(),
		"exp": expiry.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("signing service token: %w", err)
	}

	p.cached = signed
	p.expiry = expiry
	return signed, nil
}

// SessionSigner mints the per-request session assertion carried in the
// Authorization header. The backend resolves the acting educator from the
// sessionId claim.
type SessionSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionSigner(secret, issuer string, ttl time.Duration) (*SessionSigner, error) {
	if secret == "" {
		return nil, fmt.Errorf("session signer requires a signing secret")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SessionSigner{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Sign produces a short-lived HS256 assertion binding the opaque session
// identifier supplied by the calling context.
func (s *SessionSigner) Sign(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sessionId": sessionID,
		"iss":       s.issuer,
		"iat":       now.Unix(),
		"exp":       now.Add(s.ttl).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing session token: %w", err)
	}
	return signed, nil
}
