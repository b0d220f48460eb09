package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type fakeTokenSource struct {
	calls  int
	expiry time.Time
}

func (f *fakeTokenSource) Token() (*oauth2.Token, error) {
	f.calls++
	return &oauth2.Token{
		AccessToken: "id-token-" + time.Now().Format("150405.000000000"),
		Expiry:      f.expiry,
	}, nil
}

func TestOIDCProvider_CachesUntilNearExpiry(t *testing.T) {
	source := &fakeTokenSource{expiry: time.Now().Add(time.Hour)}
	provider := &OIDCProvider{
		audience: "https://backend.example",
		newSource: func(ctx context.Context, audience string) (oauth2.TokenSource, error) {
			return source, nil
		},
	}
	ctx := context.Background()

	first, err := provider.Token(ctx)
	require.NoError(t, err)
	second, err := provider.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, source.calls, "fresh token must be served from cache")
}

func TestOIDCProvider_RefreshesExpiredToken(t *testing.T) {
	source := &fakeTokenSource{expiry: time.Now().Add(-time.Minute)}
	provider := &OIDCProvider{
		audience: "https://backend.example",
		newSource: func(ctx context.Context, audience string) (oauth2.TokenSource, error) {
			return source, nil
		},
	}
	ctx := context.Background()

	_, err := provider.Token(ctx)
	require.NoError(t, err)
	_, err = provider.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, source.calls, "expired token must be refetched")
}

func TestNewOIDCProvider_RequiresAudience(t *testing.T) {
	_, err := NewOIDCProvider("")
	assert.Error(t, err)
}

func TestHS256Provider_TokenVerifiable(t *testing.T) {
	provider, err := NewHS256Provider("test-secret", "quizard-tools", "https://backend.example", time.Hour)
	require.NoError(t, err)

	token, err := provider.Token(context.Background())
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "quizard-tools", claims["iss"])
	assert.Equal(t, "https://backend.example", claims["aud"])
}

func TestHS256Provider_CachesToken(t *testing.T) {
	provider, err := NewHS256Provider("test-secret", "quizard-tools", "aud", time.Hour)
	require.NoError(t, err)

	first, err := provider.Token(context.Background())
	require.NoError(t, err)
	second, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestHS256Provider_RefreshesNearExpiry(t *testing.T) {
	provider, err := NewHS256Provider("test-secret", "quizard-tools", "aud", time.Hour)
	require.NoError(t, err)

	base := time.Now()
	provider.now = func() time.Time { return base }
	first, err := provider.Token(context.Background())
	require.NoError(t, err)

	provider.now = func() time.Time { return base.Add(time.Hour - time.Second) }
	second, err := provider.Token(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSessionSigner_BindsSessionID(t *testing.T) {
	signer, err := NewSessionSigner("session-secret", "quizard-tools", 15*time.Minute)
	require.NoError(t, err)

	token, err := signer.Sign("sess_abc123")
	require.NoError(t, err)

	parsed, err := jwt.Parse(token, func(tok *jwt.Token) (interface{}, error) {
		return []byte("session-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	require.NoError(t, err)

	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "sess_abc123", claims["sessionId"])
	assert.Equal(t, "quizard-tools", claims["iss"])
}

func TestNewSessionSigner_RequiresSecret(t *testing.T) {
	_, err := NewSessionSigner("", "quizard-tools", 0)
	assert.Error(t, err)
}
