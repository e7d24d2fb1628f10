package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/larder-backend/pkg/config"
)

func testConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "larder", ExpirationMinutes: 30}
}

func newVerifier(t *testing.T, cfg config.JWTConfig) *Verifier {
	t.Helper()
	v, err := NewVerifier(cfg)
	require.NoError(t, err)
	return v
}

func TestMintThenVerify(t *testing.T) {
	cfg := testConfig()
	now := time.Now().UTC().Truncate(time.Second)
	userID := uuid.New()

	token, err := Mint(cfg, now, userID)
	require.NoError(t, err)

	id, err := newVerifier(t, cfg).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.NotEmpty(t, id.TokenID)
	assert.True(t, id.ExpiresAt.Equal(now.Add(30*time.Minute)))
}

func TestVerifyRejects(t *testing.T) {
	cfg := testConfig()
	userID := uuid.New()
	valid, err := Mint(cfg, time.Now(), userID)
	require.NoError(t, err)
	expired, err := Mint(cfg, time.Now().Add(-2*time.Hour), userID)
	require.NoError(t, err)

	otherSecret := cfg
	otherSecret.Secret = "different"
	otherIssuer := cfg
	otherIssuer.Issuer = "someone-else"

	cases := map[string]struct {
		cfg   config.JWTConfig
		token string
	}{
		"expired":      {cfg, expired},
		"bad secret":   {otherSecret, valid},
		"wrong issuer": {otherIssuer, valid},
		"truncated":    {cfg, valid[:len(valid)-2]},
		"garbage":      {cfg, "not.a.jwt"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newVerifier(t, tc.cfg).Verify(tc.token)
			assert.Error(t, err)
		})
	}
}

func TestVerifyLeewayAcceptsSlightlyExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.ExpirationMinutes = 1
	token, err := Mint(cfg, time.Now().Add(-70*time.Second), uuid.New())
	require.NoError(t, err)

	_, err = newVerifier(t, cfg).Verify(token)
	require.Error(t, err)

	cfg.LeewaySeconds = 30
	_, err = newVerifier(t, cfg).Verify(token)
	assert.NoError(t, err)
}

func TestVerifyRequiresUserSubjectAndExpiry(t *testing.T) {
	cfg := testConfig()
	sign := func(claims jwt.RegisteredClaims) string {
		signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
		require.NoError(t, err)
		return signed
	}
	v := newVerifier(t, cfg)

	_, err := v.Verify(sign(jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}))
	assert.ErrorIs(t, err, ErrNoSubject)

	_, err = v.Verify(sign(jwt.RegisteredClaims{Issuer: cfg.Issuer, Subject: uuid.NewString()}))
	assert.Error(t, err)
}

func TestConstructorsValidateConfig(t *testing.T) {
	_, err := NewVerifier(config.JWTConfig{Issuer: "x"})
	assert.Error(t, err)
	_, err = NewVerifier(config.JWTConfig{Secret: "x"})
	assert.Error(t, err)

	_, err = Mint(config.JWTConfig{}, time.Now(), uuid.New())
	assert.Error(t, err)
	_, err = Mint(testConfig(), time.Now(), uuid.Nil)
	assert.Error(t, err)
}
