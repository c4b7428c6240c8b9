package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)

	token, expires, err := issuer.GenerateToken(7, "chef@yummyfi.in", "Chef", true)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := issuer.ParseToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "chef@yummyfi.in", claims.Email)
	assert.True(t, claims.Admin)
}

func TestParseTokenRejectsForeignAndExpired(t *testing.T) {
	issuer := NewTokenIssuer("test-secret", time.Hour)
	other := NewTokenIssuer("other-secret", time.Hour)

	token, _, err := other.GenerateToken(1, "a@b.c", "A", false)
	require.NoError(t, err)
	_, err = issuer.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired := NewTokenIssuer("test-secret", -time.Minute)
	token, _, err = expired.GenerateToken(1, "a@b.c", "A", false)
	require.NoError(t, err)
	_, err = issuer.ParseToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = issuer.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenBlacklist(t *testing.T) {
	b := NewTokenBlacklist()
	b.Add("live", time.Now().Add(time.Hour))
	b.Add("stale", time.Now().Add(-time.Minute))

	assert.True(t, b.Contains("live"))
	assert.False(t, b.Contains("stale"))
	assert.False(t, b.Contains("unknown"))

	assert.Equal(t, 1, b.Purge(time.Now()))
	assert.True(t, b.Contains("live"))
}

func TestFormatINR(t *testing.T) {
	cases := map[float64]string{
		0:         "₹0.00",
		480:       "₹480.00",
		1234.5:    "₹1,234.50",
		1234567.5: "₹12,34,567.50",
		-99.999:   "-₹100.00",
		100000:    "₹1,00,000.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatINR(in), "FormatINR(%v)", in)
	}
	assert.Equal(t, "200.00", FormatAmount(200))
}
