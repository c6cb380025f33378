package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndParse(t *testing.T) {
	iss := NewTokenIssuer("secret", time.Minute)
	tok, id, err := iss.Issue(42)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	claims, err := iss.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
	assert.Equal(t, id, claims.ID)
}

func TestParseRejectsOtherSecret(t *testing.T) {
	tok, _, err := NewTokenIssuer("secret", time.Minute).Issue(1)
	require.NoError(t, err)

	_, err = NewTokenIssuer("other", time.Minute).Parse(tok)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseExpired(t *testing.T) {
	iss := NewTokenIssuer("secret", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	tok, _, err := iss.Issue(1)
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Parse(tok)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseGarbage(t *testing.T) {
	_, err := NewTokenIssuer("secret", time.Minute).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
