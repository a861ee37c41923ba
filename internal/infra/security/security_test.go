package security

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/adapter"
)

func TestHMACVerifier(t *testing.T) {
	v := NewHMACVerifier("sk_test_secret")
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	sig := v.Sign(body)

	t.Run("valid signature", func(t *testing.T) {
		assert.NoError(t, v.Verify(body, sig))
	})

	t.Run("upper-case hex is accepted", func(t *testing.T) {
		assert.NoError(t, v.Verify(body, toUpper(sig)))
	})

	t.Run("missing signature", func(t *testing.T) {
		err := v.Verify(body, "")
		require.Error(t, err)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
		assert.Equal(t, "missing signature", domain.MessageOf(err))
	})

	t.Run("tampered body", func(t *testing.T) {
		err := v.Verify(append(body, ' '), sig)
		require.Error(t, err)
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
		assert.Equal(t, "invalid signature", domain.MessageOf(err))
	})

	t.Run("garbage signature", func(t *testing.T) {
		err := v.Verify(body, "not-hex")
		assert.Equal(t, domain.KindForbidden, domain.KindOf(err))
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewHMACVerifier("another")
		assert.Error(t, other.Verify(body, sig))
	})
}

func toUpper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 32
		}
	}
	return string(b)
}

func TestBcryptHasher(t *testing.T) {
	h := NewBcryptHasher(4)
	hash, err := h.Hash("s3cret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret-pass", hash)

	assert.NoError(t, h.Compare(hash, "s3cret-pass"))
	err = h.Compare(hash, "wrong")
	require.Error(t, err)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))
}

func TestJWTIssuer(t *testing.T) {
	iss := NewJWTIssuer("jwt-secret", time.Minute, time.Hour)

	pair, err := iss.Issue("user-1", "ada")
	require.NoError(t, err)

	claims, err := iss.Parse(pair.Access, adapter.TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada", claims.Username)

	_, err = iss.Parse(pair.Refresh, adapter.TokenAccess)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err), "refresh token must not pass as access")

	_, err = NewJWTIssuer("other", time.Minute, time.Hour).Parse(pair.Access, adapter.TokenAccess)
	assert.Equal(t, domain.KindUnauthorized, domain.KindOf(err))

	expired := NewJWTIssuer("jwt-secret", time.Minute, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Minute) }
	old, err := expired.IssueAccess("user-1", "ada")
	require.NoError(t, err)
	_, err = iss.Parse(old, adapter.TokenAccess)
	require.Error(t, err)
	assert.Equal(t, "token expired", domain.MessageOf(err))
}
