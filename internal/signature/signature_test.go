package signature

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

func TestGenerateSecret(t *testing.T) {
	secret, err := GenerateSecret()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(secret, SecretPrefix))
	assert.Len(t, secret, len(SecretPrefix)+secretLength)

	other, err := GenerateSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestSignIsDeterministic(t *testing.T) {
	payload := []byte(`{"order":"1234"}`)
	ts := time.Unix(1700000000, 0)

	a, err := Sign(payload, "whsec_test", ts)
	require.NoError(t, err)
	b, err := Sign(payload, "whsec_test", ts)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64) // hex SHA-256
}

func TestSignEmptySecret(t *testing.T) {
	_, err := Sign([]byte("payload"), "", time.Now())
	assert.ErrorIs(t, err, types.ErrSigning)
}

func TestVerifyRoundTrip(t *testing.T) {
	payload := []byte(`{"event":"order.created"}`)
	ts := time.Now()

	sig, err := Sign(payload, "whsec_one", ts)
	require.NoError(t, err)

	assert.True(t, Verify(payload, "whsec_one", ts, sig))
	assert.False(t, Verify(payload, "whsec_two", ts, sig))
	assert.False(t, Verify([]byte("tampered"), "whsec_one", ts, sig))
	assert.False(t, Verify(payload, "whsec_one", ts.Add(time.Second), sig))
}

// Rotation contract: a signature made with the new secret must fail
// verification against the old secret and pass against the new one.
func TestRotationInvalidatesOldSecret(t *testing.T) {
	payload := []byte(`{"event":"payment.failed"}`)
	ts := time.Now()

	oldSecret, err := GenerateSecret()
	require.NoError(t, err)
	newSecret, err := GenerateSecret()
	require.NoError(t, err)

	sig, err := Sign(payload, newSecret, ts)
	require.NoError(t, err)

	assert.True(t, Verify(payload, newSecret, ts, sig))
	assert.False(t, Verify(payload, oldSecret, ts, sig))
}
