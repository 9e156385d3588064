package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/jkihlstad/weapons-admin-hooks/types"
)

const (
	// SecretPrefix marks generated secrets so they are recognizable in
	// subscriber configuration without revealing anything about the key.
	SecretPrefix = "whsec_"

	secretAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	secretLength   = 43
)

// GenerateSecret creates a fresh signing secret. The full value is returned
// exactly once to the caller; afterwards only the masked form is exposed.
func GenerateSecret() (string, error) {
	id, err := gonanoid.Generate(secretAlphabet, secretLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return SecretPrefix + id, nil
}

// Sign computes the hex-encoded HMAC-SHA256 over "<unix-ts>.<payload>" with
// the given secret. The subscriber recomputes the same value to verify the
// request came from us and was not altered in transit.
func Sign(payload []byte, secret string, ts time.Time) (string, error) {
	if secret == "" {
		return "", types.ErrSigning
	}
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts.Unix())
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// Verify reports whether sig is a valid signature for payload under secret at
// the given timestamp. Comparison is constant-time.
func Verify(payload []byte, secret string, ts time.Time, sig string) bool {
	expected, err := Sign(payload, secret, ts)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(expected), []byte(sig))
}
