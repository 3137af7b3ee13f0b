package gateway

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/DanielPopoola/storefront/internal/domain"
)

// SignatureVerifier checks notification signatures against an ordered list of server
// keys, current first. Keeping the previous key in the list lets a key rotation
// happen without rejecting deliveries signed just before it.
type SignatureVerifier struct {
	keys []string
}

func NewSignatureVerifier(keys ...string) *SignatureVerifier {
	v := &SignatureVerifier{}
	for _, k := range keys {
		if k != "" {
			v.keys = append(v.keys, k)
		}
	}
	return v
}

// Sign computes the signature the gateway attaches to n when signing with serverKey:
// hex SHA-512 of order_id, status_code, gross_amount and the key, concatenated.
func Sign(n domain.Notification, serverKey string) string {
	sum := sha512.Sum512([]byte(n.OrderID + n.StatusCode + n.GrossAmount + serverKey))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether signature matches n under any configured key. Every key is
// checked so the time taken does not depend on which one matched.
func (v *SignatureVerifier) Verify(n domain.Notification, signature string) bool {
	presented := []byte(strings.ToLower(strings.TrimSpace(signature)))
	if len(presented) == 0 {
		return false
	}

	match := 0
	for _, key := range v.keys {
		match |= subtle.ConstantTimeCompare(presented, []byte(Sign(n, key)))
	}
	return match == 1
}
