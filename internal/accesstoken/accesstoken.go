// Package accesstoken issues and verifies the public tokens that let a customer poll
// their own order without logging in.
package accesstoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
)

var ErrNoSecret = errors.New("access token secret is required")

// Issuer signs order ids with the first key and accepts tokens signed by any key in
// the list, so a secret can be rotated without breaking links already sent out.
type Issuer struct {
	keys [][]byte
}

// NewIssuer builds an Issuer from secrets ordered newest first. Empty entries are
// skipped so an unset "previous" secret can be passed through unchanged.
func NewIssuer(secrets ...string) (*Issuer, error) {
	keys := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		if s == "" {
			continue
		}
		keys = append(keys, []byte(s))
	}
	if len(keys) == 0 {
		return nil, ErrNoSecret
	}
	return &Issuer{keys: keys}, nil
}

// Issue returns the hex HMAC-SHA256 of orderID under the current secret.
func (i *Issuer) Issue(orderID string) string {
	return hex.EncodeToString(sign(i.keys[0], orderID))
}

// Verify reports whether token was issued for orderID under any configured secret.
func (i *Issuer) Verify(orderID, token string) bool {
	if orderID == "" || token == "" {
		return false
	}
	presented, err := hex.DecodeString(strings.TrimSpace(token))
	if err != nil {
		return false
	}

	valid := false
	for _, key := range i.keys {
		if hmac.Equal(sign(key, orderID), presented) {
			valid = true
		}
	}
	return valid
}

func sign(key []byte, orderID string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(orderID))
	return mac.Sum(nil)
}
