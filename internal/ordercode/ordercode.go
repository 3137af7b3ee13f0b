// Package ordercode generates order codes and derives the receipt number, verification
// code and tracking code printed for customers. Derivations are pure functions of the
// order code so support staff can recompute them without a lookup.
package ordercode

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Prefix             = "TMB"
	ReceiptPrefix      = "RCPT-"
	VerificationPrefix = "VRF-"
	TrackingPrefix     = "TMB-RESI-"

	suffixLength       = 6
	trackingBodyLength = 12
	checksumModulus    = 99999999
	checksumWeight     = 17
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Generate returns a new order code of the form TMB-<unix seconds>-<6 random alphanumerics>.
func Generate(now time.Time) (string, error) {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random suffix: %w", err)
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("%s-%d-%s", Prefix, now.Unix(), buf), nil
}

// GatewayOrderID derives the identifier sent to the payment gateway. The timestamp
// suffix lets one order retry transaction creation without reusing an id.
func GatewayOrderID(orderCode string, now time.Time) string {
	return orderCode + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// IsValid reports whether s looks like an order code: non-empty, uppercase letters,
// digits and dashes only.
func IsValid(s string) bool {
	if s == "" || len(s) > 64 {
		return false
	}
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if !isUpperAlnum(ch) && ch != '-' {
			return false
		}
	}
	return true
}

// VerificationCode is a weighted checksum over the uppercased order code, formatted
// as VRF- followed by eight digits.
func VerificationCode(orderCode string) string {
	sum := 0
	for i, ch := range []rune(strings.ToUpper(orderCode)) {
		sum = (sum + int(ch)*(i+checksumWeight)) % checksumModulus
	}
	return fmt.Sprintf("%s%08d", VerificationPrefix, sum)
}

func ReceiptNumber(orderCode string) string {
	return ReceiptPrefix + orderCode
}

// ParseReceiptNumber extracts the order code from a receipt number.
func ParseReceiptNumber(receipt string) (string, bool) {
	receipt = strings.ToUpper(strings.TrimSpace(receipt))
	code, ok := strings.CutPrefix(receipt, ReceiptPrefix)
	if !ok || !IsValid(code) {
		return "", false
	}
	return code, true
}

// TrackingCode keeps the first twelve alphanumerics of the order code behind the
// TMB-RESI- marker.
func TrackingCode(orderCode string) string {
	var b strings.Builder
	for i := 0; i < len(orderCode) && b.Len() < trackingBodyLength; i++ {
		ch := orderCode[i]
		if 'a' <= ch && ch <= 'z' {
			ch -= 'a' - 'A'
		}
		if isUpperAlnum(ch) {
			b.WriteByte(ch)
		}
	}
	return TrackingPrefix + b.String()
}

// NormalizeTrackingCode uppercases a submitted tracking code and reports whether it
// has the shape TrackingCode produces.
func NormalizeTrackingCode(s string) (string, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	body, ok := strings.CutPrefix(s, TrackingPrefix)
	if !ok || body == "" || len(body) > trackingBodyLength {
		return "", false
	}
	for i := 0; i < len(body); i++ {
		if !isUpperAlnum(body[i]) {
			return "", false
		}
	}
	return s, true
}

func isUpperAlnum(ch byte) bool {
	return ('A' <= ch && ch <= 'Z') || ('0' <= ch && ch <= '9')
}
