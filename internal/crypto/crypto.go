// package crypto provides the random token primitive shared by the
// authorization code and access token managers.
package crypto

import (
	"crypto/rand"
)

// TokenLength is the length of generated authorization codes and access
// token values.
const TokenLength = 64

// alphabet is the unreserved URL safe character set from RFC 3986 §2.3.
// Values drawn from it can travel in a query string without escaping.
const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-._~"

// Token returns a cryptographically random string of n characters drawn from
// the unreserved URL safe alphabet.
func Token(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(buf), nil
}
