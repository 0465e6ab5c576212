package oauth2

import (
	"crypto/sha256"
	"encoding/base64"
)

// VerifyChallenge reports whether the PKCE code verifier matches the stored
// code challenge under the S256 method: the challenge is the unpadded URL
// safe base64 encoding of the verifier's SHA-256 digest. Any method other
// than S256 is rejected upstream before a challenge is ever stored.
func VerifyChallenge(verifier, challenge string) bool {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:]) == challenge
}
