package identifier

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// TokenLength is the length of the rendered access token.
const TokenLength = tokenBytes * 2

// NewToken returns a random bearer token for the owner/vendor view of a cart.
// Anyone holding it can approve the cart, so it must never be logged.
func NewToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
