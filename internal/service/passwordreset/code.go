package passwordreset

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"strings"
)

// 5 random bytes are exactly 8 base32 characters
const codeBytes = 5

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// generateCode returns 8 characters from A-Z2-7 alphabet
func generateCode() (string, error) {
	b := make([]byte, codeBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("can't read random bytes. Err: %w", err)
	}

	return codeEncoding.EncodeToString(b), nil
}

// Users may type the code in lower case or copy it with spaces around
func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
