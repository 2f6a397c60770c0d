package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// FanID derives a stable 16-character identifier from a platform and
// username pair. Usernames are case-insensitive on every platform we
// support, so the handle is lowercased before hashing.
func FanID(platform, username string) string {
	key := strings.ToLower(strings.TrimSpace(platform)) + ":" + strings.ToLower(strings.TrimSpace(username))
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])[:16]
}
