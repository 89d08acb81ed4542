package digest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// protocolTag is prepended to every signed parameter string. Changing it
// breaks compatibility with deployed workers.
const protocolTag = "FRAMEFARM"

// Sign returns the hex HMAC-SHA256 of s under key.
func Sign(s, key string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(s))
	return hex.EncodeToString(mac.Sum(nil))
}

// SignParams computes the request digest for a parameter map: parameters are
// sorted by name, joined as "name:value" lines, prefixed with the protocol
// tag and signed with the user's key. The digest parameter itself must not be
// in params. The result does not depend on map iteration order.
func SignParams(params map[string]string, key string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+":"+params[name])
	}
	return Sign(protocolTag+strings.Join(lines, "\n"), key)
}

// Equal compares two digests in constant time.
func Equal(a, b string) bool {
	return hmac.Equal([]byte(a), []byte(b))
}
