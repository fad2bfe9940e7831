package cache

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

// GenerateKey joins prefix and parts with ':'. Parts longer than 64 characters
// are replaced by their MD5 hash to keep keys short.
func GenerateKey(prefix string, parts ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range parts {
		s := fmt.Sprintf("%v", p)
		if len(s) > 64 {
			s = HashKey(s)
		}
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// HashKey generates MD5 hash of a key.
func HashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
