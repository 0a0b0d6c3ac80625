package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256Hex returns the hex-encoded SHA256 hash of the input string.
func SHA256Hex(input string) string {
	h := sha256.Sum256([]byte(input))
	return hex.EncodeToString(h[:])
}

// ShortHex returns the first n characters of SHA256Hex(input).
// Used for log correlation where the full digest is noise.
func ShortHex(input string, n int) string {
	full := SHA256Hex(input)
	if n <= 0 || n > len(full) {
		return full
	}
	return full[:n]
}

// IteratedSHA256 applies SHA256 iteratively n times to produce a derived hash.
func IteratedSHA256(input string, iterations int) string {
	data := []byte(input)
	for range iterations {
		h := sha256.Sum256(data)
		data = h[:]
	}
	return hex.EncodeToString(data)
}

// HashIP hashes an IP address with a salt so rate-limit keys never hold raw addresses.
func HashIP(ip, salt string) string {
	return IteratedSHA256(salt+ip, 100)
}
