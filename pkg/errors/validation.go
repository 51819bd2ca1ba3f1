package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxKeyLength bounds storage keys.
const maxKeyLength = 256

var storageKeyRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:-]*$`)

// ValidateStorageKey validates a key used to address a stored document.
// Keys double as file names for the file store and as Redis/Mongo keys, so
// they must be short, printable and free of path separators.
func ValidateStorageKey(key string) error {
	if key == "" {
		return New(ErrCodeInvalidKey, "storage key cannot be empty")
	}
	if len(key) > maxKeyLength {
		return New(ErrCodeInvalidKey, "storage key too long (max %d characters)", maxKeyLength)
	}
	for _, r := range key {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidKey, "storage key contains invalid control characters")
		}
	}
	if strings.Contains(key, "..") {
		return New(ErrCodeInvalidKey, "storage key cannot contain path traversal sequences (..)")
	}
	if !storageKeyRegex.MatchString(key) {
		return New(ErrCodeInvalidKey, "invalid storage key: %q", key)
	}
	return nil
}

// ValidateAddr validates an HTTP listen address such as ":8080" or
// "127.0.0.1:8080".
func ValidateAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "listen address cannot be empty")
	}
	i := strings.LastIndex(addr, ":")
	if i < 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidConfig, "listen address %q must include a port", addr)
	}
	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "listen address %q has a non-numeric port", addr)
		}
	}
	return nil
}
