package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
)

const tokenByteLength = 32

// GenerateToken returns an unpadded base64url token of 32 random bytes.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// WellFormedToken reports whether a caller-supplied token has the shape
// GenerateToken produces. A malformed value is a client error, not a miss.
func WellFormedToken(token string) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	return err == nil && len(raw) == tokenByteLength
}

const randomStringChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func GenerateRandomString(limit int) (string, error) {
	result := make([]byte, limit)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(randomStringChars))))
		if err != nil {
			return "", err
		}
		result[i] = randomStringChars[n.Int64()]
	}
	return string(result), nil
}
