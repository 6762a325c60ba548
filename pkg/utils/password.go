package utils

import (
	"golang.org/x/crypto/bcrypt"
)

// Work factor for login passwords and security answers alike.
const secretHashCost = 10

func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), secretHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
