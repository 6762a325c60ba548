package utils

import (
	"strings"
	"testing"
)

func TestHashAndVerifySecret(t *testing.T) {
	hash, err := HashSecret("secret1")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "secret1" {
		t.Error("hash must not equal the plaintext")
	}
	if !VerifySecret("secret1", hash) {
		t.Error("correct secret rejected")
	}
	if VerifySecret("wrong", hash) {
		t.Error("wrong secret accepted")
	}
}

func TestHashSecretSalted(t *testing.T) {
	first, err := HashSecret("secret1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := HashSecret("secret1")
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two hashes of the same secret must differ")
	}
}

func TestWellFormedToken(t *testing.T) {
	token, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name     string
		token    string
		expected bool
	}{
		{"generated", token, true},
		{"empty", "", false},
		{"too short", "abc", false},
		{"not base64url", strings.Repeat("!", 43), false},
		{"wrong length", strings.Repeat("A", 20), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if actual := WellFormedToken(tc.token); actual != tc.expected {
				t.Errorf("WellFormedToken(%q) = %v; want %v", tc.token, actual, tc.expected)
			}
		})
	}
}

func TestGenerateTokenUnique(t *testing.T) {
	first, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	second, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Error("two generated tokens must differ")
	}
}

func TestGenerateRandomString(t *testing.T) {
	s, err := GenerateRandomString(12)
	if err != nil {
		t.Fatal(err)
	}
	if len(s) != 12 {
		t.Errorf("len = %d; want 12", len(s))
	}
}
