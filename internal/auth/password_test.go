package auth

import (
	"strings"
	"testing"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("strong-password")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	if !VerifyPassword(hash, "strong-password") {
		t.Fatal("expected password verification to succeed")
	}
	if VerifyPassword(hash, "wrong-password") {
		t.Fatal("expected password verification to fail")
	}
	if VerifyPassword("", "strong-password") {
		t.Fatal("expected empty hash to never match")
	}
}

func TestHashPasswordLengthLimits(t *testing.T) {
	if _, err := HashPassword("short"); err != ErrWeakPassword {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("a", 73)); err != ErrPasswordTooLong {
		t.Fatalf("expected ErrPasswordTooLong, got %v", err)
	}
}
