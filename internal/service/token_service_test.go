package service

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)

	token, err := svc.GenerateToken(7, true)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.AccountID != 7 {
		t.Fatalf("expected account 7, got %d", claims.AccountID)
	}
	if !claims.IsAdmin {
		t.Fatalf("admin flag lost")
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	token, err := NewTokenService("secret-a", time.Hour).GenerateToken(7, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := NewTokenService("secret-b", time.Hour).ValidateToken(token); err == nil {
		t.Fatalf("expected validation to fail with wrong secret")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	token, err := NewTokenService("secret", time.Nanosecond).GenerateToken(7, false)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(10 * time.Millisecond)

	if _, err := NewTokenService("secret", time.Hour).ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestTokenRequiresAccountID(t *testing.T) {
	if _, err := NewTokenService("secret", time.Hour).GenerateToken(0, false); err == nil {
		t.Fatalf("expected error for zero account id")
	}
}
