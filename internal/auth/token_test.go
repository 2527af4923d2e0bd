package auth

import (
	"strings"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, exp, err := tm.GenerateToken("user-1", true, false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry should be in the future")
	}

	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Errorf("UserID = %q, want user-1", claims.UserID)
	}
	if !claims.IsRepairman {
		t.Error("IsRepairman flag lost in round trip")
	}
	if claims.HasShop {
		t.Error("HasShop flag should be false")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	tm := NewTokenManager("secret-a", 60)
	other := NewTokenManager("secret-b", 60)

	token, _, err := tm.GenerateToken("user-1", false, false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := other.ParseToken(token); err == nil {
		t.Fatal("token signed with a different secret should be rejected")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)
	tm.ttl = -time.Minute

	token, _, err := tm.GenerateToken("user-1", false, false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := tm.ParseToken(token); err == nil {
		t.Fatal("expired token should be rejected")
	}
}

func TestParseTokenRejectsTampered(t *testing.T) {
	tm := NewTokenManager("test-secret", 60)

	token, _, err := tm.GenerateToken("user-1", false, false)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + ".AAAA"
	if _, err := tm.ParseToken(tampered); err == nil {
		t.Fatal("tampered signature should be rejected")
	}
}
