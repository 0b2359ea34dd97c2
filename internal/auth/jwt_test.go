package auth

import (
	"strings"
	"testing"

	"github.com/erazemk/oprema/internal/model"
)

const testSecret = "test-secret"

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken(testSecret, 42, "alice", model.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}

	if claims.UserID != 42 {
		t.Errorf("expected user id 42, got %d", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Errorf("expected username alice, got %q", claims.Username)
	}
	if claims.Role != model.RoleAdmin {
		t.Errorf("expected role admin, got %q", claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected non-empty JTI")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken(testSecret, 1, "bob", model.RoleUser)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	if _, err := ValidateToken("other-secret", token); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken(testSecret, "not.a.token"); err == nil {
		t.Error("expected error for garbage token")
	}
}

func TestUniqueJTIs(t *testing.T) {
	seen := map[string]bool{}
	for range 10 {
		token, err := GenerateToken(testSecret, 1, "bob", model.RoleUser)
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		claims, err := ValidateToken(testSecret, token)
		if err != nil {
			t.Fatalf("ValidateToken: %v", err)
		}
		if seen[claims.ID] {
			t.Fatalf("duplicate JTI %q", claims.ID)
		}
		seen[claims.ID] = true
	}
}

func TestTokenHasThreeSegments(t *testing.T) {
	token, _ := GenerateToken(testSecret, 1, "bob", model.RoleUser)
	if parts := strings.Split(token, "."); len(parts) != 3 {
		t.Errorf("expected 3 token segments, got %d", len(parts))
	}
}
