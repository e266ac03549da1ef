package auth

import (
	"testing"

	"institute_app_echo/internal/models"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{
		ID:   42,
		Role: models.UserRoleAdmin,
	}
	pair, err := IssueTokenPair(user)
	if err != nil {
		t.Fatalf("IssueTokenPair() error: %v", err)
	}
	if pair.TokenType != "bearer" {
		t.Errorf("token type = %q, want bearer", pair.TokenType)
	}

	claims, err := ParseToken(pair.AccessToken, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ParseToken(access) error: %v", err)
	}
	if claims.Subject != "42" {
		t.Errorf("subject = %q, want 42", claims.Subject)
	}
	if claims.Role != string(models.UserRoleAdmin) {
		t.Errorf("role = %q, want ADMIN", claims.Role)
	}

	if _, err := ParseToken(pair.RefreshToken, TokenTypeRefresh); err != nil {
		t.Errorf("ParseToken(refresh) error: %v", err)
	}
}

func TestParseTokenRejectsWrongType(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	pair, err := IssueTokenPair(&models.User{ID: 1, Role: models.UserRoleStudent})
	if err != nil {
		t.Fatalf("IssueTokenPair() error: %v", err)
	}

	if _, err := ParseToken(pair.RefreshToken, TokenTypeAccess); err == nil {
		t.Error("refresh token accepted where an access token was expected")
	}
	if _, err := ParseToken(pair.AccessToken, TokenTypeRefresh); err == nil {
		t.Error("access token accepted where a refresh token was expected")
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := ParseToken("not.a.token", TokenTypeAccess); err == nil {
		t.Error("malformed token accepted")
	}
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "first-secret")
	pair, err := IssueTokenPair(&models.User{ID: 1, Role: models.UserRoleAdmin})
	if err != nil {
		t.Fatalf("IssueTokenPair() error: %v", err)
	}

	t.Setenv("JWT_SECRET", "second-secret")
	if _, err := ParseToken(pair.AccessToken, TokenTypeAccess); err == nil {
		t.Error("token signed with a different secret accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatal("password stored in the clear")
	}
	if !VerifyPassword("s3cret-pass", hash) {
		t.Error("correct password rejected")
	}
	if VerifyPassword("wrong-pass", hash) {
		t.Error("wrong password accepted")
	}
}
