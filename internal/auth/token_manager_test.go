package auth

import (
	"testing"
	"time"
)

func TestIssueAndParseTokenPair(t *testing.T) {
	manager, err := NewTokenManager("test-secret", "biteback-api", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	user := User{ID: "usr_1", Role: RoleCustomer}
	pair, err := manager.IssueTokenPair(user, "ses_1")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	accessClaims, err := manager.ParseAndValidate(pair.AccessToken, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ParseAndValidate(access) error = %v", err)
	}
	if accessClaims.UserID != user.ID || accessClaims.Role != user.Role || accessClaims.SessionID != "ses_1" {
		t.Fatalf("unexpected claims: %+v", accessClaims)
	}

	if _, err := manager.ParseAndValidate(pair.AccessToken, TokenTypeRefresh); err != ErrInvalidTokenType {
		t.Fatalf("expected ErrInvalidTokenType, got %v", err)
	}

	refreshClaims, err := manager.ParseAndValidate(pair.RefreshToken, TokenTypeRefresh)
	if err != nil {
		t.Fatalf("ParseAndValidate(refresh) error = %v", err)
	}
	if refreshClaims.SessionID != "ses_1" {
		t.Fatalf("unexpected session id: %s", refreshClaims.SessionID)
	}
}

func TestParseInvalidSignature(t *testing.T) {
	good, err := NewTokenManager("good-secret", "biteback-api", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	bad, err := NewTokenManager("bad-secret", "biteback-api", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	pair, err := good.IssueTokenPair(User{ID: "usr_1", Role: RoleCustomer}, "ses_1")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	if _, err := bad.ParseAndValidate(pair.AccessToken, TokenTypeAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func testDuration(seconds int) time.Duration {
	return time.Duration(seconds) * time.Second
}

func TestParseRejectsForeignIssuer(t *testing.T) {
	ours, err := NewTokenManager("shared-secret", "biteback-api", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	theirs, err := NewTokenManager("shared-secret", "someone-else", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	pair, err := theirs.IssueTokenPair(User{ID: "usr_1", Role: RoleStaff}, "ses_1")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	if _, err := ours.ParseAndValidate(pair.AccessToken, TokenTypeAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseMalformedToken(t *testing.T) {
	manager, err := NewTokenManager("test-secret", "biteback-api", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}

	if _, err := manager.ParseAndValidate("not-a-jwt", TokenTypeAccess); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseExpiredToken(t *testing.T) {
	manager, err := NewTokenManager("test-secret", "biteback-api", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	manager.now = func() time.Time { return time.Now().UTC().Add(-2 * time.Hour) }

	pair, err := manager.IssueTokenPair(User{ID: "usr_1", Role: RoleCustomer}, "ses_1")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}

	if _, err := manager.ParseAndValidate(pair.AccessToken, TokenTypeAccess); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	if _, err := manager.ParseAndValidate(pair.RefreshToken, TokenTypeRefresh); err != ErrTokenExpired {
		t.Fatalf("expected ErrTokenExpired for refresh token, got %v", err)
	}
}

func TestTokensCarryUniqueIDs(t *testing.T) {
	manager, err := NewTokenManager("test-secret", "biteback-api", testDuration(900), testDuration(3600))
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	manager.now = func() time.Time { return time.Now().UTC().Truncate(time.Second) }

	user := User{ID: "usr_1", Role: RoleOwner}
	first, err := manager.IssueTokenPair(user, "ses_1")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}
	second, err := manager.IssueTokenPair(user, "ses_1")
	if err != nil {
		t.Fatalf("IssueTokenPair() error = %v", err)
	}
	if first.RefreshToken == second.RefreshToken {
		t.Fatal("expected distinct refresh tokens for the same session")
	}

	claims, err := manager.ParseAndValidate(first.AccessToken, TokenTypeAccess)
	if err != nil {
		t.Fatalf("ParseAndValidate() error = %v", err)
	}
	if claims.TokenID == "" || claims.Role != RoleOwner {
		t.Fatalf("unexpected claims %+v", claims)
	}
}
