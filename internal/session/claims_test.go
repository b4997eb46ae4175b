package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ainotes-dev/ainotes/internal/storage"
)

func signed(t *testing.T, kind string, exp time.Time) string {
	t.Helper()
	claims := accessClaims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-only"))
	if err != nil {
		t.Fatalf("signing: %v", err)
	}
	return tok
}

func TestInspectToken(t *testing.T) {
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)
	info, err := InspectToken(signed(t, "access", exp))
	if err != nil {
		t.Fatalf("InspectToken: %v", err)
	}
	if info.Subject != "u-1" || info.Type != "access" {
		t.Errorf("info = %+v", info)
	}
	if !info.ExpiresAt.Equal(exp) {
		t.Errorf("ExpiresAt = %v, want %v", info.ExpiresAt, exp)
	}
	if info.Expired(time.Now()) {
		t.Error("token should not be expired yet")
	}
	if !info.Expired(exp.Add(time.Second)) {
		t.Error("token should be expired after exp")
	}
}

func TestInspectToken_Malformed(t *testing.T) {
	if _, err := InspectToken("not-a-jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestAccessInfo(t *testing.T) {
	m, store, _ := newTestManager(t, &fakeAuth{})

	if _, ok := m.AccessInfo(); ok {
		t.Error("AccessInfo() ok with no token")
	}

	exp := time.Now().Add(time.Hour)
	if err := store.SetMany(map[string]string{storage.KeyAccessToken: signed(t, "access", exp)}); err != nil {
		t.Fatalf("SetMany: %v", err)
	}
	info, ok := m.AccessInfo()
	if !ok {
		t.Fatal("AccessInfo() not ok")
	}
	if info.Subject != "u-1" {
		t.Errorf("Subject = %q", info.Subject)
	}
}
