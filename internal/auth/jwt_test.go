package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sigmatax/console/internal/util"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("api-side-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func TestDecodeToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)

	tests := []struct {
		name    string
		token   string
		wantErr bool
		role    string
		staffID util.ID
	}{
		{
			name:    "valid",
			token:   signToken(t, jwt.MapClaims{"staff_id": 7, "role": "admin", "is_admin": true, "exp": exp.Unix()}),
			role:    "ADMIN",
			staffID: "7",
		},
		{
			name:    "subject fallback",
			token:   signToken(t, jwt.MapClaims{"sub": "9", "role": "STAFF", "exp": exp.Unix()}),
			role:    "STAFF",
			staffID: "9",
		},
		{name: "missing exp", token: signToken(t, jwt.MapClaims{"staff_id": "7", "role": "STAFF"}), wantErr: true},
		{name: "missing role", token: signToken(t, jwt.MapClaims{"staff_id": "7", "exp": exp.Unix()}), wantErr: true},
		{name: "garbage", token: "not.a.token", wantErr: true},
		{name: "empty", token: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			claims, err := DecodeToken(tc.token)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("expected ErrInvalidToken got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if claims.Role != tc.role {
				t.Fatalf("expected role %s got %s", tc.role, claims.Role)
			}
			if claims.StaffID != tc.staffID {
				t.Fatalf("expected staff %s got %s", tc.staffID, claims.StaffID)
			}
			if !claims.ExpiresAtTime().Equal(exp) {
				t.Fatalf("expected exp %s got %s", exp, claims.ExpiresAtTime())
			}
		})
	}
}

func TestClaimsExpired(t *testing.T) {
	now := time.Now()
	past := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(-time.Minute))}}
	future := &Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(now.Add(time.Minute))}}

	if !past.Expired(now) {
		t.Fatalf("expected past token to be expired")
	}
	if future.Expired(now) {
		t.Fatalf("expected future token to be valid")
	}
	if !(&Claims{}).Expired(now) {
		t.Fatalf("expected token without exp to be expired")
	}
}

func TestSessionID(t *testing.T) {
	raw, hashed, err := NewSessionID()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidSessionID(raw); err != nil {
		t.Fatalf("expected valid id: %v", err)
	}
	if HashSessionID(raw) != hashed {
		t.Fatalf("hash mismatch")
	}
	if SessionKey(hashed) != "session:"+hashed {
		t.Fatalf("unexpected key %s", SessionKey(hashed))
	}
	if ValidSessionID("short") == nil {
		t.Fatalf("expected invalid id")
	}
}
