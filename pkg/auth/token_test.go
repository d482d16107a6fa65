package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/carelane/medstock-backend/pkg/config"
	"github.com/carelane/medstock-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var testCfg = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "medstock",
	ExpirationMinutes: 30,
}

func TestMintAndParseAccessToken(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()

	token, err := MintAccessToken(testCfg, now, AccessTokenPayload{
		UserID:   userID,
		Username: "nurse.joy",
		Role:     enums.UserRoleStaff,
		JTI:      "session-1",
	})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	claims, err := ParseAccessToken(testCfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("expected userId %s, got %s", userID, claims.UserID)
	}
	if claims.Username != "nurse.joy" {
		t.Fatalf("unexpected username %s", claims.Username)
	}
	if claims.Role != enums.UserRoleStaff {
		t.Fatalf("unexpected role %s", claims.Role)
	}
	if claims.ID != "session-1" {
		t.Fatalf("expected jti session-1, got %s", claims.ID)
	}
	if claims.Issuer != testCfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", testCfg.Issuer, claims.Issuer)
	}

	exp := now.Add(30 * time.Minute)
	diff := claims.ExpiresAt.Sub(exp)
	if diff < 0 {
		diff = -diff
	}
	if diff >= time.Second {
		t.Fatalf("expected exp roughly %v, got %v", exp, claims.ExpiresAt.UTC())
	}
}

func TestMintGeneratesJTI(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleAdmin})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	claims, err := ParseAccessToken(testCfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		t.Fatalf("expected uuid jti, got %q", claims.ID)
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	_, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: "janitor"})
	if err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestParseAccessTokenInvalidSignature(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleStaff})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := testCfg
	other.Secret = "different"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected signature error")
	}

	tampered := token[:strings.LastIndex(token, ".")+1] + "AAAA"
	if _, err := ParseAccessToken(testCfg, tampered); err == nil {
		t.Fatal("expected error for tampered signature")
	}
}

func TestExpiredTokenOnlyParsesWhenAllowed(t *testing.T) {
	issued := time.Now().Add(-2 * time.Hour)
	token, err := MintAccessToken(testCfg, issued, AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleStaff, JTI: "old"})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testCfg, token); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
	claims, err := ParseAccessTokenAllowExpired(testCfg, token)
	if err != nil {
		t.Fatalf("allow expired: %v", err)
	}
	if claims.ID != "old" {
		t.Fatalf("expected jti old, got %s", claims.ID)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := MintAccessToken(testCfg, time.Now(), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleStaff})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	other := testCfg
	other.Issuer = "someone-else"
	if _, err := ParseAccessToken(other, token); err == nil {
		t.Fatal("expected issuer mismatch")
	}
}

func TestParseRejectsIncompleteIdentity(t *testing.T) {
	now := time.Now()
	userID := uuid.New()
	sign := func(c AccessTokenClaims) string {
		c.Issuer = testCfg.Issuer
		c.ExpiresAt = jwt.NewNumericDate(now.Add(time.Minute))
		s, err := jwt.NewWithClaims(jwtSigningMethod, c).SignedString([]byte(testCfg.Secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return s
	}

	cases := map[string]AccessTokenClaims{
		"missing jti":      {UserID: userID, Role: enums.UserRoleStaff},
		"unknown role":     {UserID: userID, Role: "root", RegisteredClaims: jwt.RegisteredClaims{ID: "s"}},
		"subject mismatch": {UserID: userID, Role: enums.UserRoleStaff, RegisteredClaims: jwt.RegisteredClaims{ID: "s", Subject: uuid.NewString()}},
	}
	for name, c := range cases {
		if _, err := ParseAccessToken(testCfg, sign(c)); err == nil {
			t.Fatalf("%s: expected rejection", name)
		}
		if _, err := ParseAccessTokenAllowExpired(testCfg, sign(c)); err == nil {
			t.Fatalf("%s: expected rejection when expiry is ignored", name)
		}
	}

	ok := AccessTokenClaims{UserID: userID, Role: enums.UserRoleAdmin, RegisteredClaims: jwt.RegisteredClaims{ID: "s", Subject: userID.String()}}
	claims, err := ParseAccessToken(testCfg, sign(ok))
	if err != nil {
		t.Fatalf("parse complete claims: %v", err)
	}
	if claims.SessionID() != "s" {
		t.Fatalf("expected session id s, got %q", claims.SessionID())
	}
}

func TestParseToleratesClockSkew(t *testing.T) {
	issued := time.Now().Add(-time.Duration(testCfg.ExpirationMinutes)*time.Minute - 10*time.Second)
	token, err := MintAccessToken(testCfg, issued, AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleStaff})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testCfg, token); err != nil {
		t.Fatalf("token inside the skew window should parse: %v", err)
	}

	future, err := MintAccessToken(testCfg, time.Now().Add(10*time.Second), AccessTokenPayload{UserID: uuid.New(), Role: enums.UserRoleStaff})
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if _, err := ParseAccessToken(testCfg, future); err != nil {
		t.Fatalf("token from a slightly fast clock should parse: %v", err)
	}
}
