package jwtutil

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func newTestUtil() *JWTUtil {
	return NewJWTUtil(&JWTConfig{SigningKey: "test-key", ExpirationHours: 1, Issuer: "tubex"})
}

func TestGenerateAndValidate(t *testing.T) {
	j := newTestUtil()
	userID, companyID := uuid.New(), uuid.New()

	token, err := j.GenerateToken(UserClaims{
		Email:       "owner@dealer.com",
		UserID:      userID,
		CompanyID:   companyID,
		CompanyType: "dealer",
		Role:        "admin",
	})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	claims, err := j.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != userID || claims.CompanyID != companyID {
		t.Errorf("claims mismatch: %+v", claims)
	}
	if claims.Role != "admin" || claims.CompanyType != "dealer" {
		t.Errorf("unexpected role/company type: %s/%s", claims.Role, claims.CompanyType)
	}
	if claims.Subject != userID.String() {
		t.Errorf("expected subject %s, got %s", userID, claims.Subject)
	}
}

func TestValidateToken_Expired(t *testing.T) {
	j := newTestUtil()
	j.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := j.GenerateToken(UserClaims{UserID: uuid.New(), CompanyID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}

	j.now = time.Now
	if _, err := j.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateToken_WrongKey(t *testing.T) {
	token, err := newTestUtil().GenerateToken(UserClaims{UserID: uuid.New(), CompanyID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	other := NewJWTUtil(&JWTConfig{SigningKey: "other-key", ExpirationHours: 1, Issuer: "tubex"})
	if _, err := other.ValidateToken(token); err == nil {
		t.Fatal("expected signature mismatch")
	}
}

func TestValidateToken_RejectsNoneAlgorithm(t *testing.T) {
	claims := UserClaims{UserID: uuid.New(), CompanyID: uuid.New()}
	claims.Issuer = "tubex"
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to build unsigned token: %v", err)
	}
	if _, err := newTestUtil().ValidateToken(token); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestValidateToken_MissingCompany(t *testing.T) {
	j := newTestUtil()
	token, err := j.GenerateToken(UserClaims{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	if _, err := j.ValidateToken(token); err == nil {
		t.Fatal("expected token without company to be rejected")
	}
}
