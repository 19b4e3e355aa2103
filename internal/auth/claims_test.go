package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-at-least-32-chars-long"

// TestGenerateAndParseToken verifies round-tripping a token.
func TestGenerateAndParseToken(t *testing.T) {
	signed, err := GenerateToken("user-1", "acme", testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := ParseToken(signed, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}
	if claims.Subject != "user-1" {
		t.Errorf("Subject = %q, want user-1", claims.Subject)
	}
	if claims.VendorID != "acme" {
		t.Errorf("VendorID = %q, want acme", claims.VendorID)
	}
}

// TestParseToken_Invalid verifies rejection paths.
func TestParseToken_Invalid(t *testing.T) {
	t.Run("wrong secret", func(t *testing.T) {
		signed, err := GenerateToken("user-1", "", testSecret, time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		if _, err := ParseToken(signed, "a-completely-different-secret-value"); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("error = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		claims := CustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   "user-1",
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		if _, err := ParseToken(signed, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("error = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		claims := CustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		if _, err := ParseToken(signed, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("error = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		// alg=none tokens must never verify.
		token := jwt.NewWithClaims(jwt.SigningMethodNone, CustomClaims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
		})
		signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		if err != nil {
			t.Fatalf("signing: %v", err)
		}
		if _, err := ParseToken(signed, testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("error = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseToken("not.a.token", testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("error = %v, want ErrTokenInvalid", err)
		}
	})

	t.Run("tampered payload", func(t *testing.T) {
		signed, err := GenerateToken("user-1", "", testSecret, time.Hour)
		if err != nil {
			t.Fatalf("GenerateToken() error = %v", err)
		}
		parts := strings.Split(signed, ".")
		parts[1] = "eyJzdWIiOiJ1c2VyLTIifQ"
		if _, err := ParseToken(strings.Join(parts, "."), testSecret); !errors.Is(err, ErrTokenInvalid) {
			t.Errorf("error = %v, want ErrTokenInvalid", err)
		}
	})
}
