// Package auth issues and validates the access tokens guarding the API.
package auth

import (
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const (
	// Issuer is the token issuer claim.
	Issuer = "seamless"
	// AccessTokenDuration is how long an access token stays valid.
	AccessTokenDuration = 7 * 24 * time.Hour
)

// GenerateAccessToken signs a token for the given user.
func GenerateAccessToken(userID int32, email, secret string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    Issuer,
		Subject:   strconv.Itoa(int(userID)),
		Audience:  jwt.ClaimStrings{email},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenDuration)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", errors.Wrap(err, "failed to sign access token")
	}
	return signed, nil
}

// Authenticate validates a bearer token and returns the user ID it names.
func Authenticate(authHeader, secret string) (int32, error) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return 0, errors.New("missing bearer token")
	}
	raw := strings.TrimPrefix(authHeader, "Bearer ")
	if raw == "" {
		return 0, errors.New("missing bearer token")
	}

	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return 0, errors.Wrap(err, "invalid access token")
	}
	if !token.Valid {
		return 0, errors.New("invalid access token")
	}

	userID, err := strconv.Atoi(claims.Subject)
	if err != nil {
		return 0, errors.Wrap(err, "invalid subject claim")
	}
	return int32(userID), nil
}

// HashPassword hashes a password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, "failed to hash password")
	}
	return string(hash), nil
}

// VerifyPassword checks a password against its stored hash.
func VerifyPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
