package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid = errors.New("invalid session token")
)

// Issuer mints and verifies the stateless session tokens. A token carries
// only the admin id and its issue time; staleness against the account's
// last credential change is the session guard's job, not ours.
type Issuer struct {
	secret []byte
	expiry time.Duration
}

func (i *Issuer) Mint(adminID uint) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatUint(uint64(adminID), 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify checks the signature and expiry and returns the admin id and
// issue time of the token.
func (i *Issuer) Verify(tokenString string) (uint, time.Time, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	})
	if err != nil || !parsed.Valid {
		return 0, time.Time{}, ErrTokenInvalid
	}
	if claims.Subject == "" || claims.IssuedAt == nil {
		return 0, time.Time{}, ErrTokenInvalid
	}
	adminID, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return 0, time.Time{}, ErrTokenInvalid
	}
	return uint(adminID), claims.IssuedAt.Time, nil
}

func NewIssuer(secret string, expiry time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		expiry: expiry,
	}
}
