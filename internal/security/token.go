package security

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenService wraps JWT creation and validation. The subject claim carries
// the user id.
type TokenService struct {
	secret    []byte
	expiresIn time.Duration
}

func NewTokenService(secret string, expiresIn time.Duration) *TokenService {
	return &TokenService{
		secret:    []byte(secret),
		expiresIn: expiresIn,
	}
}

// CreateForUser creates a JWT for the given user id using the default TTL.
func (t *TokenService) CreateForUser(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(t.expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Parse validates a token and returns the user id from its subject.
func (t *TokenService) Parse(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.secret, nil
	})
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, jwt.ErrSignatureInvalid
	}
	return subjectID(token.Claims)
}

// DecodeUnverified extracts the user id from a token without checking its
// signature or expiry. It exists only for rate-limit keying, where a
// best-effort identity hint is enough; it must never stand in for Parse.
func (t *TokenService) DecodeUnverified(tokenStr string) (int64, error) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return 0, err
	}
	return subjectID(token.Claims)
}

func subjectID(claims jwt.Claims) (int64, error) {
	sub, err := claims.GetSubject()
	if err != nil {
		return 0, jwt.ErrTokenInvalidSubject
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, jwt.ErrTokenInvalidSubject
	}
	return id, nil
}
