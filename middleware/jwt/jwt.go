package jwt

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

const issuer = "streakchat"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
)

// Claims carries only what the API layer reads per request. Anything
// else about the user is loaded from the store, so tokens survive
// profile edits.
type Claims struct {
	UserName string `json:"username"`
	jwt.RegisteredClaims
}

// UserID returns the token subject.
func (c *Claims) UserID() string {
	return c.Subject
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	secret    []byte
	expireDur time.Duration
	graceDur  time.Duration
}

// NewTokenManager builds a manager. expireHours is the token lifetime;
// refreshHours is the grace window after expiry during which a token
// may still be exchanged for a fresh one.
func NewTokenManager(secret string, expireHours, refreshHours int) *TokenManager {
	return &TokenManager{
		secret:    []byte(secret),
		expireDur: time.Duration(expireHours) * time.Hour,
		graceDur:  time.Duration(refreshHours) * time.Hour,
	}
}

func (tm *TokenManager) GenerateToken(userID, username string) (string, error) {
	now := time.Now()

	claims := Claims{
		UserName: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expireDur)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) ParseToken(tokenString string) (*Claims, error) {
	claims, err := tm.parse(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshToken exchanges a token for a fresh one. The mobile client calls
// this opportunistically on launch, so a still-valid token is always
// exchangeable; an expired one only within the grace window.
func (tm *TokenManager) RefreshToken(tokenString string) (string, error) {
	claims, err := tm.parse(tokenString)
	if err != nil {
		if !errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrInvalidToken
		}
		claims, err = tm.parseExpired(tokenString)
		if err != nil {
			return "", ErrInvalidToken
		}
		if claims.ExpiresAt == nil || time.Since(claims.ExpiresAt.Time) > tm.graceDur {
			return "", ErrExpiredToken
		}
	}
	return tm.GenerateToken(claims.Subject, claims.UserName)
}

func (tm *TokenManager) parse(tokenString string, opts ...jwt.ParserOption) (*Claims, error) {
	opts = append(opts, jwt.WithIssuer(issuer))
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// parseExpired verifies signature and issuer but skips time validation,
// for reading claims out of an expired token during refresh.
func (tm *TokenManager) parseExpired(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return tm.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
