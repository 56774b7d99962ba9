package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
)

// DefaultTokenTTL is the lifetime of an issued bearer token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// TokenIssuer is the iss claim stamped on every token.
const TokenIssuer = "authgate"

var (
	// ErrEmptySecret indicates the signer was created without a secret.
	ErrEmptySecret = errors.New("token signing secret is required")
	// ErrInvalidToken is the parent of every verification failure.
	ErrInvalidToken = errors.New("invalid token")
	// ErrTokenExpired indicates the token is past its expiry.
	ErrTokenExpired = fmt.Errorf("%w: expired", ErrInvalidToken)
	// ErrTokenMalformed indicates the token could not be parsed or verified.
	ErrTokenMalformed = fmt.Errorf("%w: malformed or tampered", ErrInvalidToken)
)

// TokenClaims are the claims embedded in a bearer token.
// UserID keeps the numeric userId payload existing clients expect.
type TokenClaims struct {
	UserID int64 `json:"userId"`
	jwt.RegisteredClaims
}

// TokenSigner mints and verifies HS256 bearer tokens.
type TokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption configures a TokenSigner.
type TokenOption func(*TokenSigner)

// WithClock overrides the time source used for issuing and verifying tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenSigner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewTokenSigner creates a TokenSigner. A non-positive ttl uses DefaultTokenTTL.
func NewTokenSigner(secret []byte, ttl time.Duration, opts ...TokenOption) (*TokenSigner, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenSigner{
		secret: append([]byte(nil), secret...),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime of issued tokens.
func (s *TokenSigner) TTL() time.Duration {
	return s.ttl
}

// Issue mints a signed token for the given user ID.
func (s *TokenSigner) Issue(userID int64) (string, error) {
	now := s.now()
	claims := TokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        ulid.Make().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning its claims.
// Every failure matches ErrInvalidToken via errors.Is.
func (s *TokenSigner) Verify(tokenString string) (*TokenClaims, error) {
	var claims TokenClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, mapJWTError(err)
	}

	if claims.UserID <= 0 {
		return nil, ErrTokenMalformed
	}

	return &claims, nil
}

// mapJWTError translates jwt library errors to auth errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenMalformed
}
