package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pavelkurin/portfolio_backend/internal/authz"
)

// ErrInvalidToken covers malformed tokens, signature mismatches and expiry.
// Callers never learn which of the three failed.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims is the claim set of an access token. Claims are only signed,
// not encrypted; nothing secret goes in here.
type AccessClaims struct {
	AccountID uint       `json:"account_id"`
	Role      authz.Role `json:"role"`
	Email     string     `json:"email"`
	Username  string     `json:"username"`
	jwt.RegisteredClaims
}

// ResetClaims is the claim set of a forgot-password token.
type ResetClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Signer issues and validates HMAC-SHA-512 signed tokens with a single shared
// secret. Expiry is exact: there is no clock-skew leeway and no revocation
// list, invalidation happens through expiry and the stored-token equality
// check in the session layer.
type Signer struct {
	Secret []byte
}

func NewSigner(secret []byte) *Signer { return &Signer{Secret: secret} }

func (s *Signer) IssueAccess(accountID uint, role authz.Role, email, username string, ttl time.Duration) (string, error) {
	claims := AccessClaims{
		AccountID: accountID,
		Role:      role,
		Email:     email,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.Secret)
}

func (s *Signer) IssueReset(email, username string, ttl time.Duration) (string, error) {
	claims := ResetClaims{
		Email:    email,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.Secret)
}

func (s *Signer) ValidateAccess(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, s.keyFunc)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *Signer) ValidateReset(tokenStr string) (*ResetClaims, error) {
	var claims ResetClaims
	tkn, err := jwt.ParseWithClaims(tokenStr, &claims, s.keyFunc)
	if err != nil || !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

func (s *Signer) keyFunc(t *jwt.Token) (any, error) {
	if t.Method.Alg() != jwt.SigningMethodHS512.Alg() {
		return nil, errors.New("unexpected sign method")
	}
	return s.Secret, nil
}
