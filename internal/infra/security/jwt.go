package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"mockdata-subscription/internal/domain"
	"mockdata-subscription/internal/domain/ports/adapter"
)

var _ adapter.TokenIssuer = (*JWTIssuer)(nil)

// JWTIssuer mints HS256 access/refresh pairs.
type JWTIssuer struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewJWTIssuer(secret string, accessTTL, refreshTTL time.Duration) *JWTIssuer {
	return &JWTIssuer{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

type userClaims struct {
	Username  string `json:"username"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

func (j *JWTIssuer) Issue(userID, username string) (adapter.TokenPair, error) {
	access, err := j.mint(userID, username, adapter.TokenAccess, j.accessTTL)
	if err != nil {
		return adapter.TokenPair{}, err
	}
	refresh, err := j.mint(userID, username, adapter.TokenRefresh, j.refreshTTL)
	if err != nil {
		return adapter.TokenPair{}, err
	}
	return adapter.TokenPair{Access: access, Refresh: refresh}, nil
}

func (j *JWTIssuer) IssueAccess(userID, username string) (string, error) {
	return j.mint(userID, username, adapter.TokenAccess, j.accessTTL)
}

func (j *JWTIssuer) mint(userID, username string, kind adapter.TokenKind, ttl time.Duration) (string, error) {
	now := j.now()
	claims := userClaims{
		Username:  username,
		TokenType: string(kind),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Subject:   userID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(j.secret)
}

// Parse validates signature, expiry and token kind.
func (j *JWTIssuer) Parse(tok string, kind adapter.TokenKind) (*adapter.Claims, error) {
	claims := &userClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return j.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil || !tkn.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.Unauthorized("token expired", err)
		}
		return nil, domain.Unauthorized("invalid token", err)
	}
	if claims.TokenType != string(kind) {
		return nil, domain.Unauthorized("wrong token type")
	}
	if claims.Subject == "" {
		return nil, domain.Unauthorized("invalid token")
	}
	out := &adapter.Claims{
		UserID:   claims.Subject,
		Username: claims.Username,
		Kind:     kind,
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
