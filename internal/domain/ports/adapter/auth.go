package adapter

import "time"

type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims is the verified content of a token.
type Claims struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Kind      TokenKind `json:"token_type"`
	ExpiresAt time.Time `json:"exp"`
}

// TokenIssuer mints and verifies signed bearer tokens.
type TokenIssuer interface {
	Issue(userID, username string) (TokenPair, error)
	IssueAccess(userID, username string) (string, error)
	Parse(token string, kind TokenKind) (*Claims, error)
}

// PasswordHasher hashes and checks user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}
