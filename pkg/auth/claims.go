package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenClaims is the subset of the commerce API's access token the client reads.
// The token is issued and verified by the server; the client never checks the signature.
type AccessTokenClaims struct {
	UserID    any    `json:"user_id,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	jwt.RegisteredClaims
}
