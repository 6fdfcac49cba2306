package identity

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the JWT payload issued by the auth service. Ephemeral guest
// sessions carry Anonymous=true and a generated uid; durable accounts carry
// their account id in Subject.
type TokenClaims struct {
	DisplayName string `json:"name,omitempty"`
	Anonymous   bool   `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

// Session converts verified claims into the resolver's session shape.
func (c *TokenClaims) Session() *Session {
	return &Session{
		UID:         c.Subject,
		DisplayName: c.DisplayName,
		Ephemeral:   c.Anonymous,
	}
}
