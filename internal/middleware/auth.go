package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/internal/model"
	"github.com/sodfa-app/sodfa-server/internal/repository"
)

// ClientIDHeader carries the pseudo-identity token the web client keeps in
// local storage. It is never sent to the identity provider; only used here
// as a correlation key.
const ClientIDHeader = "X-Client-ID"

type AuthMiddleware struct {
	userRepo repository.UserRepository
	secret   string
}

func NewAuthMiddleware(userRepo repository.UserRepository, secret string) *AuthMiddleware {
	return &AuthMiddleware{
		userRepo: userRepo,
		secret:   secret,
	}
}

// Identity resolves the actor for every request: a verified session token
// (durable or ephemeral) plus an optional pseudo token from the client-id
// header. Requests with no usable identity pass through unresolved; handlers
// that need one reject them with a distinguishable error.
func (m *AuthMiddleware) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := m.parseSession(c)

		pseudoToken := c.GetHeader(ClientIDHeader)
		if !identity.ValidToken(pseudoToken) {
			pseudoToken = ""
		}

		actor, err := identity.Resolve(session, pseudoToken)
		if err == nil {
			c.Set("identity", actor)
			if session != nil {
				c.Set("session", session)
			}
		}

		c.Next()
	}
}

// RequireAuth rejects requests whose bearer token is missing or invalid.
// Ephemeral guest sessions pass; use RequireAccount for durable-only routes.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, exists := c.Get("session"); !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAccount only admits durable accounts.
func (m *AuthMiddleware) RequireAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, exists := c.Get("identity")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}
		id, ok := actor.(identity.Identity)
		if !ok || id.Class != identity.ClassAuthenticated {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "account required"})
			c.Abort()
			return
		}
		c.Set("user_id", id.OwnerKey)
		c.Next()
	}
}

func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(userIDStr.(string))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user id"})
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			c.Abort()
			return
		}

		if user.Role != model.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Next()
	}
}

func (m *AuthMiddleware) parseSession(c *gin.Context) *identity.Session {
	tokenString := ""
	authHeader := c.GetHeader("Authorization")

	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
	}

	// Fallback to query parameter "token" (useful for WebSockets)
	if tokenString == "" {
		tokenString = c.Query("token")
	}

	if tokenString == "" {
		return nil
	}

	token, err := jwt.ParseWithClaims(tokenString, &identity.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})
	if err != nil || !token.Valid {
		return nil
	}

	claims, ok := token.Claims.(*identity.TokenClaims)
	if !ok {
		return nil
	}

	return claims.Session()
}
