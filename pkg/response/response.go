package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sodfa-app/sodfa-server/internal/identity"
	"github.com/sodfa-app/sodfa-server/pkg/apperror"
)

// GetIdentity retrieves the resolved actor identity from the context.
// The identity middleware stores it under "identity" for every request
// that carries a session token or a client id.
func GetIdentity(c *gin.Context) (identity.Identity, error) {
	val, exists := c.Get("identity")
	if !exists {
		return identity.Identity{}, apperror.ErrIdentityUnavailable
	}

	id, ok := val.(identity.Identity)
	if !ok {
		return identity.Identity{}, apperror.ErrIdentityUnavailable
	}

	return id, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
