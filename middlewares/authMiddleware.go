package middlewares

import (
	"net/http"
	"strings"

	"bitbucket.org/flameblock/inventory_backend/config"
	"bitbucket.org/flameblock/inventory_backend/models"
	"bitbucket.org/flameblock/inventory_backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware validates the Bearer token and places the acting
// identity (user id, username, role, token) into the request context.
// Requests without an Authorization header pass through anonymous;
// handlers gate on the permission table, not on this middleware.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")

		if auth == "" {
			c.Next()
			return
		}

		bearer := "Bearer "
		if !strings.HasPrefix(auth, bearer) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}
		auth = auth[len(bearer):]

		validate, err := utils.JwtValidate(auth)
		if err != nil || !validate.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		customClaim, ok := validate.Claims.(*utils.JwtCustomClaim)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := c.Request.Context()
		ctx = utils.SetTokenInContext(ctx, auth)
		ctx = utils.SetUserIdInContext(ctx, customClaim.ID)
		ctx = utils.SetRoleInContext(ctx, customClaim.Role)

		// ledger rows record the acting username; resolve it from the
		// redis session first, then the db
		username, found, _ := config.GetRedisValue("Token:" + auth)
		if !found {
			user, err := models.GetUser(ctx, customClaim.ID)
			if err != nil {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				c.Abort()
				return
			}
			username = user.Username
		}
		ctx = utils.SetUsernameInContext(ctx, username)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
