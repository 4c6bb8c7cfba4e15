package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tejaspatil7903/backend/utils"
)

const (
	UserIDKey   = "userID"
	EmailKey    = "email"
	UserNameKey = "userName"

	AccessTokenCookie = "accessToken"
)

// VerifyJWT accepts the access token from the accessToken cookie or an
// Authorization bearer header. No database lookup is made.
func VerifyJWT(tokens *utils.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, _ := c.Cookie(AccessTokenCookie)
		if tokenStr == "" {
			header := c.GetHeader("Authorization")
			if strings.HasPrefix(header, "Bearer ") {
				tokenStr = strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			}
		}
		if tokenStr == "" {
			utils.WriteError(c, utils.Unauthorized("Unauthorized request"))
			return
		}

		claims, err := tokens.VerifyAccessToken(tokenStr)
		if err != nil {
			utils.WriteError(c, utils.InvalidToken("Invalid access token"))
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Set(EmailKey, claims.Email)
		c.Set(UserNameKey, claims.UserName)
		c.Next()
	}
}
