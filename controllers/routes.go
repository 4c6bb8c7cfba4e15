package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tejaspatil7903/backend/middleware"
	"github.com/tejaspatil7903/backend/services"
	"github.com/tejaspatil7903/backend/utils"
	"golang.org/x/time/rate"
)

type Deps struct {
	Accounts  *services.AccountService
	Channels  *services.ChannelService
	Tokens    *utils.TokenIssuer
	Validator *utils.FileValidator
	Cookies   SessionCookies

	// Zero disables per-IP limiting on the public auth routes.
	AuthRateLimit rate.Limit
	AuthBurst     int
}

func RegisterRoutes(r gin.IRouter, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	users := r.Group("/api/v1/users")

	public := users.Group("")
	if d.AuthRateLimit > 0 {
		public.Use(middleware.RateLimitPerIP(d.AuthRateLimit, d.AuthBurst))
	}
	public.POST("/register", Register(d.Accounts, d.Validator))
	public.POST("/login", Login(d.Accounts, d.Cookies))
	public.POST("/refresh-token", RefreshAccessToken(d.Accounts, d.Cookies))

	secured := users.Group("")
	secured.Use(middleware.VerifyJWT(d.Tokens))
	{
		secured.POST("/logout", Logout(d.Accounts, d.Cookies))
		secured.POST("/change-password", ChangePassword(d.Accounts))
		secured.GET("/current-user", GetCurrentUser(d.Accounts))
		secured.PATCH("/update-account", UpdateAccountDetails(d.Accounts))
		secured.PATCH("/avatar", UpdateUserAvatar(d.Accounts, d.Validator))
		secured.PATCH("/cover-image", UpdateUserCoverImage(d.Accounts, d.Validator))

		secured.GET("/c/:userName", GetUserChannelProfile(d.Channels))
		secured.GET("/history", GetWatchHistory(d.Channels))
		secured.POST("/subscriptions/:channelId", ToggleSubscription(d.Channels))
	}
}
