package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tejaspatil7903/backend/middleware"
	"github.com/tejaspatil7903/backend/services"
	"github.com/tejaspatil7903/backend/utils"
)

// GET /api/v1/users/c/:userName
func GetUserChannelProfile(channels *services.ChannelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, err := channels.ChannelProfile(c.Request.Context(), c.Param("userName"), c.GetString(middleware.UserIDKey))
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusOK, profile, "User channel fetched successfully")
	}
}

// GET /api/v1/users/history
func GetWatchHistory(channels *services.ChannelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		history, err := channels.WatchHistory(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusOK, history, "Watch history fetched successfully")
	}
}

// POST /api/v1/users/subscriptions/:channelId
func ToggleSubscription(channels *services.ChannelService) gin.HandlerFunc {
	return func(c *gin.Context) {
		subscribed, err := channels.ToggleSubscription(c.Request.Context(), c.GetString(middleware.UserIDKey), c.Param("channelId"))
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		msg := "Unsubscribed successfully"
		if subscribed {
			msg = "Subscribed successfully"
		}
		utils.WriteResponse(c, http.StatusOK, gin.H{"subscribed": subscribed}, msg)
	}
}
