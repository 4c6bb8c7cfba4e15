package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tejaspatil7903/backend/dto"
	"github.com/tejaspatil7903/backend/middleware"
	"github.com/tejaspatil7903/backend/services"
	"github.com/tejaspatil7903/backend/utils"
)

// GET /api/v1/users/current-user
func GetCurrentUser(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := accounts.CurrentUser(c.Request.Context(), c.GetString(middleware.UserIDKey))
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusOK, user, "Current user fetched successfully")
	}
}

// PATCH /api/v1/users/update-account
func UpdateAccountDetails(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.UpdateAccountDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.WriteError(c, utils.InvalidInput("Invalid request body", err.Error()))
			return
		}

		user, err := accounts.UpdateAccount(c.Request.Context(), c.GetString(middleware.UserIDKey), body.FullName, body.Email)
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusOK, user, "Account details updated successfully")
	}
}

// PATCH /api/v1/users/avatar
func UpdateUserAvatar(accounts *services.AccountService, v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := optionalImage(c, "avatar", v)
		if err != nil {
			utils.WriteError(c, err)
			return
		}

		user, err := accounts.UpdateAvatar(c.Request.Context(), c.GetString(middleware.UserIDKey), fh)
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusOK, user, "Avatar updated successfully")
	}
}

// PATCH /api/v1/users/cover-image
func UpdateUserCoverImage(accounts *services.AccountService, v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := optionalImage(c, "coverImage", v)
		if err != nil {
			utils.WriteError(c, err)
			return
		}

		user, err := accounts.UpdateCoverImage(c.Request.Context(), c.GetString(middleware.UserIDKey), fh)
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusOK, user, "Cover image updated successfully")
	}
}
