package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tejaspatil7903/backend/dto"
	"github.com/tejaspatil7903/backend/middleware"
	"github.com/tejaspatil7903/backend/services"
	"github.com/tejaspatil7903/backend/utils"
)

// POST /api/v1/users/register
func Register(accounts *services.AccountService, v *utils.FileValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.RegisterUserDTO
		if err := c.ShouldBind(&body); err != nil {
			utils.WriteError(c, utils.InvalidInput("Invalid request body", err.Error()))
			return
		}

		avatar, err := optionalImage(c, "avatar", v)
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		cover, err := optionalImage(c, "coverImage", v)
		if err != nil {
			utils.WriteError(c, err)
			return
		}

		user, err := accounts.Register(c.Request.Context(), services.RegisterRequest{
			FullName:   body.FullName,
			Email:      body.Email,
			UserName:   body.UserName,
			Password:   body.Password,
			Avatar:     avatar,
			CoverImage: cover,
		})
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusCreated, user, "User registered successfully")
	}
}

// POST /api/v1/users/login
func Login(accounts *services.AccountService, cookies SessionCookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.LoginDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.WriteError(c, utils.InvalidInput("Invalid request body", err.Error()))
			return
		}

		res, err := accounts.Login(c.Request.Context(), services.LoginRequest{
			UserName: body.UserName,
			Email:    body.Email,
			Password: body.Password,
		})
		if err != nil {
			utils.WriteError(c, err)
			return
		}

		cookies.set(c, res.TokenPair)
		utils.WriteResponse(c, http.StatusOK, res, "User logged in successfully")
	}
}

// POST /api/v1/users/refresh-token
func RefreshAccessToken(accounts *services.AccountService, cookies SessionCookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented, _ := c.Cookie(refreshTokenCookie)
		if presented == "" {
			var body dto.RefreshTokenDTO
			// an empty or non-JSON body just means no token was sent
			_ = c.ShouldBindJSON(&body)
			presented = body.RefreshToken
		}

		pair, err := accounts.Refresh(c.Request.Context(), presented)
		if err != nil {
			utils.WriteError(c, err)
			return
		}

		cookies.set(c, *pair)
		utils.WriteResponse(c, http.StatusOK, pair, "Access token refreshed")
	}
}

// POST /api/v1/users/logout
func Logout(accounts *services.AccountService, cookies SessionCookies) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := accounts.Logout(c.Request.Context(), c.GetString(middleware.UserIDKey)); err != nil {
			utils.WriteError(c, err)
			return
		}
		cookies.clear(c)
		utils.WriteResponse(c, http.StatusOK, gin.H{}, "User logged out")
	}
}

// POST /api/v1/users/change-password
func ChangePassword(accounts *services.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body dto.ChangePasswordDTO
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.WriteError(c, utils.InvalidInput("Invalid request body", err.Error()))
			return
		}

		err := accounts.ChangePassword(c.Request.Context(), c.GetString(middleware.UserIDKey), body.OldPassword, body.NewPassword)
		if err != nil {
			utils.WriteError(c, err)
			return
		}
		utils.WriteResponse(c, http.StatusOK, gin.H{}, "Password changed successfully")
	}
}

// optionalImage returns nil when the form has no such file and validates the
// file otherwise.
func optionalImage(c *gin.Context, field string, v *utils.FileValidator) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.InvalidInput("Invalid "+field+" upload", err.Error())
	}
	if v != nil {
		if _, err := v.ValidateFile(fh); err != nil {
			return nil, utils.InvalidInput("Invalid "+field+" file", err.Error())
		}
	}
	return fh, nil
}
