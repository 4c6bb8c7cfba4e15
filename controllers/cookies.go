package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tejaspatil7903/backend/services"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

type SessionCookies struct {
	Secure        bool
	Domain        string
	AccessMaxAge  time.Duration
	RefreshMaxAge time.Duration
}

// sameSite is None for cross-site front ends. Browsers drop None cookies
// that are not Secure, so plain HTTP gets Lax.
func (sc SessionCookies) sameSite() http.SameSite {
	if sc.Secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (sc SessionCookies) set(c *gin.Context, pair services.TokenPair) {
	http.SetCookie(c.Writer, sc.cookie(accessTokenCookie, pair.AccessToken, sc.AccessMaxAge))
	http.SetCookie(c.Writer, sc.cookie(refreshTokenCookie, pair.RefreshToken, sc.RefreshMaxAge))
}

func (sc SessionCookies) clear(c *gin.Context) {
	http.SetCookie(c.Writer, sc.cookie(accessTokenCookie, "", -1))
	http.SetCookie(c.Writer, sc.cookie(refreshTokenCookie, "", -1))
}

func (sc SessionCookies) cookie(name, value string, maxAge time.Duration) *http.Cookie {
	age := int(maxAge.Seconds())
	if maxAge < 0 {
		age = -1
	}
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   sc.Domain,
		MaxAge:   age,
		HttpOnly: true,
		Secure:   sc.Secure,
		SameSite: sc.sameSite(),
	}
}
