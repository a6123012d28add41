package middleware

import (
	"net/http"
	"net/url"

	"todoweb/internal/core/port"

	"github.com/gin-gonic/gin"
)

type GuardOutcome int

const (
	Continue GuardOutcome = iota
	Redirect
)

// GuardResult tells RequireUser whether to run the handler or send the
// visitor elsewhere, optionally with a flash shown on the next page.
type GuardResult struct {
	Outcome  GuardOutcome
	Location string
	Flash    *port.Flash
}

type Guard func(c *gin.Context) GuardResult

func Proceed() GuardResult {
	return GuardResult{Outcome: Continue}
}

func RedirectTo(location string, flash *port.Flash) GuardResult {
	return GuardResult{Outcome: Redirect, Location: location, Flash: flash}
}

// AuthGuard lets authenticated users through and sends everyone else to the
// login page, remembering where they were going.
func AuthGuard(c *gin.Context) GuardResult {
	if CurrentUser(c) != nil {
		return Proceed()
	}

	location := "/login?next=" + url.QueryEscape(c.Request.URL.RequestURI())

	return RedirectTo(location, &port.Flash{Category: "info", Message: "Please log in to access this page."})
}

// AnonymousGuard keeps signed-in users away from the login and register forms.
func AnonymousGuard(c *gin.Context) GuardResult {
	if CurrentUser(c) == nil {
		return Proceed()
	}

	return RedirectTo("/", nil)
}

func RequireUser(guard Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := guard(c)

		if result.Outcome == Continue {
			c.Next()
			return
		}

		if result.Flash != nil {
			AddFlash(c, result.Flash.Category, result.Flash.Message)
		}

		c.Redirect(http.StatusFound, result.Location)
		c.Abort()
	}
}
