package helper

import (
	"net/http"

	"todoweb/internal/adapter/http/middleware"
	"todoweb/internal/adapter/http/render"

	"github.com/gin-gonic/gin"
)

// Render fills the session-derived fields of page and writes the template.
// Pending flashes are consumed. Pages with a form start a session so they
// can carry a CSRF token.
func Render(c *gin.Context, status int, name string, page render.Page) {
	state := middleware.GetState(c)

	if render.HasForm(name) {
		if err := state.Ensure(); err != nil {
			c.AbortWithStatus(http.StatusInternalServerError)
			return
		}
	}

	page.User = state.User
	page.CSRFToken = state.Session.CSRFToken
	page.Flashes = state.PopFlashes()

	c.HTML(status, name, page)
}

func RedirectWithFlash(c *gin.Context, location, category, message string) {
	middleware.AddFlash(c, category, message)
	c.Redirect(http.StatusFound, location)
}

func SendError(c *gin.Context, status int, message string) {
	Render(c, status, render.ErrorPage, render.Page{
		Title:   http.StatusText(status),
		Status:  status,
		Message: message,
	})
}

func SendNotFound(c *gin.Context) {
	SendError(c, http.StatusNotFound, "The page you are looking for does not exist.")
}

func SendInternalError(c *gin.Context) {
	SendError(c, http.StatusInternalServerError, "Something went wrong on our side. Please try again later.")
}

func SendTooManyRequests(c *gin.Context) {
	SendError(c, http.StatusTooManyRequests, "Too many requests. Please slow down and try again shortly.")
}
