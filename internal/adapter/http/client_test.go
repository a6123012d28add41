package http

import (
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	csrfPattern   = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)
	togglePattern = regexp.MustCompile(`action="/toggle/(\d+)"`)
)

// browser drives a handler the way a cookie-keeping user agent would.
type browser struct {
	t       *testing.T
	handler http.Handler
	jar     *cookiejar.Jar
	base    *url.URL
}

func newBrowser(t *testing.T, handler http.Handler) *browser {
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	base, _ := url.Parse("http://localhost")

	return &browser{t: t, handler: handler, jar: jar, base: base}
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, cookie := range b.jar.Cookies(b.base) {
		req.AddCookie(cookie)
	}

	rr := httptest.NewRecorder()
	b.handler.ServeHTTP(rr, req)

	b.jar.SetCookies(b.base, rr.Result().Cookies())

	return rr
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, "http://localhost"+path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "http://localhost"+path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return b.do(req)
}

// submit posts form to path with the CSRF token rendered on page.
func (b *browser) submit(page, path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}

	form.Set("csrf_token", b.csrfToken(page))

	return b.post(path, form)
}

func (b *browser) csrfToken(page string) string {
	rr := b.get(page)
	require.Equal(b.t, http.StatusOK, rr.Code, "GET %s", page)

	match := csrfPattern.FindStringSubmatch(rr.Body.String())
	require.Len(b.t, match, 2, "no csrf token on %s", page)

	return match[1]
}

// follow issues the GET a browser would make after a redirect.
func (b *browser) follow(rr *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	require.Equal(b.t, http.StatusFound, rr.Code)

	return b.get(rr.Header().Get("Location"))
}

func (b *browser) login(username, password string) {
	rr := b.submit("/login", "/login", url.Values{"username": {username}, "password": {password}})
	require.Equal(b.t, http.StatusFound, rr.Code)
	require.Equal(b.t, "/", rr.Header().Get("Location"))
}

func (b *browser) register(username, password string) {
	rr := b.submit("/register", "/register", url.Values{
		"username":         {username},
		"password":         {password},
		"password_confirm": {password},
	})
	require.Equal(b.t, http.StatusFound, rr.Code)
	require.Equal(b.t, "/login", rr.Header().Get("Location"))
}

func firstTodoID(body string) string {
	match := togglePattern.FindStringSubmatch(body)
	if len(match) != 2 {
		return ""
	}

	return match[1]
}
