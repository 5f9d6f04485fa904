package rest

import (
	"net/http"
	"time"

	"github.com/H420Prajyot/Matrix/apiserver/internal/authx"
)

// SessionCookieName is the name of the cookie that carries the opaque
// session token.
const SessionCookieName = "matrix_session"

// setSessionCookie delivers a newly minted session token to the client. The
// cookie is invisible to scripts and, when the server terminates TLS itself,
// never sent over plaintext.
func setSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(authx.SessionTTL / time.Second),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearSessionCookie instructs the client to discard its session cookie.
func clearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionTokenFromRequest extracts the opaque session token from the
// request's session cookie, returning the empty string when the cookie is
// absent or empty.
func sessionTokenFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
