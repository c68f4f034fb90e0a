package auth

import (
	"net/http"
	"time"

	"reelops/globals"
	"reelops/models"
)

// CookiePolicy is applied to every session cookie the server sets or clears.
type CookiePolicy struct {
	Secure   bool
	SameSite http.SameSite
}

func (p CookiePolicy) setSession(w http.ResponseWriter, s models.Session) {
	c := &http.Cookie{
		Name:     globals.SessionCookieName,
		Value:    s.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	}
	if !s.ExpiresAt.IsZero() {
		c.Expires = s.ExpiresAt
		c.MaxAge = int(time.Until(s.ExpiresAt).Seconds())
	}
	http.SetCookie(w, c)
	w.Header().Set(globals.SessionHeaderName, s.Token)
}

func (p CookiePolicy) clearSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     globals.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // expires immediately
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: p.SameSite,
	})
}
