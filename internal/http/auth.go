package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sigmatax/console/internal/access"
	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/auth"
	"github.com/sigmatax/console/internal/session"
)

// LoginPage renders the sign-in form. Signed-in visitors go to their landing page.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	if perms, ok := access.FromContext(r.Context()); ok && perms.LandingPath() != access.LoginPath {
		http.Redirect(w, r, perms.LandingPath(), http.StatusSeeOther)
		return
	}
	data := pageData{Title: "Login", Error: r.URL.Query().Get("error")}
	h.write(w, r, http.StatusOK, h.views.login, "login.html", data)
}

// Login authenticates against the API and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.loginFailed(w, r, "", "Invalid form submission.")
		return
	}
	creds := api.Credentials{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if creds.Email == "" || creds.Password == "" {
		h.loginFailed(w, r, creds.Email, "Email and password are required.")
		return
	}

	sess, err := h.sessions.Login(r.Context(), creds)
	if err != nil {
		h.logger.Warn().Err(err).Str("email", creds.Email).Msg("login failed")
		h.loginFailed(w, r, creds.Email, loginMessage(err))
		return
	}

	landing := h.guard.Resolve(sess.Role).LandingPath()
	if landing == access.LoginPath {
		h.sessions.End(r.Context(), sess)
		h.loginFailed(w, r, creds.Email, "Your role has no access to this console.")
		return
	}

	h.setSessionCookie(w, sess)
	http.Redirect(w, r, landing, http.StatusSeeOther)
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, session.ErrExpired), errors.Is(err, auth.ErrInvalidToken):
		return "The server returned an unusable session. Please try again."
	case errors.Is(err, session.ErrProfile):
		return "Could not load your profile. Please try again."
	}
	return api.Message(err, "Login failed. Check your email and password.")
}

func (h *Handler) loginFailed(w http.ResponseWriter, r *http.Request, email, msg string) {
	data := pageData{Title: "Login", Error: msg, Email: email}
	h.write(w, r, http.StatusUnauthorized, h.views.login, "login.html", data)
}

// Logout ends the session locally and, best effort, at the API.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.cfg.SessionCookieName); err == nil && c.Value != "" {
		if err := h.sessions.Logout(r.Context(), c.Value); err != nil {
			h.logger.Error().Err(err).Msg("session delete on logout failed")
		}
		h.forget(c.Value)
	}
	h.clearSessionCookie(w)
	http.Redirect(w, r, access.LoginPath, http.StatusSeeOther)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sess *session.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		MaxAge:   int(time.Until(sess.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
