package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sigmatax/console/internal/api"
	"github.com/sigmatax/console/internal/notify"
)

// returnPath reads the "return" parameter, accepting only local dashboard paths.
func returnPath(r *http.Request, fallback string) string {
	p := r.FormValue("return")
	if !strings.HasPrefix(p, "/dashboard") || strings.HasPrefix(p, "//") || strings.ContainsAny(p, "\\\r\n") {
		return fallback
	}
	return p
}

func (h *Handler) confirmPage(w http.ResponseWriter, r *http.Request, view confirmView) {
	data := h.basePage(r, view.Title)
	data.Confirm = &view
	h.render(w, r, http.StatusOK, "confirm", data)
}

// runDelete performs del after confirmation. On success the user lands on
// done; on failure the error is shown and the user goes back to where the
// dialog was opened, unless that page belongs to a record the API no longer
// has. Failed deletes are not retried.
func (h *Handler) runDelete(w http.ResponseWriter, r *http.Request, del func() error, success, done, origin string) {
	if err := del(); err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Error().Err(err).Str("path", r.URL.Path).Msg("delete failed")
		h.notify(r, "Error: "+apiMessage(err), notify.KindError)
		back := returnPath(r, origin)
		if errors.Is(err, api.ErrNotFound) && underPath(back, origin) {
			back = done
		}
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	h.notify(r, success, notify.KindSuccess)
	http.Redirect(w, r, done, http.StatusSeeOther)
}

// underPath reports whether p is base or one of its subpages.
func underPath(p, base string) bool {
	if !strings.HasPrefix(p, base) {
		return false
	}
	rest := p[len(base):]
	return rest == "" || rest[0] == '/' || rest[0] == '?'
}

func apiMessage(err error) string {
	return api.Message(err, "request failed")
}
