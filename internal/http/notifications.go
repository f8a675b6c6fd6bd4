package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/sigmatax/console/internal/http/middleware"
)

// CurrentNotification returns the visible notification of the session, or null.
func (h *Handler) CurrentNotification(w http.ResponseWriter, r *http.Request) {
	sess := httpmiddleware.GetSession(r.Context())
	n, ok := h.hub.For(sess.ID).Current()
	if !ok {
		WriteJSON(w, http.StatusOK, nil)
		return
	}
	WriteJSON(w, http.StatusOK, n)
}

// DismissNotification hides the notification with the given id.
func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	sess := httpmiddleware.GetSession(r.Context())
	dismissed := h.hub.For(sess.ID).Dismiss(chi.URLParam(r, "id"))
	WriteJSON(w, http.StatusOK, map[string]bool{"dismissed": dismissed})
}
