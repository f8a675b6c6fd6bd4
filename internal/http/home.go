package http

import (
	"net/http"

	"github.com/sigmatax/console/internal/jobs"
)

// AdminHome shows job totals and the most recent jobs.
func (h *Handler) AdminHome(w http.ResponseWriter, r *http.Request) {
	h.home(w, r, "Admin Home", "admin_home")
}

// UserHome is the landing page of staff and finance users. It shows the same
// overview without the management actions.
func (h *Handler) UserHome(w http.ResponseWriter, r *http.Request) {
	h.home(w, r, "User Home", "user_home")
}

func (h *Handler) home(w http.ResponseWriter, r *http.Request, title, page string) {
	summary, err := h.jobService(r).Summary(r.Context())
	if err != nil {
		h.pageError(w, r, err, "Failed to load dashboard.")
		return
	}
	data := h.basePage(r, title)
	data.Summary = &summary
	data.Statuses = jobs.Statuses
	data.Families = jobs.Families
	h.render(w, r, http.StatusOK, page, data)
}
