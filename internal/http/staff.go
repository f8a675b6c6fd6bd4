package http

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/staff"
	"github.com/sigmatax/console/internal/util"
)

const staffsPath = "/dashboard/staffs"

func staffPath(id util.ID) string {
	return staffsPath + "/" + url.PathEscape(id.String())
}

// ListStaff renders the staff table.
func (h *Handler) ListStaff(w http.ResponseWriter, r *http.Request) {
	list, err := h.staffService(r).List(r.Context())
	if err != nil {
		h.pageError(w, r, err, "Failed to load staff.")
		return
	}
	data := h.basePage(r, "Staffs")
	data.StaffList = list
	h.render(w, r, http.StatusOK, "staffs", data)
}

// NewStaff renders an empty staff form.
func (h *Handler) NewStaff(w http.ResponseWriter, r *http.Request) {
	h.staffForm(w, r, http.StatusOK, staff.Staff{Role: staff.RoleStaff}, nil, "")
}

// CreateStaff validates and creates a staff member with an initial password.
func (h *Handler) CreateStaff(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.staffForm(w, r, http.StatusBadRequest, staff.Staff{}, nil, "Invalid form submission.")
		return
	}
	n := staff.NewStaff{Staff: parseStaffForm(r), Password: r.PostFormValue("password")}
	if _, err := h.staffService(r).Create(r.Context(), n); err != nil {
		h.staffFormFailed(w, r, n.Staff, err)
		return
	}
	h.notify(r, "Staff added successfully!", notify.KindSuccess)
	http.Redirect(w, r, staffsPath, http.StatusSeeOther)
}

// EditStaff renders the profile form. Passwords are changed separately.
func (h *Handler) EditStaff(w http.ResponseWriter, r *http.Request) {
	st, err := h.staffService(r).Get(r.Context(), util.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.pageError(w, r, err, "Failed to load staff.")
		return
	}
	h.staffForm(w, r, http.StatusOK, st, nil, "")
}

// UpdateStaff saves name, email and role.
func (h *Handler) UpdateStaff(w http.ResponseWriter, r *http.Request) {
	id := util.ID(chi.URLParam(r, "id"))
	if err := r.ParseForm(); err != nil {
		h.staffForm(w, r, http.StatusBadRequest, staff.Staff{ID: id}, nil, "Invalid form submission.")
		return
	}
	st := parseStaffForm(r)
	st.ID = id
	if err := h.staffService(r).Update(r.Context(), id, st); err != nil {
		h.staffFormFailed(w, r, st, err)
		return
	}
	h.notify(r, "Staff updated successfully!", notify.KindSuccess)
	http.Redirect(w, r, staffsPath, http.StatusSeeOther)
}

// StaffPasswordPage renders the password change form.
func (h *Handler) StaffPasswordPage(w http.ResponseWriter, r *http.Request) {
	st, err := h.staffService(r).Get(r.Context(), util.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.pageError(w, r, err, "Failed to load staff.")
		return
	}
	h.passwordForm(w, r, http.StatusOK, st, nil, "")
}

// ChangeStaffPassword sets a new password for a staff member.
func (h *Handler) ChangeStaffPassword(w http.ResponseWriter, r *http.Request) {
	id := util.ID(chi.URLParam(r, "id"))
	st := staff.Staff{ID: id, Name: r.PostFormValue("nama")}
	err := h.staffService(r).ChangePassword(r.Context(), id, r.PostFormValue("new_password"), r.PostFormValue("confirm_password"))
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		if fe, msg := formErrors(err); fe != nil {
			h.passwordForm(w, r, http.StatusUnprocessableEntity, st, fe, msg)
			return
		}
		h.logger.Error().Err(err).Str("staff_id", id.String()).Msg("password change failed")
		h.passwordForm(w, r, http.StatusBadGateway, st, nil, "Error: "+apiMessage(err))
		return
	}
	h.notify(r, "Password updated successfully!", notify.KindSuccess)
	http.Redirect(w, r, staffsPath, http.StatusSeeOther)
}

// ConfirmDeleteStaff asks before deleting.
func (h *Handler) ConfirmDeleteStaff(w http.ResponseWriter, r *http.Request) {
	id := util.ID(chi.URLParam(r, "id"))
	h.confirmPage(w, r, confirmView{
		Title:   "Delete Staff",
		Message: "Are you sure you want to delete this staff member?",
		Action:  staffPath(id) + "/delete",
		Cancel:  staffsPath,
	})
}

// DeleteStaff removes a staff member.
func (h *Handler) DeleteStaff(w http.ResponseWriter, r *http.Request) {
	id := util.ID(chi.URLParam(r, "id"))
	svc := h.staffService(r)
	h.runDelete(w, r, func() error { return svc.Delete(r.Context(), id) },
		"Staff deleted successfully!", staffsPath, staffsPath)
}

// staffOptions lists staff for PIC selects. A failure leaves the select empty.
func (h *Handler) staffOptions(r *http.Request) []staff.Staff {
	list, err := h.staffService(r).List(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("staff options unavailable")
		return nil
	}
	return list
}

func (h *Handler) staffFormFailed(w http.ResponseWriter, r *http.Request, st staff.Staff, err error) {
	if h.sessionRejected(w, r, err) {
		return
	}
	if fe, msg := formErrors(err); fe != nil {
		h.staffForm(w, r, http.StatusUnprocessableEntity, st, fe, msg)
		return
	}
	h.logger.Error().Err(err).Msg("staff save failed")
	h.staffForm(w, r, http.StatusBadGateway, st, nil, "Error: "+apiMessage(err))
}

func (h *Handler) staffForm(w http.ResponseWriter, r *http.Request, status int, st staff.Staff, errs util.FieldErrors, msg string) {
	title := "Add Staff"
	if !st.ID.IsZero() {
		title = "Edit Staff"
	}
	data := h.basePage(r, title)
	data.Member = &st
	data.Roles = staff.Roles
	data.Errors = errs
	data.Error = msg
	data.IsEdit = !st.ID.IsZero()
	h.render(w, r, status, "staff_form", data)
}

func (h *Handler) passwordForm(w http.ResponseWriter, r *http.Request, status int, st staff.Staff, errs util.FieldErrors, msg string) {
	data := h.basePage(r, "Change Password")
	data.Member = &st
	data.Errors = errs
	data.Error = msg
	h.render(w, r, status, "staff_password", data)
}

func parseStaffForm(r *http.Request) staff.Staff {
	return staff.Staff{
		Name:  r.PostFormValue("nama"),
		Email: r.PostFormValue("email"),
		Role:  r.PostFormValue("role"),
	}
}
