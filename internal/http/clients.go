package http

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sigmatax/console/internal/clients"
	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/util"
)

const clientsPath = "/dashboard/clients"

func clientPath(id util.ID) string {
	return clientsPath + "/" + url.PathEscape(id.String())
}

// ListClients renders the client table, filtered by name.
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	list, err := h.clientService(r).List(r.Context(), q)
	if err != nil {
		h.pageError(w, r, err, "Failed to load clients.")
		return
	}
	data := h.basePage(r, "Clients")
	data.Query = q
	data.Clients = list
	h.render(w, r, http.StatusOK, "clients", data)
}

// NewClient renders an empty client form.
func (h *Handler) NewClient(w http.ResponseWriter, r *http.Request) {
	h.clientForm(w, r, http.StatusOK, clients.Client{MembershipStatus: clients.MembershipActive}, nil, "")
}

// CreateClient validates and creates a client.
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	c, err := parseClientForm(r)
	if err != nil {
		h.clientForm(w, r, http.StatusBadRequest, c, nil, "Invalid form submission.")
		return
	}
	created, err := h.clientService(r).Create(r.Context(), c)
	if err != nil {
		h.clientFormFailed(w, r, c, err)
		return
	}
	h.notify(r, "Client added successfully!", notify.KindSuccess)
	http.Redirect(w, r, clientPath(created.ID), http.StatusSeeOther)
}

// ClientDetail shows every stored field of a client.
func (h *Handler) ClientDetail(w http.ResponseWriter, r *http.Request) {
	c, err := h.clientService(r).Get(r.Context(), util.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.pageError(w, r, err, "Failed to load client.")
		return
	}
	data := h.basePage(r, c.Name)
	data.Client = &c
	data.Obligations = clients.Obligations
	h.render(w, r, http.StatusOK, "client_detail", data)
}

// EditClient renders the form pre-filled.
func (h *Handler) EditClient(w http.ResponseWriter, r *http.Request) {
	c, err := h.clientService(r).Get(r.Context(), util.ID(chi.URLParam(r, "id")))
	if err != nil {
		h.pageError(w, r, err, "Failed to load client.")
		return
	}
	h.clientForm(w, r, http.StatusOK, c, nil, "")
}

// UpdateClient validates and saves a client.
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	id := util.ID(chi.URLParam(r, "id"))
	c, err := parseClientForm(r)
	c.ID = id
	if err != nil {
		h.clientForm(w, r, http.StatusBadRequest, c, nil, "Invalid form submission.")
		return
	}
	if _, err := h.clientService(r).Update(r.Context(), id, c); err != nil {
		h.clientFormFailed(w, r, c, err)
		return
	}
	h.notify(r, "Client updated successfully!", notify.KindSuccess)
	http.Redirect(w, r, clientPath(id), http.StatusSeeOther)
}

// ConfirmDeleteClient asks before deleting.
func (h *Handler) ConfirmDeleteClient(w http.ResponseWriter, r *http.Request) {
	id := util.ID(chi.URLParam(r, "id"))
	h.confirmPage(w, r, confirmView{
		Title:   "Delete Client",
		Message: "Are you sure you want to delete this client? This cannot be undone.",
		Action:  clientPath(id) + "/delete?return=" + url.QueryEscape(returnPath(r, clientsPath)),
		Cancel:  returnPath(r, clientsPath),
	})
}

// DeleteClient removes a client.
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	id := util.ID(chi.URLParam(r, "id"))
	svc := h.clientService(r)
	h.runDelete(w, r, func() error { return svc.Delete(r.Context(), id) },
		"Client deleted successfully!", clientsPath, clientsPath)
}

func (h *Handler) clientFormFailed(w http.ResponseWriter, r *http.Request, c clients.Client, err error) {
	if h.sessionRejected(w, r, err) {
		return
	}
	if fe, msg := formErrors(err); fe != nil {
		h.clientForm(w, r, http.StatusUnprocessableEntity, c, fe, msg)
		return
	}
	h.logger.Error().Err(err).Msg("client save failed")
	h.clientForm(w, r, http.StatusBadGateway, c, nil, "Error: "+apiMessage(err))
}

func (h *Handler) clientForm(w http.ResponseWriter, r *http.Request, status int, c clients.Client, errs util.FieldErrors, msg string) {
	title := "Add Client"
	if !c.ID.IsZero() {
		title = "Edit Client"
	}
	data := h.basePage(r, title)
	data.Client = &c
	data.Obligations = clients.Obligations
	data.Errors = errs
	data.Error = msg
	data.IsEdit = !c.ID.IsZero()
	data.StaffList = h.staffOptions(r)
	h.render(w, r, status, "client_form", data)
}

func parseClientForm(r *http.Request) (clients.Client, error) {
	if err := r.ParseForm(); err != nil {
		return clients.Client{}, err
	}
	f := r.PostForm
	c := clients.Client{
		Name:              f.Get("client_name"),
		NPWP:              f.Get("npwp_client"),
		Address:           f.Get("address_client"),
		MembershipStatus:  f.Get("membership_status"),
		Phone:             f.Get("phone_client"),
		Email:             f.Get("email_client"),
		PIC:               f.Get("pic_client"),
		DJPOnlineUsername: f.Get("djp_online_username"),
		DJPOnlinePassword: f.Get("djp_online_password"),
		CoretaxUsername:   f.Get("coretax_username"),
		CoretaxPassword:   f.Get("coretax_password"),
		PICStaffID:        util.ID(strings.TrimSpace(f.Get("pic_staff_sigma_id"))),
		Category:          f.Get("client_category"),
		RegisteredDate:    f.Get("tanggal_terdaftar"),
		RegisteredDecree:  f.Get("no_sk_terdaftar"),
		PKPDate:           f.Get("tanggal_pengukuhan_pkp"),
		PKPDecree:         f.Get("no_sk_pengukuhan_pkp"),
	}
	for _, o := range clients.Obligations {
		c.Set(o.Field, f.Get(o.Field) == "on" || f.Get(o.Field) == "true")
	}
	return c, nil
}
