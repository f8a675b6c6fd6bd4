package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sigmatax/console/internal/access"
	"github.com/sigmatax/console/internal/clients"
	httpmiddleware "github.com/sigmatax/console/internal/http/middleware"
	"github.com/sigmatax/console/internal/jobs"
	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/session"
	"github.com/sigmatax/console/internal/staff"
	"github.com/sigmatax/console/internal/util"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// pages rendered inside the layout
var layoutPages = []string{
	"error",
	"admin_home",
	"user_home",
	"clients",
	"client_form",
	"client_detail",
	"staffs",
	"staff_form",
	"staff_password",
	"jobs",
	"job_form",
	"job_detail",
	"job_files",
	"job_status",
	"confirm",
}

type renderer struct {
	pages map[string]*template.Template
	login *template.Template
}

func newRenderer() (*renderer, error) {
	r := &renderer{pages: make(map[string]*template.Template, len(layoutPages))}
	for _, name := range layoutPages {
		files := []string{"templates/layout.html", "templates/" + name + ".html"}
		switch name {
		case "jobs":
			files = append(files, "templates/job_rows.html")
		case "admin_home", "user_home":
			files = append(files, "templates/job_summary.html")
		}
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templatesFS, files...)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	login, err := template.New("login.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/login.html")
	if err != nil {
		return nil, fmt.Errorf("template login: %w", err)
	}
	r.login = login

	rows, err := template.New("job_rows.html").Funcs(templateFuncs).ParseFS(templatesFS, "templates/job_rows.html")
	if err != nil {
		return nil, fmt.Errorf("template job_rows: %w", err)
	}
	r.pages["job_rows"] = rows
	return r, nil
}

var templateFuncs = template.FuncMap{
	"rupiah":    formatRupiah,
	"dateOnly":  dateOnly,
	"inputDate": inputDate,
	"lower":     strings.ToLower,
	"jobsPath":  jobsPath,
	"jobPath":   jobPath,
	"pageHref":  pageHref,
	"statusClass": func(status string) string {
		switch status {
		case jobs.StatusDone:
			return "status-done"
		case jobs.StatusInProgress:
			return "status-progress"
		case jobs.StatusOnHold:
			return "status-hold"
		}
		return "status-pending"
	},
	"statusLabel": func(status string) string {
		if jobs.NotStarted(status) {
			return "Belum Dimulai"
		}
		return status
	},
	"fieldError": func(errs util.FieldErrors, field string) string {
		return errs[field]
	},
}

// pageData carries everything a template may need. Pages fill the parts they use.
type pageData struct {
	Title       string
	Nav         access.Nav
	User        *session.Session
	Perms       access.Permissions
	Toast       *notify.Notification
	CurrentPath string
	ReturnPath  string
	Error       string
	Errors      util.FieldErrors
	DebounceMS  int64
	FileBase    string
	Email       string

	Summary     *jobs.Summary
	Query       string
	Clients     []clients.Client
	Client      *clients.Client
	Obligations []clients.Obligation
	StaffList   []staff.Staff
	Member      *staff.Staff
	Roles       []string

	Family        jobs.Family
	Families      []jobs.Family
	Filter        jobs.Filter
	Page          jobs.Page
	Generation    string
	Job           *jobs.Job
	Reports       []jobs.Report
	Files         []jobs.File
	Original      string
	FormAction    string
	IsEdit        bool
	IsCorrection  bool
	Statuses      []string
	StatusTargets []string
	Corrections   []string
	SelectedState string
	Months        []monthOption
	Confirm       *confirmView
}

type monthOption struct {
	Value int
	Name  string
}

func monthOptions() []monthOption {
	out := make([]monthOption, 0, 12)
	for m := 1; m <= 12; m++ {
		out = append(out, monthOption{Value: m, Name: jobs.MonthName(m)})
	}
	return out
}

// confirmView is the generic yes/no dialog. It knows nothing about what it deletes.
type confirmView struct {
	Title   string
	Message string
	Action  string
	Cancel  string
}

// basePage fills the shell: sidebar, user, pending notification.
func (h *Handler) basePage(r *http.Request, title string) pageData {
	data := pageData{
		Title:       title,
		CurrentPath: r.URL.Path,
		DebounceMS:  h.cfg.FilterDebounce.Milliseconds(),
		FileBase:    h.cfg.FileBaseURL,
	}
	if perms, ok := access.FromContext(r.Context()); ok {
		data.Perms = perms
		data.Nav = h.guard.Nav(perms, r.URL.Path)
	}
	if sess := httpmiddleware.GetSession(r.Context()); sess != nil {
		data.User = sess
		if n, ok := h.hub.For(sess.ID).Current(); ok {
			data.Toast = &n
		}
	}
	return data
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	tmpl, ok := h.views.pages[name]
	if !ok {
		log.Error().Str("template", name).Msg("unknown template")
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}
	entry := "layout"
	if name == "job_rows" {
		entry = "rows"
	}
	h.write(w, r, status, tmpl, entry, data)
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, status int, tmpl *template.Template, entry string, data pageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, entry, data); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("template render failed")
		http.Error(w, "template render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := h.basePage(r, "Error")
	data.Error = message
	h.render(w, r, status, "error", data)
}

// formErrors splits a service error into inline field errors and a form-level message.
func formErrors(err error) (util.FieldErrors, string) {
	var fe util.FieldErrors
	if errors.As(err, &fe) {
		return fe, fe["_form"]
	}
	return nil, ""
}

func formatRupiah(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-Rp " + b.String()
	}
	return "Rp " + b.String()
}

func dateOnly(s string) string {
	if i := strings.IndexByte(s, 'T'); i > 0 {
		return s[:i]
	}
	if s == "" {
		return "-"
	}
	return s
}

// inputDate trims a timestamp down to the value a date input accepts.
func inputDate(s string) string {
	return jobs.DateOnly(s)
}
