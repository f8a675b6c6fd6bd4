package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/sigmatax/console/internal/clients"
	"github.com/sigmatax/console/internal/jobs"
	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/reconcile"
	"github.com/sigmatax/console/internal/staff"
	"github.com/sigmatax/console/internal/util"
)

const (
	actionAddReport    = "add_report"
	actionRemoveReport = "remove_report:"
)

// jobForm is the state of a create, correction or edit form.
type jobForm struct {
	Job        jobs.Job
	Original   string
	Correction bool
	Edit       bool
	Action     string
	Errors     util.FieldErrors
	Message    string
}

// NewJob renders the create form of a family.
func (h *Handler) NewJob(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	now := h.now()
	j := jobs.Job{Year: now.Year(), Status: jobs.StatusPending}
	if fam.RequireMonth {
		j.Month = int(now.Month())
	}
	h.renderJobForm(w, r, http.StatusOK, fam, jobForm{Job: j, Action: "/dashboard/create-job/" + fam.Slug})
}

// CreateJob validates and creates a job. Nothing is sent when validation fails.
func (h *Handler) CreateJob(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	form := jobForm{Action: "/dashboard/create-job/" + fam.Slug}

	j, errs, action := parseJobForm(r, fam)
	form.Job = j
	if h.reportAction(w, r, fam, &form, action) {
		return
	}
	if len(errs) > 0 {
		h.jobFormFailed(w, r, fam, form, errs)
		return
	}

	created, err := h.jobService(r).Create(r.Context(), fam, j)
	if err != nil {
		h.jobFormFailed(w, r, fam, form, err)
		return
	}
	h.notify(r, fam.CreateMessage(), notify.KindSuccess)
	if created.ID.IsZero() {
		http.Redirect(w, r, jobsPath(fam), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, jobPath(fam, created.ID), http.StatusSeeOther)
}

// NewCorrection renders a create form seeded from the job being corrected.
func (h *Handler) NewCorrection(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))

	original, err := h.jobService(r).Get(r.Context(), fam, id)
	if err != nil {
		h.pageError(w, r, err, "Failed to load job.")
		return
	}
	h.renderJobForm(w, r, http.StatusOK, fam, jobForm{
		Job:        jobs.SeedCorrection(original),
		Correction: true,
		Action:     correctionPath(fam, id),
	})
}

// CreateCorrection creates a correction job linked to the original.
func (h *Handler) CreateCorrection(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))
	form := jobForm{Correction: true, Action: correctionPath(fam, id)}

	j, errs, action := parseJobForm(r, fam)
	j.OriginalJobID = id
	j.JobType = jobs.JobTypeCorrection
	j.ClientName = r.PostFormValue("client_name")
	form.Job = j
	if h.reportAction(w, r, fam, &form, action) {
		return
	}
	if len(errs) > 0 {
		h.jobFormFailed(w, r, fam, form, errs)
		return
	}

	created, err := h.jobService(r).CreateCorrection(r.Context(), fam, id, j, j.CorrectionType)
	if err != nil {
		h.jobFormFailed(w, r, fam, form, err)
		return
	}
	h.notify(r, "Pekerjaan koreksi berhasil dibuat!", notify.KindSuccess)
	target := jobPath(fam, created.ID)
	if created.ID.IsZero() {
		target = jobPath(fam, id)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func correctionPath(fam jobs.Family, id util.ID) string {
	return "/dashboard/create-correction/" + fam.Slug + "/" + url.PathEscape(id.String())
}

// EditJob renders the edit form. The loaded job travels with the form so the
// save can diff the reports against exactly what was shown.
func (h *Handler) EditJob(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))

	j, err := h.jobService(r).Get(r.Context(), fam, id)
	if err != nil {
		h.pageError(w, r, err, "Failed to load job.")
		return
	}
	snapshot, err := json.Marshal(j)
	if err != nil {
		h.pageError(w, r, err, "Failed to load job.")
		return
	}
	h.renderJobForm(w, r, http.StatusOK, fam, jobForm{
		Job:      j,
		Original: string(snapshot),
		Edit:     true,
		Action:   jobPath(fam, id) + "/edit",
	})
}

// UpdateJob patches the job and reconciles its reports.
func (h *Handler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))
	svc := h.jobService(r)

	current, errs, action := parseJobForm(r, fam)
	form := jobForm{Edit: true, Action: jobPath(fam, id) + "/edit", Original: r.PostFormValue("original")}

	var original jobs.Job
	if err := json.Unmarshal([]byte(form.Original), &original); err != nil || original.ID != id {
		loaded, err := svc.Get(r.Context(), fam, id)
		if err != nil {
			h.pageError(w, r, err, "Failed to load job.")
			return
		}
		original = loaded
		snapshot, _ := json.Marshal(original)
		form.Original = string(snapshot)
	}
	current.ID = id
	current.ClientID = original.ClientID
	current.ClientName = original.ClientName
	current.JobType = original.JobType
	current.OriginalJobID = original.OriginalJobID
	current.CorrectionStatus = original.CorrectionStatus
	if current.CorrectionType == "" {
		current.CorrectionType = original.CorrectionType
	}
	form.Job = current

	if h.reportAction(w, r, fam, &form, action) {
		return
	}
	if len(errs) > 0 {
		h.jobFormFailed(w, r, fam, form, errs)
		return
	}

	if err := svc.SaveEdit(r.Context(), fam, original, current); err != nil {
		var syncErr *reconcile.SyncError
		if errors.As(err, &syncErr) {
			if h.sessionRejected(w, r, err) {
				return
			}
			// some requests went through: reload what the server has now
			h.notify(r, "Error: "+syncErr.Error(), notify.KindError)
			http.Redirect(w, r, jobPath(fam, id)+"/edit", http.StatusSeeOther)
			return
		}
		h.jobFormFailed(w, r, fam, form, err)
		return
	}
	h.notify(r, "Pekerjaan berhasil diperbarui!", notify.KindSuccess)
	http.Redirect(w, r, jobPath(fam, id), http.StatusSeeOther)
}

// reportAction handles the add/remove row buttons, which only change the form.
func (h *Handler) reportAction(w http.ResponseWriter, r *http.Request, fam jobs.Family, form *jobForm, action string) bool {
	if !fam.HasReports() {
		return false
	}
	reports := form.Job.Children()
	switch {
	case action == actionAddReport:
		reports = append(reports, jobs.Report{})
	case strings.HasPrefix(action, actionRemoveReport):
		i, err := strconv.Atoi(strings.TrimPrefix(action, actionRemoveReport))
		if err != nil || i < 0 || i >= len(reports) {
			return false
		}
		reports = append(reports[:i:i], reports[i+1:]...)
	default:
		return false
	}
	setChildren(&form.Job, fam, reports)
	h.renderJobForm(w, r, http.StatusOK, fam, *form)
	return true
}

func (h *Handler) jobFormFailed(w http.ResponseWriter, r *http.Request, fam jobs.Family, form jobForm, err error) {
	if h.sessionRejected(w, r, err) {
		return
	}
	status := http.StatusUnprocessableEntity
	msg := ""
	switch {
	case errors.Is(err, jobs.ErrCorrectionCode), errors.Is(err, jobs.ErrNotCorrectable):
		msg = err.Error()
	default:
		if fe, formMsg := formErrors(err); fe != nil {
			form.Errors = fe
			msg = formMsg
			if msg == "" {
				msg = "Please fix the highlighted fields."
			}
		} else {
			h.logger.Error().Err(err).Str("family", fam.Slug).Msg("job save failed")
			status = http.StatusBadGateway
			msg = "Error: " + apiMessage(err)
		}
	}
	form.Message = msg
	h.notify(r, msg, notifyKindFor(err))
	h.renderJobForm(w, r, status, fam, form)
}

func (h *Handler) renderJobForm(w http.ResponseWriter, r *http.Request, status int, fam jobs.Family, form jobForm) {
	var title string
	switch {
	case form.Edit:
		title = "Edit " + fam.Label
	case form.Correction:
		title = "Koreksi " + fam.Label
	default:
		title = "Tambah " + fam.Label
	}

	var (
		clientList []clients.Client
		staffList  []staff.Staff
	)
	g, ctx := errgroup.WithContext(r.Context())
	if !form.Edit && !form.Correction {
		g.Go(func() error {
			list, err := h.clientService(r).List(ctx, "")
			clientList = list
			return err
		})
	}
	g.Go(func() error {
		list, err := h.staffService(r).List(ctx)
		staffList = list
		return err
	})
	if err := g.Wait(); err != nil {
		h.pageError(w, r, err, "Failed to load form options.")
		return
	}

	data := h.basePage(r, title)
	data.Family = fam
	data.Job = &form.Job
	data.Reports = form.Job.Children()
	data.Original = form.Original
	data.IsEdit = form.Edit
	data.IsCorrection = form.Correction
	data.FormAction = form.Action
	data.Errors = form.Errors
	data.Error = form.Message
	data.Clients = clientList
	data.StaffList = staffList
	data.Statuses = jobs.Statuses
	data.Months = monthOptions()
	data.Corrections = jobs.CorrectionCodes[1:]
	h.render(w, r, status, "job_form", data)
}

// parseJobForm reads a job form, including its report rows. It also returns
// the pressed row button, if any.
func parseJobForm(r *http.Request, fam jobs.Family) (jobs.Job, util.FieldErrors, string) {
	errs := util.FieldErrors{}
	if err := r.ParseForm(); err != nil {
		errs.Add("_form", "Invalid form submission.")
		return jobs.Job{}, errs, ""
	}
	f := r.PostForm

	j := jobs.Job{
		ClientID:       util.ID(strings.TrimSpace(f.Get("client_id"))),
		PICID:          util.ID(strings.TrimSpace(f.Get("assigned_pic_staff_sigma_id"))),
		Year:           atoi(f.Get("job_year")),
		Month:          atoi(f.Get("job_month")),
		Status:         strings.TrimSpace(f.Get("overall_status")),
		CorrectionType: strings.TrimSpace(f.Get("correction_type")),
	}
	if fam.SP2DK {
		j.SP2DKDetails = jobs.SP2DKDetails{
			ContractNo:   strings.TrimSpace(f.Get("contract_no")),
			ContractDate: f.Get("contract_date"),
			SP2DKNo:      strings.TrimSpace(f.Get("sp2dk_no")),
			SP2DKDate:    f.Get("sp2dk_date"),
			BAP2DKNo:     strings.TrimSpace(f.Get("bap2dk_no")),
			BAP2DKDate:   f.Get("bap2dk_date"),
			PaymentDate:  f.Get("payment_date"),
			ReportDate:   f.Get("report_date"),
		}
	}

	if fam.HasReports() {
		rows := len(f["report_row"])
		reports := make([]jobs.Report, 0, rows)
		for i := 0; i < rows; i++ {
			rep := jobs.Report{
				ID:           util.ID(strings.TrimSpace(at(f["report_id"], i))),
				TaxType:      strings.TrimSpace(at(f["tax_type"], i)),
				BillingCode:  strings.TrimSpace(at(f["billing_code"], i)),
				PaymentDate:  at(f["report_payment_date"], i),
				ReportStatus: strings.TrimSpace(at(f["report_status"], i)),
				ReportDate:   at(f["report_date_row"], i),
				IsReported:   at(f["is_reported"], i) == "true",
			}
			amount, err := parseAmount(at(f["payment_amount"], i))
			if err != nil {
				errs.Add("reports", "Payment amount must be a whole number.")
			}
			rep.PaymentAmount = amount
			reports = append(reports, rep)
		}
		setChildren(&j, fam, reports)
	}
	return j, errs, f.Get("action")
}

func setChildren(j *jobs.Job, fam jobs.Family, reports []jobs.Report) {
	j.TaxReports, j.DividendReports = nil, nil
	if fam.ReportsField == "reports" {
		j.DividendReports = reports
		return
	}
	j.TaxReports = reports
}

func at(vals []string, i int) string {
	if i < len(vals) {
		return vals[i]
	}
	return ""
}

// parseAmount accepts "1.500.000", "1,500,000" or "1500000".
func parseAmount(s string) (int64, error) {
	s = strings.NewReplacer(".", "", ",", "", " ", "", "Rp", "").Replace(strings.TrimSpace(s))
	if s == "" {
		return 0, nil
	}
	return strconv.ParseInt(s, 10, 64)
}
