package http

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	httpmiddleware "github.com/sigmatax/console/internal/http/middleware"
	"github.com/sigmatax/console/internal/jobs"
	"github.com/sigmatax/console/internal/notify"
	"github.com/sigmatax/console/internal/util"
)

func jobsPath(fam jobs.Family) string {
	return "/dashboard/jobs/" + fam.Slug
}

func jobPath(fam jobs.Family, id util.ID) string {
	return jobsPath(fam) + "/" + url.PathEscape(id.String())
}

// parseFilter reads the list query. The year defaults to the current one and
// families with a default state filter on it until the user picks a status.
func parseFilter(q url.Values, fam jobs.Family, now time.Time) jobs.Filter {
	f := jobs.Filter{
		ClientName: q.Get("client_name"),
		PICName:    q.Get("pic_name"),
		Status:     q.Get("overall_status"),
		Month:      atoi(q.Get("job_month")),
		Page:       atoi(q.Get("page")),
	}
	if q.Has("job_year") {
		f.Year = atoi(q.Get("job_year"))
	} else {
		f.Year = now.Year()
	}
	if fam.DefaultState != "" && !q.Has("overall_status") {
		f.Status = fam.DefaultState
	}
	return f.Normalize(fam)
}

// pageHref links to another page of the same filtered list. The status is
// always carried so an explicit "all" survives paging.
func pageHref(fam jobs.Family, f jobs.Filter, page int) template.URL {
	q := url.Values{}
	q.Set("client_name", f.ClientName)
	q.Set("pic_name", f.PICName)
	q.Set("overall_status", f.Status)
	q.Set("job_year", strconv.Itoa(f.Year))
	if fam.HasMonth && f.Month > 0 {
		q.Set("job_month", strconv.Itoa(f.Month))
	}
	q.Set("page", strconv.Itoa(page))
	return template.URL(jobsPath(fam) + "?" + q.Encode())
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// ListJobs renders the list page of a family.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	filter := parseFilter(r.URL.Query(), fam, h.now())

	page, err := h.jobService(r).List(r.Context(), fam, filter)
	if err != nil {
		h.pageError(w, r, err, "Failed to load jobs.")
		return
	}

	data := h.jobsPage(r, fam)
	data.Filter = filter
	data.Page = page
	data.Generation = "0"
	h.render(w, r, http.StatusOK, "jobs", data)
}

// JobRows renders just the table body for a filter change. A response that
// was overtaken by a newer fetch for the same list is dropped with 204; the
// browser also ignores any X-Fetch-Generation older than its latest request.
func (h *Handler) JobRows(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	sess := httpmiddleware.GetSession(r.Context())
	filter := parseFilter(r.URL.Query(), fam, h.now())
	gen := r.URL.Query().Get("gen")

	ctx, ticket := h.fetches.Begin(r.Context(), sess.ID+":"+fam.Slug)
	defer ticket.Done()

	page, err := h.jobService(r).List(ctx, fam, filter)

	if !ticket.Current() || errors.Is(err, context.Canceled) {
		writeStale(w, gen)
		return
	}
	w.Header().Set("X-Fetch-Generation", gen)

	data := h.jobsPage(r, fam)
	data.Filter = filter
	data.Generation = gen
	if err != nil {
		if h.sessionRejected(w, r, err) {
			return
		}
		h.logger.Error().Err(err).Str("family", fam.Slug).Msg("job list fetch failed")
		data.Error = apiMessage(err)
		h.render(w, r, http.StatusBadGateway, "job_rows", data)
		return
	}
	data.Page = page
	h.render(w, r, http.StatusOK, "job_rows", data)
}

func (h *Handler) jobsPage(r *http.Request, fam jobs.Family) pageData {
	data := h.basePage(r, fam.Label)
	data.Family = fam
	data.Families = jobs.Families
	data.Statuses = jobs.Statuses
	data.Months = monthOptions()
	return data
}

// JobDetail shows a job with its reports and files.
func (h *Handler) JobDetail(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))

	job, files, err := h.jobService(r).Detail(r.Context(), fam, id)
	if err != nil {
		h.pageError(w, r, err, "Failed to load job.")
		return
	}

	data := h.basePage(r, fam.Label)
	data.Family = fam
	data.Job = &job
	data.Reports = job.Children()
	data.Files = files
	h.render(w, r, http.StatusOK, "job_detail", data)
}

// JobFiles lists the proof files of a job.
func (h *Handler) JobFiles(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))

	files, err := h.jobService(r).Files(r.Context(), fam, id)
	if err != nil {
		h.pageError(w, r, err, "Failed to load files.")
		return
	}
	data := h.basePage(r, "Files")
	data.Family = fam
	data.Job = &jobs.Job{ID: id}
	data.Files = files
	h.render(w, r, http.StatusOK, "job_files", data)
}

// ConfirmDeleteJob asks before deleting a job.
func (h *Handler) ConfirmDeleteJob(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))
	back := returnPath(r, jobPath(fam, id))
	h.confirmPage(w, r, confirmView{
		Title:   "Hapus Pekerjaan",
		Message: "Apakah Anda yakin ingin menghapus pekerjaan ini? Tindakan ini tidak dapat dibatalkan.",
		Action:  jobPath(fam, id) + "/delete?return=" + url.QueryEscape(back),
		Cancel:  back,
	})
}

// DeleteJob deletes a job. On failure the user stays where they were, or
// lands on the list when the job is already gone.
func (h *Handler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	fam := familyFrom(r)
	id := util.ID(chi.URLParam(r, "id"))
	svc := h.jobService(r)
	h.runDelete(w, r, func() error { return svc.Delete(r.Context(), fam, id) },
		"Pekerjaan berhasil dihapus!", jobsPath(fam), jobPath(fam, id))
}

func notifyKindFor(err error) notify.Kind {
	var fe util.FieldErrors
	if errors.As(err, &fe) {
		return notify.KindWarning
	}
	return notify.KindError
}
